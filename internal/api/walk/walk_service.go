package walk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/go-poi-walks/app/observability/metrics"
	generativeAI "github.com/FACorreiaa/go-poi-walks/internal/api/generative_ai"
	"github.com/FACorreiaa/go-poi-walks/internal/planner"
	"github.com/FACorreiaa/go-poi-walks/internal/types"
)

var (
	ErrEmbeddingFailed   = errors.New("failed to embed walk request")
	ErrSearchFailed      = errors.New("failed to search places")
	ErrExplanationFailed = errors.New("failed to explain itinerary")
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	PlanWalk(ctx context.Context, req types.WalkRequest) (*types.WalkResponse, error)
}

// Settings are the request-level knobs of the walk service.
type Settings struct {
	TopK                 int
	BudgetMinutesPerUnit float64
	MaxConcurrency       int
}

type ServiceImpl struct {
	repo      Repository
	embedder  generativeAI.Embedder
	explainer generativeAI.Explainer
	optimizer *planner.Optimizer
	settings  Settings
	logger    *slog.Logger
	metrics   *metrics.AppMetrics
}

func NewService(
	repo Repository,
	embedder generativeAI.Embedder,
	explainer generativeAI.Explainer,
	optimizer *planner.Optimizer,
	settings Settings,
	logger *slog.Logger,
) *ServiceImpl {
	if settings.TopK <= 0 {
		settings.TopK = 10
	}
	if settings.BudgetMinutesPerUnit <= 0 {
		settings.BudgetMinutesPerUnit = 60
	}
	if settings.MaxConcurrency <= 0 {
		settings.MaxConcurrency = 1
	}
	return &ServiceImpl{
		repo:      repo,
		embedder:  embedder,
		explainer: explainer,
		optimizer: optimizer,
		settings:  settings,
		logger:    logger,
		metrics:   metrics.Get(),
	}
}

// PlanWalk embeds the request, fetches the most similar places, picks the
// best itinerary within the budget and explains each stop. A request that no
// itinerary fits is not an error: the response carries NoMatchMessage.
func (s *ServiceImpl) PlanWalk(ctx context.Context, req types.WalkRequest) (*types.WalkResponse, error) {
	ctx, span := otel.Tracer("WalkService").Start(ctx, "PlanWalk")
	defer span.End()

	start := time.Now()
	l := s.logger.With(slog.String("method", "PlanWalk"))

	origin := planner.Point{}
	if req.Latitude != nil {
		origin.Lat = *req.Latitude
	}
	if req.Longitude != nil {
		origin.Lon = *req.Longitude
	}
	budget := float64(req.TimeForWalk) * s.settings.BudgetMinutesPerUnit
	span.SetAttributes(
		attribute.Int("prompt.length", len(req.Prompt)),
		attribute.Float64("budget.minutes", budget),
	)

	embedding, err := s.embedder.EmbedQuery(ctx, req.Prompt)
	if err != nil {
		s.fail(ctx, span, "embedding", err)
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
	}

	candidates, err := s.repo.FindSimilarPlaces(ctx, embedding, s.settings.TopK)
	if err != nil {
		s.fail(ctx, span, "search", err)
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}
	span.SetAttributes(attribute.Int("candidates.count", len(candidates)))

	planStart := time.Now()
	result, err := s.optimizer.Plan(ctx, candidates, budget, origin)
	s.metrics.PlanDurationSeconds.Record(ctx, time.Since(planStart).Seconds())
	if err != nil {
		s.fail(ctx, span, "cancelled", err)
		return nil, fmt.Errorf("plan walk: %w", err)
	}

	for _, rejected := range result.Rejected {
		l.WarnContext(ctx, "Candidate excluded from planning",
			slog.Int("place_id", rejected.ID),
			slog.Any("error", rejected))
	}
	if n := len(result.Rejected); n > 0 {
		s.metrics.InvalidCandidatesTotal.Add(ctx, int64(n))
	}

	interaction := types.WalkInteraction{
		Prompt:        req.Prompt,
		BudgetMinutes: budget,
		Latitude:      origin.Lat,
		Longitude:     origin.Lon,
		Found:         result.Found,
	}

	if !result.Found {
		l.InfoContext(ctx, "No itinerary fits the budget",
			slog.Int("candidates", len(candidates)),
			slog.Float64("budget_minutes", budget))
		s.metrics.WalkNoMatchTotal.Add(ctx, 1)
		s.metrics.WalkRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "no_match")))

		resp := &types.WalkResponse{
			BudgetMinutes: budget,
			WalkingPath:   []types.PlaceResponse{},
			Explanation:   []string{types.NoMatchMessage},
		}
		interaction.Explanations = resp.Explanation
		s.saveInteraction(ctx, interaction, start)
		span.SetStatus(codes.Ok, "No itinerary found")
		return resp, nil
	}

	explanations, err := s.explain(ctx, req.Prompt, result.Itinerary.Stops)
	if err != nil {
		s.fail(ctx, span, "explanation", err)
		return nil, fmt.Errorf("%w: %w", ErrExplanationFailed, err)
	}

	walkingTime := int(math.Ceil(result.Itinerary.Duration))
	path := make([]types.PlaceResponse, len(result.Itinerary.Stops))
	ids := make([]int32, len(result.Itinerary.Stops))
	for i, stop := range result.Itinerary.Stops {
		path[i] = toPlaceResponse(stop)
		ids[i] = int32(stop.ID)
	}

	interaction.PlaceIDs = ids
	interaction.Explanations = explanations
	interaction.WalkingTime = &walkingTime
	interaction.Score = result.Itinerary.Score
	s.saveInteraction(ctx, interaction, start)

	s.metrics.ItineraryStops.Record(ctx, int64(len(path)))
	s.metrics.WalkRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "found")))
	span.SetAttributes(
		attribute.Int("itinerary.stops", len(path)),
		attribute.Float64("itinerary.score", result.Itinerary.Score),
		attribute.Float64("itinerary.duration", result.Itinerary.Duration),
	)
	span.SetStatus(codes.Ok, "Itinerary planned")

	l.InfoContext(ctx, "Walk planned",
		slog.Any("place_ids", result.Itinerary.IDs()),
		slog.Int("walking_time", walkingTime),
		slog.Float64("budget_minutes", budget))

	return &types.WalkResponse{
		WalkingTime:   &walkingTime,
		BudgetMinutes: budget,
		WalkingPath:   path,
		Explanation:   explanations,
	}, nil
}

// explain asks for one explanation per stop, at most MaxConcurrency at a
// time. The result keeps the order of stops.
func (s *ServiceImpl) explain(ctx context.Context, prompt string, stops []planner.Candidate) ([]string, error) {
	out := make([]string, len(stops))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.settings.MaxConcurrency)
	for i, stop := range stops {
		g.Go(func() error {
			text, err := s.explainer.Explain(gctx, prompt, stop)
			if err != nil {
				return err
			}
			out[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// saveInteraction is best effort: a failed insert is logged, the walk is
// still returned.
func (s *ServiceImpl) saveInteraction(ctx context.Context, in types.WalkInteraction, start time.Time) {
	in.LatencyMs = int(time.Since(start).Milliseconds())
	id, err := s.repo.SaveWalkInteraction(ctx, in)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to save walk interaction", slog.Any("error", err))
		return
	}
	s.logger.DebugContext(ctx, "Walk interaction saved", slog.String("interaction_id", id.String()))
}

func (s *ServiceImpl) fail(ctx context.Context, span trace.Span, stage string, err error) {
	span.RecordError(err)
	s.metrics.WalkRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "error_"+stage)))
	span.SetStatus(codes.Error, "Walk planning failed at "+stage)
}

func toPlaceResponse(c planner.Candidate) types.PlaceResponse {
	return types.PlaceResponse{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Score:       c.Score,
		Latitude:    c.Latitude,
		Longitude:   c.Longitude,
	}
}
