package places

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/go-poi-walks/app/observability/metrics"
	generativeAI "github.com/FACorreiaa/go-poi-walks/internal/api/generative_ai"
	"github.com/FACorreiaa/go-poi-walks/internal/types"
	"github.com/FACorreiaa/go-poi-walks/internal/validation"
)

var ErrInvalidPlace = errors.New("invalid place")

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	IngestPlaces(ctx context.Context, places []types.PlaceInput) (*types.IngestPlacesResponse, error)
}

type ServiceImpl struct {
	repo        Repository
	embedder    generativeAI.Embedder
	matrixDim   int
	concurrency int
	logger      *slog.Logger
}

// NewService returns a service that accepts place ids in [0, matrixDim).
func NewService(repo Repository, embedder generativeAI.Embedder, matrixDim, concurrency int, logger *slog.Logger) *ServiceImpl {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &ServiceImpl{
		repo:        repo,
		embedder:    embedder,
		matrixDim:   matrixDim,
		concurrency: concurrency,
		logger:      logger,
	}
}

// IngestPlaces embeds "title description" for every place and upserts them
// all or none.
func (s *ServiceImpl) IngestPlaces(ctx context.Context, places []types.PlaceInput) (*types.IngestPlacesResponse, error) {
	ctx, span := otel.Tracer("PlacesService").Start(ctx, "IngestPlaces")
	defer span.End()
	span.SetAttributes(attribute.Int("places.count", len(places)))

	if err := s.check(places); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid places")
		return nil, err
	}

	embedded := make([]EmbeddedPlace, len(places))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, p := range places {
		g.Go(func() error {
			vec, err := s.embedder.EmbedDocument(gctx, p.Title+" "+p.Description)
			if err != nil {
				return fmt.Errorf("embed place %d: %w", p.ID, err)
			}
			embedded[i] = EmbeddedPlace{Place: p, Embedding: vec}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Embedding failed")
		return nil, err
	}

	if err := s.repo.UpsertPlaces(ctx, embedded); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Upsert failed")
		return nil, err
	}

	ids := make([]int, len(places))
	for i, p := range places {
		ids[i] = p.ID
	}
	metrics.Get().PlacesIngestedTotal.Add(ctx, int64(len(places)))
	s.logger.InfoContext(ctx, "Places ingested", slog.Int("count", len(places)))
	span.SetStatus(codes.Ok, "Places ingested")
	return &types.IngestPlacesResponse{Ingested: len(places), IDs: ids}, nil
}

func (s *ServiceImpl) check(places []types.PlaceInput) error {
	if len(places) == 0 {
		return fmt.Errorf("%w: no places given", ErrInvalidPlace)
	}
	seen := make(map[int]struct{}, len(places))
	for _, p := range places {
		if verr := validation.ValidateStruct(p); verr != nil {
			return fmt.Errorf("%w: place %d: %s", ErrInvalidPlace, p.ID, verr.Error())
		}
		if s.matrixDim > 0 && p.ID >= s.matrixDim {
			return fmt.Errorf("%w: place %d: id must be below %d", ErrInvalidPlace, p.ID, s.matrixDim)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: place %d appears more than once", ErrInvalidPlace, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}
