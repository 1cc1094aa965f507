package generativeAI

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/patrickmn/go-cache"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-poi-walks/internal/planner"
)

// Explainer writes a short note on why a place answers the user's request.
type Explainer interface {
	Explain(ctx context.Context, prompt string, place planner.Candidate) (string, error)
}

type ExplainerImpl struct {
	client  LLMClient
	cache   *cache.Cache
	breaker *gobreaker.CircuitBreaker[string]
	logger  *slog.Logger
}

var _ Explainer = (*ExplainerImpl)(nil)

func NewExplainer(client LLMClient, opts Options, logger *slog.Logger) *ExplainerImpl {
	opts = opts.withDefaults()
	return &ExplainerImpl{
		client:  client,
		cache:   newCache(opts),
		breaker: newBreaker[string]("gemini-generate", opts, logger),
		logger:  logger,
	}
}

func (e *ExplainerImpl) Explain(ctx context.Context, prompt string, place planner.Candidate) (string, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "Explain")
	defer span.End()
	span.SetAttributes(attribute.Int("place.id", place.ID))

	key := strconv.Itoa(place.ID) + ":" + prompt
	if cached, found := e.cache.Get(key); found {
		span.SetStatus(codes.Ok, "Explanation served from cache")
		return cached.(string), nil
	}

	text, err := e.breaker.Execute(func() (string, error) {
		return e.client.GenerateContent(ctx, ExplanationPrompt(prompt, place), explanationConfig())
	})
	if err != nil {
		recordLLMError(ctx)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Explanation failed")
		e.logger.ErrorContext(ctx, "Failed to generate explanation", slog.Int("place_id", place.ID), slog.Any("error", err))
		return "", fmt.Errorf("explain place %d: %w", place.ID, err)
	}

	text = strings.TrimSpace(text)
	e.cache.Set(key, text, cache.DefaultExpiration)
	span.SetStatus(codes.Ok, "Explanation generated")
	return text, nil
}

// ExplanationPrompt asks for a short, polite note that ties the place's own
// description to the user's request.
func ExplanationPrompt(request string, place planner.Candidate) string {
	var b strings.Builder
	b.WriteString("Answer as briefly as possible. ")
	fmt.Fprintf(&b, "Explain why the chosen place (%s) fits the user's request, addressing the user politely. ", place.Title)
	fmt.Fprintf(&b, "User request: %s. ", request)
	fmt.Fprintf(&b, "Use facts from the description of the chosen place: %s. ", place.Description)
	b.WriteString(`Format: speak to the user directly and use phrases such as "For your request" or "Based on your preferences".`)
	return b.String()
}

func explanationConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.3),
		MaxOutputTokens: 256,
	}
}
