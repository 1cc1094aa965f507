package generativeAI

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/patrickmn/go-cache"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Embedder turns text into vectors comparable with the stored place
// embeddings.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
}

type EmbedderImpl struct {
	client  LLMClient
	opts    Options
	cache   *cache.Cache
	breaker *gobreaker.CircuitBreaker[[]float32]
	logger  *slog.Logger
}

var _ Embedder = (*EmbedderImpl)(nil)

func NewEmbedder(client LLMClient, opts Options, logger *slog.Logger) *EmbedderImpl {
	opts = opts.withDefaults()
	return &EmbedderImpl{
		client:  client,
		opts:    opts,
		cache:   newCache(opts),
		breaker: newBreaker[[]float32]("gemini-embed", opts, logger),
		logger:  logger,
	}
}

// EmbedQuery embeds a user request. Results are memoised per text.
func (e *EmbedderImpl) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, text, TaskRetrievalQuery)
}

// EmbedDocument embeds a place for storage.
func (e *EmbedderImpl) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, text, TaskRetrievalDocument)
}

func (e *EmbedderImpl) embed(ctx context.Context, text, taskType string) ([]float32, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "Embed")
	defer span.End()
	span.SetAttributes(attribute.String("task_type", taskType))

	key := taskType + ":" + text
	if cached, found := e.cache.Get(key); found {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		span.SetStatus(codes.Ok, "Embedding served from cache")
		return cached.([]float32), nil
	}

	vec, err := e.breaker.Execute(func() ([]float32, error) {
		return e.client.EmbedContent(ctx, text, taskType, e.opts.EmbeddingDim)
	})
	if err != nil {
		recordLLMError(ctx)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Embedding failed")
		e.logger.ErrorContext(ctx, "Failed to embed text", slog.String("task_type", taskType), slog.Any("error", err))
		return nil, fmt.Errorf("embed %s: %w", taskType, err)
	}
	if e.opts.EmbeddingDim > 0 && len(vec) != e.opts.EmbeddingDim {
		err = fmt.Errorf("embed %s: got %d dimensions, want %d", taskType, len(vec), e.opts.EmbeddingDim)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Unexpected embedding size")
		return nil, err
	}

	e.cache.Set(key, vec, cache.DefaultExpiration)
	span.SetStatus(codes.Ok, "Text embedded")
	return vec, nil
}
