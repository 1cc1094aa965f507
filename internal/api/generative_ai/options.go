package generativeAI

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sony/gobreaker/v2"

	"github.com/FACorreiaa/go-poi-walks/app/observability/metrics"
)

// Options tune the caching and circuit breaking around the model calls.
type Options struct {
	EmbeddingDim     int
	CacheTTL         time.Duration
	FailureThreshold uint32
	BreakerTimeout   time.Duration
}

func (o Options) withDefaults() Options {
	if o.CacheTTL <= 0 {
		o.CacheTTL = 30 * time.Minute
	}
	if o.FailureThreshold == 0 {
		o.FailureThreshold = 5
	}
	if o.BreakerTimeout <= 0 {
		o.BreakerTimeout = 30 * time.Second
	}
	return o
}

func newCache(o Options) *cache.Cache {
	return cache.New(o.CacheTTL, 2*o.CacheTTL)
}

// newBreaker opens after FailureThreshold consecutive failures and lets a
// single probe through after BreakerTimeout. Cancelled requests do not count.
func newBreaker[T any](name string, o Options, logger *slog.Logger) *gobreaker.CircuitBreaker[T] {
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     o.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= o.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled)
		},
	})
}

func recordLLMError(ctx context.Context) {
	metrics.Get().LLMErrorsTotal.Add(ctx, 1)
}
