package metrics

import (
	"context"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	WalkRequestsTotal      metric.Int64Counter
	WalkNoMatchTotal       metric.Int64Counter
	PlanDurationSeconds    metric.Float64Histogram
	ItineraryStops         metric.Int64Histogram
	InvalidCandidatesTotal metric.Int64Counter
	AssetFallbacksTotal    metric.Int64Counter
	PlacesIngestedTotal    metric.Int64Counter
	LLMErrorsTotal         metric.Int64Counter
	DbQueryDurationSeconds metric.Float64Histogram
	DbQueryErrorsTotal     metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics creates the instruments once, from the global MeterProvider.
// Without a configured provider the instruments are no-ops, which is what
// tests get.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("go-poi-walks")
		m := &AppMetrics{}

		m.WalkRequestsTotal = mustCounter(meter, "walk_requests_total",
			"Total number of walk requests completed", "{request}")
		m.WalkNoMatchTotal = mustCounter(meter, "walk_no_match_total",
			"Walk requests for which no itinerary fit the budget", "{request}")
		m.PlanDurationSeconds = mustHistogram(meter, "walk_plan_duration_seconds",
			"Time spent searching for an itinerary", "s")

		var err error
		m.ItineraryStops, err = meter.Int64Histogram(
			"walk_itinerary_stops",
			metric.WithDescription("Number of stops in returned itineraries"),
			metric.WithUnit("{stop}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create walk_itinerary_stops: %v", err)
		}

		m.InvalidCandidatesTotal = mustCounter(meter, "walk_invalid_candidates_total",
			"Candidates excluded from planning because they failed validation", "{candidate}")
		m.AssetFallbacksTotal = mustCounter(meter, "asset_fallbacks_total",
			"Assets replaced by zero tables at startup", "{asset}")
		m.PlacesIngestedTotal = mustCounter(meter, "places_ingested_total",
			"Places embedded and stored", "{place}")
		m.LLMErrorsTotal = mustCounter(meter, "llm_errors_total",
			"Failed embedding or generation calls", "{error}")
		m.DbQueryDurationSeconds = mustHistogram(meter, "db_query_duration_seconds",
			"Duration of database queries in seconds", "s")
		m.DbQueryErrorsTotal = mustCounter(meter, "db_query_errors_total",
			"Total number of database query errors", "{error}")

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the instruments, initialising them on first use.
func Get() *AppMetrics {
	if appMetrics == nil {
		InitAppMetrics()
	}
	return appMetrics
}

// ObserveQuery starts timing a query; the returned func records its duration
// and, on error, counts it.
func ObserveQuery(ctx context.Context, name string) func(error) {
	start := time.Now()
	attrs := metric.WithAttributes(attribute.String("query", name))
	return func(err error) {
		m := Get()
		m.DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
		if err != nil {
			m.DbQueryErrorsTotal.Add(ctx, 1, attrs)
		}
	}
}

func mustCounter(meter metric.Meter, name, desc, unit string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return c
}

func mustHistogram(meter metric.Meter, name, desc, unit string) metric.Float64Histogram {
	h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return h
}
