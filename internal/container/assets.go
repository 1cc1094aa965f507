package container

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/FACorreiaa/go-poi-walks/app/observability/metrics"
	"github.com/FACorreiaa/go-poi-walks/config"
	"github.com/FACorreiaa/go-poi-walks/internal/planner"
)

// NewOptimizer loads the travel and dwell tables named in cfg and builds the
// planner around them. A missing or malformed table never stops the service:
// the zero-filled default is used and the fallback is logged and counted.
func NewOptimizer(ctx context.Context, cfg *config.Config, logger *slog.Logger) *planner.Optimizer {
	dim := cfg.Assets.MatrixDim

	travel, err := planner.LoadTravelTimes(cfg.Assets.TravelTimesPath, dim)
	reportAssetFallback(ctx, err, logger)

	dwell, err := planner.LoadDwellTimes(cfg.Assets.DwellTimesPath, travel.Dim())
	reportAssetFallback(ctx, err, logger)

	origin, err := planner.NewOriginEstimator(cfg.Planner.OriginEstimator, cfg.Planner.MetersPerMinute)
	if err != nil {
		logger.WarnContext(ctx, "Falling back to the planar origin estimator", slog.Any("error", err))
		origin = planner.NewPlanarEstimator(cfg.Planner.MetersPerMinute)
	}

	tieBreak := planner.TieBreak(cfg.Planner.TieBreak)
	if tieBreak != "" && !tieBreak.Valid() {
		logger.WarnContext(ctx, "Unknown tie-break rule, keeping the first arrangement found",
			slog.String("tie_break", cfg.Planner.TieBreak))
		tieBreak = planner.TieBreakFirstFound
	}

	optimizer := planner.NewOptimizer(travel, dwell, origin, planner.Config{
		MaxStops: cfg.Planner.MaxStops,
		MaxShift: cfg.Planner.MaxShift,
		Slack:    cfg.Planner.SlackMinutes,
		TieBreak: tieBreak,
	})

	effective := optimizer.Config()
	logger.InfoContext(ctx, "Planner ready",
		slog.Int("matrix_dim", travel.Dim()),
		slog.Int("max_stops", effective.MaxStops),
		slog.Int("max_shift", effective.MaxShift),
		slog.Float64("slack_minutes", effective.Slack),
		slog.String("origin_estimator", cfg.Planner.OriginEstimator),
		slog.String("tie_break", string(effective.TieBreak)))
	return optimizer
}

func reportAssetFallback(ctx context.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}
	var assetErr *planner.AssetLoadError
	if !errors.As(err, &assetErr) {
		logger.WarnContext(ctx, "Unexpected asset error", slog.Any("error", err))
		return
	}
	logger.WarnContext(ctx, "Asset unavailable, using zero-filled default",
		slog.String("asset", assetErr.Asset),
		slog.String("path", assetErr.Path),
		slog.Any("error", assetErr.Err))
	metrics.Get().AssetFallbacksTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("asset", assetErr.Asset)))
}
