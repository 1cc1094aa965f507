package recents

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-poi-walks/app/observability/metrics"
	"github.com/FACorreiaa/go-poi-walks/internal/types"
)

// DB is satisfied by *pgxpool.Pool and by pgxmock pools.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	GetRecentWalks(ctx context.Context, limit int) ([]types.WalkInteraction, error)
}

type RepositoryImpl struct {
	db     DB
	logger *slog.Logger
}

func NewRepository(db DB, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		db:     db,
		logger: logger,
	}
}

const recentWalksQuery = `
        SELECT
            id, prompt, budget_minutes, latitude, longitude,
            place_ids, explanations, walking_time, score, found,
            latency_ms, created_at
        FROM walk_interactions
        ORDER BY created_at DESC
        LIMIT $1`

// GetRecentWalks fetches the latest served walks, newest first.
func (r *RepositoryImpl) GetRecentWalks(ctx context.Context, limit int) ([]types.WalkInteraction, error) {
	ctx, span := otel.Tracer("RecentsRepository").Start(ctx, "GetRecentWalks", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.Int("limit", limit),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "GetRecentWalks"))
	done := metrics.ObserveQuery(ctx, "recent_walks")

	rows, err := r.db.Query(ctx, recentWalksQuery, limit)
	if err != nil {
		done(err)
		l.ErrorContext(ctx, "Failed to query recent walks", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database query failed")
		return nil, fmt.Errorf("failed to query recent walks: %w", err)
	}
	defer rows.Close()

	walks := []types.WalkInteraction{}
	for rows.Next() {
		var w types.WalkInteraction
		err := rows.Scan(
			&w.ID, &w.Prompt, &w.BudgetMinutes, &w.Latitude, &w.Longitude,
			&w.PlaceIDs, &w.Explanations, &w.WalkingTime, &w.Score, &w.Found,
			&w.LatencyMs, &w.CreatedAt,
		)
		if err != nil {
			done(err)
			l.ErrorContext(ctx, "Failed to scan walk row", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "Scan failed")
			return nil, fmt.Errorf("failed to scan walk row: %w", err)
		}
		walks = append(walks, w)
	}
	if err := rows.Err(); err != nil {
		done(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Row iteration failed")
		return nil, fmt.Errorf("error iterating walk rows: %w", err)
	}
	done(nil)

	span.SetAttributes(attribute.Int("results.count", len(walks)))
	span.SetStatus(codes.Ok, "Recent walks retrieved")
	return walks, nil
}
