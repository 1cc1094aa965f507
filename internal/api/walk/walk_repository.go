package walk

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-poi-walks/app/observability/metrics"
	"github.com/FACorreiaa/go-poi-walks/internal/api"
	"github.com/FACorreiaa/go-poi-walks/internal/planner"
	"github.com/FACorreiaa/go-poi-walks/internal/types"
)

// DB is satisfied by *pgxpool.Pool and by pgxmock pools.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	// FindSimilarPlaces returns up to limit places ordered by cosine
	// similarity to embedding, best first. Score is 1 - cosine distance.
	FindSimilarPlaces(ctx context.Context, embedding []float32, limit int) ([]planner.Candidate, error)
	SaveWalkInteraction(ctx context.Context, interaction types.WalkInteraction) (uuid.UUID, error)
}

type RepositoryImpl struct {
	logger *slog.Logger
	db     DB
}

func NewRepository(db DB, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		db:     db,
	}
}

const findSimilarPlacesQuery = `
        SELECT
            id,
            title,
            description,
            1 - (embedding <=> $1::vector) AS score,
            latitude,
            longitude
        FROM places
        WHERE embedding IS NOT NULL
        ORDER BY embedding <=> $1::vector
        LIMIT $2`

func (r *RepositoryImpl) FindSimilarPlaces(ctx context.Context, embedding []float32, limit int) ([]planner.Candidate, error) {
	ctx, span := otel.Tracer("WalkRepository").Start(ctx, "FindSimilarPlaces", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.Int("embedding.dimension", len(embedding)),
		attribute.Int("limit", limit),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "FindSimilarPlaces"))
	done := metrics.ObserveQuery(ctx, "find_similar_places")

	rows, err := r.db.Query(ctx, findSimilarPlacesQuery, api.FormatVector(embedding), limit)
	if err != nil {
		done(err)
		l.ErrorContext(ctx, "Failed to query similar places", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database query failed")
		return nil, fmt.Errorf("failed to search similar places: %w", err)
	}
	defer rows.Close()

	var places []planner.Candidate
	for rows.Next() {
		var p planner.Candidate
		var score float64
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &score, &p.Latitude, &p.Longitude); err != nil {
			done(err)
			l.ErrorContext(ctx, "Failed to scan similar place row", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "Scan failed")
			return nil, fmt.Errorf("failed to scan similar place row: %w", err)
		}
		p.Score = &score
		places = append(places, p)
	}
	if err := rows.Err(); err != nil {
		done(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Row iteration failed")
		return nil, fmt.Errorf("error iterating similar place rows: %w", err)
	}
	done(nil)

	l.DebugContext(ctx, "Similar places found", slog.Int("count", len(places)))
	span.SetAttributes(attribute.Int("results.count", len(places)))
	span.SetStatus(codes.Ok, "Similar places found")
	return places, nil
}

const insertWalkInteractionQuery = `
        INSERT INTO walk_interactions (
            id, prompt, budget_minutes, latitude, longitude,
            place_ids, explanations, walking_time, score, found, latency_ms
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

func (r *RepositoryImpl) SaveWalkInteraction(ctx context.Context, in types.WalkInteraction) (uuid.UUID, error) {
	ctx, span := otel.Tracer("WalkRepository").Start(ctx, "SaveWalkInteraction", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.Int("places.count", len(in.PlaceIDs)),
	))
	defer span.End()

	id := in.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	placeIDs := in.PlaceIDs
	if placeIDs == nil {
		placeIDs = []int32{}
	}
	explanations := in.Explanations
	if explanations == nil {
		explanations = []string{}
	}

	done := metrics.ObserveQuery(ctx, "insert_walk_interaction")
	_, err := r.db.Exec(ctx, insertWalkInteractionQuery,
		id, in.Prompt, in.BudgetMinutes, in.Latitude, in.Longitude,
		placeIDs, explanations, in.WalkingTime, in.Score, in.Found, in.LatencyMs,
	)
	done(err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Insert failed")
		return uuid.Nil, fmt.Errorf("failed to save walk interaction: %w", err)
	}

	span.SetAttributes(attribute.String("interaction.id", id.String()))
	span.SetStatus(codes.Ok, "Walk interaction saved")
	return id, nil
}
