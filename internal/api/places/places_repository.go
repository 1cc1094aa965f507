package places

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

	"github.com/FACorreiaa/go-poi-walks/internal/api"
	"github.com/FACorreiaa/go-poi-walks/internal/types"
)

// DB is satisfied by *pgxpool.Pool and by pgxmock pools.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// EmbeddedPlace is a place together with its document embedding.
type EmbeddedPlace struct {
	Place     types.PlaceInput
	Embedding []float32
}

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	// UpsertPlaces stores all places in one transaction, replacing rows with
	// the same id.
	UpsertPlaces(ctx context.Context, places []EmbeddedPlace) error
}

type RepositoryImpl struct {
	logger *slog.Logger
	db     DB
}

func NewRepository(db DB, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{logger: logger, db: db}
}

const upsertPlaceQuery = `
        INSERT INTO places (id, title, description, latitude, longitude, embedding)
        VALUES ($1, $2, $3, $4, $5, $6::vector)
        ON CONFLICT (id) DO UPDATE SET
            title = EXCLUDED.title,
            description = EXCLUDED.description,
            latitude = EXCLUDED.latitude,
            longitude = EXCLUDED.longitude,
            embedding = EXCLUDED.embedding,
            updated_at = now()`

func (r *RepositoryImpl) UpsertPlaces(ctx context.Context, places []EmbeddedPlace) (err error) {
	ctx, span := otel.Tracer("PlacesRepository").Start(ctx, "UpsertPlaces", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.Int("places.count", len(places)),
	))
	defer span.End()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Begin failed")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				r.logger.WarnContext(ctx, "Rollback failed", slog.Any("error", rbErr))
			}
		}
	}()

	for _, p := range places {
		_, err = tx.Exec(ctx, upsertPlaceQuery,
			p.Place.ID, p.Place.Title, p.Place.Description,
			p.Place.Latitude, p.Place.Longitude, api.FormatVector(p.Embedding))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Upsert failed")
			return fmt.Errorf("failed to upsert place %d: %w", p.Place.ID, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Commit failed")
		return fmt.Errorf("failed to commit places: %w", err)
	}

	span.SetStatus(codes.Ok, "Places upserted")
	return nil
}
