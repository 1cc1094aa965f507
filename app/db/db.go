package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	uuid "github.com/vgarvardt/pgx-google-uuid/v5"

	"github.com/FACorreiaa/go-poi-walks/config"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const defaultRetries = 5

type DatabaseConfig struct {
	ConnectionURL string
}

// Pinger is satisfied by *pgxpool.Pool and by pgxmock pools.
type Pinger interface {
	Ping(ctx context.Context) error
}

// WaitForDB pings with a linearly growing pause until the database answers,
// the attempts run out or ctx is done.
func WaitForDB(ctx context.Context, db Pinger, logger *slog.Logger) bool {
	return waitForDB(ctx, db, logger, defaultRetries, 200*time.Millisecond)
}

func waitForDB(ctx context.Context, db Pinger, logger *slog.Logger, retries int, step time.Duration) bool {
	for attempt := 1; attempt <= retries; attempt++ {
		err := db.Ping(ctx)
		if err == nil {
			logger.InfoContext(ctx, "Database is reachable", slog.Int("attempt", attempt))
			return true
		}
		if attempt == retries {
			logger.ErrorContext(ctx, "Database unreachable, giving up",
				slog.Int("attempts", retries), slog.Any("error", err))
			return false
		}

		pause := time.Duration(attempt) * step
		logger.WarnContext(ctx, "Database ping failed",
			slog.Int("attempt", attempt),
			slog.Duration("retry_in", pause),
			slog.Any("error", err))
		select {
		case <-ctx.Done():
			return false
		case <-time.After(pause):
		}
	}
	return false
}

// Querier is satisfied by *pgxpool.Pool and by pgxmock pools.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CountSearchablePlaces reports how many places carry an embedding and can
// therefore be returned by the similarity search. Zero is logged as a
// warning: every walk request will end in the no-match answer until places
// are ingested.
func CountSearchablePlaces(ctx context.Context, db Querier, logger *slog.Logger) (int, error) {
	var n int
	err := db.QueryRow(ctx, `SELECT count(*) FROM places WHERE embedding IS NOT NULL`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count searchable places: %w", err)
	}
	if n == 0 {
		logger.WarnContext(ctx, "No searchable places yet, run scripts/fill_places or POST /api/v1/admin/places")
	} else {
		logger.InfoContext(ctx, "Searchable places available", slog.Int("count", n))
	}
	return n, nil
}

// RunMigrations applies the embedded migrations: the places table with its
// pgvector index and the walk interaction log.
func RunMigrations(databaseURL string, logger *slog.Logger) error {
	u, err := url.Parse(databaseURL)
	if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
		return errors.New("migrations need a postgres:// or postgresql:// url")
	}

	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Warn("Closing migrate failed", slog.Any("source_error", srcErr), slog.Any("db_error", dbErr))
		}
	}()

	upErr := m.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}

	version, dirty, err := m.Version()
	if err != nil {
		logger.Warn("Migration version unknown", slog.Any("error", err))
		return nil
	}
	if dirty {
		return fmt.Errorf("migration %d left the schema dirty", version)
	}
	logger.Info("Schema up to date",
		slog.Uint64("version", uint64(version)),
		slog.Bool("changed", upErr == nil))
	return nil
}

// NewDatabaseConfig builds the connection URL from the postgres section.
func NewDatabaseConfig(cfg *config.Config, logger *slog.Logger) (*DatabaseConfig, error) {
	if cfg == nil || cfg.Repositories.Postgres.Host == "" {
		return nil, errors.New("postgres configuration is missing or invalid")
	}
	pg := cfg.Repositories.Postgres

	sslMode := pg.SSLMODE
	if sslMode == "" {
		sslMode = "disable"
	}
	query := url.Values{}
	query.Set("sslmode", sslMode)
	query.Set("timezone", "utc")
	if pg.MAXCONWAITINGTIME > 0 {
		query.Set("connect_timeout", fmt.Sprint(pg.MAXCONWAITINGTIME))
	}

	connURL := url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(pg.Username, pg.Password),
		Host:     fmt.Sprintf("%s:%s", pg.Host, pg.Port),
		Path:     pg.DB,
		RawQuery: query.Encode(),
	}

	logger.Info("Database connection URL generated", slog.String("host", connURL.Host), slog.String("database", connURL.Path))
	return &DatabaseConfig{ConnectionURL: connURL.String()}, nil
}

// Init creates the pool and registers the google/uuid codec on every
// connection.
func Init(ctx context.Context, connectionURL string, logger *slog.Logger) (*pgxpool.Pool, error) {
	logger.Info("Initializing database connection pool...")
	cfg, err := pgxpool.ParseConfig(connectionURL)
	if err != nil {
		return nil, fmt.Errorf("failed parsing db config: %w", err)
	}

	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		uuid.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed creating db pool: %w", err)
	}

	logger.Info("Database connection pool initialized")
	return pool, nil
}
