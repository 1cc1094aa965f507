package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/FACorreiaa/go-poi-walks/app/db"
	"github.com/FACorreiaa/go-poi-walks/config"
	generativeAI "github.com/FACorreiaa/go-poi-walks/internal/api/generative_ai"
	"github.com/FACorreiaa/go-poi-walks/internal/api/places"
	"github.com/FACorreiaa/go-poi-walks/internal/api/recents"
	"github.com/FACorreiaa/go-poi-walks/internal/api/walk"
	"github.com/FACorreiaa/go-poi-walks/internal/planner"
)

// Container holds the wired application dependencies.
type Container struct {
	Config         *config.Config
	Logger         *slog.Logger
	Pool           *pgxpool.Pool
	Optimizer      *planner.Optimizer
	WalkHandler    *walk.Handler
	PlacesHandler  *places.Handler
	PlacesService  *places.ServiceImpl
	RecentsHandler *recents.Handler
}

// NewContainer wires repositories, services and handlers on top of an
// already initialised pool.
func NewContainer(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) (*Container, error) {
	client, err := generativeAI.NewAIClient(ctx, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.EmbeddingModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI client: %w", err)
	}
	return newContainer(ctx, cfg, pool, client, logger), nil
}

func newContainer(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, client generativeAI.LLMClient, logger *slog.Logger) *Container {
	opts := generativeAI.Options{
		EmbeddingDim:     cfg.LLM.EmbeddingDim,
		CacheTTL:         cfg.LLM.CacheTTL,
		FailureThreshold: cfg.LLM.Breaker.FailureThreshold,
		BreakerTimeout:   cfg.LLM.Breaker.Timeout,
	}
	embedder := generativeAI.NewEmbedder(client, opts, logger)
	explainer := generativeAI.NewExplainer(client, opts, logger)

	optimizer := NewOptimizer(ctx, cfg, logger)

	// walk
	walkRepo := walk.NewRepository(pool, logger)
	walkService := walk.NewService(walkRepo, embedder, explainer, optimizer, walk.Settings{
		TopK:                 cfg.Search.TopK,
		BudgetMinutesPerUnit: cfg.BudgetMinutesPerUnit(),
		MaxConcurrency:       cfg.LLM.MaxConcurrency,
	}, logger)
	walkHandler := walk.NewHandler(walkService, logger)

	// places
	placesRepo := places.NewRepository(pool, logger)
	placesService := places.NewService(placesRepo, embedder, cfg.Assets.MatrixDim, cfg.LLM.MaxConcurrency, logger)
	placesHandler := places.NewHandler(placesService, logger)

	// recent walks
	recentsRepo := recents.NewRepository(pool, logger)
	recentsHandler := recents.NewHandler(recents.NewService(recentsRepo, logger), logger)

	return &Container{
		Config:         cfg,
		Logger:         logger,
		Pool:           pool,
		Optimizer:      optimizer,
		WalkHandler:    walkHandler,
		PlacesHandler:  placesHandler,
		PlacesService:  placesService,
		RecentsHandler: recentsHandler,
	}
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}
