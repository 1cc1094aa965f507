package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	database "github.com/FACorreiaa/go-poi-walks/app/db"
	"github.com/FACorreiaa/go-poi-walks/config"
	"github.com/FACorreiaa/go-poi-walks/internal/api/places"
	"github.com/FACorreiaa/go-poi-walks/internal/container"
)

// fill_places loads the places CSV (id;title;description;coordinate), embeds
// every row and upserts it into the places table.
func main() {
	file := flag.String("file", "assets/places.csv", "semicolon separated places file")
	batch := flag.Int("batch", 100, "places embedded and written per transaction")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *file, err)
	}
	rows, err := places.ParseCSV(f)
	f.Close()
	if err != nil {
		log.Fatalf("Failed to parse %s: %v", *file, err)
	}
	logger.Info("Parsed places file", slog.String("file", *file), slog.Int("rows", len(rows)))

	dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
	if err != nil {
		log.Fatalf("Failed to generate database config: %v", err)
	}
	if err := database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	pool, err := database.Init(ctx, dbConfig.ConnectionURL, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if !database.WaitForDB(ctx, pool, logger) {
		pool.Close()
		log.Fatal("Database not ready")
	}

	c, err := container.NewContainer(ctx, &cfg, pool, logger)
	if err != nil {
		pool.Close()
		log.Fatalf("Failed to build container: %v", err)
	}
	defer c.Close()

	size := max(*batch, 1)
	total := 0
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		resp, err := c.PlacesService.IngestPlaces(ctx, rows[start:end])
		if err != nil {
			logger.Error("Failed to ingest batch",
				slog.Int("from", start), slog.Int("to", end), slog.Any("error", err))
			os.Exit(1)
		}
		total += resp.Ingested
		logger.Info("Batch ingested", slog.Int("from", start), slog.Int("to", end))
	}

	logger.Info("Places loaded", slog.Int("total", total))
}
