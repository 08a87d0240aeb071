package main

import (
	"context"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	appconfig "github.com/dialbook/platform/internal/config"
	"github.com/dialbook/platform/internal/providers"
	"github.com/dialbook/platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := providers.NewPostgresRepository(pool)
	inserted, err := repo.Seed(ctx, providers.SeedProviders())
	if err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}
	if inserted == 0 {
		logger.Info("providers already present, nothing to do")
		return
	}
	logger.Info("providers seeded", "count", inserted)
}
