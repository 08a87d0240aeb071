package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dialbook/platform/internal/api/router"
	"github.com/dialbook/platform/internal/app/bootstrap"
	"github.com/dialbook/platform/internal/appointments"
	"github.com/dialbook/platform/internal/callqueue"
	"github.com/dialbook/platform/internal/calls"
	appconfig "github.com/dialbook/platform/internal/config"
	"github.com/dialbook/platform/internal/http/handlers"
	"github.com/dialbook/platform/internal/observability/metrics"
	"github.com/dialbook/platform/internal/providers"
	"github.com/dialbook/platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting dialbook API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := prometheus.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(registry)

	// Repositories: Postgres when DATABASE_URL is set, in-memory otherwise.
	var (
		apptRepo     appointments.Repository
		providerRepo providers.Repository
		logRepo      calls.LogRepository
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		apptRepo = appointments.NewPostgresRepository(pool)
		providerRepo = providers.NewPostgresRepository(pool)
		logRepo = calls.NewPostgresLogRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory repositories")
		apptRepo = appointments.NewMemoryRepository()
		providerRepo = providers.NewMemoryRepository(providers.SeedProviders())
		logRepo = calls.NewMemoryLogRepository()
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	queue, err := bootstrap.BuildQueue(cfg, redisClient, logger)
	if err != nil {
		logger.Error("failed to build call queue", "error", err)
		os.Exit(1)
	}

	svc := appointments.NewService(apptRepo, providerRepo, queue, bookingMetrics, logger)

	// Dev mode runs the call worker inside the API process so a single binary
	// serves the whole flow.
	if cfg.UseMemoryQueue {
		states := bootstrap.BuildStateStore(cfg, redisClient)
		dialer := bootstrap.BuildDialer(cfg, states, logger)
		processor := calls.NewProcessor(apptRepo, logRepo, states, dialer, bookingMetrics, logger, cfg.CallTimeout)
		worker := callqueue.NewWorker(queue, processor.Process, logger,
			callqueue.WithConcurrency(cfg.CallConcurrency),
			callqueue.WithMaxAttempts(cfg.QueueMaxAttempts),
			callqueue.WithBackoffBase(cfg.QueueBackoffBase),
			callqueue.WithMetrics(bookingMetrics),
		)
		worker.Start(ctx)
		defer worker.Wait()
		logger.Info("inline call worker started", "concurrency", cfg.CallConcurrency)
	}

	r := router.New(&router.Config{
		Logger:             logger,
		Appointments:       handlers.NewAppointmentsHandler(svc, logRepo, logger),
		Health:             handlers.NewHealthHandler(),
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
