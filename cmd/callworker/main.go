package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/dialbook/platform/internal/app/bootstrap"
	"github.com/dialbook/platform/internal/appointments"
	"github.com/dialbook/platform/internal/callqueue"
	"github.com/dialbook/platform/internal/calls"
	appconfig "github.com/dialbook/platform/internal/config"
	"github.com/dialbook/platform/internal/observability/metrics"
	"github.com/dialbook/platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	// The in-memory queue lives inside the API process; a standalone worker
	// could never see its jobs.
	if cfg.UseMemoryQueue {
		logger.Error("callworker requires the Redis queue, unset USE_MEMORY_QUEUE")
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient == nil {
		logger.Error("redis is required for the call worker")
		os.Exit(1)
	}
	defer func() { _ = redisClient.Close() }()

	queue := callqueue.NewRedisQueue(redisClient)
	states := bootstrap.BuildStateStore(cfg, redisClient)
	dialer := bootstrap.BuildDialer(cfg, states, logger)
	bookingMetrics := metrics.NewBookingMetrics(nil)

	processor := calls.NewProcessor(
		appointments.NewPostgresRepository(pool),
		calls.NewPostgresLogRepository(pool),
		states,
		dialer,
		bookingMetrics,
		logger,
		cfg.CallTimeout,
	)

	worker := callqueue.NewWorker(queue, processor.Process, logger,
		callqueue.WithConcurrency(cfg.CallConcurrency),
		callqueue.WithMaxAttempts(cfg.QueueMaxAttempts),
		callqueue.WithBackoffBase(cfg.QueueBackoffBase),
		callqueue.WithMetrics(bookingMetrics),
	)
	worker.Start(ctx)
	logger.Info("call worker started", "concurrency", cfg.CallConcurrency)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down call worker...")
	cancel()

	doneCtx, doneCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer doneCancel()

	waitCh := make(chan struct{})
	go func() {
		worker.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Info("call worker stopped")
	case <-doneCtx.Done():
		logger.Error("call worker shutdown timed out", "error", doneCtx.Err())
	}
}
