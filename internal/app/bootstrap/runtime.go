package bootstrap

import (
	"context"
	"crypto/tls"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/dialbook/platform/internal/callqueue"
	"github.com/dialbook/platform/internal/calls"
	appconfig "github.com/dialbook/platform/internal/config"
	"github.com/dialbook/platform/pkg/logging"
)

// ErrRedisRequired indicates a component that cannot run on the in-memory
// fallbacks was started without a reachable Redis.
var ErrRedisRequired = errors.New("bootstrap: redis connection required")

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildQueue selects the call queue implementation: the in-process queue in
// dev mode, the Redis-backed one otherwise.
func BuildQueue(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) (callqueue.Queue, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg != nil && cfg.UseMemoryQueue {
		logger.Info("using in-memory call queue")
		return callqueue.NewMemoryQueue(64), nil
	}
	if redisClient == nil {
		return nil, ErrRedisRequired
	}
	return callqueue.NewRedisQueue(redisClient), nil
}

// BuildStateStore returns the Redis-backed call state store, or nil when no
// Redis is available. The store is a best-effort cache; callers tolerate nil.
func BuildStateStore(cfg *appconfig.Config, redisClient *redis.Client) *calls.StateStore {
	if redisClient == nil {
		return nil
	}
	return calls.NewStateStore(redisClient, cfg.CallStateTTL)
}

// BuildDialer returns the dialer used by the call worker. Only the simulated
// implementation exists today.
func BuildDialer(cfg *appconfig.Config, states *calls.StateStore, logger *logging.Logger) calls.Dialer {
	return calls.NewSimulatedDialer(cfg.SimulatedCallDuration, states, logger)
}
