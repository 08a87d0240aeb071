package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/dialbook/platform/internal/callqueue"
	appconfig "github.com/dialbook/platform/internal/config"
	"github.com/dialbook/platform/pkg/logging"
)

func TestBuildRedisClientVerified(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &appconfig.Config{RedisAddr: mr.Addr()}

	client := BuildRedisClient(context.Background(), cfg, logging.New("error"), true)
	if client == nil {
		t.Fatal("expected a client for a reachable redis")
	}
	_ = client.Close()
}

func TestBuildRedisClientUnreachable(t *testing.T) {
	cfg := &appconfig.Config{RedisAddr: "127.0.0.1:1"}

	if client := BuildRedisClient(context.Background(), cfg, logging.New("error"), true); client != nil {
		t.Fatal("expected nil client when the ping fails")
	}
}

func TestBuildRedisClientDisabled(t *testing.T) {
	if client := BuildRedisClient(context.Background(), &appconfig.Config{}, nil, false); client != nil {
		t.Fatal("expected nil client without an address")
	}
}

func TestBuildQueueMemory(t *testing.T) {
	cfg := &appconfig.Config{UseMemoryQueue: true}

	q, err := BuildQueue(cfg, nil, logging.New("error"))
	if err != nil {
		t.Fatalf("build queue: %v", err)
	}
	if _, ok := q.(*callqueue.MemoryQueue); !ok {
		t.Fatalf("expected memory queue, got %T", q)
	}
}

func TestBuildQueueRequiresRedis(t *testing.T) {
	if _, err := BuildQueue(&appconfig.Config{}, nil, logging.New("error")); !errors.Is(err, ErrRedisRequired) {
		t.Fatalf("got %v, want ErrRedisRequired", err)
	}
}

func TestBuildStateStore(t *testing.T) {
	if store := BuildStateStore(&appconfig.Config{CallStateTTL: time.Minute}, nil); store != nil {
		t.Fatal("expected nil store without redis")
	}

	mr := miniredis.RunT(t)
	cfg := &appconfig.Config{RedisAddr: mr.Addr(), CallStateTTL: time.Minute}
	client := BuildRedisClient(context.Background(), cfg, nil, false)
	t.Cleanup(func() { _ = client.Close() })

	if store := BuildStateStore(cfg, client); store == nil {
		t.Fatal("expected a state store")
	}
}
