package callqueue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dialbook/platform/pkg/logging"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestWorkerProcessesJob(t *testing.T) {
	q := NewMemoryQueue(8)
	var processed atomic.Int64

	w := NewWorker(q, func(ctx context.Context, job *Job) error {
		processed.Add(1)
		return nil
	}, logging.New("error"), WithPollWait(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	if _, err := q.Enqueue(ctx, testJob(1)); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	waitFor(t, time.Second, func() bool { return processed.Load() == 1 })
	waitFor(t, time.Second, func() bool { return q.CompletedCount() == 1 })

	cancel()
	w.Wait()
}

func TestWorkerRetriesThenSucceeds(t *testing.T) {
	q := NewMemoryQueue(8)
	var calls atomic.Int64

	w := NewWorker(q, func(ctx context.Context, job *Job) error {
		if calls.Add(1) < 3 {
			return errors.New("transient")
		}
		return nil
	}, logging.New("error"),
		WithPollWait(10*time.Millisecond),
		WithBackoffBase(5*time.Millisecond),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	if _, err := q.Enqueue(ctx, testJob(2)); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool { return q.CompletedCount() == 1 })
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
	if q.FailedCount() != 0 {
		t.Fatalf("expected no failed jobs, got %d", q.FailedCount())
	}

	cancel()
	w.Wait()
}

func TestWorkerExhaustsRetries(t *testing.T) {
	q := NewMemoryQueue(8)
	var calls atomic.Int64

	w := NewWorker(q, func(ctx context.Context, job *Job) error {
		calls.Add(1)
		return errors.New("permanent")
	}, logging.New("error"),
		WithPollWait(10*time.Millisecond),
		WithBackoffBase(5*time.Millisecond),
		WithMaxAttempts(3),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	if _, err := q.Enqueue(ctx, testJob(3)); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool { return q.FailedCount() == 1 })
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", got)
	}

	// The name is free again once the job is retired.
	enqueued, err := q.Enqueue(ctx, testJob(3))
	if err != nil || !enqueued {
		t.Fatalf("expected re-enqueue after failure, enqueued=%v err=%v", enqueued, err)
	}

	cancel()
	w.Wait()
}

func TestMemoryQueueDeduplicates(t *testing.T) {
	q := NewMemoryQueue(8)
	ctx := context.Background()

	first, err := q.Enqueue(ctx, testJob(5))
	if err != nil || !first {
		t.Fatalf("first enqueue: enqueued=%v err=%v", first, err)
	}
	second, err := q.Enqueue(ctx, testJob(5))
	if err != nil {
		t.Fatalf("second enqueue: %v", err)
	}
	if second {
		t.Fatal("expected duplicate to be dropped")
	}
}
