package callqueue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestQueue(t *testing.T) (*RedisQueue, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisQueue(rdb), rdb
}

func testJob(appointmentID int64) CallJob {
	return CallJob{
		AppointmentID: appointmentID,
		ProviderPhone: "+15551234567",
		ProviderName:  "Smile Dental Clinic",
		ServiceType:   "dentist",
	}
}

func TestRedisQueueEnqueueDequeue(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	enqueued, err := q.Enqueue(ctx, testJob(42))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if !enqueued {
		t.Fatal("expected first enqueue to be accepted")
	}

	job, err := q.Dequeue(ctx, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if job == nil {
		t.Fatal("expected a job")
	}
	if job.Name != "call-42" {
		t.Fatalf("job name: got %q, want %q", job.Name, "call-42")
	}
	if job.Attempt != 1 {
		t.Fatalf("attempt: got %d, want 1", job.Attempt)
	}
	if job.Data.ProviderName != "Smile Dental Clinic" {
		t.Fatalf("payload lost: %+v", job.Data)
	}
}

func TestRedisQueueDeduplicates(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	first, err := q.Enqueue(ctx, testJob(7))
	if err != nil || !first {
		t.Fatalf("first enqueue: enqueued=%v err=%v", first, err)
	}
	second, err := q.Enqueue(ctx, testJob(7))
	if err != nil {
		t.Fatalf("second enqueue: %v", err)
	}
	if second {
		t.Fatal("expected duplicate enqueue to be a no-op")
	}

	job, err := q.Dequeue(ctx, 100*time.Millisecond)
	if err != nil || job == nil {
		t.Fatalf("dequeue: job=%v err=%v", job, err)
	}
	if more, _ := q.Dequeue(ctx, 50*time.Millisecond); more != nil {
		t.Fatalf("expected single active job, got second: %+v", more)
	}
}

func TestRedisQueueNameFreedAfterCompletion(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	if _, err := q.Enqueue(ctx, testJob(9)); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	job, _ := q.Dequeue(ctx, 100*time.Millisecond)
	if err := q.Complete(ctx, job); err != nil {
		t.Fatalf("complete: %v", err)
	}

	again, err := q.Enqueue(ctx, testJob(9))
	if err != nil {
		t.Fatalf("re-enqueue: %v", err)
	}
	if !again {
		t.Fatal("expected name to be free after completion")
	}
}

func TestRedisQueueRetryRedeliversAfterDelay(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	if _, err := q.Enqueue(ctx, testJob(3)); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	job, _ := q.Dequeue(ctx, 100*time.Millisecond)

	if err := q.Retry(ctx, job, 30*time.Millisecond); err != nil {
		t.Fatalf("retry: %v", err)
	}

	// Not yet due.
	if early, _ := q.Dequeue(ctx, 10*time.Millisecond); early != nil {
		t.Fatalf("job delivered before backoff elapsed: %+v", early)
	}

	time.Sleep(40 * time.Millisecond)
	redelivered, err := q.Dequeue(ctx, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("dequeue after delay: %v", err)
	}
	if redelivered == nil {
		t.Fatal("expected redelivery after backoff")
	}
	if redelivered.Attempt != 2 {
		t.Fatalf("attempt: got %d, want 2", redelivered.Attempt)
	}
	if redelivered.ID != job.ID {
		t.Fatalf("retry changed job identity: %q vs %q", redelivered.ID, job.ID)
	}
}

func TestRedisQueueRetentionCaps(t *testing.T) {
	q, rdb := newTestQueue(t)
	ctx := context.Background()

	for i := 0; i < failedKeep+10; i++ {
		job := &Job{
			ID:      fmt.Sprintf("job-%d", i),
			Name:    JobName(int64(i)),
			Attempt: 3,
			Data:    testJob(int64(i)),
		}
		if err := q.Fail(ctx, job, "call failed"); err != nil {
			t.Fatalf("fail: %v", err)
		}
	}

	n, err := rdb.LLen(ctx, q.prefix+"failed").Result()
	if err != nil {
		t.Fatalf("llen: %v", err)
	}
	if n != failedKeep {
		t.Fatalf("failed retention: got %d, want %d", n, failedKeep)
	}
}
