package callqueue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryQueue is a Queue backed by a buffered channel, for dev mode and
// tests. Delayed redelivery uses timers instead of a delayed set.
type MemoryQueue struct {
	ch chan *Job

	mu        sync.Mutex
	active    map[string]string // job name -> job ID
	completed []*Job
	failed    []*Job
}

// NewMemoryQueue creates a MemoryQueue with the provided buffer capacity.
func NewMemoryQueue(buffer int) *MemoryQueue {
	if buffer <= 0 {
		buffer = 128
	}
	return &MemoryQueue{
		ch:     make(chan *Job, buffer),
		active: make(map[string]string),
	}
}

// Enqueue adds a job unless its name is already active.
func (q *MemoryQueue) Enqueue(ctx context.Context, data CallJob) (bool, error) {
	name := JobName(data.AppointmentID)

	q.mu.Lock()
	if _, exists := q.active[name]; exists {
		q.mu.Unlock()
		return false, nil
	}
	job := &Job{
		ID:      uuid.NewString(),
		Name:    name,
		Attempt: 1,
		Data:    data,
	}
	q.active[name] = job.ID
	q.mu.Unlock()

	select {
	case q.ch <- job:
		return true, nil
	case <-ctx.Done():
		q.release(name)
		return false, ctx.Err()
	}
}

// Dequeue blocks until a job is available, wait elapses, or ctx is done.
func (q *MemoryQueue) Dequeue(ctx context.Context, wait time.Duration) (*Job, error) {
	if wait <= 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case job := <-q.ch:
			return job, nil
		}
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, nil
	case job := <-q.ch:
		return job, nil
	}
}

// Retry redelivers the job after delay with an incremented attempt count.
func (q *MemoryQueue) Retry(_ context.Context, job *Job, delay time.Duration) error {
	next := &Job{
		ID:      job.ID,
		Name:    job.Name,
		Attempt: job.Attempt + 1,
		Data:    job.Data,
	}
	time.AfterFunc(delay, func() {
		q.ch <- next
	})
	return nil
}

// Complete retires the job and frees its name.
func (q *MemoryQueue) Complete(_ context.Context, job *Job) error {
	q.mu.Lock()
	q.completed = append(q.completed, job)
	if len(q.completed) > completedKeep {
		q.completed = q.completed[len(q.completed)-completedKeep:]
	}
	q.mu.Unlock()
	q.release(job.Name)
	return nil
}

// Fail retires the job and frees its name.
func (q *MemoryQueue) Fail(_ context.Context, job *Job, _ string) error {
	q.mu.Lock()
	q.failed = append(q.failed, job)
	if len(q.failed) > failedKeep {
		q.failed = q.failed[len(q.failed)-failedKeep:]
	}
	q.mu.Unlock()
	q.release(job.Name)
	return nil
}

// CompletedCount reports retired successful jobs. Test helper.
func (q *MemoryQueue) CompletedCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.completed)
}

// FailedCount reports retired failed jobs. Test helper.
func (q *MemoryQueue) FailedCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.failed)
}

func (q *MemoryQueue) release(name string) {
	q.mu.Lock()
	delete(q.active, name)
	q.mu.Unlock()
}
