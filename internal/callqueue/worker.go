package callqueue

import (
	"context"
	"sync"
	"time"

	"github.com/dialbook/platform/internal/observability/metrics"
	"github.com/dialbook/platform/pkg/logging"
)

// Processor handles one dequeued call job. A returned error re-signals the
// job to the retry policy; nil retires it as completed.
type Processor func(ctx context.Context, job *Job) error

const defaultPollWait = time.Second

// Worker consumes the outbound-call queue. Concurrency defaults to 1 so at
// most one call is in flight system-wide.
type Worker struct {
	queue       Queue
	process     Processor
	logger      *logging.Logger
	metrics     *metrics.BookingMetrics
	concurrency int
	maxAttempts int
	backoffBase time.Duration
	pollWait    time.Duration
	wg          sync.WaitGroup
}

// WorkerOption customises Worker construction.
type WorkerOption func(*Worker)

// WithConcurrency sets the number of consumer goroutines.
func WithConcurrency(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

// WithMaxAttempts sets the total delivery attempts before a job is failed.
func WithMaxAttempts(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.maxAttempts = n
		}
	}
}

// WithBackoffBase sets the first retry delay; each retry doubles it.
func WithBackoffBase(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.backoffBase = d
		}
	}
}

// WithPollWait sets how long a Dequeue blocks before re-polling.
func WithPollWait(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.pollWait = d
		}
	}
}

// WithMetrics attaches booking metrics.
func WithMetrics(m *metrics.BookingMetrics) WorkerOption {
	return func(w *Worker) {
		w.metrics = m
	}
}

// NewWorker creates a queue consumer dispatching jobs to process.
func NewWorker(queue Queue, process Processor, logger *logging.Logger, opts ...WorkerOption) *Worker {
	if queue == nil {
		panic("callqueue: queue required")
	}
	if process == nil {
		panic("callqueue: processor required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	w := &Worker{
		queue:       queue,
		process:     process,
		logger:      logger,
		concurrency: 1,
		maxAttempts: 3,
		backoffBase: 5 * time.Second,
		pollWait:    defaultPollWait,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start launches the consumer goroutines. They run until ctx is canceled.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.run(ctx)
		}()
	}
}

// Wait blocks until all consumer goroutines have returned.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := w.queue.Dequeue(ctx, w.pollWait)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("dequeue failed", "error", err)
			continue
		}
		if job == nil {
			continue
		}
		w.handle(ctx, job)
	}
}

func (w *Worker) handle(ctx context.Context, job *Job) {
	err := w.process(ctx, job)
	if err == nil {
		if cerr := w.queue.Complete(ctx, job); cerr != nil {
			w.logger.Error("job completion bookkeeping failed", "error", cerr, "job", job.Name)
		}
		w.logger.Info("job completed", "job", job.Name, "appointment_id", job.Data.AppointmentID, "attempt", job.Attempt)
		return
	}

	if job.Attempt >= w.maxAttempts {
		if ferr := w.queue.Fail(ctx, job, err.Error()); ferr != nil {
			w.logger.Error("job failure bookkeeping failed", "error", ferr, "job", job.Name)
		}
		w.logger.Error("job failed permanently", "error", err, "job", job.Name, "attempts", job.Attempt)
		return
	}

	delay := w.backoffBase << (job.Attempt - 1)
	if rerr := w.queue.Retry(ctx, job, delay); rerr != nil {
		w.logger.Error("job retry scheduling failed", "error", rerr, "job", job.Name)
		return
	}
	w.metrics.ObserveQueueRetry()
	w.logger.Warn("job retry scheduled", "error", err, "job", job.Name, "attempt", job.Attempt, "delay", delay.String())
}
