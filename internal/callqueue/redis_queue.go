package callqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// Retention caps for retired jobs. The appointment row is the durable
	// record; these lists exist only for inspection.
	completedKeep = 100
	failedKeep    = 50
)

// RedisQueue is a durable Queue on Redis: a waiting list, a delayed zset for
// backoff, a per-name de-dup key, and capped completed/failed lists.
type RedisQueue struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisQueue creates the outbound-call queue on the given Redis client.
func NewRedisQueue(rdb *redis.Client) *RedisQueue {
	if rdb == nil {
		panic("callqueue: redis client required")
	}
	return &RedisQueue{rdb: rdb, prefix: "callqueue:" + QueueName + ":"}
}

type envelope struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Attempts   int       `json:"attempts"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
	Data       CallJob   `json:"data"`
}

type retiredJob struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Attempts   int       `json:"attempts"`
	Reason     string    `json:"reason,omitempty"`
	FinishedAt time.Time `json:"finishedAt"`
	Data       CallJob   `json:"data"`
}

func (q *RedisQueue) waitingKey() string { return q.prefix + "waiting" }
func (q *RedisQueue) delayedKey() string { return q.prefix + "delayed" }
func (q *RedisQueue) idKey(name string) string {
	return q.prefix + "ids:" + name
}

// Enqueue pushes a job unless one is already active under the same name.
// Returns false when the enqueue was de-duplicated away.
func (q *RedisQueue) Enqueue(ctx context.Context, data CallJob) (bool, error) {
	name := JobName(data.AppointmentID)
	env := envelope{
		ID:         uuid.NewString(),
		Name:       name,
		EnqueuedAt: time.Now().UTC(),
		Data:       data,
	}

	ok, err := q.rdb.SetNX(ctx, q.idKey(name), env.ID, 0).Result()
	if err != nil {
		return false, fmt.Errorf("callqueue: dedup check failed: %w", err)
	}
	if !ok {
		return false, nil
	}

	body, err := json.Marshal(env)
	if err != nil {
		return false, fmt.Errorf("callqueue: encode job: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.waitingKey(), body).Err(); err != nil {
		return false, fmt.Errorf("callqueue: enqueue failed: %w", err)
	}
	return true, nil
}

// Dequeue promotes due delayed jobs, then blocks up to wait for the next
// waiting job.
func (q *RedisQueue) Dequeue(ctx context.Context, wait time.Duration) (*Job, error) {
	if err := q.promoteDue(ctx); err != nil {
		return nil, err
	}

	res, err := q.rdb.BRPop(ctx, wait, q.waitingKey()).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("callqueue: dequeue failed: %w", err)
	}
	// BRPop returns [key, value].
	var env envelope
	if err := json.Unmarshal([]byte(res[1]), &env); err != nil {
		return nil, fmt.Errorf("callqueue: decode job: %w", err)
	}
	return &Job{
		ID:      env.ID,
		Name:    env.Name,
		Attempt: env.Attempts + 1,
		Data:    env.Data,
	}, nil
}

// Retry schedules the job for redelivery after delay, preserving the
// attempt count and the active de-dup name.
func (q *RedisQueue) Retry(ctx context.Context, job *Job, delay time.Duration) error {
	env := envelope{
		ID:         job.ID,
		Name:       job.Name,
		Attempts:   job.Attempt,
		EnqueuedAt: time.Now().UTC(),
		Data:       job.Data,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("callqueue: encode retry: %w", err)
	}
	readyAt := time.Now().Add(delay)
	if err := q.rdb.ZAdd(ctx, q.delayedKey(), redis.Z{
		Score:  float64(readyAt.UnixMilli()),
		Member: body,
	}).Err(); err != nil {
		return fmt.Errorf("callqueue: schedule retry: %w", err)
	}
	return nil
}

// Complete retires the job to the capped completed list and frees its name.
func (q *RedisQueue) Complete(ctx context.Context, job *Job) error {
	return q.retire(ctx, job, "", q.prefix+"completed", completedKeep)
}

// Fail retires the job to the capped failed list and frees its name.
func (q *RedisQueue) Fail(ctx context.Context, job *Job, reason string) error {
	return q.retire(ctx, job, reason, q.prefix+"failed", failedKeep)
}

func (q *RedisQueue) retire(ctx context.Context, job *Job, reason, key string, keep int) error {
	rec := retiredJob{
		ID:         job.ID,
		Name:       job.Name,
		Attempts:   job.Attempt,
		Reason:     reason,
		FinishedAt: time.Now().UTC(),
		Data:       job.Data,
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("callqueue: encode retired job: %w", err)
	}

	pipe := q.rdb.TxPipeline()
	pipe.LPush(ctx, key, body)
	pipe.LTrim(ctx, key, 0, int64(keep-1))
	pipe.Del(ctx, q.idKey(job.Name))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("callqueue: retire job: %w", err)
	}
	return nil
}

func (q *RedisQueue) promoteDue(ctx context.Context) error {
	now := time.Now().UnixMilli()
	due, err := q.rdb.ZRangeByScore(ctx, q.delayedKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", now),
	}).Result()
	if err != nil {
		return fmt.Errorf("callqueue: read delayed jobs: %w", err)
	}
	for _, member := range due {
		removed, err := q.rdb.ZRem(ctx, q.delayedKey(), member).Result()
		if err != nil {
			return fmt.Errorf("callqueue: promote delayed job: %w", err)
		}
		// Another consumer may have promoted it first.
		if removed == 0 {
			continue
		}
		if err := q.rdb.LPush(ctx, q.waitingKey(), member).Err(); err != nil {
			return fmt.Errorf("callqueue: requeue delayed job: %w", err)
		}
	}
	return nil
}
