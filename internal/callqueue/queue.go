package callqueue

import (
	"context"
	"fmt"
	"time"
)

// QueueName identifies the single outbound-call queue.
const QueueName = "outbound-calls"

// JobName derives the deterministic job name for an appointment. Enqueuing
// the same name twice while a job is active is a no-op, which gives natural
// de-duplication per appointment.
func JobName(appointmentID int64) string {
	return fmt.Sprintf("call-%d", appointmentID)
}

// CallJob is the payload for one outbound call.
type CallJob struct {
	AppointmentID       int64   `json:"appointmentId"`
	ProviderPhone       string  `json:"providerPhone"`
	ProviderName        string  `json:"providerName"`
	ServiceType         string  `json:"serviceType"`
	PreferredTimeWindow *string `json:"preferredTimeWindow"`
}

// Job is a dequeued unit of work. Attempt is 1-based: the number of the
// delivery the consumer is currently holding.
type Job struct {
	ID      string
	Name    string
	Attempt int
	Data    CallJob
}

// Queue is the outbound-call queue contract. Dequeue returns (nil, nil) when
// no job became available within wait; absence is not an error.
//
// Complete and Fail retire a job and release its de-dup name; Retry schedules
// the same job for redelivery after delay without releasing the name.
type Queue interface {
	Enqueue(ctx context.Context, data CallJob) (bool, error)
	Dequeue(ctx context.Context, wait time.Duration) (*Job, error)
	Retry(ctx context.Context, job *Job, delay time.Duration) error
	Complete(ctx context.Context, job *Job) error
	Fail(ctx context.Context, job *Job, reason string) error
}
