package calls

import (
	"context"
	"time"
)

// Call log statuses.
const (
	CallLogCompleted = "COMPLETED"
	CallLogFailed    = "FAILED"
)

// CallLog records the outcome of one placed call: at most one per
// appointment, written once when the attempt completes, never updated.
type CallLog struct {
	ID            int64     `json:"id"`
	AppointmentID int64     `json:"appointmentId"`
	CallSID       string    `json:"callSid"`
	Status        string    `json:"status"`
	StartedAt     time.Time `json:"startedAt"`
	EndedAt       time.Time `json:"endedAt"`
	Transcript    string    `json:"transcript"`
	Error         *string   `json:"error"`
}

// LogRepository persists call logs. GetByAppointment returns (nil, nil) when
// no call attempt has completed yet.
type LogRepository interface {
	Create(ctx context.Context, log *CallLog) error
	GetByAppointment(ctx context.Context, appointmentID int64) (*CallLog, error)
}
