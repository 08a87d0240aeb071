package appointments

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrAppointmentNotFound indicates an unknown appointment identifier.
	ErrAppointmentNotFound = errors.New("appointments: appointment not found")
	// ErrStaleTransition indicates the guarded transition lost: the row was
	// not in the expected prior status.
	ErrStaleTransition = errors.New("appointments: appointment not in expected status")
)

// CreateParams are the attributes accepted at submission time.
type CreateParams struct {
	ServiceType         string
	PreferredDateFrom   *time.Time
	PreferredDateTo     *time.Time
	PreferredTimeWindow *string
	Location            *string
	Urgency             Urgency
}

// Repository persists appointments.
//
// Transition is a compare-and-set: it moves the appointment from the `from`
// status to the `to` status, attaching result when non-nil, and fails with
// ErrStaleTransition if the row is no longer in `from`. This is what keeps
// the lifecycle monotonic under retried jobs.
type Repository interface {
	Create(ctx context.Context, params *CreateParams) (*Appointment, error)
	GetByID(ctx context.Context, id int64) (*Appointment, error)
	Transition(ctx context.Context, id int64, from, to Status, result *ResultPayload) error
}
