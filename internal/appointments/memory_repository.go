package appointments

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryRepository is an in-memory Repository for dev mode and tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]*Appointment
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: make(map[int64]*Appointment)}
}

func (r *MemoryRepository) Create(_ context.Context, params *CreateParams) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	urgency := params.Urgency
	if urgency == "" {
		urgency = UrgencyFlexible
	}

	r.nextID++
	now := time.Now().UTC()
	appt := &Appointment{
		ID:                  r.nextID,
		ServiceType:         params.ServiceType,
		PreferredDateFrom:   params.PreferredDateFrom,
		PreferredDateTo:     params.PreferredDateTo,
		PreferredTimeWindow: params.PreferredTimeWindow,
		Location:            params.Location,
		Urgency:             urgency,
		Status:              StatusPending,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	r.rows[appt.ID] = appt
	return copyAppointment(appt), nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id int64) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	appt, ok := r.rows[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return copyAppointment(appt), nil
}

func (r *MemoryRepository) Transition(_ context.Context, id int64, from, to Status, result *ResultPayload) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("appointments: illegal transition %s -> %s", from, to)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.rows[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	if appt.Status != from {
		return ErrStaleTransition
	}
	appt.Status = to
	if result != nil {
		payload := *result
		appt.Result = &payload
	}
	appt.UpdatedAt = time.Now().UTC()
	return nil
}

func copyAppointment(appt *Appointment) *Appointment {
	out := *appt
	if appt.Result != nil {
		payload := *appt.Result
		out.Result = &payload
	}
	return &out
}
