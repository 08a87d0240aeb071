package calls

import (
	"context"
	"sync"
)

// MemoryLogRepository is an in-memory LogRepository for dev mode and tests.
type MemoryLogRepository struct {
	mu     sync.RWMutex
	nextID int64
	byAppt map[int64]*CallLog
}

// NewMemoryLogRepository creates an empty in-memory repository.
func NewMemoryLogRepository() *MemoryLogRepository {
	return &MemoryLogRepository{byAppt: make(map[int64]*CallLog)}
}

func (r *MemoryLogRepository) Create(_ context.Context, log *CallLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	log.ID = r.nextID
	stored := *log
	r.byAppt[log.AppointmentID] = &stored
	return nil
}

func (r *MemoryLogRepository) GetByAppointment(_ context.Context, appointmentID int64) (*CallLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	log, ok := r.byAppt[appointmentID]
	if !ok {
		return nil, nil
	}
	out := *log
	return &out, nil
}
