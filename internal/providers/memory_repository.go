package providers

import (
	"context"
	"strings"
	"sync"
)

// MemoryRepository is an in-memory Repository for dev mode and tests.
type MemoryRepository struct {
	mu        sync.RWMutex
	providers []Provider
}

// NewMemoryRepository creates a repository holding the given providers.
// Providers without an ID are assigned sequential ones.
func NewMemoryRepository(seed []Provider) *MemoryRepository {
	stored := make([]Provider, len(seed))
	copy(stored, seed)
	for i := range stored {
		if stored[i].ID == 0 {
			stored[i].ID = int64(i + 1)
		}
	}
	return &MemoryRepository{providers: stored}
}

func (r *MemoryRepository) FindFirstByServiceType(_ context.Context, serviceType string) (*Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(serviceType)
	var best *Provider
	for i := range r.providers {
		p := r.providers[i]
		if !strings.Contains(strings.ToLower(p.ServiceType), needle) {
			continue
		}
		if best == nil || p.ID < best.ID {
			best = &r.providers[i]
		}
	}
	if best == nil {
		return nil, ErrNoProviderFound
	}
	out := *best
	return &out, nil
}

func (r *MemoryRepository) List(_ context.Context) ([]Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out, nil
}
