package providers

import (
	"context"
	"errors"
)

// ErrNoProviderFound indicates no provider matches the requested service type.
var ErrNoProviderFound = errors.New("providers: no provider found for service type")

// Repository reads the provider directory.
//
// FindFirstByServiceType performs a case-insensitive substring match against
// provider service types and returns the match with the lowest ID. Selection
// is existence-only for the MVP: rating and location are not consulted.
type Repository interface {
	FindFirstByServiceType(ctx context.Context, serviceType string) (*Provider, error)
	List(ctx context.Context) ([]Provider, error)
}
