package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dialbook/platform/internal/callqueue"
	"github.com/dialbook/platform/internal/observability/metrics"
	"github.com/dialbook/platform/internal/providers"
	"github.com/dialbook/platform/pkg/logging"
)

// ErrServiceTypeRequired indicates the one required creation field is
// missing. User-correctable.
var ErrServiceTypeRequired = errors.New("appointments: serviceType is required")

// CallEnqueuer enqueues outbound-call jobs.
type CallEnqueuer interface {
	Enqueue(ctx context.Context, data callqueue.CallJob) (bool, error)
}

// Service runs the booking-request flow: persist the appointment, resolve a
// provider, and hand the call job to the queue.
type Service struct {
	repo      Repository
	providers providers.Repository
	queue     CallEnqueuer
	metrics   *metrics.BookingMetrics
	logger    *logging.Logger
}

// NewService wires the creation flow. metrics may be nil.
func NewService(repo Repository, providerRepo providers.Repository, queue CallEnqueuer, m *metrics.BookingMetrics, logger *logging.Logger) *Service {
	if repo == nil {
		panic("appointments: repository required")
	}
	if providerRepo == nil {
		panic("appointments: provider repository required")
	}
	if queue == nil {
		panic("appointments: call enqueuer required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:      repo,
		providers: providerRepo,
		queue:     queue,
		metrics:   m,
		logger:    logger,
	}
}

// CreateOutcome reports what happened to a valid creation request.
type CreateOutcome struct {
	Appointment *Appointment
	// Enqueued is false when provider resolution failed synchronously and
	// the appointment is already terminal FAILED.
	Enqueued bool
}

// Create validates and persists a booking request. A provider-resolution
// miss is not an error: the appointment is marked FAILED and returned.
func (s *Service) Create(ctx context.Context, params *CreateParams) (*CreateOutcome, error) {
	if strings.TrimSpace(params.ServiceType) == "" {
		return nil, ErrServiceTypeRequired
	}

	appt, err := s.repo.Create(ctx, params)
	if err != nil {
		return nil, err
	}

	provider, err := s.providers.FindFirstByServiceType(ctx, params.ServiceType)
	if err != nil {
		if errors.Is(err, providers.ErrNoProviderFound) {
			payload := ProviderNotFoundResult()
			if terr := s.repo.Transition(ctx, appt.ID, StatusPending, StatusFailed, payload); terr != nil {
				return nil, terr
			}
			appt.Status = StatusFailed
			appt.Result = payload
			s.metrics.ObserveAppointmentCreated(string(StatusFailed))
			s.logger.Info("no provider for appointment",
				"appointment_id", appt.ID,
				"service_type", params.ServiceType,
			)
			return &CreateOutcome{Appointment: appt}, nil
		}
		return nil, err
	}

	enqueued, err := s.queue.Enqueue(ctx, callqueue.CallJob{
		AppointmentID:       appt.ID,
		ProviderPhone:       provider.Phone,
		ProviderName:        provider.Name,
		ServiceType:         params.ServiceType,
		PreferredTimeWindow: params.PreferredTimeWindow,
	})
	if err != nil {
		return nil, fmt.Errorf("appointments: enqueue call job: %w", err)
	}

	s.metrics.ObserveAppointmentCreated(string(StatusPending))
	s.logger.Info("appointment created",
		"appointment_id", appt.ID,
		"service_type", params.ServiceType,
		"provider", provider.Name,
		"enqueued", enqueued,
	)
	return &CreateOutcome{Appointment: appt, Enqueued: enqueued}, nil
}

// Get fetches an appointment by ID.
func (s *Service) Get(ctx context.Context, id int64) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}
