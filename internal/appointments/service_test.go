package appointments

import (
	"context"
	"errors"
	"testing"

	"github.com/dialbook/platform/internal/callqueue"
	"github.com/dialbook/platform/internal/providers"
	"github.com/dialbook/platform/pkg/logging"
)

type captureQueue struct {
	jobs []callqueue.CallJob
	err  error
}

func (q *captureQueue) Enqueue(_ context.Context, data callqueue.CallJob) (bool, error) {
	if q.err != nil {
		return false, q.err
	}
	q.jobs = append(q.jobs, data)
	return true, nil
}

func newTestService(t *testing.T, queue CallEnqueuer) (*Service, *MemoryRepository) {
	t.Helper()
	repo := NewMemoryRepository()
	providerRepo := providers.NewMemoryRepository(providers.SeedProviders())
	return NewService(repo, providerRepo, queue, nil, logging.New("error")), repo
}

func TestCreateEnqueuesCallJob(t *testing.T) {
	queue := &captureQueue{}
	svc, _ := newTestService(t, queue)

	out, err := svc.Create(context.Background(), &CreateParams{ServiceType: "dentist"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if out.Appointment.Status != StatusPending {
		t.Fatalf("status: got %s, want PENDING", out.Appointment.Status)
	}
	if !out.Enqueued {
		t.Fatal("expected job to be enqueued")
	}
	if len(queue.jobs) != 1 {
		t.Fatalf("expected exactly one job, got %d", len(queue.jobs))
	}
	job := queue.jobs[0]
	if job.AppointmentID != out.Appointment.ID {
		t.Fatalf("job references wrong appointment: %d", job.AppointmentID)
	}
	if job.ProviderName != "Smile Dental Clinic" {
		t.Fatalf("resolved wrong provider: %q", job.ProviderName)
	}
	if job.ProviderPhone == "" {
		t.Fatal("job must carry the provider phone")
	}
}

func TestCreateProviderMissFailsSynchronously(t *testing.T) {
	queue := &captureQueue{}
	svc, repo := newTestService(t, queue)

	out, err := svc.Create(context.Background(), &CreateParams{ServiceType: "veterinarian"})
	if err != nil {
		t.Fatalf("a provider miss is not an error: %v", err)
	}
	if out.Enqueued {
		t.Fatal("no job may be enqueued without a provider")
	}
	if len(queue.jobs) != 0 {
		t.Fatalf("queue received %d jobs", len(queue.jobs))
	}
	if out.Appointment.Status != StatusFailed {
		t.Fatalf("status: got %s, want FAILED", out.Appointment.Status)
	}
	if out.Appointment.Result == nil || out.Appointment.Result.Kind != ResultProviderNotFound {
		t.Fatalf("result payload: %+v", out.Appointment.Result)
	}
	if out.Appointment.Result.Error != "No provider found for this service type" {
		t.Fatalf("error message: %q", out.Appointment.Result.Error)
	}

	// The persisted row agrees with the returned snapshot.
	stored, err := repo.GetByID(context.Background(), out.Appointment.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != StatusFailed {
		t.Fatalf("stored status: %s", stored.Status)
	}
}

func TestCreateRequiresServiceType(t *testing.T) {
	queue := &captureQueue{}
	svc, _ := newTestService(t, queue)

	for _, raw := range []string{"", "   "} {
		if _, err := svc.Create(context.Background(), &CreateParams{ServiceType: raw}); !errors.Is(err, ErrServiceTypeRequired) {
			t.Fatalf("serviceType %q: got %v, want ErrServiceTypeRequired", raw, err)
		}
	}
	if len(queue.jobs) != 0 {
		t.Fatal("invalid requests must not reach the queue")
	}
}

func TestCreateDefaultsUrgency(t *testing.T) {
	svc, _ := newTestService(t, &captureQueue{})

	out, err := svc.Create(context.Background(), &CreateParams{ServiceType: "plumber"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if out.Appointment.Urgency != UrgencyFlexible {
		t.Fatalf("urgency: got %s, want flexible", out.Appointment.Urgency)
	}
}

func TestCreateSurfacesEnqueueFailure(t *testing.T) {
	queue := &captureQueue{err: errors.New("redis down")}
	svc, _ := newTestService(t, queue)

	if _, err := svc.Create(context.Background(), &CreateParams{ServiceType: "dentist"}); err == nil {
		t.Fatal("expected enqueue failure to surface")
	}
}

func TestGetPassesThroughNotFound(t *testing.T) {
	svc, _ := newTestService(t, &captureQueue{})

	if _, err := svc.Get(context.Background(), 404); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("got %v, want ErrAppointmentNotFound", err)
	}
}
