package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dialbook/platform/internal/api/router"
	"github.com/dialbook/platform/internal/appointments"
	"github.com/dialbook/platform/internal/callqueue"
	"github.com/dialbook/platform/internal/calls"
	"github.com/dialbook/platform/internal/http/handlers"
	"github.com/dialbook/platform/internal/providers"
	"github.com/dialbook/platform/pkg/logging"
)

type testEnv struct {
	server *httptest.Server
	queue  *callqueue.MemoryQueue
	repo   *appointments.MemoryRepository
	logs   *calls.MemoryLogRepository
}

// newTestEnv wires the full booking flow against in-memory backends. When
// withWorker is true a consumer with a fast simulated dialer runs alongside,
// so submitted requests reach a terminal state on their own.
func newTestEnv(t *testing.T, withWorker bool) *testEnv {
	t.Helper()
	logger := logging.New("error")

	repo := appointments.NewMemoryRepository()
	logs := calls.NewMemoryLogRepository()
	queue := callqueue.NewMemoryQueue(16)
	providerRepo := providers.NewMemoryRepository(providers.SeedProviders())

	svc := appointments.NewService(repo, providerRepo, queue, nil, logger)

	if withWorker {
		dialer := calls.NewSimulatedDialer(30*time.Millisecond, nil, logger)
		processor := calls.NewProcessor(repo, logs, nil, dialer, nil, logger, time.Second)
		worker := callqueue.NewWorker(queue, processor.Process, logger,
			callqueue.WithPollWait(10*time.Millisecond),
			callqueue.WithBackoffBase(10*time.Millisecond),
		)
		ctx, cancel := context.WithCancel(context.Background())
		worker.Start(ctx)
		t.Cleanup(func() {
			cancel()
			worker.Wait()
		})
	}

	h := router.New(&router.Config{
		Logger:       logger,
		Appointments: handlers.NewAppointmentsHandler(svc, logs, logger),
		Health:       handlers.NewHealthHandler(),
	})
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	return &testEnv{server: server, queue: queue, repo: repo, logs: logs}
}

func (e *testEnv) post(t *testing.T, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(e.server.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp, decodeBody(t, resp)
}

func (e *testEnv) get(t *testing.T, path string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(e.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestCreateAppointmentMissingServiceType(t *testing.T) {
	env := newTestEnv(t, false)

	resp, body := env.post(t, "/appointments", `{}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", resp.StatusCode)
	}
	if body["error"] != "serviceType is required" {
		t.Fatalf("error: %q", body["error"])
	}
}

func TestCreateAppointmentNoProvider(t *testing.T) {
	env := newTestEnv(t, false)

	resp, body := env.post(t, "/appointments", `{"serviceType":"veterinarian"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	if body["status"] != "FAILED" {
		t.Fatalf("status field: %v", body["status"])
	}
	if body["message"] != "No provider found for this service type" {
		t.Fatalf("message: %v", body["message"])
	}

	// Nothing may reach the queue on a synchronous miss.
	if got, _ := env.queue.Dequeue(context.Background(), 20*time.Millisecond); got != nil {
		t.Fatalf("unexpected job enqueued: %+v", got)
	}
}

func TestCreateAppointmentEnqueues(t *testing.T) {
	env := newTestEnv(t, false)

	resp, body := env.post(t, "/appointments", `{"serviceType":"dentist","urgency":"asap"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status: got %d, want 201", resp.StatusCode)
	}
	if body["status"] != "PENDING" {
		t.Fatalf("status field: %v", body["status"])
	}
	if body["message"] != "Appointment request created. Call will be placed shortly." {
		t.Fatalf("message: %v", body["message"])
	}

	job, err := env.queue.Dequeue(context.Background(), time.Second)
	if err != nil || job == nil {
		t.Fatalf("expected one enqueued job, err=%v", err)
	}
	if job.Data.ProviderName != "Smile Dental Clinic" {
		t.Fatalf("job provider: %q", job.Data.ProviderName)
	}
	if float64(job.Data.AppointmentID) != body["id"].(float64) {
		t.Fatalf("job appointment %d, response id %v", job.Data.AppointmentID, body["id"])
	}
}

func TestStatusUnknownAppointment(t *testing.T) {
	env := newTestEnv(t, false)

	for _, path := range []string{"/appointments/999/status", "/appointments/abc/status"} {
		resp, body := env.get(t, path)
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("%s: got %d, want 404", path, resp.StatusCode)
		}
		if body["error"] != "Appointment not found" {
			t.Fatalf("%s: error %q", path, body["error"])
		}
	}
}

func TestResultBeforeTerminalState(t *testing.T) {
	env := newTestEnv(t, false)

	_, created := env.post(t, "/appointments", `{"serviceType":"salon"}`)
	id := int64(created["id"].(float64))

	resp, body := env.get(t, "/appointments/"+itoa(id)+"/result")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	if body["status"] != "PENDING" {
		t.Fatalf("status field: %v", body["status"])
	}
	if body["callLog"] != nil {
		t.Fatalf("callLog must be null before a call completes: %v", body["callLog"])
	}
}

func TestResultUnknownAppointment(t *testing.T) {
	env := newTestEnv(t, false)

	resp, body := env.get(t, "/appointments/999/result")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", resp.StatusCode)
	}
	if body["error"] != "Appointment not found" {
		t.Fatalf("error: %q", body["error"])
	}
}

func TestBookingFlowEndToEnd(t *testing.T) {
	env := newTestEnv(t, true)

	resp, created := env.post(t, "/appointments", `{"serviceType":"dentist"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status: got %d, want 201", resp.StatusCode)
	}
	id := itoa(int64(created["id"].(float64)))

	// Poll the status endpoint the way the browser client does.
	deadline := time.Now().Add(5 * time.Second)
	var status string
	var lastUpdated time.Time
	for time.Now().Before(deadline) {
		_, body := env.get(t, "/appointments/"+id+"/status")
		status = body["status"].(string)
		updated, err := time.Parse(time.RFC3339Nano, body["updatedAt"].(string))
		if err != nil {
			t.Fatalf("updatedAt not a timestamp: %v", err)
		}
		if updated.Before(lastUpdated) {
			t.Fatalf("updatedAt went backwards: %s -> %s", lastUpdated, updated)
		}
		lastUpdated = updated
		if status == "CONFIRMED" || status == "FAILED" {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if status != "CONFIRMED" {
		t.Fatalf("terminal status: got %q, want CONFIRMED", status)
	}

	_, result := env.get(t, "/appointments/"+id+"/result")
	payload, ok := result["result"].(map[string]any)
	if !ok {
		t.Fatalf("missing result payload: %v", result)
	}
	if payload["providerName"] != "Smile Dental Clinic" {
		t.Fatalf("providerName: %v", payload["providerName"])
	}
	callLog, ok := result["callLog"].(map[string]any)
	if !ok {
		t.Fatalf("missing call log: %v", result)
	}
	if transcript, _ := callLog["transcript"].(string); transcript == "" {
		t.Fatal("expected non-empty transcript")
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t, false)

	resp, body := env.get(t, "/ping")
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("ping: %d %v", resp.StatusCode, body)
	}
	if body["timestamp"] == nil {
		t.Fatal("ping must include a timestamp")
	}

	resp, body = env.get(t, "/health")
	if resp.StatusCode != http.StatusOK || body["status"] != "healthy" {
		t.Fatalf("health: %d %v", resp.StatusCode, body)
	}
	if _, ok := body["uptime"].(float64); !ok {
		t.Fatalf("health must report numeric uptime: %v", body["uptime"])
	}
}

func TestDemoPageServesHTML(t *testing.T) {
	env := newTestEnv(t, false)

	resp, err := http.Get(env.server.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type: %q", ct)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
