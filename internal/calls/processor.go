package calls

import (
	"context"
	"errors"
	"time"

	"github.com/dialbook/platform/internal/appointments"
	"github.com/dialbook/platform/internal/callqueue"
	"github.com/dialbook/platform/internal/observability/metrics"
	"github.com/dialbook/platform/pkg/logging"
)

// Processor executes one outbound-call job: it drives the appointment
// lifecycle PENDING -> CALLING -> {CONFIRMED, FAILED}, records the call log,
// and keeps the session state store current.
//
// The processor is idempotent against terminal appointments: a redelivered
// job whose appointment is already CONFIRMED or FAILED is a no-op, so queue
// retries can never re-open or overwrite a terminal state.
type Processor struct {
	appts       appointments.Repository
	logs        LogRepository
	states      *StateStore
	dialer      Dialer
	metrics     *metrics.BookingMetrics
	logger      *logging.Logger
	callTimeout time.Duration
}

// NewProcessor wires the call-processing pipeline. states and m may be nil.
func NewProcessor(
	appts appointments.Repository,
	logs LogRepository,
	states *StateStore,
	dialer Dialer,
	m *metrics.BookingMetrics,
	logger *logging.Logger,
	callTimeout time.Duration,
) *Processor {
	if appts == nil {
		panic("calls: appointment repository required")
	}
	if logs == nil {
		panic("calls: call log repository required")
	}
	if dialer == nil {
		panic("calls: dialer required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if callTimeout <= 0 {
		callTimeout = 2 * time.Minute
	}
	return &Processor{
		appts:       appts,
		logs:        logs,
		states:      states,
		dialer:      dialer,
		metrics:     m,
		logger:      logger,
		callTimeout: callTimeout,
	}
}

// Process handles one dequeued job. A returned error re-signals the queue's
// retry policy; the appointment is marked FAILED before the error escapes.
func (p *Processor) Process(ctx context.Context, job *callqueue.Job) error {
	data := job.Data
	logger := p.logger.With("appointment_id", data.AppointmentID, "attempt", job.Attempt)

	appt, err := p.appts.GetByID(ctx, data.AppointmentID)
	if err != nil {
		if errors.Is(err, appointments.ErrAppointmentNotFound) {
			// Nothing to work on; retrying cannot help.
			logger.Warn("call job references unknown appointment")
			return nil
		}
		return err
	}
	if appt.Status.Terminal() {
		logger.Info("appointment already terminal, skipping job", "status", string(appt.Status))
		return nil
	}

	if appt.Status == appointments.StatusPending {
		err := p.appts.Transition(ctx, appt.ID, appointments.StatusPending, appointments.StatusCalling, nil)
		if err != nil {
			if errors.Is(err, appointments.ErrStaleTransition) {
				// Lost the race to a concurrent delivery; treat like a
				// redelivery and re-check.
				current, gerr := p.appts.GetByID(ctx, appt.ID)
				if gerr != nil {
					return gerr
				}
				if current.Status.Terminal() {
					logger.Info("appointment became terminal, skipping job", "status", string(current.Status))
					return nil
				}
			} else {
				return err
			}
		}
	}

	logger.Info("processing outbound call",
		"provider", data.ProviderName,
		"phone", data.ProviderPhone,
	)

	start := time.Now().UTC()
	dialCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()

	result, dialErr := p.dialer.Dial(dialCtx, DialRequest{
		AppointmentID:       data.AppointmentID,
		ProviderPhone:       data.ProviderPhone,
		ProviderName:        data.ProviderName,
		ServiceType:         data.ServiceType,
		PreferredTimeWindow: data.PreferredTimeWindow,
	})
	ended := time.Now().UTC()

	if dialErr != nil {
		p.markFailed(ctx, data.AppointmentID, dialErr, start, ended)
		p.metrics.ObserveCallProcessed("failed", ended.Sub(start).Seconds())
		logger.Error("call attempt failed", "error", dialErr)
		// Re-signal so the queue applies its backoff policy. A retry that
		// observes the FAILED appointment above is a no-op.
		return dialErr
	}

	payload := appointments.CallSucceededResult(data.ProviderName, result.ConfirmedDate, result.ConfirmedTime, result.Message)
	if err := p.appts.Transition(ctx, appt.ID, appointments.StatusCalling, appointments.StatusConfirmed, payload); err != nil {
		return err
	}

	if err := p.logs.Create(ctx, &CallLog{
		AppointmentID: data.AppointmentID,
		CallSID:       result.CallSID,
		Status:        CallLogCompleted,
		StartedAt:     start,
		EndedAt:       ended,
		Transcript:    result.Transcript,
	}); err != nil {
		// The appointment is already CONFIRMED; retrying the job would
		// no-op, so surface the loss in the logs instead.
		logger.Error("call log write failed", "error", err)
	}

	p.finishState(ctx, result.CallSID, result.Transcript)
	p.metrics.ObserveCallProcessed("confirmed", ended.Sub(start).Seconds())
	logger.Info("call completed", "provider", data.ProviderName, "call_sid", result.CallSID)
	return nil
}

func (p *Processor) markFailed(ctx context.Context, appointmentID int64, dialErr error, start, ended time.Time) {
	payload := appointments.CallFailedResult("Call failed")
	err := p.appts.Transition(ctx, appointmentID, appointments.StatusCalling, appointments.StatusFailed, payload)
	if err != nil && !errors.Is(err, appointments.ErrStaleTransition) {
		p.logger.Error("failed to mark appointment FAILED", "error", err, "appointment_id", appointmentID)
	}

	existing, err := p.logs.GetByAppointment(ctx, appointmentID)
	if err != nil {
		p.logger.Error("call log lookup failed", "error", err, "appointment_id", appointmentID)
	}
	if existing == nil {
		msg := dialErr.Error()
		if err := p.logs.Create(ctx, &CallLog{
			AppointmentID: appointmentID,
			CallSID:       failedCallSID(ctx, p.states, appointmentID),
			Status:        CallLogFailed,
			StartedAt:     start,
			EndedAt:       ended,
			Error:         &msg,
		}); err != nil {
			p.logger.Error("call log write failed", "error", err, "appointment_id", appointmentID)
		}
	}

	if p.states != nil {
		if sid, _ := p.states.CallSIDByAppointment(ctx, appointmentID); sid != "" {
			status := CallStatusFailed
			_ = p.states.Update(ctx, sid, StateUpdate{Status: &status})
		}
	}
}

func (p *Processor) finishState(ctx context.Context, callSID, transcript string) {
	if p.states == nil || callSID == "" {
		return
	}
	// Left to expire with the TTL; the store is a cache, not a record.
	status := CallStatusEnded
	if err := p.states.Update(ctx, callSID, StateUpdate{Status: &status, Transcript: &transcript}); err != nil {
		p.logger.Warn("call state finish failed", "error", err, "call_sid", callSID)
	}
}

func failedCallSID(ctx context.Context, states *StateStore, appointmentID int64) string {
	if states == nil {
		return ""
	}
	sid, err := states.CallSIDByAppointment(ctx, appointmentID)
	if err != nil {
		return ""
	}
	return sid
}
