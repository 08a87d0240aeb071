package calls

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dialbook/platform/pkg/logging"
)

// DialRequest describes one outbound call to a provider.
type DialRequest struct {
	AppointmentID       int64
	ProviderPhone       string
	ProviderName        string
	ServiceType         string
	PreferredTimeWindow *string
}

// DialResult is the outcome of a completed call.
type DialResult struct {
	CallSID       string
	ConfirmedDate string
	ConfirmedTime string
	Message       string
	Transcript    string
}

// Dialer places an outbound call and blocks until it completes. The ctx
// passed in bounds the call: implementations must abandon the attempt when
// it is canceled or times out.
type Dialer interface {
	Dial(ctx context.Context, req DialRequest) (*DialResult, error)
}

// SimulatedDialer stands in for the real telephony integration. It holds the
// "line" for a configured duration, walks the call session through the
// negotiation statuses in the state store, and reports a booked 10:00 AM
// slot.
//
// TODO: replace with a Twilio-backed Dialer once the voice agent lands.
type SimulatedDialer struct {
	duration time.Duration
	states   *StateStore
	logger   *logging.Logger
}

// NewSimulatedDialer creates a dialer that completes after duration. states
// may be nil, in which case no session state is recorded.
func NewSimulatedDialer(duration time.Duration, states *StateStore, logger *logging.Logger) *SimulatedDialer {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SimulatedDialer{
		duration: duration,
		states:   states,
		logger:   logger,
	}
}

// Dial simulates the call. It honors ctx cancellation mid-call.
func (d *SimulatedDialer) Dial(ctx context.Context, req DialRequest) (*DialResult, error) {
	sid := "SIMULATED-" + strconv.FormatInt(time.Now().UnixMilli(), 10)

	d.logger.Info("placing simulated call",
		"appointment_id", req.AppointmentID,
		"provider", req.ProviderName,
		"phone", req.ProviderPhone,
		"call_sid", sid,
	)

	d.recordState(ctx, sid, &CallState{
		AppointmentID: req.AppointmentID,
		CallSID:       sid,
		Status:        CallStatusInitiated,
	})

	// Walk INITIATED -> CONNECTED -> NEGOTIATING across the simulated call
	// duration, then confirm.
	steps := []CallStatus{CallStatusConnected, CallStatusNegotiating, CallStatusConfirmed}
	stepWait := d.duration / time.Duration(len(steps))
	timer := time.NewTimer(stepWait)
	defer timer.Stop()

	for i, status := range steps {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("calls: call %s abandoned: %w", sid, ctx.Err())
		case <-timer.C:
		}
		d.updateStatus(ctx, sid, status)
		if i < len(steps)-1 {
			timer.Reset(stepWait)
		}
	}

	transcript := fmt.Sprintf("[Simulated] Called %s for %s. Appointment confirmed.", req.ProviderName, req.ServiceType)
	return &DialResult{
		CallSID:       sid,
		ConfirmedDate: time.Now().UTC().Format(time.RFC3339),
		ConfirmedTime: "10:00 AM",
		Message:       fmt.Sprintf("Appointment confirmed with %s", req.ProviderName),
		Transcript:    transcript,
	}, nil
}

func (d *SimulatedDialer) recordState(ctx context.Context, sid string, state *CallState) {
	if d.states == nil {
		return
	}
	if err := d.states.Set(ctx, sid, state); err != nil {
		d.logger.Warn("call state write failed", "error", err, "call_sid", sid)
		return
	}
	if err := d.states.MapAppointmentToCall(ctx, state.AppointmentID, sid); err != nil {
		d.logger.Warn("call state mapping failed", "error", err, "call_sid", sid)
	}
}

func (d *SimulatedDialer) updateStatus(ctx context.Context, sid string, status CallStatus) {
	if d.states == nil {
		return
	}
	now := time.Now().UnixMilli()
	if err := d.states.Update(ctx, sid, StateUpdate{Status: &status, LastAudioTs: &now}); err != nil {
		d.logger.Warn("call state update failed", "error", err, "call_sid", sid, "status", string(status))
	}
}
