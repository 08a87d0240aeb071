package calls

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// CallStatus tracks an in-flight call session.
type CallStatus string

const (
	CallStatusInitiated   CallStatus = "INITIATED"
	CallStatusConnected   CallStatus = "CONNECTED"
	CallStatusNegotiating CallStatus = "NEGOTIATING"
	CallStatusConfirmed   CallStatus = "CONFIRMED"
	CallStatusFailed      CallStatus = "FAILED"
	CallStatusEnded       CallStatus = "ENDED"
)

// CallState is transient session state for one call attempt, distinct from
// the durable appointment record. It lives in Redis under a fixed TTL: the
// store is a cache, not a system of record, and a missing key means "no
// active session", never an error.
type CallState struct {
	AppointmentID        int64      `json:"appointmentId"`
	CallSID              string     `json:"callSid"`
	NegotiationSessionID string     `json:"negotiationSessionId,omitempty"`
	Status               CallStatus `json:"status"`
	LastAudioTs          int64      `json:"lastAudioTs,omitempty"`
	Transcript           string     `json:"transcript,omitempty"`
}

// StateUpdate carries partial field overwrites for Update. Nil fields are
// left untouched.
type StateUpdate struct {
	Status               *CallStatus
	NegotiationSessionID *string
	LastAudioTs          *int64
	Transcript           *string
}

const (
	callStateKeyPrefix       = "call-state:"
	appointmentCallKeyPrefix = "appointment-call:"
	defaultCallStateTTL      = 30 * time.Minute
)

// StateStore manages call session state in Redis. Every write refreshes the
// expiry window.
type StateStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStateStore creates a call state store backed by Redis. ttl <= 0 falls
// back to 30 minutes.
func NewStateStore(rdb *redis.Client, ttl time.Duration) *StateStore {
	if rdb == nil {
		panic("calls: redis client required")
	}
	if ttl <= 0 {
		ttl = defaultCallStateTTL
	}
	return &StateStore{rdb: rdb, ttl: ttl}
}

func callStateKey(callSID string) string {
	return callStateKeyPrefix + callSID
}

func appointmentCallKey(appointmentID int64) string {
	return appointmentCallKeyPrefix + strconv.FormatInt(appointmentID, 10)
}

// Set stores the full state under the call session identifier.
func (s *StateStore) Set(ctx context.Context, callSID string, state *CallState) error {
	if callSID == "" {
		return fmt.Errorf("calls: call SID required")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("calls: marshal state: %w", err)
	}
	if err := s.rdb.Set(ctx, callStateKey(callSID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("calls: set state: %w", err)
	}
	return nil
}

// Get fetches state for a call session. Returns (nil, nil) when no session
// is active.
func (s *StateStore) Get(ctx context.Context, callSID string) (*CallState, error) {
	data, err := s.rdb.Get(ctx, callStateKey(callSID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("calls: get state: %w", err)
	}
	var state CallState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("calls: unmarshal state: %w", err)
	}
	return &state, nil
}

// Update merges the given fields into the current state and rewrites it with
// a refreshed expiry. When no state exists the update is silently dropped.
func (s *StateStore) Update(ctx context.Context, callSID string, update StateUpdate) error {
	current, err := s.Get(ctx, callSID)
	if err != nil {
		return err
	}
	if current == nil {
		return nil
	}
	if update.Status != nil {
		current.Status = *update.Status
	}
	if update.NegotiationSessionID != nil {
		current.NegotiationSessionID = *update.NegotiationSessionID
	}
	if update.LastAudioTs != nil {
		current.LastAudioTs = *update.LastAudioTs
	}
	if update.Transcript != nil {
		current.Transcript = *update.Transcript
	}
	return s.Set(ctx, callSID, current)
}

// Delete removes the session state. Cleanup after a call ends.
func (s *StateStore) Delete(ctx context.Context, callSID string) error {
	if err := s.rdb.Del(ctx, callStateKey(callSID)).Err(); err != nil {
		return fmt.Errorf("calls: delete state: %w", err)
	}
	return nil
}

// MapAppointmentToCall records the reverse index from appointment to call
// session, under the same expiry policy.
func (s *StateStore) MapAppointmentToCall(ctx context.Context, appointmentID int64, callSID string) error {
	if err := s.rdb.Set(ctx, appointmentCallKey(appointmentID), callSID, s.ttl).Err(); err != nil {
		return fmt.Errorf("calls: map appointment to call: %w", err)
	}
	return nil
}

// CallSIDByAppointment resolves the active call session for an appointment.
// Returns "" when none is mapped.
func (s *StateStore) CallSIDByAppointment(ctx context.Context, appointmentID int64) (string, error) {
	sid, err := s.rdb.Get(ctx, appointmentCallKey(appointmentID)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("calls: reverse lookup: %w", err)
	}
	return sid, nil
}
