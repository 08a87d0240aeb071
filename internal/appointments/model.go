package appointments

import "time"

// Status is the appointment lifecycle state. Transitions are monotonic:
// PENDING -> CALLING -> {CONFIRMED, FAILED}, plus PENDING -> FAILED when no
// provider matches at creation time. Terminal states never re-open.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCalling   Status = "CALLING"
	StatusConfirmed Status = "CONFIRMED"
	StatusFailed    Status = "FAILED"
)

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusFailed
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusCalling || next == StatusFailed
	case StatusCalling:
		return next == StatusConfirmed || next == StatusFailed
	default:
		return false
	}
}

// Urgency expresses how soon the user wants the appointment.
type Urgency string

const (
	UrgencyASAP     Urgency = "asap"
	UrgencyFlexible Urgency = "flexible"
)

// ParseUrgency maps free-form input to a known urgency, defaulting to
// flexible.
func ParseUrgency(raw string) Urgency {
	if Urgency(raw) == UrgencyASAP {
		return UrgencyASAP
	}
	return UrgencyFlexible
}

// ResultKind tags the closed set of result payload variants.
type ResultKind string

const (
	ResultProviderNotFound ResultKind = "provider_not_found"
	ResultCallSucceeded    ResultKind = "call_succeeded"
	ResultCallFailed       ResultKind = "call_failed"
)

// ResultPayload is the terminal outcome attached to an appointment. Kind
// selects the variant; only that variant's fields are populated.
type ResultPayload struct {
	Kind ResultKind `json:"kind"`

	// provider_not_found
	Error string `json:"error,omitempty"`

	// call_succeeded
	ProviderName  string `json:"providerName,omitempty"`
	ConfirmedDate string `json:"confirmedDate,omitempty"`
	ConfirmedTime string `json:"confirmedTime,omitempty"`
	Message       string `json:"message,omitempty"`

	// call_failed
	Reason string `json:"reason,omitempty"`
}

// ProviderNotFoundResult is the payload for a synchronous provider miss.
func ProviderNotFoundResult() *ResultPayload {
	return &ResultPayload{
		Kind:  ResultProviderNotFound,
		Error: "No provider found for this service type",
	}
}

// CallSucceededResult is the payload for a confirmed booking.
func CallSucceededResult(providerName, confirmedDate, confirmedTime, message string) *ResultPayload {
	return &ResultPayload{
		Kind:          ResultCallSucceeded,
		ProviderName:  providerName,
		ConfirmedDate: confirmedDate,
		ConfirmedTime: confirmedTime,
		Message:       message,
	}
}

// CallFailedResult is the payload for a failed call attempt.
func CallFailedResult(reason string) *ResultPayload {
	return &ResultPayload{
		Kind:   ResultCallFailed,
		Reason: reason,
	}
}

// Appointment is one booking request. Created by the API with status
// PENDING; mutated only by the call worker afterwards; never deleted in
// normal operation.
type Appointment struct {
	ID                  int64          `json:"id"`
	ServiceType         string         `json:"serviceType"`
	PreferredDateFrom   *time.Time     `json:"preferredDateFrom,omitempty"`
	PreferredDateTo     *time.Time     `json:"preferredDateTo,omitempty"`
	PreferredTimeWindow *string        `json:"preferredTimeWindow,omitempty"`
	Location            *string        `json:"location,omitempty"`
	Urgency             Urgency        `json:"urgency"`
	Status              Status         `json:"status"`
	Result              *ResultPayload `json:"result,omitempty"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
}
