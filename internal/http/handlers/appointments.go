package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dialbook/platform/internal/appointments"
	"github.com/dialbook/platform/internal/calls"
	"github.com/dialbook/platform/pkg/logging"
)

// AppointmentsHandler handles HTTP requests for booking requests.
type AppointmentsHandler struct {
	svc    *appointments.Service
	logs   calls.LogRepository
	logger *logging.Logger
}

// NewAppointmentsHandler creates a new appointments handler.
func NewAppointmentsHandler(svc *appointments.Service, logs calls.LogRepository, logger *logging.Logger) *AppointmentsHandler {
	if svc == nil {
		panic("handlers: appointments service required")
	}
	if logs == nil {
		panic("handlers: call log repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AppointmentsHandler{svc: svc, logs: logs, logger: logger}
}

type createAppointmentRequest struct {
	ServiceType         string     `json:"serviceType"`
	PreferredDateFrom   *time.Time `json:"preferredDateFrom"`
	PreferredDateTo     *time.Time `json:"preferredDateTo"`
	PreferredTimeWindow *string    `json:"preferredTimeWindow"`
	Location            *string    `json:"location"`
	Urgency             string     `json:"urgency"`
}

type createAppointmentResponse struct {
	ID      int64  `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Create handles POST /appointments.
func (h *AppointmentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	out, err := h.svc.Create(r.Context(), &appointments.CreateParams{
		ServiceType:         req.ServiceType,
		PreferredDateFrom:   req.PreferredDateFrom,
		PreferredDateTo:     req.PreferredDateTo,
		PreferredTimeWindow: req.PreferredTimeWindow,
		Location:            req.Location,
		Urgency:             appointments.ParseUrgency(req.Urgency),
	})
	if err != nil {
		if errors.Is(err, appointments.ErrServiceTypeRequired) {
			writeError(w, http.StatusBadRequest, "serviceType is required")
			return
		}
		h.logger.Error("failed to create appointment", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create appointment")
		return
	}

	appt := out.Appointment
	if appt.Status == appointments.StatusFailed {
		// Synchronous provider miss: terminal, but not an HTTP error.
		writeJSON(w, http.StatusOK, createAppointmentResponse{
			ID:      appt.ID,
			Status:  string(appt.Status),
			Message: "No provider found for this service type",
		})
		return
	}

	writeJSON(w, http.StatusCreated, createAppointmentResponse{
		ID:      appt.ID,
		Status:  string(appt.Status),
		Message: "Appointment request created. Call will be placed shortly.",
	})
}

type statusResponse struct {
	ID        int64     `json:"id"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Status handles GET /appointments/{id}/status.
func (h *AppointmentsHandler) Status(w http.ResponseWriter, r *http.Request) {
	id, ok := appointmentID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Appointment not found")
		return
	}

	appt, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, appointments.ErrAppointmentNotFound) {
			writeError(w, http.StatusNotFound, "Appointment not found")
			return
		}
		h.logger.Error("failed to fetch status", "error", err, "appointment_id", id)
		writeError(w, http.StatusInternalServerError, "Failed to fetch status")
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		ID:        appt.ID,
		Status:    string(appt.Status),
		UpdatedAt: appt.UpdatedAt,
	})
}

type callLogResponse struct {
	StartedAt  time.Time `json:"startedAt"`
	EndedAt    time.Time `json:"endedAt"`
	Transcript string    `json:"transcript"`
	Error      *string   `json:"error"`
}

type resultResponse struct {
	ID      int64                       `json:"id"`
	Status  string                      `json:"status"`
	Result  *appointments.ResultPayload `json:"result"`
	CallLog *callLogResponse            `json:"callLog"`
}

// Result handles GET /appointments/{id}/result.
func (h *AppointmentsHandler) Result(w http.ResponseWriter, r *http.Request) {
	id, ok := appointmentID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Appointment not found")
		return
	}

	appt, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, appointments.ErrAppointmentNotFound) {
			writeError(w, http.StatusNotFound, "Appointment not found")
			return
		}
		h.logger.Error("failed to fetch result", "error", err, "appointment_id", id)
		writeError(w, http.StatusInternalServerError, "Failed to fetch result")
		return
	}

	resp := resultResponse{
		ID:     appt.ID,
		Status: string(appt.Status),
		Result: appt.Result,
	}
	log, err := h.logs.GetByAppointment(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to fetch call log", "error", err, "appointment_id", id)
		writeError(w, http.StatusInternalServerError, "Failed to fetch result")
		return
	}
	if log != nil {
		resp.CallLog = &callLogResponse{
			StartedAt:  log.StartedAt,
			EndedAt:    log.EndedAt,
			Transcript: log.Transcript,
			Error:      log.Error,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func appointmentID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
