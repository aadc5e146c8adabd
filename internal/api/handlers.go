package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/healthagent/health-agent-server/internal/intent"
	"github.com/healthagent/health-agent-server/internal/plans"
	"github.com/healthagent/health-agent-server/internal/schedule"
)

// IntentHandler resolves free-text scheduling requests.
type IntentHandler struct {
	resolver *intent.Resolver
}

func NewIntentHandler(resolver *intent.Resolver) *IntentHandler {
	return &IntentHandler{resolver: resolver}
}

func (h *IntentHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "text is required")
		return
	}

	extraction := h.resolver.ResolveWithService(r.Context(), req.Text, time.Now())

	writeJSON(w, http.StatusOK, ResolveIntentResponse{
		Extraction:        extraction,
		NeedsConfirmation: extraction.NeedsConfirmation(),
	})
}

// PlanHandler generates structured plans from a health profile.
type PlanHandler struct {
	pipeline *plans.Pipeline
}

func NewPlanHandler(pipeline *plans.Pipeline) *PlanHandler {
	return &PlanHandler{pipeline: pipeline}
}

func (h *PlanHandler) Generate(w http.ResponseWriter, r *http.Request) {
	kind, err := plans.ParsePlanKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	var req GeneratePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}

	plan, err := h.pipeline.Generate(r.Context(), kind, req.Profile, req.Extra)
	if err != nil {
		handleGenerateError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"kind": string(plan.Kind),
		"plan": plan.Value(),
	})
}

func handleGenerateError(w http.ResponseWriter, err error) {
	var extractErr *plans.ExtractionError
	switch {
	case errors.Is(err, plans.ErrServiceUnavailable):
		writeError(w, http.StatusBadGateway, "service_unavailable", "plan generation is temporarily unavailable")
	case errors.As(err, &extractErr):
		writeError(w, http.StatusBadGateway, "invalid_reply", "plan generation produced an unusable reply")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to generate plan")
	}
}

// ScheduleHandler serves availability, slot listing and the appointment
// lifecycle.
type ScheduleHandler struct {
	service *schedule.Service
}

func NewScheduleHandler(service *schedule.Service) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

func (h *ScheduleHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	doctorID, err := uuid.Parse(chi.URLParam(r, "doctorID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "doctorID must be a valid uuid")
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "date query parameter is required")
		return
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "date must be formatted YYYY-MM-DD")
		return
	}

	slots, err := h.service.Slots().SlotsFor(r.Context(), doctorID, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list slots")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"doctor_id": doctorID,
		"date":      date,
		"slots":     slots,
	})
}

func (h *ScheduleHandler) ReplaceAvailability(w http.ResponseWriter, r *http.Request) {
	doctorID, err := uuid.Parse(chi.URLParam(r, "doctorID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "doctorID must be a valid uuid")
		return
	}

	var req ReplaceAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}

	rows := make([]schedule.RecurringAvailability, 0, len(req.Availability))
	for _, row := range req.Availability {
		rows = append(rows, schedule.RecurringAvailability{
			ID:          uuid.New(),
			DoctorID:    doctorID,
			DayOfWeek:   row.DayOfWeek,
			StartTime:   row.StartTime,
			EndTime:     row.EndTime,
			SlotMinutes: row.SlotMinutes,
			IsActive:    row.IsActive,
		})
	}

	if err := h.service.ReplaceAvailability(r.Context(), doctorID, rows); err != nil {
		if errors.Is(err, schedule.ErrAvailabilityInvalid) {
			writeError(w, http.StatusUnprocessableEntity, "invalid_availability", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to replace availability")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"doctor_id": doctorID,
		"rows":      len(rows),
	})
}

func (h *ScheduleHandler) Book(w http.ResponseWriter, r *http.Request) {
	var req BookAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}

	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "doctor_id must be a valid uuid")
		return
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "patient_id must be a valid uuid")
		return
	}

	appt, err := h.service.Book(r.Context(), doctorID, patientID, req.Date, req.Time, req.Reason)
	if err != nil {
		handleBookError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
}

func handleBookError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrIntervalTaken):
		writeError(w, http.StatusConflict, "interval_taken", "the requested interval is already booked")
	case errors.Is(err, schedule.ErrIntervalBeingBooked):
		writeError(w, http.StatusConflict, "interval_contended", "the interval is being booked by another request, retry shortly")
	case errors.Is(err, schedule.ErrOutsideWorkingHours):
		writeError(w, http.StatusUnprocessableEntity, "outside_working_hours", "the requested time is not a bookable slot")
	default:
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	}
}

func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "id must be a valid uuid")
		return
	}

	appt, err := h.service.Appointment(r.Context(), id)
	if err != nil {
		handleLifecycleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (h *ScheduleHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "id must be a valid uuid")
		return
	}

	appt, err := h.service.Confirm(r.Context(), id)
	if err != nil {
		handleLifecycleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (h *ScheduleHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "id must be a valid uuid")
		return
	}

	var req CancelAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}
	actingUserID, err := uuid.Parse(req.ActingUserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "acting_user_id must be a valid uuid")
		return
	}

	appt, err := h.service.Cancel(r.Context(), id, actingUserID)
	if err != nil {
		handleLifecycleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (h *ScheduleHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "id must be a valid uuid")
		return
	}

	appt, err := h.service.Complete(r.Context(), id)
	if err != nil {
		handleLifecycleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func handleLifecycleError(w http.ResponseWriter, err error) {
	var transErr *schedule.InvalidTransitionError
	switch {
	case errors.Is(err, schedule.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "not_found", "appointment not found")
	case errors.Is(err, schedule.ErrActorNotAllowed):
		writeError(w, http.StatusForbidden, "not_allowed", "only the patient or the assigned doctor may cancel")
	case errors.Is(err, schedule.ErrNotYetCompletable):
		writeError(w, http.StatusConflict, "not_yet_completable", "the appointment has not reached its scheduled time")
	case errors.As(err, &transErr):
		writeError(w, http.StatusConflict, "invalid_transition", transErr.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to update appointment")
	}
}
