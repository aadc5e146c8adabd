package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/healthagent/health-agent-server/internal/intent"
	"github.com/healthagent/health-agent-server/internal/profile"
	"github.com/healthagent/health-agent-server/internal/schedule"
)

type ResolveIntentRequest struct {
	Text string `json:"text"`
}

type ResolveIntentResponse struct {
	intent.Extraction
	NeedsConfirmation bool `json:"needs_confirmation"`
}

type GeneratePlanRequest struct {
	Profile profile.HealthProfile `json:"profile"`
	Extra   string                `json:"extra,omitempty"`
}

type AvailabilityRow struct {
	DayOfWeek   int    `json:"day_of_week"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	SlotMinutes int    `json:"slot_minutes,omitempty"`
	IsActive    bool   `json:"is_active"`
}

type ReplaceAvailabilityRequest struct {
	Availability []AvailabilityRow `json:"availability"`
}

type BookAppointmentRequest struct {
	DoctorID  string  `json:"doctor_id"`
	PatientID string  `json:"patient_id"`
	Date      string  `json:"date"`
	Time      string  `json:"time"`
	Reason    *string `json:"reason,omitempty"`
}

type CancelAppointmentRequest struct {
	ActingUserID string `json:"acting_user_id"`
}

type AppointmentResponse struct {
	ID              uuid.UUID `json:"id"`
	DoctorID        uuid.UUID `json:"doctor_id"`
	PatientID       uuid.UUID `json:"patient_id"`
	ScheduledDate   string    `json:"scheduled_date"`
	ScheduledTime   string    `json:"scheduled_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
	MeetingID       *string   `json:"meeting_id,omitempty"`
	Reason          *string   `json:"reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toAppointmentResponse(appt *schedule.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:              appt.ID,
		DoctorID:        appt.DoctorID,
		PatientID:       appt.PatientID,
		ScheduledDate:   appt.ScheduledDate,
		ScheduledTime:   appt.ScheduledTime,
		DurationMinutes: appt.DurationMinutes,
		Status:          string(appt.Status),
		MeetingID:       appt.MeetingID,
		Reason:          appt.Reason,
		CreatedAt:       appt.CreatedAt,
	}
}
