package schedule

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/healthagent/health-agent-server/internal/redis"
)

const (
	EventAppointmentBooked    = "APPOINTMENT_BOOKED"
	EventAppointmentConfirmed = "APPOINTMENT_CONFIRMED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
	EventAppointmentCompleted = "APPOINTMENT_COMPLETED"
	EventAppointmentExpired   = "APPOINTMENT_EXPIRED"
)

var (
	ErrOutsideWorkingHours = errors.New("requested time is outside the doctor's working hours")
	ErrIntervalBeingBooked = errors.New("interval is currently being booked, please retry")
	ErrActorNotAllowed     = errors.New("only the patient or the assigned doctor may cancel")
	ErrNotYetCompletable   = errors.New("appointment has not reached its scheduled time")
)

// InvalidTransitionError reports an illegal state-machine move. Illegal moves
// are always surfaced, never silently ignored.
type InvalidTransitionError struct {
	From AppointmentStatus
	To   AppointmentStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

// BookingPolicy controls which state a freshly created appointment enters.
type BookingPolicy struct {
	AutoConfirm bool
}

// Service owns the appointment lifecycle: creation against live availability,
// confirmation with one-time meeting id issuance, actor-scoped cancellation
// and completion. All state lives in the store; the service itself is safe to
// share across requests.
type Service struct {
	store  Store
	locker redisclient.Locker
	slots  *SlotGenerator
	policy BookingPolicy
	now    func() time.Time
}

func NewService(store Store, locker redisclient.Locker, slots *SlotGenerator, policy BookingPolicy) *Service {
	return &Service{
		store:  store,
		locker: locker,
		slots:  slots,
		policy: policy,
		now:    time.Now,
	}
}

// WithClock replaces the time source. Date-relative decisions use it so tests
// can pin "now".
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Slots exposes the generator for read-only listing.
func (s *Service) Slots() *SlotGenerator {
	return s.slots
}

// Book creates an appointment in the requested interval. The availability
// read and the insert are composed under a per-interval lock, and the store's
// unique constraint remains the final authority: of two racing requests for
// the same interval exactly one wins, the other sees ErrIntervalTaken.
func (s *Service) Book(ctx context.Context, doctorID, patientID uuid.UUID, date, startTime string, reason *string) (*Appointment, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}
	if _, err := parseClock(startTime); err != nil {
		return nil, err
	}

	var created *Appointment

	err := s.locker.WithIntervalLock(ctx, doctorID, date, startTime, func(lockCtx context.Context) error {
		slots, err := s.slots.SlotsFor(lockCtx, doctorID, date)
		if err != nil {
			return err
		}

		target := -1
		for i, slot := range slots {
			if slot.StartTime == startTime {
				target = i
				break
			}
		}
		if target == -1 {
			return ErrOutsideWorkingHours
		}
		if !slots[target].Available {
			return ErrIntervalTaken
		}

		status := StatusPending
		var meetingID *string
		if s.policy.AutoConfirm {
			status = StatusConfirmed
			id := newMeetingID()
			meetingID = &id
		}

		duration, _ := parseClock(slots[target].EndTime)
		slotStart, _ := parseClock(slots[target].StartTime)
		duration -= slotStart

		appt, err := s.store.InsertAppointment(lockCtx, Appointment{
			ID:              uuid.New(),
			DoctorID:        doctorID,
			PatientID:       patientID,
			ScheduledDate:   date,
			ScheduledTime:   startTime,
			DurationMinutes: duration,
			Status:          status,
			MeetingID:       meetingID,
			Reason:          reason,
		})
		if err != nil {
			return err
		}

		created = appt
		s.logEvent(lockCtx, appt.ID, EventAppointmentBooked, map[string]any{
			"doctor_id":  doctorID.String(),
			"patient_id": patientID.String(),
			"date":       date,
			"time":       startTime,
			"status":     string(status),
		})

		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrIntervalBeingBooked
		}
		return nil, err
	}

	return created, nil
}

// Appointment loads a single appointment by id.
func (s *Service) Appointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.store.GetAppointmentByID(ctx, id)
}

// Confirm moves a PENDING appointment to CONFIRMED and issues its meeting id
// if one was never assigned.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.store.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if appt.Status != StatusPending {
		return nil, &InvalidTransitionError{From: appt.Status, To: StatusConfirmed}
	}

	updated, err := s.store.ConfirmAppointment(ctx, appt.ID, newMeetingID())
	if err != nil {
		return nil, fmt.Errorf("confirm appointment: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventAppointmentConfirmed, map[string]any{
		"meeting_id": derefString(updated.MeetingID),
	})

	return updated, nil
}

// Cancel transitions a PENDING or CONFIRMED appointment to CANCELLED.
// Permitted only to the owning patient or the assigned doctor.
func (s *Service) Cancel(ctx context.Context, id, actingUserID uuid.UUID) (*Appointment, error) {
	appt, err := s.store.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if actingUserID != appt.PatientID && actingUserID != appt.DoctorID {
		return nil, ErrActorNotAllowed
	}
	if !appt.Status.Active() {
		return nil, &InvalidTransitionError{From: appt.Status, To: StatusCancelled}
	}

	updated, err := s.store.UpdateAppointmentStatus(ctx, appt.ID, appt.Status, StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventAppointmentCancelled, map[string]any{
		"acting_user_id": actingUserID.String(),
		"from":           string(appt.Status),
	})

	return updated, nil
}

// Complete transitions a CONFIRMED appointment to COMPLETED once its
// scheduled instant has passed.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.store.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if appt.Status != StatusConfirmed {
		return nil, &InvalidTransitionError{From: appt.Status, To: StatusCompleted}
	}

	scheduledAt, err := appt.ScheduledAt()
	if err != nil {
		return nil, fmt.Errorf("parse scheduled instant: %w", err)
	}
	if !scheduledAt.Before(s.now()) {
		return nil, ErrNotYetCompletable
	}

	updated, err := s.store.UpdateAppointmentStatus(ctx, appt.ID, StatusConfirmed, StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("complete appointment: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventAppointmentCompleted, map[string]any{})

	return updated, nil
}

// ExpireOverduePending cancels PENDING appointments whose scheduled time has
// already passed. Called periodically by the expiry worker.
func (s *Service) ExpireOverduePending(ctx context.Context) error {
	overdue, err := s.store.FindOverduePending(ctx, s.now())
	if err != nil {
		return fmt.Errorf("find overdue pending appointments: %w", err)
	}

	for _, appt := range overdue {
		_, err := s.store.UpdateAppointmentStatus(ctx, appt.ID, StatusPending, StatusCancelled)
		if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
			log.Printf("failed to expire appointment %s: %v", appt.ID, err)
			continue
		}
		s.logEvent(ctx, appt.ID, EventAppointmentExpired, map[string]any{
			"reason": "worker",
		})
	}

	return nil
}

// ReplaceAvailability swaps a doctor's weekly hours atomically.
func (s *Service) ReplaceAvailability(ctx context.Context, doctorID uuid.UUID, rows []RecurringAvailability) error {
	return s.store.ReplaceAvailability(ctx, doctorID, rows)
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal event payload for %s: %v", eventType, err)
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     s.now(),
	}

	if err := s.store.InsertEvent(ctx, ev); err != nil {
		log.Printf("failed to insert event log %s for appointment %s: %v", eventType, appointmentID, err)
	}
}

const meetingIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// newMeetingID returns a 10-character uppercase identifier for the video
// call room.
func newMeetingID() string {
	buf := make([]byte, 10)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is unrecoverable in practice; fall back to a uuid.
		return uuid.NewString()[:10]
	}
	for i, b := range buf {
		buf[i] = meetingIDAlphabet[int(b)%len(meetingIDAlphabet)]
	}
	return string(buf)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
