package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrAvailabilityInvalid = errors.New("availability set is invalid")

	// ErrIntervalTaken is the store-level conflict: another active
	// appointment already claims the interval. It is the final authority on
	// double bookings regardless of what the availability read said.
	ErrIntervalTaken = errors.New("interval already has an active appointment")
)

// Store contains all datastore interactions the scheduling core needs. The
// backing implementation must make InsertAppointment an atomic
// check-and-insert against active rows on the same interval.
type Store interface {
	FindAvailability(ctx context.Context, doctorID uuid.UUID) ([]RecurringAvailability, error)

	// ReplaceAvailability swaps the doctor's full weekly set in one
	// transaction. DayOfWeek values must be unique within rows.
	ReplaceAvailability(ctx context.Context, doctorID uuid.UUID, rows []RecurringAvailability) error

	FindAppointments(ctx context.Context, doctorID uuid.UUID, date string) ([]Appointment, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// InsertAppointment persists a new appointment, failing with
	// ErrIntervalTaken when a PENDING or CONFIRMED row already holds the
	// same (doctor, date, time).
	InsertAppointment(ctx context.Context, appt Appointment) (*Appointment, error)

	// UpdateAppointmentStatus performs a conditional transition; no row in
	// state from means ErrAppointmentNotFound.
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)

	// ConfirmAppointment moves PENDING to CONFIRMED and sets the meeting id
	// only if none was ever assigned, in a single statement.
	ConfirmAppointment(ctx context.Context, id uuid.UUID, meetingID string) (*Appointment, error)

	// FindOverduePending returns PENDING appointments whose scheduled
	// instant is before now. Used by the expiry worker.
	FindOverduePending(ctx context.Context, now time.Time) ([]Appointment, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}
