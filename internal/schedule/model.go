package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "PENDING"
	StatusConfirmed AppointmentStatus = "CONFIRMED"
	StatusCancelled AppointmentStatus = "CANCELLED"
	StatusCompleted AppointmentStatus = "COMPLETED"
)

// Active reports whether the status still claims its interval.
func (s AppointmentStatus) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Terminal reports whether no further transition is allowed out of s.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// RecurringAvailability is a doctor's weekly repeating open-hours declaration.
// DayOfWeek runs 0 (Sunday) through 6 (Saturday) and is unique per doctor.
type RecurringAvailability struct {
	ID          uuid.UUID
	DoctorID    uuid.UUID
	DayOfWeek   int
	StartTime   string // "HH:MM"
	EndTime     string // "HH:MM"
	SlotMinutes int    // 0 falls back to the service default
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Slot is a concrete bookable interval on a specific date. Derived, never
// persisted; regenerated from availability plus live appointments per query.
type Slot struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Available bool   `json:"available"`
}

type Appointment struct {
	ID              uuid.UUID
	DoctorID        uuid.UUID
	PatientID       uuid.UUID
	ScheduledDate   string // "2006-01-02"
	ScheduledTime   string // "HH:MM"
	DurationMinutes int
	Status          AppointmentStatus
	MeetingID       *string
	Reason          *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ScheduledAt combines the date and time columns into one instant.
func (a Appointment) ScheduledAt() (time.Time, error) {
	return time.Parse("2006-01-02 15:04", a.ScheduledDate+" "+a.ScheduledTime)
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

// parseClock converts "HH:MM" to minutes after midnight.
func parseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	return hour*60 + minute, nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// overlaps reports whether [aStart, aStart+aDur) and [bStart, bStart+bDur)
// intersect, all in minutes after midnight.
func overlaps(aStart, aDur, bStart, bDur int) bool {
	return aStart < bStart+bDur && bStart < aStart+aDur
}
