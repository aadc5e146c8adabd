package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memStore is an in-memory Store used across the package tests. Its mutex
// makes InsertAppointment the same atomic check-and-insert the partial
// unique index provides in Postgres.
type memStore struct {
	mu           sync.Mutex
	availability map[uuid.UUID][]RecurringAvailability
	appointments map[uuid.UUID]*Appointment
	events       []EventLog
}

func newMemStore() *memStore {
	return &memStore{
		availability: make(map[uuid.UUID][]RecurringAvailability),
		appointments: make(map[uuid.UUID]*Appointment),
	}
}

func (m *memStore) FindAvailability(ctx context.Context, doctorID uuid.UUID) ([]RecurringAvailability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecurringAvailability(nil), m.availability[doctorID]...), nil
}

func (m *memStore) ReplaceAvailability(ctx context.Context, doctorID uuid.UUID, rows []RecurringAvailability) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[int]bool, len(rows))
	for _, row := range rows {
		if seen[row.DayOfWeek] {
			return ErrAvailabilityInvalid
		}
		seen[row.DayOfWeek] = true
	}

	replacement := make([]RecurringAvailability, len(rows))
	for i, row := range rows {
		row.DoctorID = doctorID
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		replacement[i] = row
	}
	m.availability[doctorID] = replacement
	return nil
}

func (m *memStore) FindAppointments(ctx context.Context, doctorID uuid.UUID, date string) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []Appointment
	for _, appt := range m.appointments {
		if appt.DoctorID == doctorID && appt.ScheduledDate == date {
			result = append(result, *appt)
		}
	}
	return result, nil
}

func (m *memStore) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	appt, ok := m.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	copied := *appt
	return &copied, nil
}

func (m *memStore) InsertAppointment(ctx context.Context, appt Appointment) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.appointments {
		if existing.DoctorID == appt.DoctorID &&
			existing.ScheduledDate == appt.ScheduledDate &&
			existing.ScheduledTime == appt.ScheduledTime &&
			existing.Status.Active() {
			return nil, ErrIntervalTaken
		}
	}

	appt.CreatedAt = time.Now()
	appt.UpdatedAt = appt.CreatedAt
	stored := appt
	m.appointments[appt.ID] = &stored
	copied := stored
	return &copied, nil
}

func (m *memStore) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	appt, ok := m.appointments[id]
	if !ok || appt.Status != from {
		return nil, ErrAppointmentNotFound
	}
	appt.Status = to
	appt.UpdatedAt = time.Now()
	copied := *appt
	return &copied, nil
}

func (m *memStore) ConfirmAppointment(ctx context.Context, id uuid.UUID, meetingID string) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	appt, ok := m.appointments[id]
	if !ok || appt.Status != StatusPending {
		return nil, ErrAppointmentNotFound
	}
	appt.Status = StatusConfirmed
	if appt.MeetingID == nil {
		appt.MeetingID = &meetingID
	}
	appt.UpdatedAt = time.Now()
	copied := *appt
	return &copied, nil
}

func (m *memStore) FindOverduePending(ctx context.Context, now time.Time) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []Appointment
	for _, appt := range m.appointments {
		if appt.Status != StatusPending {
			continue
		}
		at, err := appt.ScheduledAt()
		if err != nil {
			continue
		}
		if at.Before(now) {
			result = append(result, *appt)
		}
	}
	return result, nil
}

func (m *memStore) InsertEvent(ctx context.Context, ev EventLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *memStore) eventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	types := make([]string, len(m.events))
	for i, ev := range m.events {
		types[i] = ev.EventType
	}
	return types
}

func (m *memStore) activeCount(doctorID uuid.UUID, date, startTime string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, appt := range m.appointments {
		if appt.DoctorID == doctorID && appt.ScheduledDate == date &&
			appt.ScheduledTime == startTime && appt.Status.Active() {
			count++
		}
	}
	return count
}

// passLocker runs the critical section directly; the memStore's own mutex
// provides the atomicity under test.
type passLocker struct{}

func (passLocker) WithIntervalLock(ctx context.Context, doctorID uuid.UUID, date, startTime string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
