package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SlotGenerator expands a doctor's recurring weekly hours into the concrete
// bookable intervals of one date. Every call reads live state; nothing is
// cached, so the result always reflects the latest bookings.
type SlotGenerator struct {
	store              Store
	defaultSlotMinutes int
}

func NewSlotGenerator(store Store, defaultSlotMinutes int) *SlotGenerator {
	if defaultSlotMinutes <= 0 {
		defaultSlotMinutes = 30
	}
	return &SlotGenerator{
		store:              store,
		defaultSlotMinutes: defaultSlotMinutes,
	}
}

// SlotsFor returns the chronological slot sequence for doctorID on date
// ("2006-01-02"). A day without active working hours yields an empty
// sequence, not an error.
func (g *SlotGenerator) SlotsFor(ctx context.Context, doctorID uuid.UUID, date string) ([]Slot, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}
	weekday := int(day.Weekday())

	availability, err := g.store.FindAvailability(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("load availability: %w", err)
	}

	var hours *RecurringAvailability
	for i := range availability {
		if availability[i].DayOfWeek == weekday && availability[i].IsActive {
			hours = &availability[i]
			break
		}
	}
	if hours == nil {
		return nil, nil
	}

	start, err := parseClock(hours.StartTime)
	if err != nil {
		return nil, fmt.Errorf("availability start: %w", err)
	}
	end, err := parseClock(hours.EndTime)
	if err != nil {
		return nil, fmt.Errorf("availability end: %w", err)
	}

	width := hours.SlotMinutes
	if width <= 0 {
		width = g.defaultSlotMinutes
	}

	appointments, err := g.store.FindAppointments(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}

	var slots []Slot
	for cursor := start; cursor+width <= end; cursor += width {
		slots = append(slots, Slot{
			Date:      date,
			StartTime: formatClock(cursor),
			EndTime:   formatClock(cursor + width),
			Available: !intervalBooked(appointments, cursor, width),
		})
	}

	return slots, nil
}

func intervalBooked(appointments []Appointment, start, width int) bool {
	for _, appt := range appointments {
		if !appt.Status.Active() {
			continue
		}
		apptStart, err := parseClock(appt.ScheduledTime)
		if err != nil {
			continue
		}
		duration := appt.DurationMinutes
		if duration <= 0 {
			duration = width
		}
		if overlaps(start, width, apptStart, duration) {
			return true
		}
	}
	return false
}
