package schedule

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-01-15 is a Monday.
const monday = "2024-01-15"

func mondayHours(doctorID uuid.UUID, start, end string, slotMinutes int) RecurringAvailability {
	return RecurringAvailability{
		ID:          uuid.New(),
		DoctorID:    doctorID,
		DayOfWeek:   1,
		StartTime:   start,
		EndTime:     end,
		SlotMinutes: slotMinutes,
		IsActive:    true,
	}
}

func TestSlotsForPartitionsWorkingHours(t *testing.T) {
	store := newMemStore()
	doctorID := uuid.New()
	store.availability[doctorID] = []RecurringAvailability{mondayHours(doctorID, "09:00", "11:00", 30)}

	slots, err := NewSlotGenerator(store, 30).SlotsFor(context.Background(), doctorID, monday)
	require.NoError(t, err)

	require.Len(t, slots, 4)
	assert.Equal(t, "09:00", slots[0].StartTime)
	assert.Equal(t, "09:30", slots[0].EndTime)
	assert.Equal(t, "10:30", slots[3].StartTime)
	assert.Equal(t, "11:00", slots[3].EndTime)
	for _, slot := range slots {
		assert.True(t, slot.Available)
		assert.Equal(t, monday, slot.Date)
	}
}

func TestSlotsForMarksBookedIntervalUnavailable(t *testing.T) {
	store := newMemStore()
	doctorID := uuid.New()
	store.availability[doctorID] = []RecurringAvailability{mondayHours(doctorID, "09:00", "11:00", 30)}

	appt := Appointment{
		ID:              uuid.New(),
		DoctorID:        doctorID,
		PatientID:       uuid.New(),
		ScheduledDate:   monday,
		ScheduledTime:   "09:30",
		DurationMinutes: 30,
		Status:          StatusConfirmed,
	}
	_, err := store.InsertAppointment(context.Background(), appt)
	require.NoError(t, err)

	slots, err := NewSlotGenerator(store, 30).SlotsFor(context.Background(), doctorID, monday)
	require.NoError(t, err)

	require.Len(t, slots, 4)
	assert.True(t, slots[0].Available, "09:00 stays free")
	assert.False(t, slots[1].Available, "09:30 is booked")
	assert.True(t, slots[2].Available, "10:00 stays free")
	assert.True(t, slots[3].Available, "10:30 stays free")
}

func TestSlotsForCancelledAppointmentDoesNotBlock(t *testing.T) {
	store := newMemStore()
	doctorID := uuid.New()
	store.availability[doctorID] = []RecurringAvailability{mondayHours(doctorID, "09:00", "10:00", 30)}

	appt := Appointment{
		ID:              uuid.New(),
		DoctorID:        doctorID,
		PatientID:       uuid.New(),
		ScheduledDate:   monday,
		ScheduledTime:   "09:00",
		DurationMinutes: 30,
		Status:          StatusCancelled,
	}
	store.appointments[appt.ID] = &appt

	slots, err := NewSlotGenerator(store, 30).SlotsFor(context.Background(), doctorID, monday)
	require.NoError(t, err)

	require.Len(t, slots, 2)
	assert.True(t, slots[0].Available)
}

func TestSlotsForLongAppointmentBlocksEveryOverlappedSlot(t *testing.T) {
	store := newMemStore()
	doctorID := uuid.New()
	store.availability[doctorID] = []RecurringAvailability{mondayHours(doctorID, "09:00", "11:00", 30)}

	appt := Appointment{
		ID:              uuid.New(),
		DoctorID:        doctorID,
		PatientID:       uuid.New(),
		ScheduledDate:   monday,
		ScheduledTime:   "09:15",
		DurationMinutes: 60,
		Status:          StatusPending,
	}
	store.appointments[appt.ID] = &appt

	slots, err := NewSlotGenerator(store, 30).SlotsFor(context.Background(), doctorID, monday)
	require.NoError(t, err)

	// 09:15-10:15 touches the 09:00, 09:30 and 10:00 slots.
	assert.False(t, slots[0].Available)
	assert.False(t, slots[1].Available)
	assert.False(t, slots[2].Available)
	assert.True(t, slots[3].Available)
}

func TestSlotsForNoWorkingHoursThatDay(t *testing.T) {
	store := newMemStore()
	doctorID := uuid.New()
	// Tuesday hours only; querying a Monday.
	hours := mondayHours(doctorID, "09:00", "17:00", 30)
	hours.DayOfWeek = 2
	store.availability[doctorID] = []RecurringAvailability{hours}

	slots, err := NewSlotGenerator(store, 30).SlotsFor(context.Background(), doctorID, monday)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestSlotsForInactiveDayYieldsNothing(t *testing.T) {
	store := newMemStore()
	doctorID := uuid.New()
	hours := mondayHours(doctorID, "09:00", "17:00", 30)
	hours.IsActive = false
	store.availability[doctorID] = []RecurringAvailability{hours}

	slots, err := NewSlotGenerator(store, 30).SlotsFor(context.Background(), doctorID, monday)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestSlotsForDoctorConfiguredWidth(t *testing.T) {
	store := newMemStore()
	doctorID := uuid.New()
	store.availability[doctorID] = []RecurringAvailability{mondayHours(doctorID, "09:00", "10:00", 20)}

	slots, err := NewSlotGenerator(store, 30).SlotsFor(context.Background(), doctorID, monday)
	require.NoError(t, err)

	require.Len(t, slots, 3)
	assert.Equal(t, "09:20", slots[1].StartTime)
}

func TestSlotsForZeroWidthFallsBackToDefault(t *testing.T) {
	store := newMemStore()
	doctorID := uuid.New()
	store.availability[doctorID] = []RecurringAvailability{mondayHours(doctorID, "09:00", "10:00", 0)}

	slots, err := NewSlotGenerator(store, 30).SlotsFor(context.Background(), doctorID, monday)
	require.NoError(t, err)
	require.Len(t, slots, 2)
}

func TestSlotsForRejectsMalformedDate(t *testing.T) {
	store := newMemStore()
	_, err := NewSlotGenerator(store, 30).SlotsFor(context.Background(), uuid.New(), "15/01/2024")
	assert.Error(t, err)
}
