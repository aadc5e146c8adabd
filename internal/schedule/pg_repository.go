package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// Helpers

func scanAvailability(row pgx.Row) (*RecurringAvailability, error) {
	var a RecurringAvailability

	err := row.Scan(
		&a.ID,
		&a.DoctorID,
		&a.DayOfWeek,
		&a.StartTime,
		&a.EndTime,
		&a.SlotMinutes,
		&a.IsActive,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &a, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var meetingID *string
	var reason *string

	err := row.Scan(
		&a.ID,
		&a.DoctorID,
		&a.PatientID,
		&a.ScheduledDate,
		&a.ScheduledTime,
		&a.DurationMinutes,
		&a.Status,
		&meetingID,
		&reason,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.MeetingID = meetingID
	a.Reason = reason
	return &a, nil
}

const appointmentColumns = `id, doctor_id, patient_id, scheduled_date, scheduled_time,
		duration_minutes, status, meeting_id, reason, created_at, updated_at`

// Interface methods

func (s *PgStore) FindAvailability(ctx context.Context, doctorID uuid.UUID) ([]RecurringAvailability, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, doctor_id, day_of_week, start_time, end_time, slot_minutes, is_active, created_at, updated_at
		FROM doctor_availability
		WHERE doctor_id = $1
		ORDER BY day_of_week
	`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []RecurringAvailability
	for rows.Next() {
		a, err := scanAvailability(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *PgStore) ReplaceAvailability(ctx context.Context, doctorID uuid.UUID, rows []RecurringAvailability) error {
	seen := make(map[int]bool, len(rows))
	for _, row := range rows {
		if row.DayOfWeek < 0 || row.DayOfWeek > 6 {
			return fmt.Errorf("%w: day_of_week %d out of range", ErrAvailabilityInvalid, row.DayOfWeek)
		}
		if seen[row.DayOfWeek] {
			return fmt.Errorf("%w: duplicate day_of_week %d", ErrAvailabilityInvalid, row.DayOfWeek)
		}
		seen[row.DayOfWeek] = true

		start, err := parseClock(row.StartTime)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrAvailabilityInvalid, err)
		}
		end, err := parseClock(row.EndTime)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrAvailabilityInvalid, err)
		}
		if end <= start {
			return fmt.Errorf("%w: end %s not after start %s", ErrAvailabilityInvalid, row.EndTime, row.StartTime)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace availability: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `
		DELETE FROM doctor_availability WHERE doctor_id = $1
	`, doctorID); err != nil {
		return fmt.Errorf("clear availability: %w", err)
	}

	for _, row := range rows {
		if _, err := tx.Exec(ctx, `
			INSERT INTO doctor_availability
				(id, doctor_id, day_of_week, start_time, end_time, slot_minutes, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		`, uuid.New(), doctorID, row.DayOfWeek, row.StartTime, row.EndTime, row.SlotMinutes, row.IsActive); err != nil {
			return fmt.Errorf("insert availability: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace availability: %w", err)
	}

	return nil
}

func (s *PgStore) FindAppointments(ctx context.Context, doctorID uuid.UUID, date string) ([]Appointment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
		  AND scheduled_date = $2
		ORDER BY scheduled_time
	`, doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *PgStore) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

// InsertAppointment relies on the partial unique index over active rows on
// (doctor_id, scheduled_date, scheduled_time); two racing inserts for the
// same interval cannot both commit.
func (s *PgStore) InsertAppointment(ctx context.Context, appt Appointment) (*Appointment, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO appointments
			(id, doctor_id, patient_id, scheduled_date, scheduled_time,
			 duration_minutes, status, meeting_id, reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING `+appointmentColumns+`
	`, appt.ID, appt.DoctorID, appt.PatientID, appt.ScheduledDate, appt.ScheduledTime,
		appt.DurationMinutes, appt.Status, appt.MeetingID, appt.Reason)

	created, err := scanAppointment(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrIntervalTaken
		}
		return nil, err
	}

	return created, nil
}

func (s *PgStore) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)

	return scanAppointment(row)
}

func (s *PgStore) ConfirmAppointment(ctx context.Context, id uuid.UUID, meetingID string) (*Appointment, error) {
	// COALESCE keeps an already-issued meeting id; it is assigned exactly
	// once over the appointment's lifetime.
	row := s.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    meeting_id = COALESCE(meeting_id, $3),
		    updated_at = now()
		WHERE id = $1
		  AND status = $4
		RETURNING `+appointmentColumns+`
	`, id, StatusConfirmed, meetingID, StatusPending)

	return scanAppointment(row)
}

func (s *PgStore) FindOverduePending(ctx context.Context, now time.Time) ([]Appointment, error) {
	date := now.Format("2006-01-02")
	clock := now.Format("15:04")

	rows, err := s.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = $1
		  AND (scheduled_date < $2 OR (scheduled_date = $2 AND scheduled_time < $3))
	`, StatusPending, date, clock)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *PgStore) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
