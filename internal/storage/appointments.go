package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"agendly/internal/model"
	"agendly/internal/quota"
	"agendly/internal/schedule"
)

const appointmentColumns = `
	id::text, establishment_id::text, staff_id::text, service_id::text, client_id::text,
	start_time, duration_minutes, status, created_at`

// CreateAppointment inserts one booking. The monthly quota is re-checked
// inside the same transaction as the insert, serialized per establishment
// with an advisory lock, so two concurrent creations cannot jointly exceed
// the ceiling. Overlap is enforced by the exclusion constraint and surfaced
// as ErrOverlap.
func (r *Repository) CreateAppointment(ctx context.Context, appt model.Appointment, maxMonthly *int) (model.Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Appointment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if maxMonthly != nil {
		if _, err := tx.Exec(ctx, `
			SELECT pg_advisory_xact_lock(hashtext($1))
		`, appt.EstablishmentID); err != nil {
			return model.Appointment{}, err
		}
		count, err := countInMonth(ctx, tx, appt.EstablishmentID, appt.StartTime)
		if err != nil {
			return model.Appointment{}, err
		}
		if d := quota.Check(count, maxMonthly); !d.Allowed {
			return model.Appointment{}, &QuotaError{Current: d.Current, Max: d.Max}
		}
	}

	appt.ID = uuid.NewString()
	if appt.Status == "" {
		appt.Status = model.StatusScheduled
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO appointments (id, establishment_id, staff_id, service_id, client_id, start_time, duration_minutes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, appt.ID, appt.EstablishmentID, appt.StaffID, appt.ServiceID, appt.ClientID,
		appt.StartTime, appt.DurationMins, string(appt.Status)).Scan(&appt.CreatedAt)
	if err != nil {
		if isExclusionViolation(err) {
			return model.Appointment{}, ErrOverlap
		}
		return model.Appointment{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Appointment{}, err
	}
	return appt, nil
}

// rowQuerier is satisfied by both pgx.Tx and the pool, so the in-transaction
// quota check and the read-only reporting path share one count query.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func countInMonth(ctx context.Context, q rowQuerier, establishmentID string, at time.Time) (int, error) {
	monthStart, monthEnd := quota.MonthRange(at)
	var count int
	err := q.QueryRow(ctx, `
		SELECT count(*)
		FROM appointments
		WHERE establishment_id = $1
			AND status <> 'cancelled'
			AND start_time >= $2
			AND start_time < $3
	`, establishmentID, monthStart, monthEnd).Scan(&count)
	return count, err
}

// CountInMonth is the read-only variant used for quota reporting.
func (r *Repository) CountInMonth(ctx context.Context, establishmentID string, at time.Time) (int, error) {
	return countInMonth(ctx, r.pool, establishmentID, at)
}

func (r *Repository) GetAppointment(ctx context.Context, id string) (model.Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	appt, err := scanAppointment(row)
	if err != nil {
		return model.Appointment{}, notFound(err)
	}
	return appt, nil
}

// BookedIntervals returns the occupied windows of every non-cancelled
// appointment for a staff member intersecting [from, to).
func (r *Repository) BookedIntervals(ctx context.Context, staffID string, from, to time.Time) ([]schedule.BusyInterval, error) {
	return r.BookedIntervalsExcluding(ctx, staffID, "", from, to)
}

// BookedIntervalsExcluding is BookedIntervals minus one appointment, used by
// reschedule so a booking does not conflict with its own current window.
func (r *Repository) BookedIntervalsExcluding(ctx context.Context, staffID, excludeApptID string, from, to time.Time) ([]schedule.BusyInterval, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT start_time, end_time
		FROM appointments
		WHERE staff_id = $1
			AND status <> 'cancelled'
			AND start_time < $3
			AND end_time > $2
			AND ($4 = '' OR id::text <> $4)
		ORDER BY start_time
	`, staffID, from, to, excludeApptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schedule.BusyInterval
	for rows.Next() {
		var b schedule.BusyInterval
		if err := rows.Scan(&b.Start, &b.End); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) ListAppointments(ctx context.Context, staffID string, from, to time.Time) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+appointmentColumns+`
		FROM appointments
		WHERE staff_id = $1
			AND start_time >= $2
			AND start_time < $3
		ORDER BY start_time
	`, staffID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// CancelAppointment flips status to cancelled, freeing the window for the
// exclusion constraint. Cancelling twice is a no-op returning the row.
func (r *Repository) CancelAppointment(ctx context.Context, id string) (model.Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = 'cancelled'
		WHERE id = $1
		RETURNING`+appointmentColumns+`
	`, id)
	appt, err := scanAppointment(row)
	if err != nil {
		return model.Appointment{}, notFound(err)
	}
	return appt, nil
}

// RescheduleAppointment moves a booking to a new start. The exclusion
// constraint rejects the move when the new window overlaps another booking
// for the same staff member.
func (r *Repository) RescheduleAppointment(ctx context.Context, id string, newStart time.Time) (model.Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET start_time = $2
		WHERE id = $1 AND status <> 'cancelled'
		RETURNING`+appointmentColumns+`
	`, id, newStart)
	appt, err := scanAppointment(row)
	if err != nil {
		if isExclusionViolation(err) {
			return model.Appointment{}, ErrOverlap
		}
		return model.Appointment{}, notFound(err)
	}
	return appt, nil
}

// UpcomingAppointments lists every non-cancelled appointment starting in
// (now, until]. The reminder re-scan feeds on this.
func (r *Repository) UpcomingAppointments(ctx context.Context, now, until time.Time) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+appointmentColumns+`
		FROM appointments
		WHERE status <> 'cancelled'
			AND start_time > $1
			AND start_time <= $2
		ORDER BY start_time
	`, now, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// MarkReminded claims the one reminder an appointment ever gets. Returns
// true only for the first caller; later attempts (re-scan after restart, a
// racing timer) find the row already present.
func (r *Repository) MarkReminded(ctx context.Context, appointmentID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO reminder_log (appointment_id)
		VALUES ($1)
		ON CONFLICT (appointment_id) DO NOTHING
	`, appointmentID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ClearReminder retires a fired-or-pending reminder claim when an
// appointment moves to a new time, so the new time gets its own reminder.
func (r *Repository) ClearReminder(ctx context.Context, appointmentID string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM reminder_log WHERE appointment_id = $1
	`, appointmentID)
	return err
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var a model.Appointment
	var status string
	if err := row.Scan(&a.ID, &a.EstablishmentID, &a.StaffID, &a.ServiceID, &a.ClientID,
		&a.StartTime, &a.DurationMins, &status, &a.CreatedAt); err != nil {
		return model.Appointment{}, err
	}
	a.Status = model.AppointmentStatus(status)
	return a, nil
}

func scanAppointments(rows pgx.Rows) ([]model.Appointment, error) {
	var out []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
