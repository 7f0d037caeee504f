package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"agendly/internal/model"
)

// BusinessDay returns the establishment's hours for one weekday. A missing
// row means the establishment never configured that day: closed.
func (r *Repository) BusinessDay(ctx context.Context, establishmentID string, weekday time.Weekday) (model.DayHours, error) {
	dh := model.DayHours{Weekday: weekday}
	err := r.pool.QueryRow(ctx, `
		SELECT is_open, start_minute, end_minute
		FROM business_hours
		WHERE establishment_id = $1 AND weekday = $2
	`, establishmentID, int(weekday)).Scan(&dh.Open, &dh.StartMinute, &dh.EndMinute)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.DayHours{Weekday: weekday}, nil
	}
	if err != nil {
		return model.DayHours{}, err
	}
	return dh, nil
}

// StaffDay mirrors BusinessDay for a staff member's own weekly table. Absent
// or unavailable rows mean the staff member does not work that weekday at
// all, regardless of business hours.
func (r *Repository) StaffDay(ctx context.Context, staffID string, weekday time.Weekday) (model.DayHours, error) {
	dh := model.DayHours{Weekday: weekday}
	err := r.pool.QueryRow(ctx, `
		SELECT is_available, start_minute, end_minute
		FROM staff_working_hours
		WHERE staff_id = $1 AND weekday = $2
	`, staffID, int(weekday)).Scan(&dh.Open, &dh.StartMinute, &dh.EndMinute)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.DayHours{Weekday: weekday}, nil
	}
	if err != nil {
		return model.DayHours{}, err
	}
	return dh, nil
}

func (r *Repository) UpsertBusinessHours(ctx context.Context, establishmentID string, days []model.DayHours) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, d := range days {
		if _, err := tx.Exec(ctx, `
			INSERT INTO business_hours (establishment_id, weekday, is_open, start_minute, end_minute)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (establishment_id, weekday) DO UPDATE
			SET is_open = EXCLUDED.is_open,
				start_minute = EXCLUDED.start_minute,
				end_minute = EXCLUDED.end_minute
		`, establishmentID, int(d.Weekday), d.Open, d.StartMinute, d.EndMinute); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *Repository) UpsertStaffHours(ctx context.Context, staffID string, days []model.DayHours) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, d := range days {
		if _, err := tx.Exec(ctx, `
			INSERT INTO staff_working_hours (staff_id, weekday, is_available, start_minute, end_minute)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (staff_id, weekday) DO UPDATE
			SET is_available = EXCLUDED.is_available,
				start_minute = EXCLUDED.start_minute,
				end_minute = EXCLUDED.end_minute
		`, staffID, int(d.Weekday), d.Open, d.StartMinute, d.EndMinute); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *Repository) ListBusinessHours(ctx context.Context, establishmentID string) ([]model.DayHours, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT weekday, is_open, start_minute, end_minute
		FROM business_hours
		WHERE establishment_id = $1
		ORDER BY weekday
	`, establishmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDayHours(rows)
}

func (r *Repository) ListStaffHours(ctx context.Context, staffID string) ([]model.DayHours, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT weekday, is_available, start_minute, end_minute
		FROM staff_working_hours
		WHERE staff_id = $1
		ORDER BY weekday
	`, staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDayHours(rows)
}

func scanDayHours(rows pgx.Rows) ([]model.DayHours, error) {
	var out []model.DayHours
	for rows.Next() {
		var wd int
		var d model.DayHours
		if err := rows.Scan(&wd, &d.Open, &d.StartMinute, &d.EndMinute); err != nil {
			return nil, err
		}
		d.Weekday = time.Weekday(wd)
		out = append(out, d)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) CreateVacation(ctx context.Context, v model.StaffVacation) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO staff_vacations (id, staff_id, start_date, end_date, type, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, v.StaffID, v.StartDate, v.EndDate, string(v.Type), v.IsActive)
	if err != nil {
		return "", err
	}
	return id, nil
}

// ActiveVacations loads every active leave record for a staff member. The
// leave filter does the date containment in-process; volumes per staff are
// small.
func (r *Repository) ActiveVacations(ctx context.Context, staffID string) ([]model.StaffVacation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, staff_id::text, start_date, end_date, type, is_active
		FROM staff_vacations
		WHERE staff_id = $1 AND is_active
		ORDER BY start_date
	`, staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.StaffVacation
	for rows.Next() {
		var v model.StaffVacation
		var typ string
		if err := rows.Scan(&v.ID, &v.StaffID, &v.StartDate, &v.EndDate, &typ, &v.IsActive); err != nil {
			return nil, err
		}
		v.Type = model.LeaveType(typ)
		out = append(out, v)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) DeactivateVacation(ctx context.Context, staffID, vacationID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE staff_vacations
		SET is_active = false
		WHERE id = $1 AND staff_id = $2
	`, vacationID, staffID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
