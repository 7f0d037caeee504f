package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"agendly/internal/model"
)

func (r *Repository) CreateService(ctx context.Context, svc model.Service) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO services (id, establishment_id, name, duration_minutes, price, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, svc.EstablishmentID, svc.Name, svc.DurationMins, svc.Price, svc.IsActive)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repository) GetService(ctx context.Context, establishmentID, serviceID string) (model.Service, error) {
	var svc model.Service
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, establishment_id::text, name, duration_minutes, price::text, is_active
		FROM services
		WHERE establishment_id = $1 AND id = $2
	`, establishmentID, serviceID).Scan(&svc.ID, &svc.EstablishmentID, &svc.Name, &svc.DurationMins, &svc.Price, &svc.IsActive)
	if err != nil {
		return model.Service{}, notFound(err)
	}
	return svc, nil
}

func (r *Repository) ListServices(ctx context.Context, establishmentID string) ([]model.Service, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, establishment_id::text, name, duration_minutes, price::text, is_active
		FROM services
		WHERE establishment_id = $1 AND is_active
		ORDER BY created_at DESC
	`, establishmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Service
	for rows.Next() {
		var svc model.Service
		if err := rows.Scan(&svc.ID, &svc.EstablishmentID, &svc.Name, &svc.DurationMins, &svc.Price, &svc.IsActive); err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// GetPlan resolves the establishment's subscription ceiling. An
// establishment with no plan row is unlimited.
func (r *Repository) GetPlan(ctx context.Context, establishmentID string) (model.Plan, error) {
	var p model.Plan
	err := r.pool.QueryRow(ctx, `
		SELECT name, max_monthly_appointments
		FROM plans
		WHERE establishment_id = $1
	`, establishmentID).Scan(&p.Name, &p.MaxMonthlyAppointments)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Plan{Name: "free"}, nil
	}
	if err != nil {
		return model.Plan{}, err
	}
	return p, nil
}

func (r *Repository) UpsertPlan(ctx context.Context, establishmentID string, p model.Plan) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO plans (establishment_id, name, max_monthly_appointments)
		VALUES ($1, $2, $3)
		ON CONFLICT (establishment_id) DO UPDATE
		SET name = EXCLUDED.name,
			max_monthly_appointments = EXCLUDED.max_monthly_appointments
	`, establishmentID, p.Name, p.MaxMonthlyAppointments)
	return err
}

// ActiveReleasePolicy returns nil when the establishment has no active
// policy, which leaves the booking horizon unrestricted.
func (r *Repository) ActiveReleasePolicy(ctx context.Context, establishmentID string) (*model.ReleasePolicy, error) {
	var p model.ReleasePolicy
	err := r.pool.QueryRow(ctx, `
		SELECT establishment_id::text, release_interval, release_day, is_active
		FROM agenda_release_policies
		WHERE establishment_id = $1 AND is_active
	`, establishmentID).Scan(&p.EstablishmentID, &p.ReleaseInterval, &p.ReleaseDay, &p.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) UpsertReleasePolicy(ctx context.Context, p model.ReleasePolicy) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO agenda_release_policies (establishment_id, release_interval, release_day, is_active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (establishment_id) DO UPDATE
		SET release_interval = EXCLUDED.release_interval,
			release_day = EXCLUDED.release_day,
			is_active = EXCLUDED.is_active
	`, p.EstablishmentID, p.ReleaseInterval, p.ReleaseDay, p.IsActive)
	return err
}
