package storage

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"agendly/internal/db"
)

// Repository is the single persistence surface of the engine: schedule
// configuration (hours, vacations, services, plans, release policies) and
// appointments.
type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

var ErrNotFound = errors.New("record not found")

// ErrOverlap is returned when the appointments exclusion constraint rejects
// an insert or update. It is the storage-layer answer to a conflict the
// proactive check missed under concurrency.
var ErrOverlap = errors.New("appointment window overlaps an existing booking")

// QuotaError reports the monthly ceiling check that runs inside the creation
// transaction.
type QuotaError struct {
	Current int
	Max     int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("monthly appointment quota reached (%d/%d)", e.Current, e.Max)
}

func isExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
