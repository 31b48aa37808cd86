package postgres

import (
	"context"
	"database/sql"
	"time"

	"ridefare/internal/domain"
)

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id int64) (*domain.Driver, error) {
	query := `SELECT id, name, is_online, last_seen_at FROM driver WHERE id = $1`
	return scanDriver(r.q.QueryRowContext(ctx, query, id))
}

// GetAll retrieves all drivers.
func (r *DriverRepository) GetAll(ctx context.Context) ([]*domain.Driver, error) {
	return r.list(ctx, `SELECT id, name, is_online, last_seen_at FROM driver ORDER BY id`)
}

// ListOnline retrieves drivers currently marked online.
func (r *DriverRepository) ListOnline(ctx context.Context) ([]*domain.Driver, error) {
	return r.list(ctx, `SELECT id, name, is_online, last_seen_at FROM driver WHERE is_online ORDER BY id`)
}

// SetAvailability updates is_online and last_seen_at.
func (r *DriverRepository) SetAvailability(ctx context.Context, id int64, online bool, seenAt time.Time) (*domain.Driver, error) {
	query := `
		UPDATE driver SET is_online = $1, last_seen_at = $2
		WHERE id = $3
		RETURNING id, name, is_online, last_seen_at
	`
	return scanDriver(r.q.QueryRowContext(ctx, query, online, seenAt, id))
}

func (r *DriverRepository) list(ctx context.Context, query string) ([]*domain.Driver, error) {
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var drivers []*domain.Driver
	for rows.Next() {
		var d domain.Driver
		var lastSeen sql.NullTime
		if err := rows.Scan(&d.ID, &d.Name, &d.IsOnline, &lastSeen); err != nil {
			return nil, err
		}
		if lastSeen.Valid {
			d.LastSeenAt = &lastSeen.Time
		}
		drivers = append(drivers, &d)
	}
	return drivers, rows.Err()
}

func scanDriver(row *sql.Row) (*domain.Driver, error) {
	var d domain.Driver
	var lastSeen sql.NullTime
	if err := row.Scan(&d.ID, &d.Name, &d.IsOnline, &lastSeen); err != nil {
		return nil, mapError(err)
	}
	if lastSeen.Valid {
		d.LastSeenAt = &lastSeen.Time
	}
	return &d, nil
}
