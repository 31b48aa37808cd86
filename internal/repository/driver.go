package repository

import (
	"context"
	"time"

	"ridefare/internal/domain"
)

// DriverRepository defines the persistence operations for drivers.
type DriverRepository interface {
	// GetByID retrieves a driver by ID.
	GetByID(ctx context.Context, id int64) (*domain.Driver, error)

	// GetAll retrieves all drivers.
	GetAll(ctx context.Context) ([]*domain.Driver, error)

	// ListOnline retrieves drivers currently marked online.
	ListOnline(ctx context.Context) ([]*domain.Driver, error)

	// SetAvailability updates is_online and last_seen_at.
	SetAvailability(ctx context.Context, id int64, online bool, seenAt time.Time) (*domain.Driver, error)
}

// RiderRepository defines the read operations for riders.
type RiderRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Rider, error)
	GetAll(ctx context.Context) ([]*domain.Rider, error)
}
