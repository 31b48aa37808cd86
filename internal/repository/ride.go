package repository

import (
	"context"
	"time"

	"ridefare/internal/domain"
)

// RideReader reads rides outside a transaction.
type RideReader interface {
	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id int64) (*domain.Ride, error)
}

// RideRepository defines the transactional operations for rides.
type RideRepository interface {
	RideReader

	// Create persists a new ride and assigns its ID.
	Create(ctx context.Context, ride *domain.Ride) error

	// ClaimForTransition locks the ride row for the rest of the transaction.
	// It returns ErrNotFound unless the ride exists, is assigned to driverID
	// and is currently in status from.
	ClaimForTransition(ctx context.Context, rideID, driverID int64, from domain.RideStatus) (*domain.Ride, error)

	// UpdateStatus moves a claimed ride from one status to another if its
	// status_version still equals version. startTime is set when non-nil.
	// Returns ErrConflict when the row changed underneath.
	UpdateStatus(ctx context.Context, rideID int64, from domain.RideStatus, version int, to domain.RideStatus, startTime *time.Time) error
}
