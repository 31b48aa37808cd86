package repository

import (
	"context"

	"ridefare/internal/domain"
)

// PaymentReader reads payments outside a transaction.
type PaymentReader interface {
	// ListByRide retrieves all payments recorded for a ride.
	ListByRide(ctx context.Context, rideID int64) ([]*domain.Payment, error)
}

// PaymentRepository defines the transactional operations for payments.
type PaymentRepository interface {
	PaymentReader

	// CreateIfAbsent inserts the payment unless one already exists for the
	// same (ride, method). It reports whether a row was created.
	CreateIfAbsent(ctx context.Context, payment *domain.Payment) (bool, error)
}
