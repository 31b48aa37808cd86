package postgres

import (
	"context"
	"database/sql"

	"ridefare/internal/domain"
)

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q Querier
}

// NewPaymentRepository creates a new PostgreSQL payment repository.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{q: db}
}

// NewPaymentRepositoryWithTx creates a payment repository using a transaction.
func NewPaymentRepositoryWithTx(tx *sql.Tx) *PaymentRepository {
	return &PaymentRepository{q: tx}
}

// CreateIfAbsent inserts the payment unless (ride_id, method) already exists.
func (r *PaymentRepository) CreateIfAbsent(ctx context.Context, payment *domain.Payment) (bool, error) {
	query := `
		INSERT INTO payment (ride_id, method, amount_total_cents, status, paid_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (ride_id, method) DO NOTHING
		RETURNING id
	`

	err := r.q.QueryRowContext(ctx, query,
		payment.RideID,
		payment.Method,
		payment.AmountTotalCents,
		payment.Status,
		payment.PaidAt,
	).Scan(&payment.ID)
	if err == sql.ErrNoRows {
		// Conflict: the row already exists.
		return false, nil
	}
	if err != nil {
		return false, mapError(err)
	}

	return true, nil
}

// ListByRide retrieves all payments recorded for a ride.
func (r *PaymentRepository) ListByRide(ctx context.Context, rideID int64) ([]*domain.Payment, error) {
	query := `
		SELECT id, ride_id, method, amount_total_cents, status, paid_at
		FROM payment WHERE ride_id = $1 ORDER BY id
	`

	rows, err := r.q.QueryContext(ctx, query, rideID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.RideID, &p.Method, &p.AmountTotalCents, &p.Status, &p.PaidAt); err != nil {
			return nil, err
		}
		payments = append(payments, &p)
	}
	return payments, rows.Err()
}
