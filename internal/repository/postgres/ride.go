package postgres

import (
	"context"
	"database/sql"
	"time"

	"ridefare/internal/domain"
	"ridefare/internal/repository"
)

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// NewRideRepositoryWithTx creates a ride repository using a transaction.
func NewRideRepositoryWithTx(tx *sql.Tx) *RideRepository {
	return &RideRepository{q: tx}
}

const rideColumns = `
	id, rider_id, driver_id, category_id, origin_location_id, dest_location_id,
	requested_at, start_time, end_time, distance_miles, payment_method,
	rate_cents_per_mile, company_commission_pct, rider_fee_pct, driver_deduction_pct, tax_pct,
	fare_base_cents, rider_fee_cents, tax_cents, fare_total_cents,
	company_commission_cents, driver_deduction_cents, driver_payout_cents,
	status, status_version`

// Create persists a new ride and assigns its ID.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO ride (
			rider_id, driver_id, category_id, origin_location_id, dest_location_id,
			requested_at, distance_miles, payment_method,
			rate_cents_per_mile, company_commission_pct, rider_fee_pct, driver_deduction_pct, tax_pct,
			fare_base_cents, rider_fee_cents, tax_cents, fare_total_cents,
			company_commission_cents, driver_deduction_cents, driver_payout_cents,
			status, status_version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING id
	`

	b := ride.Breakdown
	err := r.q.QueryRowContext(ctx, query,
		ride.RiderID,
		ride.DriverID,
		ride.CategoryID,
		ride.OriginLocationID,
		ride.DestLocationID,
		ride.RequestedAt,
		ride.DistanceMiles,
		ride.PaymentMethod,
		b.Applied.RateCentsPerMile,
		b.Applied.CompanyCommissionPct,
		b.Applied.RiderFeePct,
		b.Applied.DriverDeductionPct,
		b.Applied.TaxPct,
		b.FareBaseCents,
		b.RiderFeeCents,
		b.TaxCents,
		b.FareTotalCents,
		b.CompanyCommissionCents,
		b.DriverDeductionCents,
		b.DriverPayoutCents,
		ride.Status,
		ride.StatusVersion,
	).Scan(&ride.ID)

	return mapError(err)
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id int64) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM ride WHERE id = $1`
	return scanRide(r.q.QueryRowContext(ctx, query, id))
}

// ClaimForTransition locks the ride row with SELECT ... FOR UPDATE.
func (r *RideRepository) ClaimForTransition(ctx context.Context, rideID, driverID int64, from domain.RideStatus) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + `
		FROM ride
		WHERE id = $1 AND driver_id = $2 AND status = $3
		FOR UPDATE`
	return scanRide(r.q.QueryRowContext(ctx, query, rideID, driverID, from))
}

// UpdateStatus performs the version-checked status transition.
func (r *RideRepository) UpdateStatus(ctx context.Context, rideID int64, from domain.RideStatus, version int, to domain.RideStatus, startTime *time.Time) error {
	query := `
		UPDATE ride
		SET status = $1, status_version = status_version + 1, start_time = COALESCE($2, start_time)
		WHERE id = $3 AND status = $4 AND status_version = $5
	`

	var start sql.NullTime
	if startTime != nil {
		start = sql.NullTime{Time: *startTime, Valid: true}
	}

	result, err := r.q.ExecContext(ctx, query, to, start, rideID, from, version)
	if err != nil {
		return mapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrConflict
	}

	return nil
}

func scanRide(row *sql.Row) (*domain.Ride, error) {
	var ride domain.Ride
	var startTime, endTime sql.NullTime
	b := &ride.Breakdown

	err := row.Scan(
		&ride.ID,
		&ride.RiderID,
		&ride.DriverID,
		&ride.CategoryID,
		&ride.OriginLocationID,
		&ride.DestLocationID,
		&ride.RequestedAt,
		&startTime,
		&endTime,
		&ride.DistanceMiles,
		&ride.PaymentMethod,
		&b.Applied.RateCentsPerMile,
		&b.Applied.CompanyCommissionPct,
		&b.Applied.RiderFeePct,
		&b.Applied.DriverDeductionPct,
		&b.Applied.TaxPct,
		&b.FareBaseCents,
		&b.RiderFeeCents,
		&b.TaxCents,
		&b.FareTotalCents,
		&b.CompanyCommissionCents,
		&b.DriverDeductionCents,
		&b.DriverPayoutCents,
		&ride.Status,
		&ride.StatusVersion,
	)
	if err != nil {
		return nil, mapError(err)
	}

	if startTime.Valid {
		ride.StartTime = &startTime.Time
	}
	if endTime.Valid {
		ride.EndTime = &endTime.Time
	}

	return &ride, nil
}
