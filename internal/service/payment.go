package service

import (
	"context"
	"time"

	"ridefare/internal/domain"
	"ridefare/internal/repository"
)

// authorizePayment records the ride's payment row. Repeated calls for the
// same (ride, method) leave the first row in place and report created=false.
func authorizePayment(ctx context.Context, payments repository.PaymentRepository, ride *domain.Ride, at time.Time) (*domain.Payment, bool, error) {
	payment := &domain.Payment{
		RideID:           ride.ID,
		Method:           ride.PaymentMethod,
		AmountTotalCents: ride.Breakdown.FareTotalCents,
		Status:           domain.PaymentStatusAuthorized,
		PaidAt:           at,
	}

	created, err := payments.CreateIfAbsent(ctx, payment)
	if err != nil {
		return nil, false, err
	}
	return payment, created, nil
}
