package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"ridefare/internal/domain"
	"ridefare/internal/repository"
)

// BookRequest contains the parameters for booking a ride.
type BookRequest struct {
	RiderID       int64                `validate:"gt=0"`
	DriverID      int64                `validate:"gt=0"`
	OriginID      int64                `validate:"gt=0"`
	DestinationID int64                `validate:"gt=0"`
	CategoryID    int64                `validate:"gt=0"`
	Method        domain.PaymentMethod `validate:"omitempty,oneof=card wallet"`
}

// Book prices the trip, stores a requested ride with the breakdown frozen
// on it and records its payment row. No balance moves until Accept.
func (s *SettlementService) Book(ctx context.Context, req BookRequest) (*domain.Ride, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if req.Method == "" {
		req.Method = domain.PaymentMethodCard
	}

	if err := s.checkParties(ctx, req.RiderID, req.DriverID); err != nil {
		return nil, err
	}

	quote, err := s.pricing.Quote(ctx, QuoteRequest{
		OriginID:      req.OriginID,
		DestinationID: req.DestinationID,
		CategoryID:    req.CategoryID,
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	ride := newRide(req.RiderID, req.DriverID, req.Method, quote, now)

	err = s.txm.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return s.book(ctx, tx, ride, now)
	})
	if err != nil {
		err = storeError(err)
		s.log.WithError(err).WithField("action", "book").Error("booking failed")
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"action":      "book",
		"ride_id":     ride.ID,
		"rider_id":    ride.RiderID,
		"driver_id":   ride.DriverID,
		"method":      ride.PaymentMethod,
		"total_cents": ride.Breakdown.FareTotalCents,
	}).Info("ride booked")
	_ = s.notifier.NotifyRideBooked(ctx, ride)

	return ride, nil
}

// book inserts the ride and its payment row inside tx.
func (s *SettlementService) book(ctx context.Context, tx repository.Tx, ride *domain.Ride, now time.Time) error {
	if err := tx.Rides().Create(ctx, ride); err != nil {
		return err
	}
	_, _, err := authorizePayment(ctx, tx.Payments(), ride, now)
	return err
}

func (s *SettlementService) checkParties(ctx context.Context, riderID, driverID int64) error {
	if _, err := s.riders.GetByID(ctx, riderID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: rider %d not found", ErrInvalidRiderID, riderID)
		}
		return storeError(err)
	}
	if _, err := s.drivers.GetByID(ctx, driverID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: driver %d not found", ErrInvalidDriverID, driverID)
		}
		return storeError(err)
	}
	return nil
}

func newRide(riderID, driverID int64, method domain.PaymentMethod, quote *Quote, now time.Time) *domain.Ride {
	return &domain.Ride{
		RiderID:          riderID,
		DriverID:         driverID,
		CategoryID:       quote.Category.ID,
		OriginLocationID: quote.Origin.ID,
		DestLocationID:   quote.Destination.ID,
		RequestedAt:      now,
		DistanceMiles:    RoundDistance(quote.DistanceMiles),
		PaymentMethod:    method,
		Breakdown:        quote.Breakdown,
		Status:           domain.RideStatusRequested,
	}
}
