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

const defaultRideLockTTL = 10 * time.Second

// RideLocker is an optional cross-process guard taken before a settlement
// transaction. The row claim inside the transaction remains authoritative.
type RideLocker interface {
	AcquireRideLock(ctx context.Context, rideID int64, ttl time.Duration) (bool, error)
	ReleaseRideLock(ctx context.Context, rideID int64) error
}

// SettlementOptions tunes a SettlementService.
type SettlementOptions struct {
	RideLockTTL time.Duration
	Now         func() time.Time
}

// SettlementService books rides and settles driver decisions atomically.
type SettlementService struct {
	txm      repository.TxManager
	riders   repository.RiderRepository
	drivers  repository.DriverRepository
	pricing  *PricingService
	locker   RideLocker
	notifier *NotificationService
	log      logrus.FieldLogger
	lockTTL  time.Duration
	now      func() time.Time
}

// NewSettlementService creates a new SettlementService. locker and notifier may be nil.
func NewSettlementService(
	txm repository.TxManager,
	riders repository.RiderRepository,
	drivers repository.DriverRepository,
	pricing *PricingService,
	locker RideLocker,
	notifier *NotificationService,
	log logrus.FieldLogger,
	opts SettlementOptions,
) *SettlementService {
	if opts.RideLockTTL <= 0 {
		opts.RideLockTTL = defaultRideLockTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &SettlementService{
		txm:      txm,
		riders:   riders,
		drivers:  drivers,
		pricing:  pricing,
		locker:   locker,
		notifier: notifier,
		log:      loggerOrStandard(log),
		lockTTL:  opts.RideLockTTL,
		now:      opts.Now,
	}
}

// SettleRequest names the driver deciding on a ride.
type SettleRequest struct {
	DriverID int64 `validate:"gt=0"`
	RideID   int64 `validate:"gt=0"`
}

// Accept settles a requested ride: the wallet is debited (wallet rides
// only), company and driver are credited, the payment is recorded and the
// ride becomes accepted. Either all of it happens or none of it does.
func (s *SettlementService) Accept(ctx context.Context, req SettleRequest) (*domain.Ride, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	log := s.log.WithFields(logrus.Fields{
		"action":    "accept",
		"ride_id":   req.RideID,
		"driver_id": req.DriverID,
	})

	release, err := s.lockRide(ctx, req.RideID)
	if err != nil {
		log.WithError(err).Warn("settlement rejected")
		return nil, err
	}
	defer release()

	now := s.now()
	var ride *domain.Ride
	err = s.txm.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		ride, err = s.settle(ctx, tx, req.RideID, req.DriverID, now)
		return err
	})
	if err != nil {
		err = settlementError(err)
		logFailure(log, err, "settlement failed")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"method":      ride.PaymentMethod,
		"total_cents": ride.Breakdown.FareTotalCents,
	}).Info("ride settled")
	_ = s.notifier.NotifyRideAccepted(ctx, ride)

	return ride, nil
}

// Reject cancels a requested ride. Balances are never touched.
func (s *SettlementService) Reject(ctx context.Context, req SettleRequest) (*domain.Ride, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	log := s.log.WithFields(logrus.Fields{
		"action":    "reject",
		"ride_id":   req.RideID,
		"driver_id": req.DriverID,
	})

	release, err := s.lockRide(ctx, req.RideID)
	if err != nil {
		log.WithError(err).Warn("rejection refused")
		return nil, err
	}
	defer release()

	var ride *domain.Ride
	err = s.txm.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		claimed, err := tx.Rides().ClaimForTransition(ctx, req.RideID, req.DriverID, domain.RideStatusRequested)
		if err != nil {
			return err
		}
		if err := tx.Rides().UpdateStatus(ctx, claimed.ID, domain.RideStatusRequested, claimed.StatusVersion, domain.RideStatusCanceled, nil); err != nil {
			return err
		}
		claimed.Status = domain.RideStatusCanceled
		claimed.StatusVersion++
		ride = claimed
		return nil
	})
	if err != nil {
		err = settlementError(err)
		logFailure(log, err, "rejection failed")
		return nil, err
	}

	log.Info("ride canceled")
	_ = s.notifier.NotifyRideCanceled(ctx, ride)

	return ride, nil
}

// settle runs the accept protocol inside tx and returns the accepted ride.
func (s *SettlementService) settle(ctx context.Context, tx repository.Tx, rideID, driverID int64, now time.Time) (*domain.Ride, error) {
	ride, err := tx.Rides().ClaimForTransition(ctx, rideID, driverID, domain.RideStatusRequested)
	if err != nil {
		return nil, err
	}

	b := ride.Breakdown
	ledger := NewLedger(tx.Accounts(), now)

	if ride.PaymentMethod == domain.PaymentMethodWallet {
		ref := LedgerRef{RideID: ride.ID, Reason: domain.LedgerRideFare}
		if err := ledger.Debit(ctx, domain.RiderAccount(ride.RiderID), b.FareTotalCents, ref); err != nil {
			return nil, err
		}
	}

	ref := LedgerRef{RideID: ride.ID, Reason: domain.LedgerCompanyCredit}
	if err := ledger.Credit(ctx, domain.CompanyAccount, b.CompanyCreditCents(), ref); err != nil {
		return nil, err
	}

	ref = LedgerRef{RideID: ride.ID, Reason: domain.LedgerDriverPayout}
	if err := ledger.Credit(ctx, domain.DriverAccount(ride.DriverID), b.DriverPayoutCents, ref); err != nil {
		return nil, err
	}

	if _, _, err := authorizePayment(ctx, tx.Payments(), ride, now); err != nil {
		return nil, err
	}

	if err := tx.Rides().UpdateStatus(ctx, ride.ID, domain.RideStatusRequested, ride.StatusVersion, domain.RideStatusAccepted, &now); err != nil {
		return nil, err
	}

	ride.Status = domain.RideStatusAccepted
	ride.StatusVersion++
	ride.StartTime = &now
	return ride, nil
}

// lockRide takes the optional ride lock. An unreachable lock store is
// logged and skipped.
func (s *SettlementService) lockRide(ctx context.Context, rideID int64) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}

	locked, err := s.locker.AcquireRideLock(ctx, rideID, s.lockTTL)
	if err != nil {
		s.log.WithError(err).WithField("ride_id", rideID).Warn("ride lock unavailable, relying on row lock")
		return func() {}, nil
	}
	if !locked {
		return nil, ErrRideLocked
	}

	return func() {
		if err := s.locker.ReleaseRideLock(context.WithoutCancel(ctx), rideID); err != nil {
			s.log.WithError(err).WithField("ride_id", rideID).Warn("failed to release ride lock")
		}
	}, nil
}

// settlementError maps repository failures onto the service taxonomy.
func settlementError(err error) error {
	switch {
	case isServiceError(err):
		return err
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, repository.ErrConflict),
		errors.Is(err, repository.ErrLockTimeout):
		return fmt.Errorf("%w: %w", ErrRideNotSettleable, err)
	default:
		return storeError(err)
	}
}

// logFailure logs business rejections at warn and store failures at error.
func logFailure(log logrus.FieldLogger, err error, msg string) {
	if errors.Is(err, ErrStoreUnavailable) {
		log.WithError(err).Error(msg)
		return
	}
	log.WithError(err).Warn(msg)
}
