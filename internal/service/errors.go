package service

import (
	"errors"
	"fmt"
)

// The four failure kinds callers branch on. Every error returned by this
// package matches exactly one of them under errors.Is.
var (
	// ErrValidation is returned when caller input is malformed or refers to
	// unknown entities.
	ErrValidation = errors.New("validation error")

	// ErrRideNotSettleable is returned when a ride is missing, belongs to a
	// different driver, is no longer requested, or is being settled elsewhere.
	ErrRideNotSettleable = errors.New("ride not settleable")

	// ErrInsufficientFunds is returned when a wallet cannot cover the fare.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrStoreUnavailable is returned when the persistent store fails.
	ErrStoreUnavailable = errors.New("store unavailable")
)

var (
	// ErrInvalidRiderID is returned when rider ID is missing or unknown.
	ErrInvalidRiderID = fmt.Errorf("%w: invalid rider id", ErrValidation)

	// ErrInvalidDriverID is returned when driver ID is missing or unknown.
	ErrInvalidDriverID = fmt.Errorf("%w: invalid driver id", ErrValidation)

	// ErrInvalidRideID is returned when ride ID is missing.
	ErrInvalidRideID = fmt.Errorf("%w: invalid ride id", ErrValidation)

	// ErrInvalidLocation is returned when a location is unknown or has
	// unusable coordinates.
	ErrInvalidLocation = fmt.Errorf("%w: invalid location", ErrValidation)

	// ErrInvalidCategory is returned when a category is unknown or has a negative rate.
	ErrInvalidCategory = fmt.Errorf("%w: invalid category", ErrValidation)

	// ErrInvalidPaymentMethod is returned when payment method is invalid.
	ErrInvalidPaymentMethod = fmt.Errorf("%w: invalid payment method", ErrValidation)

	// ErrInvalidPercentage is returned when a percentage is outside [0, 100].
	ErrInvalidPercentage = fmt.Errorf("%w: percentage must be between 0 and 100", ErrValidation)

	// ErrInvalidAmount is returned when a ledger amount is negative.
	ErrInvalidAmount = fmt.Errorf("%w: amount must not be negative", ErrValidation)

	// ErrNoSimulationCandidates is returned when a batch has nothing to pick from.
	ErrNoSimulationCandidates = fmt.Errorf("%w: simulation needs a rider, an online driver, a location and a category", ErrValidation)

	// ErrAccountNotFound is returned when a credited ledger account does not exist.
	ErrAccountNotFound = fmt.Errorf("%w: ledger account not found", ErrRideNotSettleable)

	// ErrRideLocked is returned when another settlement holds the ride lock.
	ErrRideLocked = fmt.Errorf("%w: ride is being settled", ErrRideNotSettleable)
)

func isServiceError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrRideNotSettleable) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrStoreUnavailable)
}

// storeError wraps an unclassified store failure as ErrStoreUnavailable,
// keeping the cause in the chain.
func storeError(err error) error {
	if err == nil || isServiceError(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
