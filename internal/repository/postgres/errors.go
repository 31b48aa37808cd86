package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"ridefare/internal/repository"
)

// PostgreSQL error codes the repositories translate.
const (
	codeLockNotAvailable     = "55P03"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeCheckViolation       = "23514"
)

// mapError translates driver errors into repository sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeLockNotAvailable:
			return fmt.Errorf("%w: %s", repository.ErrLockTimeout, pqErr.Message)
		case codeSerializationFailure, codeDeadlockDetected:
			return fmt.Errorf("%w: %s", repository.ErrConflict, pqErr.Message)
		case codeCheckViolation:
			if pqErr.Constraint == "bank_account_balance_cents_check" {
				return repository.ErrInsufficientBalance
			}
		}
	}
	return err
}
