package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrInsufficientBalance is returned when a debit would make a balance negative.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrConflict is returned when a compare-and-set update loses a race.
	ErrConflict = errors.New("concurrent update conflict")

	// ErrLockTimeout is returned when a row or store lock could not be taken in time.
	ErrLockTimeout = errors.New("lock wait timeout")

	// ErrTxBegin is returned when a transaction cannot be started.
	ErrTxBegin = errors.New("cannot begin transaction")
)
