package repository

import (
	"context"

	"ridefare/internal/domain"
)

// AccountReader reads bank accounts outside a transaction.
type AccountReader interface {
	GetByOwner(ctx context.Context, owner domain.AccountOwner) (*domain.BankAccount, error)
}

// AccountRepository defines the transactional balance operations.
type AccountRepository interface {
	AccountReader

	// Adjust applies a signed delta to the owner's balance and returns the
	// updated account. A negative delta that would leave the balance below
	// zero returns ErrInsufficientBalance and changes nothing. A missing
	// account returns ErrNotFound.
	Adjust(ctx context.Context, owner domain.AccountOwner, deltaCents int64) (*domain.BankAccount, error)

	// AppendEntry journals one balance change.
	AppendEntry(ctx context.Context, entry *domain.LedgerEntry) error
}
