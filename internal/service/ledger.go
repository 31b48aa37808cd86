package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ridefare/internal/domain"
	"ridefare/internal/repository"
)

// LedgerRef says which ride and why a balance moves.
type LedgerRef struct {
	RideID int64
	Reason domain.LedgerReason
}

// Ledger moves integer cents between bank accounts. It holds no transaction
// state of its own: the account repository it wraps decides which
// transaction the movements belong to.
type Ledger struct {
	accounts repository.AccountRepository
	at       time.Time
}

// NewLedger creates a Ledger whose journal entries are stamped with at.
func NewLedger(accounts repository.AccountRepository, at time.Time) *Ledger {
	return &Ledger{accounts: accounts, at: at}
}

// Credit adds cents to owner's balance.
func (l *Ledger) Credit(ctx context.Context, owner domain.AccountOwner, cents int64, ref LedgerRef) error {
	if cents < 0 {
		return ErrInvalidAmount
	}

	account, err := l.accounts.Adjust(ctx, owner, cents)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, owner)
	}
	if err != nil {
		return err
	}
	return l.journal(ctx, account, cents, ref)
}

// Debit removes cents from owner's balance. A balance that cannot cover the
// amount, or a missing account, fails with ErrInsufficientFunds and leaves
// the balance unchanged.
func (l *Ledger) Debit(ctx context.Context, owner domain.AccountOwner, cents int64, ref LedgerRef) error {
	if cents < 0 {
		return ErrInvalidAmount
	}

	account, err := l.accounts.Adjust(ctx, owner, -cents)
	if errors.Is(err, repository.ErrInsufficientBalance) || errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s cannot cover %d cents", ErrInsufficientFunds, owner, cents)
	}
	if err != nil {
		return err
	}
	return l.journal(ctx, account, -cents, ref)
}

// Transfer debits from and credits to by the same amount.
func (l *Ledger) Transfer(ctx context.Context, from, to domain.AccountOwner, cents int64, ref LedgerRef) error {
	if err := l.Debit(ctx, from, cents, ref); err != nil {
		return err
	}
	return l.Credit(ctx, to, cents, ref)
}

func (l *Ledger) journal(ctx context.Context, account *domain.BankAccount, delta int64, ref LedgerRef) error {
	if delta == 0 {
		return nil
	}
	return l.accounts.AppendEntry(ctx, &domain.LedgerEntry{
		AccountID:  account.ID,
		RideID:     ref.RideID,
		DeltaCents: delta,
		Reason:     ref.Reason,
		CreatedAt:  l.at,
	})
}
