package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ridefare/internal/domain"
	"ridefare/internal/repository"
)

// AccountRepository is a PostgreSQL implementation of repository.AccountRepository.
type AccountRepository struct {
	q Querier
}

// NewAccountRepository creates a new PostgreSQL account repository.
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{q: db}
}

// NewAccountRepositoryWithTx creates an account repository using a transaction.
func NewAccountRepositoryWithTx(tx *sql.Tx) *AccountRepository {
	return &AccountRepository{q: tx}
}

// GetByOwner retrieves the account of owner.
func (r *AccountRepository) GetByOwner(ctx context.Context, owner domain.AccountOwner) (*domain.BankAccount, error) {
	query := `
		SELECT id, balance_cents FROM bank_account
		WHERE owner_type = $1 AND owner_id = $2
	`

	account := domain.BankAccount{Owner: owner}
	err := r.q.QueryRowContext(ctx, query, owner.Type, owner.ID).Scan(&account.ID, &account.BalanceCents)
	if err != nil {
		return nil, mapError(err)
	}
	return &account, nil
}

// Adjust applies deltaCents in a single conditional UPDATE so a debit can
// never overdraw the account, even under concurrent settlements.
func (r *AccountRepository) Adjust(ctx context.Context, owner domain.AccountOwner, deltaCents int64) (*domain.BankAccount, error) {
	query := `
		UPDATE bank_account
		SET balance_cents = balance_cents + $1
		WHERE owner_type = $2 AND owner_id = $3 AND balance_cents + $1 >= 0
		RETURNING id, balance_cents
	`

	account := domain.BankAccount{Owner: owner}
	err := r.q.QueryRowContext(ctx, query, deltaCents, owner.Type, owner.ID).Scan(&account.ID, &account.BalanceCents)
	if err == nil {
		return &account, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, mapError(err)
	}

	// No row updated: either the account is missing or the debit was too large.
	if _, err := r.GetByOwner(ctx, owner); err != nil {
		return nil, err
	}
	return nil, repository.ErrInsufficientBalance
}

// AppendEntry journals one balance change.
func (r *AccountRepository) AppendEntry(ctx context.Context, entry *domain.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entry (account_id, ride_id, delta_cents, reason, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.q.QueryRowContext(ctx, query,
		entry.AccountID,
		entry.RideID,
		entry.DeltaCents,
		entry.Reason,
		entry.CreatedAt,
	).Scan(&entry.ID)
	return mapError(err)
}
