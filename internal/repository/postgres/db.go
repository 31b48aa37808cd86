package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ridefare/internal/repository"
)

// Querier is an interface satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Ensure interfaces are satisfied.
var (
	_ Querier              = (*sql.DB)(nil)
	_ Querier              = (*sql.Tx)(nil)
	_ repository.TxManager = (*TxManager)(nil)
)

// TxManager runs settlement work inside a PostgreSQL transaction.
type TxManager struct {
	db          *sql.DB
	lockTimeout time.Duration
}

// NewTxManager creates a TxManager. A positive lockTimeout bounds how long
// any statement in the transaction may wait for a row lock.
func NewTxManager(db *sql.DB, lockTimeout time.Duration) *TxManager {
	return &TxManager{db: db, lockTimeout: lockTimeout}
}

// WithinTx begins a transaction, runs fn against transaction-scoped
// repositories and commits. Any error rolls the transaction back.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) (err error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", repository.ErrTxBegin, err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if m.lockTimeout > 0 {
		// SET does not accept bind parameters.
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", m.lockTimeout.Milliseconds())
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return mapError(err)
		}
	}

	if err = fn(ctx, &txScope{tx: tx}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return mapError(err)
	}
	return nil
}

// txScope hands out repositories bound to one *sql.Tx.
type txScope struct {
	tx *sql.Tx
}

func (s *txScope) Rides() repository.RideRepository       { return NewRideRepositoryWithTx(s.tx) }
func (s *txScope) Payments() repository.PaymentRepository { return NewPaymentRepositoryWithTx(s.tx) }
func (s *txScope) Accounts() repository.AccountRepository { return NewAccountRepositoryWithTx(s.tx) }
