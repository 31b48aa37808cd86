package repository

import "context"

// Tx exposes the repositories bound to one open transaction.
type Tx interface {
	Rides() RideRepository
	Payments() PaymentRepository
	Accounts() AccountRepository
}

// TxManager runs a function inside a transaction. The transaction commits
// when fn returns nil and rolls back otherwise. A failure to start the
// transaction is reported wrapped with ErrTxBegin.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
