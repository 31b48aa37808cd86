package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"ridefare/internal/domain"
	"ridefare/internal/repository"
)

// PolicyRepository stores deduction percentages in the deduction_type table.
type PolicyRepository struct {
	db *sql.DB
	q  Querier
}

// NewPolicyRepository creates a new PostgreSQL policy repository.
func NewPolicyRepository(db *sql.DB) *PolicyRepository {
	return &PolicyRepository{db: db, q: db}
}

// ListDeductionTypes retrieves every configured deduction.
func (r *PolicyRepository) ListDeductionTypes(ctx context.Context) ([]*domain.DeductionType, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, name, default_pct, version FROM deduction_type ORDER BY id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var types []*domain.DeductionType
	for rows.Next() {
		var t domain.DeductionType
		if err := rows.Scan(&t.ID, &t.Name, &t.DefaultPct, &t.Version); err != nil {
			return nil, err
		}
		types = append(types, &t)
	}
	return types, rows.Err()
}

// UpsertDeductionType inserts or replaces the percentage for name.
func (r *PolicyRepository) UpsertDeductionType(ctx context.Context, name domain.DeductionName, pct decimal.Decimal) error {
	query := `
		INSERT INTO deduction_type (name, default_pct, version)
		VALUES ($1, $2, 1)
		ON CONFLICT (name) DO UPDATE
		SET default_pct = EXCLUDED.default_pct, version = deduction_type.version + 1
	`
	_, err := r.q.ExecContext(ctx, query, name, pct)
	return mapError(err)
}

// UpsertDeductionTypes upserts every row in one transaction.
func (r *PolicyRepository) UpsertDeductionTypes(ctx context.Context, types []domain.DeductionType) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", repository.ErrTxBegin, err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	scoped := &PolicyRepository{q: tx}
	for _, t := range types {
		if err = scoped.UpsertDeductionType(ctx, t.Name, t.DefaultPct); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return mapError(err)
	}
	return nil
}
