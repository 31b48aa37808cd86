package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"ridefare/internal/domain"
)

// CatalogRepository reads the pricing reference data.
type CatalogRepository interface {
	GetLocation(ctx context.Context, id int64) (*domain.Location, error)
	ListLocations(ctx context.Context) ([]*domain.Location, error)
	GetCategory(ctx context.Context, id int64) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)

	// GetFareRule returns the exact (category, origin, destination) override
	// or ErrNotFound.
	GetFareRule(ctx context.Context, categoryID, originID, destID int64) (*domain.FareRule, error)

	// UpdateHotArea sets the hot-area flag and commission discount of a location.
	UpdateHotArea(ctx context.Context, id int64, isHot bool, discountPct decimal.Decimal) (*domain.Location, error)
}

// PolicyRepository stores the per-name deduction percentages.
type PolicyRepository interface {
	ListDeductionTypes(ctx context.Context) ([]*domain.DeductionType, error)

	// UpsertDeductionType inserts or replaces the percentage for name and
	// bumps its version.
	UpsertDeductionType(ctx context.Context, name domain.DeductionName, pct decimal.Decimal) error

	// UpsertDeductionTypes applies every (Name, DefaultPct) pair or none.
	UpsertDeductionTypes(ctx context.Context, types []domain.DeductionType) error
}
