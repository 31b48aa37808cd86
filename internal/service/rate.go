package service

import (
	"context"
	"errors"

	"ridefare/internal/domain"
	"ridefare/internal/repository"
)

// RateResolver picks the per-mile rate for a trip.
type RateResolver struct {
	catalog repository.CatalogRepository
}

// NewRateResolver creates a new RateResolver.
func NewRateResolver(catalog repository.CatalogRepository) *RateResolver {
	return &RateResolver{catalog: catalog}
}

// Resolve returns the route override for (category, origin, destination)
// when one exists, else the category's default rate. Direction matters and
// there is no partial matching.
func (r *RateResolver) Resolve(ctx context.Context, category *domain.Category, originID, destID int64) (int64, error) {
	rule, err := r.catalog.GetFareRule(ctx, category.ID, originID, destID)
	switch {
	case err == nil:
		return rule.RouteRateCentsPerMile, nil
	case errors.Is(err, repository.ErrNotFound):
		return category.RateCentsPerMile, nil
	default:
		return 0, storeError(err)
	}
}
