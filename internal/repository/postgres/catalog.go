package postgres

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"ridefare/internal/domain"
)

// CatalogRepository reads locations, categories and fare rules.
type CatalogRepository struct {
	q Querier
}

// NewCatalogRepository creates a new PostgreSQL catalog repository.
func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{q: db}
}

const locationColumns = `id, name, lat, lng, is_hot_area, commission_discount_pct`

// GetLocation retrieves a location by ID.
func (r *CatalogRepository) GetLocation(ctx context.Context, id int64) (*domain.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM location WHERE id = $1`
	return scanLocation(r.q.QueryRowContext(ctx, query, id))
}

// ListLocations retrieves all locations.
func (r *CatalogRepository) ListLocations(ctx context.Context) ([]*domain.Location, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+locationColumns+` FROM location ORDER BY id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var locations []*domain.Location
	for rows.Next() {
		var l domain.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Lat, &l.Lng, &l.IsHotArea, &l.CommissionDiscountPct); err != nil {
			return nil, err
		}
		locations = append(locations, &l)
	}
	return locations, rows.Err()
}

// UpdateHotArea sets the hot-area flag and commission discount of a location.
func (r *CatalogRepository) UpdateHotArea(ctx context.Context, id int64, isHot bool, discountPct decimal.Decimal) (*domain.Location, error) {
	query := `
		UPDATE location SET is_hot_area = $1, commission_discount_pct = $2
		WHERE id = $3
		RETURNING ` + locationColumns
	return scanLocation(r.q.QueryRowContext(ctx, query, isHot, discountPct, id))
}

// GetCategory retrieves a category by ID.
func (r *CatalogRepository) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	query := `SELECT id, name, rate_cents_per_mile FROM category WHERE id = $1`

	var c domain.Category
	if err := r.q.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.RateCentsPerMile); err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

// ListCategories retrieves all categories.
func (r *CatalogRepository) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, name, rate_cents_per_mile FROM category ORDER BY id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.RateCentsPerMile); err != nil {
			return nil, err
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

// GetFareRule returns the exact route override or repository.ErrNotFound.
func (r *CatalogRepository) GetFareRule(ctx context.Context, categoryID, originID, destID int64) (*domain.FareRule, error) {
	query := `
		SELECT category_id, origin_location_id, dest_location_id, route_rate_cents_per_mile
		FROM fare_rule
		WHERE category_id = $1 AND origin_location_id = $2 AND dest_location_id = $3
	`

	var fr domain.FareRule
	err := r.q.QueryRowContext(ctx, query, categoryID, originID, destID).Scan(
		&fr.CategoryID,
		&fr.OriginLocationID,
		&fr.DestLocationID,
		&fr.RouteRateCentsPerMile,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &fr, nil
}

func scanLocation(row *sql.Row) (*domain.Location, error) {
	var l domain.Location
	if err := row.Scan(&l.ID, &l.Name, &l.Lat, &l.Lng, &l.IsHotArea, &l.CommissionDiscountPct); err != nil {
		return nil, mapError(err)
	}
	return &l, nil
}
