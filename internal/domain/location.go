package domain

import "github.com/shopspring/decimal"

// Location is a named pickup/drop-off point.
type Location struct {
	ID                    int64
	Name                  string
	Lat                   float64
	Lng                   float64
	IsHotArea             bool
	CommissionDiscountPct decimal.Decimal // 0..100, two fraction digits
}

// Category is a ride class with its default per-mile rate.
type Category struct {
	ID               int64
	Name             string
	RateCentsPerMile int64
}

// FareRule overrides the category rate for one directed (origin, destination) pair.
type FareRule struct {
	CategoryID            int64
	OriginLocationID      int64
	DestLocationID        int64
	RouteRateCentsPerMile int64
}
