package memory

import (
	"context"

	"github.com/shopspring/decimal"

	"ridefare/internal/domain"
)

// SeedDemo loads a small city so the memory backend can serve quotes,
// bookings and simulations without a database.
func SeedDemo(ctx context.Context, s *Store) error {
	locations := []domain.Location{
		{Name: "Downtown", Lat: 40.7128, Lng: -74.0060},
		{Name: "Midtown", Lat: 40.7549, Lng: -73.9840, IsHotArea: true, CommissionDiscountPct: decimal.RequireFromString("5.00")},
		{Name: "JFK Airport", Lat: 40.6413, Lng: -73.7781, IsHotArea: true, CommissionDiscountPct: decimal.RequireFromString("10.00")},
		{Name: "Brooklyn Heights", Lat: 40.6960, Lng: -73.9936},
		{Name: "Astoria", Lat: 40.7644, Lng: -73.9235},
	}
	var ids []int64
	for _, l := range locations {
		ids = append(ids, s.AddLocation(l).ID)
	}

	economy := s.AddCategory(domain.Category{Name: "economy", RateCentsPerMile: 150})
	s.AddCategory(domain.Category{Name: "comfort", RateCentsPerMile: 210})
	s.AddCategory(domain.Category{Name: "xl", RateCentsPerMile: 275})

	// Flat airport run.
	s.AddFareRule(domain.FareRule{
		CategoryID:            economy.ID,
		OriginLocationID:      ids[0],
		DestLocationID:        ids[2],
		RouteRateCentsPerMile: 175,
	})

	policy := s.Policy()
	defaults := domain.DefaultPolicy()
	for name, pct := range map[domain.DeductionName]decimal.Decimal{
		domain.DeductionCompanyCommission: defaults.CompanyCommissionPct,
		domain.DeductionRiderFee:          defaults.RiderFeePct,
		domain.DeductionDriverDeduction:   defaults.DriverDeductionPct,
		domain.DeductionTax:               defaults.TaxPct,
	} {
		if err := policy.UpsertDeductionType(ctx, name, pct); err != nil {
			return err
		}
	}

	s.OpenAccount(domain.CompanyAccount, 0)
	for _, name := range []string{"Ava", "Ben", "Chloe", "Dev"} {
		rider := s.AddRider(domain.Rider{Name: name})
		s.OpenAccount(domain.RiderAccount(rider.ID), 50_00)
	}
	for i, name := range []string{"Eli", "Farah", "Gus"} {
		driver := s.AddDriver(domain.Driver{Name: name, IsOnline: i < 2})
		s.OpenAccount(domain.DriverAccount(driver.ID), 0)
	}
	return nil
}
