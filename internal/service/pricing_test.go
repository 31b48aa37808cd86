package service

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridefare/internal/domain"
)

func pct(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func defaultApplied(rate int64) domain.AppliedRates {
	p := domain.DefaultPolicy()
	return domain.AppliedRates{
		CompanyCommissionPct: p.CompanyCommissionPct,
		RiderFeePct:          p.RiderFeePct,
		DriverDeductionPct:   p.DriverDeductionPct,
		TaxPct:               p.TaxPct,
		RateCentsPerMile:     rate,
	}
}

// ──────────────────────────────────────────────
// PRICING PIPELINE
// ──────────────────────────────────────────────

func TestComputeBreakdown_TenMilesAtDefaultPolicy(t *testing.T) {
	t.Parallel()

	b := ComputeBreakdown(10.00, defaultApplied(150))

	assert.Equal(t, int64(1500), b.FareBaseCents)
	assert.Equal(t, int64(45), b.RiderFeeCents)
	assert.Equal(t, int64(127), b.TaxCents)
	assert.Equal(t, int64(1672), b.FareTotalCents)
	assert.Equal(t, int64(300), b.CompanyCommissionCents)
	assert.Equal(t, int64(60), b.DriverDeductionCents)
	assert.Equal(t, int64(1140), b.DriverPayoutCents)
	assert.Equal(t, int64(405), b.CompanyCreditCents())
}

func TestComputeBreakdown_RoundsEachStepHalfAwayFromZero(t *testing.T) {
	t.Parallel()

	// base = round(1.5 * 1) = 2; fee = round(2 * 25%) = round(0.5) = 1
	applied := domain.AppliedRates{
		CompanyCommissionPct: pct("25"),
		RiderFeePct:          pct("25"),
		DriverDeductionPct:   pct("50"),
		TaxPct:               pct("50"),
		RateCentsPerMile:     1,
	}
	b := ComputeBreakdown(1.5, applied)

	assert.Equal(t, int64(2), b.FareBaseCents)
	assert.Equal(t, int64(1), b.RiderFeeCents)
	assert.Equal(t, int64(2), b.TaxCents) // round(3 * 50%) = round(1.5)
	assert.Equal(t, int64(1), b.CompanyCommissionCents)
	assert.Equal(t, int64(1), b.DriverDeductionCents) // round(1 * 50%) = round(0.5)
	assert.Equal(t, int64(0), b.DriverPayoutCents)
}

func TestComputeBreakdown_ConservesCents(t *testing.T) {
	t.Parallel()

	distances := []float64{0, 0.01, 0.37, 1, 2.49, 3.333, 7.5, 12.345, 48.9, 123.456}
	rates := []int64{0, 1, 99, 150, 175, 210, 275, 1000}
	commissions := []string{"0", "12.5", "20", "33.33", "100"}

	for _, d := range distances {
		for _, r := range rates {
			for _, c := range commissions {
				applied := defaultApplied(r)
				applied.CompanyCommissionPct = pct(c)
				b := ComputeBreakdown(d, applied)

				require.Equal(t, b.FareBaseCents, b.CompanyCommissionCents+b.DriverDeductionCents+b.DriverPayoutCents,
					"conservation: d=%v rate=%d commission=%s", d, r, c)
				require.Equal(t, b.FareTotalCents, b.FareBaseCents+b.RiderFeeCents+b.TaxCents,
					"decomposition: d=%v rate=%d commission=%s", d, r, c)
				require.GreaterOrEqual(t, b.DriverPayoutCents, int64(0))
			}
		}
	}
}

func TestComputeBreakdown_ZeroDistance(t *testing.T) {
	t.Parallel()

	b := ComputeBreakdown(0, defaultApplied(150))
	assert.Equal(t, domain.Breakdown{Applied: defaultApplied(150)}, b)
}

func TestRoundDistance(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "10.00", RoundDistance(9.999).StringFixed(2))
	assert.Equal(t, "2.35", RoundDistance(2.345).StringFixed(2))
}

// ──────────────────────────────────────────────
// EFFECTIVE COMMISSION
// ──────────────────────────────────────────────

func TestEffectiveCommissionPct(t *testing.T) {
	t.Parallel()

	loc := func(discount string) *domain.Location {
		return &domain.Location{IsHotArea: true, CommissionDiscountPct: pct(discount)}
	}

	tests := []struct {
		name   string
		base   string
		origin *domain.Location
		dest   *domain.Location
		want   string
	}{
		{"no discounts", "20", &domain.Location{}, &domain.Location{}, "20"},
		{"average of both ends", "20", loc("5"), loc("10"), "12.5"},
		{"discount above base clamps to zero", "20", loc("25"), loc("25"), "0"},
		{"one hot end", "20", loc("10"), &domain.Location{}, "15"},
		{"nil location counts as zero", "20", nil, loc("10"), "15"},
		{"third fraction digit is kept", "20", loc("12.35"), &domain.Location{}, "13.825"},
		{"negative discount clamps to hundred", "90", loc("-40"), loc("-40"), "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EffectiveCommissionPct(pct(tt.base), tt.origin, tt.dest)
			assert.True(t, pct(tt.want).Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}

func TestIsHotRoute(t *testing.T) {
	t.Parallel()

	hot := &domain.Location{IsHotArea: true}
	cold := &domain.Location{}

	assert.True(t, IsHotRoute(hot, cold))
	assert.True(t, IsHotRoute(cold, hot))
	assert.False(t, IsHotRoute(cold, cold))
	assert.False(t, IsHotRoute(nil, nil))
}

// ──────────────────────────────────────────────
// DISTANCE
// ──────────────────────────────────────────────

func TestHaversineMiles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		want                   float64
		tolerance              float64
	}{
		{"same point", 40.7128, -74.0060, 40.7128, -74.0060, 0, 1e-9},
		{"one degree of latitude", 0, 0, 1, 0, EarthRadiusMiles * math.Pi / 180, 1e-6},
		{"antipodal", 0, 0, 0, 180, EarthRadiusMiles * math.Pi, 1e-6},
		{"downtown to jfk", 40.7128, -74.0060, 40.6413, -73.7781, 12.9, 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineMiles(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			assert.InDelta(t, tt.want, got, tt.tolerance)
			assert.InDelta(t, got, HaversineMiles(tt.lat2, tt.lng2, tt.lat1, tt.lng1), 1e-9, "symmetric")
		})
	}
}

func TestValidateCoordinates(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateCoordinates(90, 180))
	assert.NoError(t, ValidateCoordinates(-90, -180))
	assert.ErrorIs(t, ValidateCoordinates(90.01, 0), ErrValidation)
	assert.ErrorIs(t, ValidateCoordinates(0, -180.5), ErrInvalidLocation)
	assert.ErrorIs(t, ValidateCoordinates(math.NaN(), 0), ErrInvalidLocation)
	assert.ErrorIs(t, ValidateCoordinates(0, math.Inf(1)), ErrInvalidLocation)
}

// ──────────────────────────────────────────────
// VALIDATION
// ──────────────────────────────────────────────

func TestValidateRequest_PicksFieldSentinel(t *testing.T) {
	t.Parallel()

	err := validateRequest(QuoteRequest{OriginID: 1, DestinationID: 2})
	assert.ErrorIs(t, err, ErrInvalidCategory)
	assert.ErrorIs(t, err, ErrValidation)

	err = validateRequest(BookRequest{RiderID: 1, DriverID: 2, OriginID: 1, DestinationID: 2, CategoryID: 1, Method: "cash"})
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)

	err = validateRequest(SettleRequest{DriverID: 0, RideID: 4})
	assert.ErrorIs(t, err, ErrInvalidDriverID)

	assert.NoError(t, validateRequest(BookRequest{RiderID: 1, DriverID: 2, OriginID: 1, DestinationID: 2, CategoryID: 1}))
}

func TestStoreError_KeepsServiceKinds(t *testing.T) {
	t.Parallel()

	assert.NoError(t, storeError(nil))
	assert.Equal(t, ErrInvalidRideID, storeError(ErrInvalidRideID))

	wrapped := storeError(assert.AnError)
	assert.ErrorIs(t, wrapped, ErrStoreUnavailable)
	assert.ErrorIs(t, wrapped, assert.AnError)
}
