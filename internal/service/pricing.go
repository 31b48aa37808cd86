package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"ridefare/internal/domain"
	"ridefare/internal/repository"
)

// PricingService turns (origin, destination, category) into a fare breakdown.
type PricingService struct {
	catalog repository.CatalogRepository
	rates   *RateResolver
	policy  *DeductionPolicy
}

// NewPricingService creates a new PricingService.
func NewPricingService(catalog repository.CatalogRepository, rates *RateResolver, policy *DeductionPolicy) *PricingService {
	return &PricingService{
		catalog: catalog,
		rates:   rates,
		policy:  policy,
	}
}

// QuoteRequest contains the parameters for pricing a trip.
type QuoteRequest struct {
	OriginID      int64 `validate:"gt=0"`
	DestinationID int64 `validate:"gt=0"`
	CategoryID    int64 `validate:"gt=0"`
}

// Quote is a priced trip.
type Quote struct {
	Origin        *domain.Location
	Destination   *domain.Location
	Category      *domain.Category
	DistanceMiles float64
	HotArea       bool
	PolicyVersion int64
	Breakdown     domain.Breakdown
}

// Quote prices a trip with the current policy.
func (s *PricingService) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	policy, err := s.policy.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	return s.QuoteWithPolicy(ctx, req, policy)
}

// QuoteWithPolicy prices a trip against an explicit policy snapshot.
func (s *PricingService) QuoteWithPolicy(ctx context.Context, req QuoteRequest, policy domain.PolicySnapshot) (*Quote, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	origin, err := s.location(ctx, req.OriginID)
	if err != nil {
		return nil, err
	}
	dest, err := s.location(ctx, req.DestinationID)
	if err != nil {
		return nil, err
	}

	category, err := s.catalog.GetCategory(ctx, req.CategoryID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: category %d not found", ErrInvalidCategory, req.CategoryID)
	}
	if err != nil {
		return nil, storeError(err)
	}

	return s.price(ctx, origin, dest, category, policy)
}

func (s *PricingService) location(ctx context.Context, id int64) (*domain.Location, error) {
	l, err := s.catalog.GetLocation(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: location %d not found", ErrInvalidLocation, id)
	}
	if err != nil {
		return nil, storeError(err)
	}
	return l, nil
}

// price runs the pipeline over already-loaded reference data.
func (s *PricingService) price(ctx context.Context, origin, dest *domain.Location, category *domain.Category, policy domain.PolicySnapshot) (*Quote, error) {
	if err := ValidateCoordinates(origin.Lat, origin.Lng); err != nil {
		return nil, fmt.Errorf("%w: origin %d", err, origin.ID)
	}
	if err := ValidateCoordinates(dest.Lat, dest.Lng); err != nil {
		return nil, fmt.Errorf("%w: destination %d", err, dest.ID)
	}

	rate, err := s.rates.Resolve(ctx, category, origin.ID, dest.ID)
	if err != nil {
		return nil, err
	}
	if rate < 0 {
		return nil, fmt.Errorf("%w: negative rate for category %d", ErrInvalidCategory, category.ID)
	}

	distance := HaversineMiles(origin.Lat, origin.Lng, dest.Lat, dest.Lng)
	applied := domain.AppliedRates{
		CompanyCommissionPct: EffectiveCommissionPct(policy.CompanyCommissionPct, origin, dest),
		RiderFeePct:          policy.RiderFeePct,
		DriverDeductionPct:   policy.DriverDeductionPct,
		TaxPct:               policy.TaxPct,
		RateCentsPerMile:     rate,
	}

	return &Quote{
		Origin:        origin,
		Destination:   dest,
		Category:      category,
		DistanceMiles: distance,
		HotArea:       IsHotRoute(origin, dest),
		PolicyVersion: policy.Version,
		Breakdown:     ComputeBreakdown(distance, applied),
	}, nil
}

// ComputeBreakdown is the pricing pipeline. Each step is rounded half away
// from zero to whole cents before the next step uses it.
func ComputeBreakdown(distanceMiles float64, applied domain.AppliedRates) domain.Breakdown {
	base := roundCents(decimal.NewFromFloat(distanceMiles).Mul(decimal.NewFromInt(applied.RateCentsPerMile)))
	fee := percentOf(base, applied.RiderFeePct)
	tax := percentOf(base+fee, applied.TaxPct)
	commission := percentOf(base, applied.CompanyCommissionPct)
	deduction := percentOf(base-commission, applied.DriverDeductionPct)

	return domain.Breakdown{
		FareBaseCents:          base,
		RiderFeeCents:          fee,
		TaxCents:               tax,
		FareTotalCents:         base + fee + tax,
		CompanyCommissionCents: commission,
		DriverDeductionCents:   deduction,
		DriverPayoutCents:      base - commission - deduction,
		Applied:                applied,
	}
}

// percentOf returns round(cents * pct / 100).
func percentOf(cents int64, pct decimal.Decimal) int64 {
	return roundCents(decimal.NewFromInt(cents).Mul(pct).Div(hundred))
}

// roundCents rounds half away from zero.
func roundCents(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

// RoundDistance keeps two fraction digits for storage and display.
func RoundDistance(miles float64) decimal.Decimal {
	return decimal.NewFromFloat(miles).Round(2)
}
