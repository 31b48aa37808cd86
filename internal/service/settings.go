package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"ridefare/internal/domain"
	"ridefare/internal/repository"
)

// PolicyService lets operators read and change the deduction percentages
// and the hot-area discounts.
type PolicyService struct {
	repo       repository.PolicyRepository
	catalog    repository.CatalogRepository
	deductions *DeductionPolicy
	log        logrus.FieldLogger
}

// NewPolicyService creates a new PolicyService.
func NewPolicyService(repo repository.PolicyRepository, catalog repository.CatalogRepository, deductions *DeductionPolicy, log logrus.FieldLogger) *PolicyService {
	return &PolicyService{
		repo:       repo,
		catalog:    catalog,
		deductions: deductions,
		log:        loggerOrStandard(log),
	}
}

// GetDeductionTypes lists all four deductions. Names without a stored row
// are reported with their default percentage and ID 0.
func (s *PolicyService) GetDeductionTypes(ctx context.Context) ([]*domain.DeductionType, error) {
	stored, err := s.repo.ListDeductionTypes(ctx)
	if err != nil {
		return nil, storeError(err)
	}

	byName := make(map[domain.DeductionName]*domain.DeductionType, len(stored))
	for _, t := range stored {
		byName[t.Name] = t
	}

	defaults := domain.DefaultPolicy()
	fallback := map[domain.DeductionName]decimal.Decimal{
		domain.DeductionCompanyCommission: defaults.CompanyCommissionPct,
		domain.DeductionRiderFee:          defaults.RiderFeePct,
		domain.DeductionDriverDeduction:   defaults.DriverDeductionPct,
		domain.DeductionTax:               defaults.TaxPct,
	}

	out := make([]*domain.DeductionType, 0, len(domain.DeductionNames))
	for _, name := range domain.DeductionNames {
		if t, ok := byName[name]; ok {
			out = append(out, t)
			continue
		}
		out = append(out, &domain.DeductionType{Name: name, DefaultPct: fallback[name]})
	}
	return out, nil
}

// DeductionSetting is one percentage to store.
type DeductionSetting struct {
	Name domain.DeductionName `validate:"required,oneof=company_commission rider_fee driver_deduction tax"`
	Pct  decimal.Decimal
}

// SetDeductionsRequest carries the percentages to upsert.
type SetDeductionsRequest struct {
	Items []DeductionSetting `validate:"required,min=1,dive"`
}

// SetDeductionTypes upserts percentages by name. Rides already booked keep
// the percentages frozen on them.
func (s *PolicyService) SetDeductionTypes(ctx context.Context, req SetDeductionsRequest) ([]*domain.DeductionType, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	for _, item := range req.Items {
		if item.Pct.IsNegative() || item.Pct.GreaterThan(hundred) {
			return nil, fmt.Errorf("%w: %s=%s", ErrInvalidPercentage, item.Name, item.Pct)
		}
	}

	types := make([]domain.DeductionType, 0, len(req.Items))
	for _, item := range req.Items {
		types = append(types, domain.DeductionType{Name: item.Name, DefaultPct: item.Pct.Round(2)})
	}
	if err := s.repo.UpsertDeductionTypes(ctx, types); err != nil {
		return nil, storeError(err)
	}
	// A Snapshot that loaded before the upsert may still refill the cache
	// with the old percentages; POLICY_CACHE_TTL bounds that window.
	s.deductions.Invalidate(ctx)

	s.log.WithField("count", len(req.Items)).Info("deduction percentages updated")
	return s.GetDeductionTypes(ctx)
}

// HotAreaRequest updates one location's hot-area settings.
type HotAreaRequest struct {
	LocationID  int64 `validate:"gt=0"`
	IsHotArea   bool
	DiscountPct decimal.Decimal
}

// HotAreaResult is the updated location with the commission it now earns
// on trips that start and end there.
type HotAreaResult struct {
	Location               *domain.Location
	EffectiveCommissionPct decimal.Decimal
}

// UpdateHotArea clamps the discount to [0, 100] with two fraction digits
// and stores it.
func (s *PolicyService) UpdateHotArea(ctx context.Context, req HotAreaRequest) (*HotAreaResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	discount := clampPct(req.DiscountPct).Round(2)
	location, err := s.catalog.UpdateHotArea(ctx, req.LocationID, req.IsHotArea, discount)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: location %d not found", ErrInvalidLocation, req.LocationID)
		}
		return nil, storeError(err)
	}

	policy, err := s.deductions.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"location_id":  location.ID,
		"is_hot_area":  location.IsHotArea,
		"discount_pct": location.CommissionDiscountPct.StringFixed(2),
	}).Info("hot area updated")

	return &HotAreaResult{
		Location:               location,
		EffectiveCommissionPct: EffectiveCommissionPct(policy.CompanyCommissionPct, location, location),
	}, nil
}
