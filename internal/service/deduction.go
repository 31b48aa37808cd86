package service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"ridefare/internal/domain"
	"ridefare/internal/repository"
)

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
)

// PolicyCache caches the deduction policy snapshot. A miss returns (nil, nil).
type PolicyCache interface {
	GetPolicy(ctx context.Context) (*domain.PolicySnapshot, error)
	SetPolicy(ctx context.Context, policy *domain.PolicySnapshot) error
	InvalidatePolicy(ctx context.Context) error
}

// DeductionPolicy loads the base percentages and derives per-route commission.
type DeductionPolicy struct {
	repo  repository.PolicyRepository
	cache PolicyCache
	log   logrus.FieldLogger
}

// NewDeductionPolicy creates a new DeductionPolicy. cache may be nil.
func NewDeductionPolicy(repo repository.PolicyRepository, cache PolicyCache, log logrus.FieldLogger) *DeductionPolicy {
	return &DeductionPolicy{
		repo:  repo,
		cache: cache,
		log:   loggerOrStandard(log),
	}
}

// Snapshot returns the current base percentages. Names with no configured
// row fall back to the defaults. Cache failures are logged and bypassed.
func (p *DeductionPolicy) Snapshot(ctx context.Context) (domain.PolicySnapshot, error) {
	if p.cache != nil {
		cached, err := p.cache.GetPolicy(ctx)
		if err != nil {
			p.log.WithError(err).Warn("policy cache read failed")
		} else if cached != nil {
			return *cached, nil
		}
	}

	types, err := p.repo.ListDeductionTypes(ctx)
	if err != nil {
		return domain.PolicySnapshot{}, storeError(err)
	}
	snapshot := domain.PolicyFromTypes(types)

	if p.cache != nil {
		if err := p.cache.SetPolicy(ctx, &snapshot); err != nil {
			p.log.WithError(err).Warn("policy cache write failed")
		}
	}
	return snapshot, nil
}

// Invalidate drops the cached snapshot so the next read hits the store.
func (p *DeductionPolicy) Invalidate(ctx context.Context) {
	if p.cache == nil {
		return
	}
	if err := p.cache.InvalidatePolicy(ctx); err != nil {
		p.log.WithError(err).Warn("policy cache invalidation failed")
	}
}

// EffectiveCommissionPct subtracts the average endpoint discount from the
// base commission and clamps the result to [0, 100]. A nil location counts
// as a zero discount.
func EffectiveCommissionPct(base decimal.Decimal, origin, dest *domain.Location) decimal.Decimal {
	avg := discountOf(origin).Add(discountOf(dest)).Div(two)
	return clampPct(base.Sub(avg))
}

// IsHotRoute reports whether either endpoint is a hot area.
func IsHotRoute(origin, dest *domain.Location) bool {
	return (origin != nil && origin.IsHotArea) || (dest != nil && dest.IsHotArea)
}

func discountOf(l *domain.Location) decimal.Decimal {
	if l == nil {
		return decimal.Zero
	}
	return l.CommissionDiscountPct
}

func clampPct(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	if v.GreaterThan(hundred) {
		return hundred
	}
	return v
}
