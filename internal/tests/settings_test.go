package tests

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridefare/internal/domain"
	"ridefare/internal/repository"
	"ridefare/internal/service"
)

// ──────────────────────────────────────────────
// DEDUCTION SETTINGS
// ──────────────────────────────────────────────

func TestSettings_UpdateChangesNewQuotes(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	ctx := context.Background()
	cache := &MockPolicyCache{}
	f.Wire(WireOptions{Cache: cache})

	quote := func() *service.Quote {
		q, err := f.Pricing.Quote(ctx, service.QuoteRequest{OriginID: f.EquatorA.ID, DestinationID: f.EquatorB.ID, CategoryID: f.Economy.ID})
		require.NoError(t, err)
		return q
	}
	first := quote()

	types, err := f.Policy.SetDeductionTypes(ctx, service.SetDeductionsRequest{Items: []service.DeductionSetting{
		{Name: domain.DeductionCompanyCommission, Pct: decimal.RequireFromString("10.005")},
		{Name: domain.DeductionTax, Pct: decimal.Zero},
	}})
	require.NoError(t, err)
	require.Len(t, types, 4)
	assert.Equal(t, domain.DeductionCompanyCommission, types[0].Name)
	assert.Equal(t, "10.01", types[0].DefaultPct.StringFixed(2), "stored with two fraction digits")
	assert.Equal(t, int32(1), cache.InvalidateCallCount)

	second := quote()
	assert.Greater(t, second.PolicyVersion, first.PolicyVersion)
	assert.Equal(t, int64(150), second.Breakdown.CompanyCommissionCents) // round(1500 * 10.01%)
	assert.Equal(t, int64(0), second.Breakdown.TaxCents)
}

func TestSettings_RejectsBadInput(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		items []service.DeductionSetting
		want  error
	}{
		{"empty", nil, service.ErrValidation},
		{"unknown name", []service.DeductionSetting{{Name: "tip", Pct: decimal.NewFromInt(1)}}, service.ErrValidation},
		{"negative", []service.DeductionSetting{{Name: domain.DeductionTax, Pct: decimal.NewFromInt(-1)}}, service.ErrInvalidPercentage},
		{"above hundred", []service.DeductionSetting{{Name: domain.DeductionRiderFee, Pct: decimal.NewFromInt(101)}}, service.ErrInvalidPercentage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Policy.SetDeductionTypes(ctx, service.SetDeductionsRequest{Items: tt.items})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	types, err := f.Policy.GetDeductionTypes(ctx)
	require.NoError(t, err)
	for _, dt := range types {
		assert.Equal(t, int64(1), dt.Version, "%s untouched", dt.Name)
	}
}

func TestSettings_CacheFailureFallsBackToStore(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	cache := &MockPolicyCache{GetError: errors.New("redis: i/o timeout")}
	f.Wire(WireOptions{Cache: cache})

	p, err := f.Deductions.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "20.00", p.CompanyCommissionPct.StringFixed(2))
	assert.Equal(t, int64(4), p.Version)
}

func TestSettings_DefaultsFillMissingRows(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	stub := &partialPolicyRepo{PolicyRepository: f.Store.Policy()}
	svc := service.NewPolicyService(stub, f.Store.Catalog(), service.NewDeductionPolicy(stub, nil, nil), nil)

	types, err := svc.GetDeductionTypes(context.Background())
	require.NoError(t, err)
	require.Len(t, types, 4)
	for _, dt := range types {
		if dt.Name == domain.DeductionTax {
			assert.Zero(t, dt.ID)
			assert.Equal(t, "8.25", dt.DefaultPct.StringFixed(2))
		}
	}
}

func TestSettings_StoreFailureUpdatesNothing(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	ctx := context.Background()
	cache := &MockPolicyCache{}
	stub := &failingBatchPolicyRepo{PolicyRepository: f.Store.Policy()}
	svc := service.NewPolicyService(stub, f.Store.Catalog(), service.NewDeductionPolicy(stub, cache, nil), nil)

	before, err := svc.GetDeductionTypes(ctx)
	require.NoError(t, err)

	_, err = svc.SetDeductionTypes(ctx, service.SetDeductionsRequest{Items: []service.DeductionSetting{
		{Name: domain.DeductionRiderFee, Pct: decimal.NewFromInt(4)},
		{Name: domain.DeductionTax, Pct: decimal.NewFromInt(9)},
	}})
	assert.ErrorIs(t, err, service.ErrStoreUnavailable)

	// Both items travel in a single batch.
	require.Len(t, stub.batches, 1)
	assert.Len(t, stub.batches[0], 2)
	assert.Equal(t, int32(0), cache.InvalidateCallCount)

	after, err := svc.GetDeductionTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

// failingBatchPolicyRepo records batch upserts and fails them.
type failingBatchPolicyRepo struct {
	repository.PolicyRepository
	batches [][]domain.DeductionType
}

func (r *failingBatchPolicyRepo) UpsertDeductionTypes(ctx context.Context, types []domain.DeductionType) error {
	r.batches = append(r.batches, types)
	return errors.New("connection reset by peer")
}

// partialPolicyRepo hides the tax row.
type partialPolicyRepo struct {
	repository.PolicyRepository
}

func (r *partialPolicyRepo) ListDeductionTypes(ctx context.Context) ([]*domain.DeductionType, error) {
	all, err := r.PolicyRepository.ListDeductionTypes(ctx)
	if err != nil {
		return nil, err
	}
	var out []*domain.DeductionType
	for _, t := range all {
		if t.Name != domain.DeductionTax {
			out = append(out, t)
		}
	}
	return out, nil
}

// ──────────────────────────────────────────────
// HOT AREAS
// ──────────────────────────────────────────────

func TestHotArea_UpdateClampsDiscount(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	ctx := context.Background()

	result, err := f.Policy.UpdateHotArea(ctx, service.HotAreaRequest{
		LocationID:  f.Downtown.ID,
		IsHotArea:   true,
		DiscountPct: decimal.RequireFromString("150"),
	})
	require.NoError(t, err)
	assert.True(t, result.Location.IsHotArea)
	assert.Equal(t, "100.00", result.Location.CommissionDiscountPct.StringFixed(2))
	assert.True(t, result.EffectiveCommissionPct.IsZero())

	result, err = f.Policy.UpdateHotArea(ctx, service.HotAreaRequest{
		LocationID:  f.Downtown.ID,
		IsHotArea:   true,
		DiscountPct: decimal.RequireFromString("4.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "15.50", result.EffectiveCommissionPct.StringFixed(2))

	q, err := f.Pricing.Quote(ctx, service.QuoteRequest{OriginID: f.Downtown.ID, DestinationID: f.JFK.ID, CategoryID: f.Economy.ID})
	require.NoError(t, err)
	assert.True(t, q.HotArea)
	assert.Equal(t, "17.75", q.Breakdown.Applied.CompanyCommissionPct.StringFixed(2))

	_, err = f.Policy.UpdateHotArea(ctx, service.HotAreaRequest{LocationID: 424242})
	assert.ErrorIs(t, err, service.ErrInvalidLocation)
}

// ──────────────────────────────────────────────
// RECEIPTS AND DRIVERS
// ──────────────────────────────────────────────

func TestReceipt_ReflectsFrozenBreakdown(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	ctx := context.Background()

	ride := f.Book(t, f.Rider, f.Driver, f.EquatorA, f.EquatorB, domain.PaymentMethodWallet)
	_, err := f.Settlement.Accept(ctx, service.SettleRequest{DriverID: f.Driver.ID, RideID: ride.ID})
	require.NoError(t, err)

	receipt, err := f.Receipts.GenerateReceipt(ctx, ride.ID)
	require.NoError(t, err)
	assert.Equal(t, "Equator A", receipt.OriginName)
	assert.Equal(t, "Equator B", receipt.DestinationName)
	assert.Equal(t, "economy", receipt.CategoryName)
	assert.Equal(t, domain.RideStatusAccepted, receipt.Status)
	assert.Equal(t, domain.PaymentStatusAuthorized, receipt.PaymentStatus)

	text := f.Receipts.FormatReceipt(receipt)
	assert.True(t, strings.Contains(text, "$16.72"), text)
	assert.True(t, strings.Contains(text, "$15.00"), text)
	assert.True(t, strings.Contains(text, "10.00 mi"), text)

	_, err = f.Receipts.GenerateReceipt(ctx, 424242)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.Receipts.GenerateReceipt(ctx, 0)
	assert.ErrorIs(t, err, service.ErrInvalidRideID)
}

func TestDriverAvailability(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	ctx := context.Background()

	d, err := f.Drivers.SetAvailability(ctx, service.AvailabilityRequest{DriverID: f.AccountlessDriver.ID, Online: true})
	require.NoError(t, err)
	assert.True(t, d.IsOnline)
	require.NotNil(t, d.LastSeenAt)

	online, err := f.Store.Drivers().ListOnline(ctx)
	require.NoError(t, err)
	assert.Len(t, online, 3)

	_, err = f.Drivers.SetAvailability(ctx, service.AvailabilityRequest{DriverID: 424242})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.Drivers.SetAvailability(ctx, service.AvailabilityRequest{})
	assert.ErrorIs(t, err, service.ErrInvalidDriverID)
}
