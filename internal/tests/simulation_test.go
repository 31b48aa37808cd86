package tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridefare/internal/repository/memory"
	"ridefare/internal/service"
)

// ──────────────────────────────────────────────
// BATCH SIMULATION
// ──────────────────────────────────────────────

func batch(n int) *int { return &n }

func TestSimulation_ClampBatch(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)

	tests := []struct {
		name string
		n    *int
		want int
	}{
		{"missing takes the default", nil, 5},
		{"explicit zero runs one ride", batch(0), 1},
		{"negative runs one ride", batch(-3), 1},
		{"within bounds", batch(7), 7},
		{"capped at the maximum", batch(100), 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Simulation.ClampBatch(tt.n))
		})
	}
}

func TestSimulation_SettlesEveryRide(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	before := f.BalancesFor(t, f.Rider.ID, f.Driver.ID)

	result, err := f.Simulation.SimulateBatch(context.Background(), nil)
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 5, result.Requested)
	assert.Equal(t, 5, result.Succeeded)
	assert.Zero(t, result.Failed)
	assert.False(t, result.Aborted)

	// FixedSelector{} books Rider with Driver from EquatorA to EquatorB by card.
	after := f.BalancesFor(t, f.Rider.ID, f.Driver.ID)
	assert.Equal(t, before.Rider, after.Rider)
	assert.Equal(t, before.Company+5*405, after.Company)
	assert.Equal(t, before.Driver+5*1140, after.Driver)

	accepted := f.Publisher.Events(service.EventRideAccepted)
	require.Len(t, accepted, 5)
	for _, e := range accepted {
		assert.Equal(t, f.Rider.ID, e.RiderID)
		assert.Equal(t, f.Driver.ID, e.DriverID)
	}
}

func TestSimulation_CountsInsufficientFundsAndContinues(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	// Index 1 picks PoorRider paying by wallet for a ride far beyond 500 cents.
	f.Wire(WireOptions{Selector: FixedSelector{Index: 1, Wallet: true}})
	before := f.BalancesFor(t, f.PoorRider.ID, f.OtherDriver.ID)

	result, err := f.Simulation.SimulateBatch(context.Background(), batch(3))
	require.NoError(t, err)

	assert.Equal(t, 3, result.Requested)
	assert.Zero(t, result.Succeeded)
	assert.Equal(t, 3, result.Failed)
	assert.False(t, result.Aborted)
	assert.Equal(t, before, f.BalancesFor(t, f.PoorRider.ID, f.OtherDriver.ID))
}

func TestSimulation_StopsWhenTransactionsCannotBegin(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	f.Wire(WireOptions{TxManager: &FlakyTxManager{Inner: f.Store, AllowBegins: 2}})

	result, err := f.Simulation.SimulateBatch(context.Background(), batch(10))
	require.NoError(t, err)

	assert.Equal(t, 10, result.Requested)
	assert.Equal(t, 2, result.Succeeded)
	assert.Zero(t, result.Failed)
	assert.True(t, result.Aborted)
}

func TestSimulation_NeedsCandidates(t *testing.T) {
	t.Parallel()
	s := memory.NewStore(time.Second)
	deductions := service.NewDeductionPolicy(s.Policy(), nil, nil)
	pricing := service.NewPricingService(s.Catalog(), service.NewRateResolver(s.Catalog()), deductions)
	settlement := service.NewSettlementService(s, s.Riders(), s.Drivers(), pricing, nil, nil, nil, service.SettlementOptions{})
	sim := service.NewSimulationService(s.Catalog(), s.Riders(), s.Drivers(), deductions, pricing, settlement, nil, nil, service.SimulationOptions{})

	_, err := sim.SimulateBatch(context.Background(), batch(1))
	assert.ErrorIs(t, err, service.ErrNoSimulationCandidates)
	assert.ErrorIs(t, err, service.ErrValidation)
	assert.Equal(t, service.DefaultSimulationBatch, sim.ClampBatch(nil))
	assert.Equal(t, service.MaxSimulationBatch, sim.ClampBatch(batch(service.MaxSimulationBatch+1)))
}
