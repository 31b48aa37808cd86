package tests

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"ridefare/internal/domain"
	"ridefare/internal/repository"
	"ridefare/internal/repository/memory"
	"ridefare/internal/service"
)

// ──────────────────────────────────────────────
// MOCK EVENT PUBLISHER
// ──────────────────────────────────────────────

// MockPublisher records published ride events.
type MockPublisher struct {
	mu     sync.Mutex
	events []service.RideEvent

	// Error injection
	PublishError error
}

func (m *MockPublisher) Publish(ctx context.Context, key string, payload []byte) error {
	if m.PublishError != nil {
		return m.PublishError
	}
	var event service.RideEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return err
	}
	if key != fmt.Sprint(event.RideID) {
		return fmt.Errorf("key %q does not match ride %d", key, event.RideID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns the recorded events of type t.
func (m *MockPublisher) Events(t service.EventType) []service.RideEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []service.RideEvent
	for _, e := range m.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// ──────────────────────────────────────────────
// MOCK POLICY CACHE
// ──────────────────────────────────────────────

// MockPolicyCache is an in-process PolicyCache.
type MockPolicyCache struct {
	mu     sync.Mutex
	cached *domain.PolicySnapshot

	GetCallCount        int32
	InvalidateCallCount int32

	// Error injection
	GetError error
}

func (m *MockPolicyCache) GetPolicy(ctx context.Context) (*domain.PolicySnapshot, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cached == nil {
		return nil, nil
	}
	c := *m.cached
	return &c, nil
}

func (m *MockPolicyCache) SetPolicy(ctx context.Context, policy *domain.PolicySnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *policy
	m.cached = &c
	return nil
}

func (m *MockPolicyCache) InvalidatePolicy(ctx context.Context) error {
	atomic.AddInt32(&m.InvalidateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cached = nil
	return nil
}

// ──────────────────────────────────────────────
// MOCK RIDE LOCKER
// ──────────────────────────────────────────────

// MockRideLocker is an in-process RideLocker.
type MockRideLocker struct {
	mu   sync.Mutex
	held map[int64]bool

	ReleaseCallCount int32

	// Error injection
	AcquireError error
}

// NewMockRideLocker creates a new mock ride locker.
func NewMockRideLocker() *MockRideLocker {
	return &MockRideLocker{held: make(map[int64]bool)}
}

// Hold marks rideID as locked by someone else.
func (m *MockRideLocker) Hold(rideID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held[rideID] = true
}

func (m *MockRideLocker) AcquireRideLock(ctx context.Context, rideID int64, ttl time.Duration) (bool, error) {
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[rideID] {
		return false, nil
	}
	m.held[rideID] = true
	return true, nil
}

func (m *MockRideLocker) ReleaseRideLock(ctx context.Context, rideID int64) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, rideID)
	return nil
}

// ──────────────────────────────────────────────
// DETERMINISTIC SELECTOR
// ──────────────────────────────────────────────

// FixedSelector always picks the same index and payment method.
type FixedSelector struct {
	Index  int
	Wallet bool
}

func (s FixedSelector) Pick(n int) int  { return s.Index % n }
func (s FixedSelector) UseWallet() bool { return s.Wallet }

// ──────────────────────────────────────────────
// FAILING TRANSACTION MANAGER
// ──────────────────────────────────────────────

// FlakyTxManager lets the first AllowBegins transactions through and fails
// every later one before it starts.
type FlakyTxManager struct {
	Inner       repository.TxManager
	AllowBegins int32

	begins int32
}

var errConnectionRefused = errors.New("connection refused")

func (m *FlakyTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if atomic.AddInt32(&m.begins, 1) > m.AllowBegins {
		return fmt.Errorf("%w: %w", repository.ErrTxBegin, errConnectionRefused)
	}
	return m.Inner.WithinTx(ctx, fn)
}

// ──────────────────────────────────────────────
// FIXTURE
// ──────────────────────────────────────────────

// FixedNow is the clock of every fixture.
var FixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

// tenMilesOfLongitude is the longitude span that is exactly ten miles along
// the equator.
var tenMilesOfLongitude = 10 / service.EarthRadiusMiles * 180 / math.Pi

// Fixture is a small seeded city over the memory store with the service
// layer wired on top.
type Fixture struct {
	Store     *memory.Store
	Publisher *MockPublisher
	Log       *logrus.Logger
	LogHook   *logtest.Hook

	// Equator pair: exactly 10 miles apart, no discounts.
	EquatorA, EquatorB *domain.Location
	// Hot pair: both discounted 25%.
	HotA, HotB *domain.Location
	// Downtown -> JFK has an economy route override of 175.
	Downtown, JFK *domain.Location

	Economy *domain.Category

	Rider     *domain.Rider // 1000.00 in the wallet
	PoorRider *domain.Rider // 5.00 in the wallet

	Driver            *domain.Driver
	OtherDriver       *domain.Driver
	AccountlessDriver *domain.Driver // no bank account, offline

	Deductions *service.DeductionPolicy
	Pricing    *service.PricingService
	Settlement *service.SettlementService
	Simulation *service.SimulationService
	Policy     *service.PolicyService
	Receipts   *service.ReceiptService
	Drivers    *service.DriverService
}

// WireOptions replaces collaborators of the service layer.
type WireOptions struct {
	TxManager repository.TxManager
	Locker    service.RideLocker
	Cache     service.PolicyCache
	Selector  service.CandidateSelector
}

// NewFixture seeds a store and wires the services with default collaborators.
func NewFixture(t testing.TB) *Fixture {
	t.Helper()
	ctx := context.Background()

	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	s := memory.NewStore(2 * time.Second)
	f := &Fixture{Store: s, Publisher: &MockPublisher{}, Log: log, LogHook: hook}

	quarter := decimal.NewFromInt(25)
	f.EquatorA = s.AddLocation(domain.Location{Name: "Equator A", Lat: 0, Lng: 0})
	f.EquatorB = s.AddLocation(domain.Location{Name: "Equator B", Lat: 0, Lng: tenMilesOfLongitude})
	f.HotA = s.AddLocation(domain.Location{Name: "Hot A", Lat: 1, Lng: 0, IsHotArea: true, CommissionDiscountPct: quarter})
	f.HotB = s.AddLocation(domain.Location{Name: "Hot B", Lat: 1, Lng: tenMilesOfLongitude, IsHotArea: true, CommissionDiscountPct: quarter})
	f.Downtown = s.AddLocation(domain.Location{Name: "Downtown", Lat: 40.7128, Lng: -74.0060})
	f.JFK = s.AddLocation(domain.Location{Name: "JFK Airport", Lat: 40.6413, Lng: -73.7781})

	f.Economy = s.AddCategory(domain.Category{Name: "economy", RateCentsPerMile: 150})
	s.AddFareRule(domain.FareRule{
		CategoryID:            f.Economy.ID,
		OriginLocationID:      f.Downtown.ID,
		DestLocationID:        f.JFK.ID,
		RouteRateCentsPerMile: 175,
	})

	defaults := domain.DefaultPolicy()
	for name, pct := range map[domain.DeductionName]decimal.Decimal{
		domain.DeductionCompanyCommission: defaults.CompanyCommissionPct,
		domain.DeductionRiderFee:          defaults.RiderFeePct,
		domain.DeductionDriverDeduction:   defaults.DriverDeductionPct,
		domain.DeductionTax:               defaults.TaxPct,
	} {
		if err := s.Policy().UpsertDeductionType(ctx, name, pct); err != nil {
			t.Fatalf("seed deductions: %v", err)
		}
	}

	s.OpenAccount(domain.CompanyAccount, 0)
	f.Rider = s.AddRider(domain.Rider{Name: "Rita"})
	s.OpenAccount(domain.RiderAccount(f.Rider.ID), 1000_00)
	f.PoorRider = s.AddRider(domain.Rider{Name: "Paul"})
	s.OpenAccount(domain.RiderAccount(f.PoorRider.ID), 500)

	f.Driver = s.AddDriver(domain.Driver{Name: "Dana", IsOnline: true})
	s.OpenAccount(domain.DriverAccount(f.Driver.ID), 0)
	f.OtherDriver = s.AddDriver(domain.Driver{Name: "Omar", IsOnline: true})
	s.OpenAccount(domain.DriverAccount(f.OtherDriver.ID), 0)
	f.AccountlessDriver = s.AddDriver(domain.Driver{Name: "Nell"})

	f.Wire(WireOptions{})
	return f
}

// Wire (re)builds the service layer. Zero options use the memory store, no
// locker, no cache and FixedSelector{}.
func (f *Fixture) Wire(opts WireOptions) {
	if opts.TxManager == nil {
		opts.TxManager = f.Store
	}
	if opts.Selector == nil {
		opts.Selector = FixedSelector{}
	}

	s := f.Store
	notifier := service.NewNotificationService(f.Publisher, f.Log)
	f.Deductions = service.NewDeductionPolicy(s.Policy(), opts.Cache, f.Log)
	f.Pricing = service.NewPricingService(s.Catalog(), service.NewRateResolver(s.Catalog()), f.Deductions)
	f.Settlement = service.NewSettlementService(
		opts.TxManager, s.Riders(), s.Drivers(), f.Pricing, opts.Locker, notifier, f.Log,
		service.SettlementOptions{Now: func() time.Time { return FixedNow }},
	)
	f.Simulation = service.NewSimulationService(
		s.Catalog(), s.Riders(), s.Drivers(), f.Deductions, f.Pricing, f.Settlement, opts.Selector, f.Log,
		service.SimulationOptions{DefaultBatch: 5, MaxBatch: 20},
	)
	f.Policy = service.NewPolicyService(s.Policy(), s.Catalog(), f.Deductions, f.Log)
	f.Receipts = service.NewReceiptService(s.Rides(), s.Payments(), s.Catalog())
	f.Drivers = service.NewDriverService(s.Drivers(), f.Log)
}

// Balances is a snapshot of the three ledger accounts a ride touches.
type Balances struct {
	Rider, Company, Driver int64
}

// BalancesFor reads the committed balances of rider, company and driver.
func (f *Fixture) BalancesFor(t testing.TB, riderID, driverID int64) Balances {
	t.Helper()
	get := func(owner domain.AccountOwner) int64 {
		a, err := f.Store.Accounts().GetByOwner(context.Background(), owner)
		if err != nil {
			t.Fatalf("balance of %s: %v", owner, err)
		}
		return a.BalanceCents
	}
	return Balances{
		Rider:   get(domain.RiderAccount(riderID)),
		Company: get(domain.CompanyAccount),
		Driver:  get(domain.DriverAccount(driverID)),
	}
}

// Book books a ride from a to b in economy, failing the test on error.
func (f *Fixture) Book(t testing.TB, rider *domain.Rider, driver *domain.Driver, a, b *domain.Location, method domain.PaymentMethod) *domain.Ride {
	t.Helper()
	ride, err := f.Settlement.Book(context.Background(), service.BookRequest{
		RiderID:       rider.ID,
		DriverID:      driver.ID,
		OriginID:      a.ID,
		DestinationID: b.ID,
		CategoryID:    f.Economy.ID,
		Method:        method,
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	return ride
}

// RideStatus reads the committed status of a ride.
func (f *Fixture) RideStatus(t testing.TB, rideID int64) domain.RideStatus {
	t.Helper()
	ride, err := f.Store.Rides().GetByID(context.Background(), rideID)
	if err != nil {
		t.Fatalf("get ride %d: %v", rideID, err)
	}
	return ride.Status
}
