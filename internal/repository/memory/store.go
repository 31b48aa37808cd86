// Package memory is a process-local implementation of the repository
// interfaces. Transactions are serialized and applied copy-on-write, so a
// failed transaction leaves no trace.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"ridefare/internal/domain"
	"ridefare/internal/repository"
)

type fareRuleKey struct {
	categoryID, originID, destID int64
}

// Store holds every table in memory.
type Store struct {
	mu          sync.RWMutex
	txSem       chan struct{}
	lockTimeout time.Duration

	ledger *ledgerTables

	locations  map[int64]*domain.Location
	categories map[int64]*domain.Category
	fareRules  map[fareRuleKey]*domain.FareRule
	deductions map[domain.DeductionName]*domain.DeductionType
	riders     map[int64]*domain.Rider
	drivers    map[int64]*domain.Driver
	nextID     int64
}

// NewStore creates an empty store. A positive lockTimeout bounds how long
// WithinTx waits for the running transaction to finish.
func NewStore(lockTimeout time.Duration) *Store {
	return &Store{
		txSem:       make(chan struct{}, 1),
		lockTimeout: lockTimeout,
		ledger:      newLedgerTables(),
		locations:   make(map[int64]*domain.Location),
		categories:  make(map[int64]*domain.Category),
		fareRules:   make(map[fareRuleKey]*domain.FareRule),
		deductions:  make(map[domain.DeductionName]*domain.DeductionType),
		riders:      make(map[int64]*domain.Rider),
		drivers:     make(map[int64]*domain.Driver),
	}
}

// Ensure interfaces are satisfied.
var (
	_ repository.TxManager         = (*Store)(nil)
	_ repository.CatalogRepository = (*catalogRepository)(nil)
	_ repository.PolicyRepository  = (*policyRepository)(nil)
	_ repository.RiderRepository   = (*riderRepository)(nil)
	_ repository.DriverRepository  = (*driverRepository)(nil)
	_ repository.RideRepository    = (*rideRepository)(nil)
	_ repository.PaymentRepository = (*paymentRepository)(nil)
	_ repository.AccountRepository = (*accountRepository)(nil)
)

// WithinTx runs fn against a private copy of the ledger tables and publishes
// the copy only when fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", repository.ErrTxBegin, err)
	}
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer func() { <-s.txSem }()

	s.mu.RLock()
	work := s.ledger.clone()
	s.mu.RUnlock()

	if err := fn(ctx, &txView{t: work}); err != nil {
		return err
	}

	s.mu.Lock()
	s.ledger = work
	s.mu.Unlock()
	return nil
}

func (s *Store) acquire(ctx context.Context) error {
	var timeout <-chan time.Time
	if s.lockTimeout > 0 {
		timer := time.NewTimer(s.lockTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case s.txSem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", repository.ErrLockTimeout, ctx.Err())
	case <-timeout:
		return repository.ErrLockTimeout
	}
}

// Catalog returns the location/category/fare-rule repository.
func (s *Store) Catalog() repository.CatalogRepository { return &catalogRepository{s: s} }

// Policy returns the deduction policy repository.
func (s *Store) Policy() repository.PolicyRepository { return &policyRepository{s: s} }

// Riders returns the rider repository.
func (s *Store) Riders() repository.RiderRepository { return &riderRepository{s: s} }

// Drivers returns the driver repository.
func (s *Store) Drivers() repository.DriverRepository { return &driverRepository{s: s} }

// Rides returns a read-only view of committed rides.
func (s *Store) Rides() repository.RideReader { return committedRides{s: s} }

// Payments returns a read-only view of committed payments.
func (s *Store) Payments() repository.PaymentReader { return committedPayments{s: s} }

// Accounts returns a read-only view of committed balances.
func (s *Store) Accounts() repository.AccountReader { return committedAccounts{s: s} }

// LedgerEntries returns the committed journal rows for a ride.
func (s *Store) LedgerEntries(rideID int64) []domain.LedgerEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.LedgerEntry
	for _, e := range s.ledger.entries {
		if e.RideID == rideID {
			out = append(out, *e)
		}
	}
	return out
}

// ──────────────────────────────────────────────
// REFERENCE DATA
// ──────────────────────────────────────────────

func (s *Store) assignID(id *int64) {
	if *id == 0 {
		s.nextID++
		*id = s.nextID
	} else if *id > s.nextID {
		s.nextID = *id
	}
}

// AddLocation inserts a location, assigning an ID when it has none.
func (s *Store) AddLocation(l domain.Location) *domain.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignID(&l.ID)
	s.locations[l.ID] = &l
	c := l
	return &c
}

// AddCategory inserts a category, assigning an ID when it has none.
func (s *Store) AddCategory(c domain.Category) *domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignID(&c.ID)
	s.categories[c.ID] = &c
	out := c
	return &out
}

// AddFareRule inserts or replaces a route override.
func (s *Store) AddFareRule(fr domain.FareRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fareRules[fareRuleKey{fr.CategoryID, fr.OriginLocationID, fr.DestLocationID}] = &fr
}

// AddRider inserts a rider, assigning an ID when it has none.
func (s *Store) AddRider(r domain.Rider) *domain.Rider {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignID(&r.ID)
	s.riders[r.ID] = &r
	out := r
	return &out
}

// AddDriver inserts a driver, assigning an ID when it has none.
func (s *Store) AddDriver(d domain.Driver) *domain.Driver {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignID(&d.ID)
	s.drivers[d.ID] = &d
	out := d
	return &out
}

// OpenAccount creates the bank account of owner with an opening balance, or
// resets the balance of an existing one.
func (s *Store) OpenAccount(owner domain.AccountOwner, balanceCents int64) *domain.BankAccount {
	s.txSem <- struct{}{}
	defer func() { <-s.txSem }()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.open(owner, balanceCents)
}

type catalogRepository struct{ s *Store }

func (r *catalogRepository) GetLocation(ctx context.Context, id int64) (*domain.Location, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	l, ok := r.s.locations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *l
	return &c, nil
}

func (r *catalogRepository) ListLocations(ctx context.Context) ([]*domain.Location, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Location, 0, len(r.s.locations))
	for _, l := range r.s.locations {
		c := *l
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *catalogRepository) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *c
	return &out, nil
}

func (r *catalogRepository) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *catalogRepository) GetFareRule(ctx context.Context, categoryID, originID, destID int64) (*domain.FareRule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	fr, ok := r.s.fareRules[fareRuleKey{categoryID, originID, destID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *fr
	return &out, nil
}

func (r *catalogRepository) UpdateHotArea(ctx context.Context, id int64, isHot bool, discountPct decimal.Decimal) (*domain.Location, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.locations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	l.IsHotArea = isHot
	l.CommissionDiscountPct = discountPct
	out := *l
	return &out, nil
}

type policyRepository struct{ s *Store }

func (r *policyRepository) ListDeductionTypes(ctx context.Context) ([]*domain.DeductionType, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.DeductionType, 0, len(r.s.deductions))
	for _, t := range r.s.deductions {
		c := *t
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *policyRepository) UpsertDeductionType(ctx context.Context, name domain.DeductionName, pct decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.upsert(name, pct)
	return nil
}

// UpsertDeductionTypes applies the whole batch under one lock, so readers
// never see part of it.
func (r *policyRepository) UpsertDeductionTypes(ctx context.Context, types []domain.DeductionType) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range types {
		r.upsert(t.Name, t.DefaultPct)
	}
	return nil
}

// upsert requires r.s.mu held for writing.
func (r *policyRepository) upsert(name domain.DeductionName, pct decimal.Decimal) {
	if t, ok := r.s.deductions[name]; ok {
		t.DefaultPct = pct
		t.Version++
		return
	}
	t := &domain.DeductionType{Name: name, DefaultPct: pct, Version: 1}
	r.s.assignID(&t.ID)
	r.s.deductions[name] = t
}

type riderRepository struct{ s *Store }

func (r *riderRepository) GetByID(ctx context.Context, id int64) (*domain.Rider, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rider, ok := r.s.riders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *rider
	return &c, nil
}

func (r *riderRepository) GetAll(ctx context.Context) ([]*domain.Rider, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Rider, 0, len(r.s.riders))
	for _, rider := range r.s.riders {
		c := *rider
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type driverRepository struct{ s *Store }

func (r *driverRepository) GetByID(ctx context.Context, id int64) (*domain.Driver, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *d
	return &c, nil
}

func (r *driverRepository) GetAll(ctx context.Context) ([]*domain.Driver, error) {
	return r.list(func(*domain.Driver) bool { return true }), nil
}

func (r *driverRepository) ListOnline(ctx context.Context) ([]*domain.Driver, error) {
	return r.list(func(d *domain.Driver) bool { return d.IsOnline }), nil
}

func (r *driverRepository) SetAvailability(ctx context.Context, id int64, online bool, seenAt time.Time) (*domain.Driver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	d.IsOnline = online
	d.LastSeenAt = &seenAt
	c := *d
	return &c, nil
}

func (r *driverRepository) list(keep func(*domain.Driver) bool) []*domain.Driver {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Driver, 0, len(r.s.drivers))
	for _, d := range r.s.drivers {
		if keep(d) {
			c := *d
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ──────────────────────────────────────────────
// COMMITTED LEDGER READS
// ──────────────────────────────────────────────

type committedRides struct{ s *Store }

func (r committedRides) GetByID(ctx context.Context, id int64) (*domain.Ride, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return (&rideRepository{t: r.s.ledger}).GetByID(ctx, id)
}

type committedPayments struct{ s *Store }

func (r committedPayments) ListByRide(ctx context.Context, rideID int64) ([]*domain.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return (&paymentRepository{t: r.s.ledger}).ListByRide(ctx, rideID)
}

type committedAccounts struct{ s *Store }

func (r committedAccounts) GetByOwner(ctx context.Context, owner domain.AccountOwner) (*domain.BankAccount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return (&accountRepository{t: r.s.ledger}).GetByOwner(ctx, owner)
}
