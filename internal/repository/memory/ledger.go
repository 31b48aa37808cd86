package memory

import (
	"context"
	"sort"
	"time"

	"ridefare/internal/domain"
	"ridefare/internal/repository"
)

type paymentKey struct {
	rideID int64
	method domain.PaymentMethod
}

// ledgerTables are the tables a transaction may write.
type ledgerTables struct {
	rides    map[int64]*domain.Ride
	payments map[paymentKey]*domain.Payment
	accounts map[domain.AccountOwner]*domain.BankAccount
	entries  []*domain.LedgerEntry

	nextRideID    int64
	nextPaymentID int64
	nextAccountID int64
	nextEntryID   int64
}

func newLedgerTables() *ledgerTables {
	return &ledgerTables{
		rides:    make(map[int64]*domain.Ride),
		payments: make(map[paymentKey]*domain.Payment),
		accounts: make(map[domain.AccountOwner]*domain.BankAccount),
	}
}

func (t *ledgerTables) clone() *ledgerTables {
	c := &ledgerTables{
		rides:         make(map[int64]*domain.Ride, len(t.rides)),
		payments:      make(map[paymentKey]*domain.Payment, len(t.payments)),
		accounts:      make(map[domain.AccountOwner]*domain.BankAccount, len(t.accounts)),
		entries:       make([]*domain.LedgerEntry, len(t.entries)),
		nextRideID:    t.nextRideID,
		nextPaymentID: t.nextPaymentID,
		nextAccountID: t.nextAccountID,
		nextEntryID:   t.nextEntryID,
	}
	for k, v := range t.rides {
		r := *v
		c.rides[k] = &r
	}
	for k, v := range t.payments {
		p := *v
		c.payments[k] = &p
	}
	for k, v := range t.accounts {
		a := *v
		c.accounts[k] = &a
	}
	// Entries are append-only and never mutated.
	copy(c.entries, t.entries)
	return c
}

func (t *ledgerTables) open(owner domain.AccountOwner, balanceCents int64) *domain.BankAccount {
	if a, ok := t.accounts[owner]; ok {
		a.BalanceCents = balanceCents
		c := *a
		return &c
	}
	t.nextAccountID++
	a := &domain.BankAccount{ID: t.nextAccountID, Owner: owner, BalanceCents: balanceCents}
	t.accounts[owner] = a
	c := *a
	return &c
}

// txView binds repositories to a transaction's private tables.
type txView struct {
	t *ledgerTables
}

func (v *txView) Rides() repository.RideRepository       { return &rideRepository{t: v.t} }
func (v *txView) Payments() repository.PaymentRepository { return &paymentRepository{t: v.t} }
func (v *txView) Accounts() repository.AccountRepository { return &accountRepository{t: v.t} }

type rideRepository struct{ t *ledgerTables }

func (r *rideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	r.t.nextRideID++
	ride.ID = r.t.nextRideID
	c := *ride
	r.t.rides[ride.ID] = &c
	return nil
}

func (r *rideRepository) GetByID(ctx context.Context, id int64) (*domain.Ride, error) {
	ride, ok := r.t.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *ride
	return &c, nil
}

func (r *rideRepository) ClaimForTransition(ctx context.Context, rideID, driverID int64, from domain.RideStatus) (*domain.Ride, error) {
	ride, ok := r.t.rides[rideID]
	if !ok || ride.DriverID != driverID || ride.Status != from {
		return nil, repository.ErrNotFound
	}
	c := *ride
	return &c, nil
}

func (r *rideRepository) UpdateStatus(ctx context.Context, rideID int64, from domain.RideStatus, version int, to domain.RideStatus, startTime *time.Time) error {
	ride, ok := r.t.rides[rideID]
	if !ok || ride.Status != from || ride.StatusVersion != version {
		return repository.ErrConflict
	}
	ride.Status = to
	ride.StatusVersion++
	if startTime != nil {
		st := *startTime
		ride.StartTime = &st
	}
	return nil
}

type paymentRepository struct{ t *ledgerTables }

func (r *paymentRepository) CreateIfAbsent(ctx context.Context, payment *domain.Payment) (bool, error) {
	key := paymentKey{payment.RideID, payment.Method}
	if _, ok := r.t.payments[key]; ok {
		return false, nil
	}
	r.t.nextPaymentID++
	payment.ID = r.t.nextPaymentID
	c := *payment
	r.t.payments[key] = &c
	return true, nil
}

func (r *paymentRepository) ListByRide(ctx context.Context, rideID int64) ([]*domain.Payment, error) {
	var out []*domain.Payment
	for _, p := range r.t.payments {
		if p.RideID == rideID {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type accountRepository struct{ t *ledgerTables }

func (r *accountRepository) GetByOwner(ctx context.Context, owner domain.AccountOwner) (*domain.BankAccount, error) {
	a, ok := r.t.accounts[owner]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *a
	return &c, nil
}

func (r *accountRepository) Adjust(ctx context.Context, owner domain.AccountOwner, deltaCents int64) (*domain.BankAccount, error) {
	a, ok := r.t.accounts[owner]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if a.BalanceCents+deltaCents < 0 {
		return nil, repository.ErrInsufficientBalance
	}
	a.BalanceCents += deltaCents
	c := *a
	return &c, nil
}

func (r *accountRepository) AppendEntry(ctx context.Context, entry *domain.LedgerEntry) error {
	r.t.nextEntryID++
	entry.ID = r.t.nextEntryID
	c := *entry
	r.t.entries = append(r.t.entries, &c)
	return nil
}
