package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ridefare/internal/domain"
	"ridefare/internal/repository"
)

const (
	DefaultSimulationBatch = 50
	MaxSimulationBatch     = 200
)

// CandidateSelector supplies the random choices of a simulated batch.
type CandidateSelector interface {
	// Pick returns an index in [0, n). n is always positive.
	Pick(n int) int
	// UseWallet decides the payment method of one simulated ride.
	UseWallet() bool
}

// RandomSelector is a CandidateSelector backed by math/rand/v2.
type RandomSelector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSelector creates a selector seeded from the runtime source.
func NewRandomSelector() *RandomSelector {
	return &RandomSelector{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

func (r *RandomSelector) Pick(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}

func (r *RandomSelector) UseWallet() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(2) == 0
}

// SimulationResult summarizes one batch.
type SimulationResult struct {
	RunID     string
	Requested int
	Succeeded int
	Failed    int
	// Aborted is set when the batch stopped because no transaction could be started.
	Aborted bool
}

// SimulationService books and settles batches of random rides.
type SimulationService struct {
	catalog    repository.CatalogRepository
	riders     repository.RiderRepository
	drivers    repository.DriverRepository
	policy     *DeductionPolicy
	pricing    *PricingService
	settlement *SettlementService
	selector   CandidateSelector
	log        logrus.FieldLogger
	defaultN   int
	maxN       int
}

// SimulationOptions bounds batch sizes. Zero values take the package defaults.
type SimulationOptions struct {
	DefaultBatch int
	MaxBatch     int
}

// NewSimulationService creates a new SimulationService.
func NewSimulationService(
	catalog repository.CatalogRepository,
	riders repository.RiderRepository,
	drivers repository.DriverRepository,
	policy *DeductionPolicy,
	pricing *PricingService,
	settlement *SettlementService,
	selector CandidateSelector,
	log logrus.FieldLogger,
	opts SimulationOptions,
) *SimulationService {
	if selector == nil {
		selector = NewRandomSelector()
	}
	if opts.MaxBatch <= 0 {
		opts.MaxBatch = MaxSimulationBatch
	}
	if opts.DefaultBatch <= 0 {
		opts.DefaultBatch = DefaultSimulationBatch
	}
	if opts.DefaultBatch > opts.MaxBatch {
		opts.DefaultBatch = opts.MaxBatch
	}
	return &SimulationService{
		catalog:    catalog,
		riders:     riders,
		drivers:    drivers,
		policy:     policy,
		pricing:    pricing,
		settlement: settlement,
		selector:   selector,
		log:        loggerOrStandard(log),
		defaultN:   opts.DefaultBatch,
		maxN:       opts.MaxBatch,
	}
}

// ClampBatch returns the default when n is nil and otherwise clamps n to
// [1, max]; an explicit zero or negative count runs one ride.
func (s *SimulationService) ClampBatch(n *int) int {
	if n == nil {
		return s.defaultN
	}
	return max(1, min(*n, s.maxN))
}

type candidates struct {
	riders     []*domain.Rider
	drivers    []*domain.Driver
	locations  []*domain.Location
	categories []*domain.Category
}

// SimulateBatch books and immediately settles n random rides, each in its
// own transaction; a nil n takes the configured default. Failed rides are
// counted and skipped. The batch stops early only when a transaction cannot
// be started.
func (s *SimulationService) SimulateBatch(ctx context.Context, n *int) (*SimulationResult, error) {
	count := s.ClampBatch(n)
	result := &SimulationResult{RunID: uuid.New().String(), Requested: count}
	log := s.log.WithFields(logrus.Fields{"action": "simulate", "run_id": result.RunID})

	pool, err := s.loadCandidates(ctx)
	if err != nil {
		return nil, err
	}

	policy, err := s.policy.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	for i := 0; i < count; i++ {
		err := s.simulateOne(ctx, pool, policy)
		if err == nil {
			result.Succeeded++
			continue
		}
		if errors.Is(err, repository.ErrTxBegin) {
			log.WithError(err).Error("cannot begin transaction, stopping batch")
			result.Aborted = true
			break
		}
		result.Failed++
		log.WithError(err).Debug("simulated ride failed")
	}

	log.WithFields(logrus.Fields{
		"requested": result.Requested,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	}).Info("simulation finished")

	return result, nil
}

func (s *SimulationService) simulateOne(ctx context.Context, pool *candidates, policy domain.PolicySnapshot) error {
	rider := pool.riders[s.selector.Pick(len(pool.riders))]
	driver := pool.drivers[s.selector.Pick(len(pool.drivers))]
	category := pool.categories[s.selector.Pick(len(pool.categories))]

	origin := pool.locations[s.selector.Pick(len(pool.locations))]
	dest := origin
	if len(pool.locations) > 1 {
		// Draw from the others so origin != destination.
		j := s.selector.Pick(len(pool.locations) - 1)
		for _, l := range pool.locations {
			if l.ID == origin.ID {
				continue
			}
			if j == 0 {
				dest = l
				break
			}
			j--
		}
	}

	method := domain.PaymentMethodCard
	if s.selector.UseWallet() {
		method = domain.PaymentMethodWallet
	}

	quote, err := s.pricing.price(ctx, origin, dest, category, policy)
	if err != nil {
		return err
	}

	now := s.settlement.now()
	ride := newRide(rider.ID, driver.ID, method, quote, now)

	var settled *domain.Ride
	err = s.settlement.txm.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := s.settlement.book(ctx, tx, ride, now); err != nil {
			return err
		}
		var err error
		settled, err = s.settlement.settle(ctx, tx, ride.ID, driver.ID, now)
		return err
	})
	if err != nil {
		return settlementError(err)
	}

	_ = s.settlement.notifier.NotifyRideAccepted(ctx, settled)
	return nil
}

func (s *SimulationService) loadCandidates(ctx context.Context) (*candidates, error) {
	riders, err := s.riders.GetAll(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	drivers, err := s.drivers.ListOnline(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	locations, err := s.catalog.ListLocations(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	categories, err := s.catalog.ListCategories(ctx)
	if err != nil {
		return nil, storeError(err)
	}

	if len(riders) == 0 || len(drivers) == 0 || len(locations) == 0 || len(categories) == 0 {
		return nil, ErrNoSimulationCandidates
	}
	return &candidates{riders: riders, drivers: drivers, locations: locations, categories: categories}, nil
}
