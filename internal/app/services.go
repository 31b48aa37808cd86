package app

import (
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"ridefare/internal/config"
	internalRedis "ridefare/internal/redis"
	"ridefare/internal/service"
)

// Services is the wired service layer.
type Services struct {
	Pricing    *service.PricingService
	Settlement *service.SettlementService
	Simulation *service.SimulationService
	Receipts   *service.ReceiptService
	Drivers    *service.DriverService
	Policy     *service.PolicyService
}

// ServiceDeps are the optional collaborators of the service layer. Nil
// fields disable the matching feature.
type ServiceDeps struct {
	Redis     *redis.Client
	Publisher service.EventPublisher
	Selector  service.CandidateSelector
	Log       logrus.FieldLogger
}

// NewServices wires the service layer over stores.
func NewServices(cfg *config.Config, stores *Stores, deps ServiceDeps) *Services {
	// Interfaces stay nil unless Redis is present; a nil *CacheStore would
	// not compare equal to nil.
	var (
		cache  service.PolicyCache
		locker service.RideLocker
	)
	if deps.Redis != nil {
		cache = internalRedis.NewCacheStore(deps.Redis, cfg.Redis.PolicyCacheTTL)
		locker = internalRedis.NewLockStore(deps.Redis)
	}

	log := deps.Log
	notifier := service.NewNotificationService(deps.Publisher, log)
	deductions := service.NewDeductionPolicy(stores.Policy, cache, log)
	pricing := service.NewPricingService(stores.Catalog, service.NewRateResolver(stores.Catalog), deductions)
	settlement := service.NewSettlementService(
		stores.TxManager,
		stores.Riders,
		stores.Drivers,
		pricing,
		locker,
		notifier,
		log,
		service.SettlementOptions{RideLockTTL: cfg.Settlement.RideLockTTL},
	)

	return &Services{
		Pricing:    pricing,
		Settlement: settlement,
		Simulation: service.NewSimulationService(
			stores.Catalog,
			stores.Riders,
			stores.Drivers,
			deductions,
			pricing,
			settlement,
			deps.Selector,
			log,
			service.SimulationOptions{
				DefaultBatch: cfg.Simulation.DefaultBatch,
				MaxBatch:     cfg.Simulation.MaxBatch,
			},
		),
		Receipts: service.NewReceiptService(stores.Rides, stores.Payments, stores.Catalog),
		Drivers:  service.NewDriverService(stores.Drivers, log),
		Policy:   service.NewPolicyService(stores.Policy, stores.Catalog, deductions, log),
	}
}
