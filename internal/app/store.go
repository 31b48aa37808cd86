package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"

	"ridefare/internal/config"
	"ridefare/internal/repository"
	"ridefare/internal/repository/memory"
	"ridefare/internal/repository/postgres"
)

// Stores bundles the repositories a backend provides.
type Stores struct {
	TxManager repository.TxManager
	Catalog   repository.CatalogRepository
	Policy    repository.PolicyRepository
	Riders    repository.RiderRepository
	Drivers   repository.DriverRepository
	Rides     repository.RideReader
	Payments  repository.PaymentReader
	Accounts  repository.AccountReader

	close func() error
}

// Close releases the backend's resources.
func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// NewStores opens the backend selected by STORE_BACKEND. The memory backend
// is seeded with demo data.
func NewStores(ctx context.Context, cfg *config.Config, nrApp *newrelic.Application, log logrus.FieldLogger) (*Stores, error) {
	switch cfg.Store.Backend {
	case "memory":
		store := memory.NewStore(cfg.Settlement.LockTimeout)
		if err := memory.SeedDemo(ctx, store); err != nil {
			return nil, fmt.Errorf("failed to seed memory store: %w", err)
		}
		log.WithField("backend", "memory").Info("store ready")
		return MemoryStores(store), nil

	case "postgres", "":
		db, err := NewDatabase(ctx, cfg.Database, nrApp)
		if err != nil {
			return nil, err
		}
		log.WithField("backend", "postgres").Info("connected to PostgreSQL")
		return PostgresStores(db, cfg.Settlement), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// MemoryStores exposes an in-memory store through the repository interfaces.
func MemoryStores(store *memory.Store) *Stores {
	return &Stores{
		TxManager: store,
		Catalog:   store.Catalog(),
		Policy:    store.Policy(),
		Riders:    store.Riders(),
		Drivers:   store.Drivers(),
		Rides:     store.Rides(),
		Payments:  store.Payments(),
		Accounts:  store.Accounts(),
	}
}

// PostgresStores exposes a PostgreSQL database through the repository interfaces.
func PostgresStores(db *sql.DB, cfg config.SettlementConfig) *Stores {
	return &Stores{
		TxManager: postgres.NewTxManager(db, cfg.LockTimeout),
		Catalog:   postgres.NewCatalogRepository(db),
		Policy:    postgres.NewPolicyRepository(db),
		Riders:    postgres.NewRiderRepository(db),
		Drivers:   postgres.NewDriverRepository(db),
		Rides:     postgres.NewRideRepository(db),
		Payments:  postgres.NewPaymentRepository(db),
		Accounts:  postgres.NewAccountRepository(db),
		close:     db.Close,
	}
}
