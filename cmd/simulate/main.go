// Command simulate books and settles a batch of random rides against the
// configured store and prints the outcome.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"ridefare/internal/app"
	"ridefare/internal/config"
)

func main() {
	n := flag.Int("n", 0, "number of rides to simulate (omit to use SIMULATION_DEFAULT_BATCH)")
	flag.Parse()

	var batch *int
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "n" {
			batch = n
		}
	})

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	log := app.NewLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := app.NewStores(ctx, cfg, nil, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open store")
	}
	defer stores.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		if redisClient, err = app.NewRedisClient(ctx, cfg.Redis, nil); err != nil {
			log.WithError(err).Warn("redis unavailable, continuing without it")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	services := app.NewServices(cfg, stores, app.ServiceDeps{Redis: redisClient, Log: log})

	result, err := services.Simulation.SimulateBatch(ctx, batch)
	if err != nil {
		log.WithError(err).Fatal("simulation failed")
	}

	fmt.Printf("run %s: requested=%d succeeded=%d failed=%d aborted=%t\n",
		result.RunID, result.Requested, result.Succeeded, result.Failed, result.Aborted)
	if result.Aborted {
		os.Exit(1)
	}
}
