package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"ridefare/internal/app"
	"ridefare/internal/config"
	"ridefare/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	log := app.NewLogger(cfg.Log)
	gin.SetMode(gin.ReleaseMode)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// New Relic comes first so the database and Redis clients are instrumented.
	nrApp := newRelicApp(cfg.NewRelic, log)

	stores, err := app.NewStores(ctx, cfg, nrApp, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open store")
	}
	defer stores.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = app.NewRedisClient(ctx, cfg.Redis, nrApp)
		if err != nil {
			log.WithError(err).Warn("redis unavailable, running without cache, ride locks or idempotent replays")
			redisClient = nil
		} else {
			defer redisClient.Close()
			log.WithField("addr", cfg.Redis.Addr).Info("connected to Redis")
		}
	}

	var publisher service.EventPublisher
	if cfg.Kafka.Enabled {
		kafka, err := app.NewEventPublisher(cfg.Kafka)
		if err != nil {
			log.WithError(err).Warn("kafka unavailable, ride events disabled")
		} else {
			defer kafka.Close()
			publisher = kafka
			log.WithField("topic", cfg.Kafka.Topic).Info("publishing ride events")
		}
	}

	services := app.NewServices(cfg, stores, app.ServiceDeps{
		Redis:     redisClient,
		Publisher: publisher,
		Log:       log,
	})

	server := &http.Server{
		Addr: ":" + cfg.Server.Port,
		Handler: app.NewRouter(app.RouterDeps{
			Services:    services,
			Stores:      stores,
			RedisClient: redisClient,
			NewRelicApp: nrApp,
			Log:         log,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	log.Info("server exited")
}

func newRelicApp(cfg config.NewRelicConfig, log logrus.FieldLogger) *newrelic.Application {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		return nil
	}

	nrApp, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		newrelic.ConfigAppLogForwardingEnabled(true),
	)
	if err != nil {
		log.WithError(err).Warn("failed to initialize New Relic")
		return nil
	}

	log.WithField("app", cfg.AppName).Info("New Relic enabled")
	return nrApp
}
