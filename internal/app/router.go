package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"ridefare/internal/handler"
	"ridefare/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	Services    *Services
	Stores      *Stores
	RedisClient *redis.Client
	NewRelicApp *newrelic.Application
	Log         logrus.FieldLogger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Log))

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.Idempotency(deps.RedisClient))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	svc := deps.Services
	quoteHandler := handler.NewQuoteHandler(svc.Pricing)
	rideHandler := handler.NewRideHandler(svc.Settlement, svc.Receipts, deps.Stores.Rides)
	driverHandler := handler.NewDriverHandler(svc.Settlement, svc.Drivers)
	companyHandler := handler.NewCompanyHandler(svc.Policy)
	adminHandler := handler.NewAdminHandler(svc.Simulation)

	v1 := router.Group("/v1")
	{
		v1.POST("/quotes", quoteHandler.Quote)

		rides := v1.Group("/rides")
		{
			rides.POST("", rideHandler.BookRide)
			rides.GET("/:id", rideHandler.GetRide)
			rides.GET("/:id/receipt", rideHandler.GetReceipt)
		}

		drivers := v1.Group("/drivers")
		{
			drivers.POST("/:id/accept", driverHandler.AcceptRide)
			drivers.POST("/:id/reject", driverHandler.RejectRide)
			drivers.POST("/:id/availability", driverHandler.SetAvailability)
		}

		company := v1.Group("/company")
		{
			company.GET("/settings", companyHandler.GetSettings)
			company.POST("/settings", companyHandler.UpdateSettings)
			company.POST("/hot-areas", companyHandler.UpdateHotArea)
		}

		v1.POST("/admin/simulate", adminHandler.Simulate)
	}

	return router
}
