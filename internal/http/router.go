// README: HTTP router registration.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sahayog/internal/http/handlers"
	"sahayog/internal/http/middleware"
	"sahayog/internal/infra"
)

type RouterDeps struct {
	Verifier infra.TokenVerifier
	Accounts middleware.AccountTracker

	Rides           handlers.RideService
	Ratings         handlers.RatingService
	Vehicles        handlers.VehicleService
	VehicleVerifier handlers.VehicleVerifier
	Drivers         handlers.DriverService
	DriverVerifier  handlers.DriverVerifier

	// Idempotency and RateCounter are optional; nil disables the middleware.
	Idempotency middleware.IdempotencyStore
	RateCounter middleware.RateCounter
	RateLimit   int
	RateWindow  time.Duration

	// Health reports backing-store readiness for GET /health.
	Health func(ctx context.Context) error
	Logger *slog.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.Logging(log), middleware.Metrics())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		if deps.Health != nil {
			if err := deps.Health(c.Request.Context()); err != nil {
				log.WarnContext(c.Request.Context(), "health check failed", "error", err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/")
	api.Use(middleware.Auth(deps.Verifier))
	if deps.Accounts != nil {
		api.Use(middleware.TrackAccount(deps.Accounts, log))
	}
	if deps.RateCounter != nil && deps.RateLimit > 0 {
		api.Use(middleware.RateLimit(deps.RateCounter, deps.RateLimit, deps.RateWindow, log))
	}

	createChain := []gin.HandlerFunc{}
	if deps.Idempotency != nil {
		createChain = append(createChain, middleware.Idempotency(deps.Idempotency, log))
	}

	rideHandler := handlers.NewRideHandler(deps.Rides, deps.Ratings, log)
	api.POST("/rides/", append(createChain, rideHandler.Create)...)
	api.GET("/rides/", rideHandler.List)
	api.GET("/rides/:id/", rideHandler.Get)
	api.POST("/rides/:id/accept/", rideHandler.Accept)
	api.POST("/rides/:id/status/", rideHandler.UpdateStatus)
	api.POST("/rides/:id/rate/", rideHandler.Rate)
	api.GET("/rides/:id/rate/", rideHandler.GetRating)

	vehicleHandler := handlers.NewVehicleHandler(deps.Vehicles, log)
	api.GET("/vehicles/", vehicleHandler.List)
	api.POST("/vehicles/", vehicleHandler.Create)
	api.GET("/vehicles/:id/", vehicleHandler.Get)
	api.PUT("/vehicles/:id/", vehicleHandler.Update)
	api.DELETE("/vehicles/:id/", vehicleHandler.Delete)

	driverHandler := handlers.NewDriverHandler(deps.Drivers, log)
	api.GET("/driver-profile/", driverHandler.GetProfile)
	api.PUT("/driver-profile/", driverHandler.UpdateProfile)
	api.GET("/nearby-drivers/", driverHandler.Nearby)

	adminHandler := handlers.NewAdminHandler(deps.VehicleVerifier, deps.DriverVerifier, log)
	admin := api.Group("/admin", middleware.RequireAdmin())
	admin.POST("/vehicles/:id/verify/", adminHandler.VerifyVehicle)
	admin.POST("/drivers/:id/verify/", adminHandler.VerifyDriver)

	return r
}
