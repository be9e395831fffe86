// README: Entry point; loads config, wires modules, starts the HTTP server and shuts down on SIGINT/SIGTERM.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"sahayog/internal/config"
	httptransport "sahayog/internal/http"
	"sahayog/internal/http/middleware"
	"sahayog/internal/infra"
	"sahayog/internal/modules/account"
	"sahayog/internal/modules/driver"
	"sahayog/internal/modules/rating"
	"sahayog/internal/modules/ride"
	"sahayog/internal/modules/vehicle"
	"sahayog/internal/routing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := infra.NewLogger(os.Stdout, cfg.Log.Level, "sahayog-api")
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var verifier infra.TokenVerifier
	switch cfg.Auth.Mode {
	case config.AuthJWT:
		verifier = infra.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	default:
		verifier, err = infra.NewFirebaseVerifier(ctx, cfg.Auth.FirebaseProjectID, cfg.Auth.FirebaseCredentials)
		if err != nil {
			log.Fatalf("firebase init: %v", err)
		}
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer dbPool.Close()

	redisClient, err := infra.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password)
	if err != nil {
		log.Fatal(err)
	}
	defer redisClient.Close()

	accountSvc := account.NewService(account.NewStore(dbPool))
	vehicleSvc := vehicle.NewService(vehicle.NewStore(dbPool))
	driverSvc := driver.NewService(driver.NewStore(dbPool), cfg.Nearby.RadiusKm)

	rideDeps := ride.ServiceDeps{
		Store:    ride.NewStore(dbPool),
		Vehicles: vehicleSvc,
		Drivers:  driverSvc,
		Logger:   logger,
	}
	if cfg.Maps.APIKey != "" {
		estimator, err := routing.NewEstimator(cfg.Maps.APIKey)
		if err != nil {
			log.Fatalf("maps init: %v", err)
		}
		rideDeps.Estimator = estimator
	}
	rideStore := rideDeps.Store
	rideSvc := ride.NewService(rideDeps)
	ratingSvc := rating.NewService(rating.NewStore(dbPool), rideStore, accountSvc)

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Verifier:        verifier,
		Accounts:        accountSvc,
		Rides:           rideSvc,
		Ratings:         ratingSvc,
		Vehicles:        vehicleSvc,
		VehicleVerifier: vehicleSvc,
		Drivers:         driverSvc,
		DriverVerifier:  driverSvc,
		Idempotency:     middleware.NewRedisIdempotencyStore(redisClient),
		RateCounter:     middleware.NewRedisRateCounter(redisClient),
		RateLimit:       cfg.RateLimit.Requests,
		RateWindow:      cfg.RateLimit.Window,
		Health:          dbPool.Ping,
		Logger:          logger,
	})

	server := httptransport.NewServer(cfg.HTTP.Addr, router, logger)
	if err := server.Run(ctx, cfg.HTTP.ShutdownTimeout); err != nil {
		logger.Error("http server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
