package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/nathanrivera/shopstream-backend/api/routes"
	"github.com/nathanrivera/shopstream-backend/internal/analytics"
	"github.com/nathanrivera/shopstream-backend/internal/cart"
	"github.com/nathanrivera/shopstream-backend/internal/catalog"
	"github.com/nathanrivera/shopstream-backend/internal/cron"
	"github.com/nathanrivera/shopstream-backend/internal/customers"
	"github.com/nathanrivera/shopstream-backend/internal/orders"
	"github.com/nathanrivera/shopstream-backend/internal/payments"
	"github.com/nathanrivera/shopstream-backend/pkg/config"
	"github.com/nathanrivera/shopstream-backend/pkg/db"
	"github.com/nathanrivera/shopstream-backend/pkg/logger"
	"github.com/nathanrivera/shopstream-backend/pkg/migrate"
	"github.com/nathanrivera/shopstream-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	customersRepo := customers.NewRepository(dbClient.DB())
	adminRepo := customers.NewAdminRepository(dbClient.DB())
	catalogRepo := catalog.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	analyticsRepo := analytics.NewRepository(dbClient.DB())

	customersService, err := customers.NewService(customersRepo, adminRepo, dbClient, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create customers service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalogRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cartRepo, catalogRepo, customersRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	sessions := analytics.NewSessionDeduper(cfg.Analytics.SessionWindow, time.Now)
	analyticsService, err := analytics.NewService(analyticsRepo, customersService, sessions, logg, time.Now)
	if err != nil {
		logg.Error(context.Background(), "failed to create analytics service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(ordersRepo, catalogRepo, cartRepo, customersRepo, dbClient, analyticsService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	paymentsService, err := payments.NewService(ordersRepo, cfg.Payments)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	// The dedup map lives in this process, so the prune job runs here on a
	// ticker instead of in the cron worker.
	pruneJob, err := cron.NewSessionPruneJob(logg, analyticsService)
	if err != nil {
		logg.Error(context.Background(), "failed to create session prune job", err)
		os.Exit(1)
	}
	go func() {
		interval := cfg.Analytics.PruneInterval
		if interval <= 0 {
			interval = 30 * time.Minute
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			if err := pruneJob.Run(context.Background()); err != nil {
				logg.Error(context.Background(), "session prune failed", err)
			}
		}
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			customersService,
			catalogService,
			cartService,
			ordersService,
			paymentsService,
			analyticsService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
