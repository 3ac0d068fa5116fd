package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/garagedesk/workshop-backend/api/routes"
	"github.com/garagedesk/workshop-backend/internal/auth"
	"github.com/garagedesk/workshop-backend/internal/bookings"
	"github.com/garagedesk/workshop-backend/internal/customers"
	"github.com/garagedesk/workshop-backend/internal/ledger"
	"github.com/garagedesk/workshop-backend/internal/spareparts"
	"github.com/garagedesk/workshop-backend/internal/users"
	"github.com/garagedesk/workshop-backend/internal/vehicles"
	"github.com/garagedesk/workshop-backend/pkg/auth/session"
	"github.com/garagedesk/workshop-backend/pkg/config"
	"github.com/garagedesk/workshop-backend/pkg/db"
	"github.com/garagedesk/workshop-backend/pkg/logger"
	"github.com/garagedesk/workshop-backend/pkg/metrics"
	"github.com/garagedesk/workshop-backend/pkg/migrate"
	"github.com/garagedesk/workshop-backend/pkg/redis"
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

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	closeResources := func() error {
		return multierr.Combine(dbClient.Close(), redisClient.Close())
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	ledgerMetrics := metrics.NewLedgerMetrics(registry)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	customerService, err := customers.NewService(customers.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create customer service", err)
		os.Exit(1)
	}

	vehicleService, err := vehicles.NewService(vehicles.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create vehicle service", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(ledger.NewRepository(dbClient.DB()), dbClient, ledgerMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	sparepartService, err := spareparts.NewService(spareparts.NewRepository(dbClient.DB()), ledgerService)
	if err != nil {
		logg.Error(context.Background(), "failed to create sparepart service", err)
		os.Exit(1)
	}

	bookingService, err := bookings.NewService(bookings.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create booking service", err)
		os.Exit(1)
	}

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
		Handler: routes.NewRouter(routes.Deps{
			Config:           cfg,
			Logger:           logg,
			Database:         dbClient,
			Cache:            redisClient,
			SessionManager:   sessionManager,
			Registry:         registry,
			AuthService:      authService,
			CustomerService:  customerService,
			VehicleService:   vehicleService,
			SparepartService: sparepartService,
			BookingService:   bookingService,
			LedgerService:    ledgerService,
		}),
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
		}
		if err := closeResources(); err != nil {
			logg.Error(ctx, "error closing resources", err)
		}
		os.Exit(1)
	case <-runCtx.Done():
	}

	logg.Info(ctx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := multierr.Combine(server.Shutdown(shutdownCtx), closeResources()); err != nil {
		logg.Error(ctx, "error during shutdown", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}
