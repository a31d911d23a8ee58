package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "mould-rental-backend/internal/api/http"
	"mould-rental-backend/internal/config"
	"mould-rental-backend/internal/logger"
	"mould-rental-backend/internal/repository/postgres"
	"mould-rental-backend/internal/service"
	"mould-rental-backend/internal/utils"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	migrate := flag.Bool("migrate", true, "Apply the database schema on startup")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Mould Rental Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	logger.Info("Billing configuration", "timezone", cfg.Billing.Timezone, "overdue_after_days", cfg.Billing.OverdueAfterDays)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	db, err := postgres.Open(ctx, cfg.GetDatabaseConnectionString(), cfg.Database.MaxOpenConns)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	if *migrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			logger.Error("Failed to migrate database", "error", err)
			log.Fatalf("Failed to migrate database: %v", err)
		}
	}

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Services
	billing := utils.NewBillingCalculator(cfg.Location(), cfg.Billing.OverdueAfterDays)
	ledger := service.NewInventoryLedger(store.EquipmentRepository, cfg.Reconcile.Concurrency)
	receipts := service.NewReceiptSequencer(store.RentalRepository, cfg.Receipt.Prefix, cfg.Receipt.MaxAttempts)
	rentalSvc := service.NewRentalService(
		store.RentalRepository,
		store.CustomerRepository,
		receipts,
		billing,
		service.RentalDefaults{
			DepositCents:   cfg.Billing.DefaultDepositCents,
			DailyRateCents: cfg.Billing.DefaultDailyRateCents,
		},
		time.Now,
	)

	router := httpapi.NewRouter(httpapi.Services{
		Rental:    rentalSvc,
		Equipment: service.NewEquipmentService(store.EquipmentRepository),
		Customer:  service.NewCustomerService(store.CustomerRepository, store.RentalRepository),
		Stats:     service.NewStatsService(store.RentalRepository, billing),
		Ledger:    ledger,
		Receipts:  receipts,
	})

	srv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("HTTP server error", "error", err)
			log.Fatalf("Failed to serve: %v", err)
		}
	case <-ctx.Done():
	}

	// Graceful shutdown
	logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	logger.Info("HTTP server stopped. Goodbye!")
}
