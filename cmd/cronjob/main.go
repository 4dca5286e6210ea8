package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"movie-rental-backend/internal/config"
	"movie-rental-backend/internal/jobs"
	"movie-rental-backend/internal/logger"
	"movie-rental-backend/internal/repository/postgres"
	"movie-rental-backend/internal/scheduler"
	"movie-rental-backend/internal/telemetry"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'reconcile-stock')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Movie Rental Cronjob Runner...", "log_level", cfg.Log.Level)

	if cfg.Storage.Type != config.StorageTypePostgres {
		log.Fatalf("Cronjob runner requires postgres storage, got %q (memory storage reconciles inside the server)", cfg.Storage.Type)
	}

	providers, err := telemetry.Setup(context.Background(), cfg.Tracing)
	if err != nil {
		log.Fatalf("Failed to set up telemetry: %v", err)
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			logger.Warn("Telemetry shutdown failed", "error", err)
		}
	}()

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	store := postgres.NewStore(db)
	jobRunner := jobs.NewJobRunner(store.InventoryLedger, store.StockAdjustmentRepository, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		if !runJobOnce(jobRunner, *runOnce) {
			os.Exit(1)
		}
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and reports whether the name was known
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) bool {
	switch jobName {
	case "reconcile-stock":
		jobRunner.ReconcileStockAdjustments()
	default:
		logger.Error("Unknown job name", "job", jobName)
		logger.Info("Available jobs: reconcile-stock")
		return false
	}
	return true
}
