package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpcapi "movie-rental-backend/internal/api/grpc"
	httpapi "movie-rental-backend/internal/api/http"
	"movie-rental-backend/internal/config"
	"movie-rental-backend/internal/guard"
	"movie-rental-backend/internal/jobs"
	"movie-rental-backend/internal/logger"
	"movie-rental-backend/internal/repository"
	"movie-rental-backend/internal/repository/memory"
	"movie-rental-backend/internal/repository/postgres"
	"movie-rental-backend/internal/scheduler"
	"movie-rental-backend/internal/security"
	"movie-rental-backend/internal/service"
	"movie-rental-backend/internal/telemetry"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// repositories is the set of stores the service layer needs, whichever
// backend provides them.
type repositories struct {
	customers   repository.CustomerRepository
	movies      repository.MovieRepository
	ledger      repository.InventoryLedger
	rentals     repository.RentalRepository
	adjustments repository.StockAdjustmentRepository
	pinger      grpcapi.Pinger
	close       func()
}

type noopPinger struct{}

func (noopPinger) Ping(context.Context) error { return nil }

func openRepositories(ctx context.Context, cfg *config.Config) (*repositories, error) {
	if cfg.Storage.Type == config.StorageTypeMemory {
		store := memory.NewStore()
		if cfg.Storage.SeedFile != "" {
			if err := store.LoadSeed(cfg.Storage.SeedFile); err != nil {
				return nil, err
			}
			logger.Info("Loaded seed data", "file", cfg.Storage.SeedFile)
		}
		return &repositories{
			customers: store.Customers, movies: store.Movies, ledger: store.Ledger,
			rentals: store.Rentals, adjustments: store.Adjustments,
			pinger: noopPinger{}, close: func() {},
		}, nil
	}

	logger.Debug("Connecting to database...", "connection_string", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info("Database connection established")

	store := postgres.NewStore(db)
	if cfg.Database.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}
	return &repositories{
		customers: store.CustomerRepository, movies: store.MovieRepository, ledger: store.InventoryLedger,
		rentals: store.RentalRepository, adjustments: store.StockAdjustmentRepository,
		pinger: store, close: func() { db.Close() },
	}, nil
}

func newReturnGuard(ctx context.Context, cfg *config.Config) (guard.ReturnGuard, func()) {
	if !cfg.Redis.Enabled {
		logger.Info("Using in-process return guard")
		return guard.NewLocalGuard(), func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unreachable at startup, return guard will retry per request", "addr", cfg.Redis.Addr, "error", err)
	} else {
		logger.Info("Using Redis return guard", "addr", cfg.Redis.Addr)
	}
	return guard.NewRedisGuard(client, cfg.ReturnGuardTTL()), func() { client.Close() }
}

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Movie Rental Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "http", cfg.GetServerAddress(), "grpc", cfg.GetGRPCAddress(), "storage", cfg.Storage.Type)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telemetry.Setup(ctx, cfg.Tracing)
	if err != nil {
		log.Fatalf("Failed to set up telemetry: %v", err)
	}

	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer repos.close()

	returnGuard, closeGuard := newReturnGuard(ctx, cfg)
	defer closeGuard()

	rentalSvc := service.NewRentalService(repos.customers, repos.movies, repos.ledger, repos.rentals, repos.adjustments, returnGuard)
	tokenManager := security.NewTokenManager(cfg.JWT.Secret)

	// The memory store lives in this process, so its outbox is reconciled here.
	var cronScheduler *scheduler.Scheduler
	if cfg.Storage.Type == config.StorageTypeMemory {
		cronScheduler, err = scheduler.NewScheduler(jobs.NewJobRunner(repos.ledger, repos.adjustments, cfg))
		if err != nil {
			log.Fatalf("Failed to create scheduler: %v", err)
		}
		cronScheduler.Start()
	}

	// gRPC health
	grpcLis, err := net.Listen("tcp", cfg.GetGRPCAddress())
	if err != nil {
		logger.Error("Failed to listen", "error", err, "address", cfg.GetGRPCAddress())
		log.Fatalf("Failed to listen: %v", err)
	}
	healthSrv := grpcapi.NewHealthServer(repos.pinger)
	go func() {
		if err := healthSrv.Serve(grpcLis); err != nil {
			logger.Error("gRPC health server error", "error", err)
		}
	}()
	go healthSrv.Watch(ctx, 15*time.Second)

	// HTTP API
	httpSrv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           httpapi.NewRouter(rentalSvc, tokenManager, cfg.RateLimit),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", "address", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()

	healthSrv.Stop()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
	if cronScheduler != nil {
		cronScheduler.Stop()
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Telemetry shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
}
