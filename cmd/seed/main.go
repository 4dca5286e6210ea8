package main

import (
	"context"
	"database/sql"
	"flag"
	"log"

	_ "github.com/lib/pq"

	"movie-rental-backend/internal/config"
	"movie-rental-backend/internal/logger"
	"movie-rental-backend/internal/repository"
	"movie-rental-backend/internal/repository/postgres"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	seedPath := flag.String("seed", "config/seed.yaml", "Path to the customers/movies seed file")
	migrate := flag.Bool("migrate", true, "Apply the schema before seeding")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)

	if cfg.Storage.Type != config.StorageTypePostgres {
		log.Fatalf("Seeding requires postgres storage, got %q", cfg.Storage.Type)
	}

	data, err := repository.LoadSeedFile(*seedPath)
	if err != nil {
		log.Fatalf("Failed to read seed file: %v", err)
	}

	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Connected to database", "host", cfg.Database.Host, "database", cfg.Database.Database)

	store := postgres.NewStore(db)
	if *migrate {
		if err := store.Migrate(ctx); err != nil {
			log.Fatalf("Failed to apply schema: %v", err)
		}
	}
	if err := store.Seed(ctx, data); err != nil {
		log.Fatalf("Failed to seed data: %v", err)
	}
}
