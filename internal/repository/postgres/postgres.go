package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"movie-rental-backend/internal/domain"
	"movie-rental-backend/internal/logger"
	"movie-rental-backend/internal/repository"

	"github.com/lib/pq"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

type Store struct {
	db *sql.DB
	repository.CustomerRepository
	repository.MovieRepository
	repository.InventoryLedger
	repository.RentalRepository
	repository.StockAdjustmentRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                        db,
		CustomerRepository:        NewCustomerRepository(db),
		MovieRepository:           NewMovieRepository(db),
		InventoryLedger:           NewInventoryLedger(db),
		RentalRepository:          NewRentalRepository(db),
		StockAdjustmentRepository: NewStockAdjustmentRepository(db),
	}
}

// Migrate creates the tables the service needs if they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	logger.DatabaseCall("MIGRATE", "schema.sql")
	_, err := s.db.ExecContext(ctx, schema)
	logger.DatabaseResult("MIGRATE", 0, err)
	if err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// mapNoRows maps sql.ErrNoRows to domain.ErrNotFound and wraps everything else.
func mapNoRows(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return fmt.Errorf("query %s: %w", what, err)
}

// exists reports whether a row with the given id is present in table.
func exists(ctx context.Context, db *sql.DB, table, id string) (bool, error) {
	var found bool
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)`, table)
	if err := db.QueryRowContext(ctx, query, id).Scan(&found); err != nil {
		return false, fmt.Errorf("check %s existence: %w", table, err)
	}
	return found, nil
}
