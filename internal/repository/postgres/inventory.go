package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"movie-rental-backend/internal/domain"
	"movie-rental-backend/internal/logger"
	"movie-rental-backend/internal/repository"
)

type inventoryLedger struct {
	db *sql.DB
}

func NewInventoryLedger(db *sql.DB) repository.InventoryLedger {
	return &inventoryLedger{db: db}
}

// Adjust relies on the row lock taken by UPDATE: the floor check and the
// write happen in one statement, so concurrent adjustments on a movie serialize.
func (l *inventoryLedger) Adjust(ctx context.Context, movieID string, delta int) error {
	query := `UPDATE movies SET number_in_stock = number_in_stock + $1, updated_on = $2
	          WHERE id = $3 AND number_in_stock + $1 >= 0`

	logger.DatabaseCall("UPDATE", "movies.number_in_stock", "movie_id", movieID, "delta", delta)
	result, err := l.db.ExecContext(ctx, query, delta, time.Now().UTC(), movieID)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "movie_id", movieID)
		return fmt.Errorf("adjust stock: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjust stock rows affected: %w", err)
	}
	logger.DatabaseResult("UPDATE", rows, nil, "movie_id", movieID)
	if rows == 1 {
		return nil
	}

	found, err := exists(ctx, l.db, "movies", movieID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("movie %s: %w", movieID, domain.ErrNotFound)
	}
	return fmt.Errorf("movie %s: %w", movieID, domain.ErrOutOfStock)
}
