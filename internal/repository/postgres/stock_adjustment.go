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

type stockAdjustmentRepository struct {
	db *sql.DB
}

func NewStockAdjustmentRepository(db *sql.DB) repository.StockAdjustmentRepository {
	return &stockAdjustmentRepository{db: db}
}

func (r *stockAdjustmentRepository) Create(ctx context.Context, adj *domain.StockAdjustment) error {
	query := `INSERT INTO stock_adjustments (id, movie_id, rental_id, delta, reason, status, attempts, last_error, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	now := time.Now().UTC()

	logger.DatabaseCall("INSERT", "stock_adjustments", "movie_id", adj.MovieID, "delta", adj.Delta)
	_, err := r.db.ExecContext(ctx, query, adj.ID, adj.MovieID, adj.RentalID, adj.Delta, adj.Reason, adj.Status, adj.Attempts, adj.LastError, now, now)
	if err != nil {
		logger.DatabaseResult("INSERT", 0, err, "adjustment_id", adj.ID)
		if isUniqueViolation(err) {
			return fmt.Errorf("stock adjustment %s: %w", adj.ID, domain.ErrDuplicateKey)
		}
		return fmt.Errorf("insert stock adjustment: %w", err)
	}
	logger.DatabaseResult("INSERT", 1, nil, "adjustment_id", adj.ID)

	adj.CreatedOn = now
	adj.UpdatedOn = now
	return nil
}

func (r *stockAdjustmentRepository) ListPending(ctx context.Context, limit int) ([]domain.StockAdjustment, error) {
	query := `SELECT id, movie_id, rental_id, delta, reason, status, attempts, last_error, created_on, updated_on
	          FROM stock_adjustments WHERE status = $1 ORDER BY created_on ASC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, domain.StockAdjustmentStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending stock adjustments: %w", err)
	}
	defer rows.Close()

	var adjustments []domain.StockAdjustment
	for rows.Next() {
		var adj domain.StockAdjustment
		if err := rows.Scan(&adj.ID, &adj.MovieID, &adj.RentalID, &adj.Delta, &adj.Reason, &adj.Status, &adj.Attempts, &adj.LastError, &adj.CreatedOn, &adj.UpdatedOn); err != nil {
			return nil, fmt.Errorf("scan stock adjustment: %w", err)
		}
		adjustments = append(adjustments, adj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stock adjustments: %w", err)
	}
	return adjustments, nil
}

func (r *stockAdjustmentRepository) Update(ctx context.Context, adj *domain.StockAdjustment) error {
	query := `UPDATE stock_adjustments SET status=$1, attempts=$2, last_error=$3, updated_on=$4 WHERE id=$5`
	now := time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query, adj.Status, adj.Attempts, adj.LastError, now, adj.ID)
	if err != nil {
		return fmt.Errorf("update stock adjustment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update stock adjustment rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("stock adjustment %s: %w", adj.ID, domain.ErrNotFound)
	}

	adj.UpdatedOn = now
	return nil
}
