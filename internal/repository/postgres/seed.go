package postgres

import (
	"context"
	"fmt"
	"time"

	"movie-rental-backend/internal/logger"
	"movie-rental-backend/internal/repository"
)

// Seed upserts the customers and movies of a seed file in one transaction.
// Existing movies keep their stock count; only catalog fields are refreshed.
func (s *Store) Seed(ctx context.Context, data *repository.SeedData) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, c := range data.Customers {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO customers (id, name, phone, is_gold, created_on, updated_on)
			VALUES ($1, $2, $3, $4, $5, $5)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, phone = EXCLUDED.phone,
			    is_gold = EXCLUDED.is_gold, updated_on = EXCLUDED.updated_on`,
			c.ID, c.Name, c.Phone, c.IsGold, now)
		if err != nil {
			return fmt.Errorf("seed customer %s: %w", c.ID, err)
		}
	}
	for _, m := range data.Movies {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO movies (id, title, genre, daily_rental_rate_cents, number_in_stock, created_on, updated_on)
			VALUES ($1, $2, $3, $4, $5, $6, $6)
			ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, genre = EXCLUDED.genre,
			    daily_rental_rate_cents = EXCLUDED.daily_rental_rate_cents, updated_on = EXCLUDED.updated_on`,
			m.ID, m.Title, m.Genre, m.DailyRentalRateCents, m.NumberInStock, now)
		if err != nil {
			return fmt.Errorf("seed movie %s: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	logger.Info("Seed data applied", "customers", len(data.Customers), "movies", len(data.Movies))
	return nil
}
