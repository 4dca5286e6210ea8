package postgres

import (
	"context"
	"database/sql"

	"movie-rental-backend/internal/domain"
	"movie-rental-backend/internal/repository"
)

type movieRepository struct {
	db *sql.DB
}

func NewMovieRepository(db *sql.DB) repository.MovieRepository {
	return &movieRepository{db: db}
}

func (r *movieRepository) GetByID(ctx context.Context, id string) (*domain.Movie, error) {
	m := &domain.Movie{}
	query := `SELECT id, title, genre, daily_rental_rate_cents, number_in_stock, created_on, updated_on FROM movies WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.Title, &m.Genre, &m.DailyRentalRateCents, &m.NumberInStock, &m.CreatedOn, &m.UpdatedOn)
	if err != nil {
		return nil, mapNoRows(err, "movie")
	}
	return m, nil
}
