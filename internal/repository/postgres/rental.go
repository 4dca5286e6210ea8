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

const rentalColumns = `id, customer_id, customer_name, customer_phone, movie_id, movie_title, movie_daily_rental_rate_cents, date_out, date_returned, rental_fee_cents, created_on, updated_on`

type rentalRepository struct {
	db *sql.DB
}

func NewRentalRepository(db *sql.DB) repository.RentalRepository {
	return &rentalRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRental(row rowScanner) (*domain.Rental, error) {
	var (
		rt           domain.Rental
		dateReturned sql.NullTime
		fee          sql.NullInt64
	)
	err := row.Scan(&rt.ID, &rt.Customer.ID, &rt.Customer.Name, &rt.Customer.Phone,
		&rt.Movie.ID, &rt.Movie.Title, &rt.Movie.DailyRentalRateCents,
		&rt.DateOut, &dateReturned, &fee, &rt.CreatedOn, &rt.UpdatedOn)
	if err != nil {
		return nil, err
	}
	if dateReturned.Valid {
		t := dateReturned.Time
		rt.DateReturned = &t
	}
	if fee.Valid {
		f := fee.Int64
		rt.RentalFeeCents = &f
	}
	return &rt, nil
}

func (r *rentalRepository) Create(ctx context.Context, rt *domain.Rental) error {
	query := `INSERT INTO rentals (` + rentalColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	now := time.Now().UTC()

	logger.DatabaseCall("INSERT", "rentals", "rental_id", rt.ID)
	_, err := r.db.ExecContext(ctx, query, rt.ID, rt.Customer.ID, rt.Customer.Name, rt.Customer.Phone,
		rt.Movie.ID, rt.Movie.Title, rt.Movie.DailyRentalRateCents,
		rt.DateOut, rt.DateReturned, rt.RentalFeeCents, now, now)
	if err != nil {
		logger.DatabaseResult("INSERT", 0, err, "rental_id", rt.ID)
		if isUniqueViolation(err) {
			return fmt.Errorf("rental %s: %w", rt.ID, domain.ErrDuplicateKey)
		}
		return fmt.Errorf("insert rental: %w", err)
	}
	logger.DatabaseResult("INSERT", 1, nil, "rental_id", rt.ID)

	rt.CreatedOn = now
	rt.UpdatedOn = now
	return nil
}

func (r *rentalRepository) GetByID(ctx context.Context, id string) (*domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1`
	rt, err := scanRental(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapNoRows(err, "rental")
	}
	return rt, nil
}

// FindOpenByCustomerAndMovie picks the oldest open rental when the pair has several.
func (r *rentalRepository) FindOpenByCustomerAndMovie(ctx context.Context, customerID, movieID string) (*domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals
	          WHERE customer_id = $1 AND movie_id = $2 AND date_returned IS NULL
	          ORDER BY date_out ASC LIMIT 1`
	rt, err := scanRental(r.db.QueryRowContext(ctx, query, customerID, movieID))
	if err != nil {
		return nil, mapNoRows(err, "open rental")
	}
	return rt, nil
}

func (r *rentalRepository) FindLatestByCustomerAndMovie(ctx context.Context, customerID, movieID string) (*domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals
	          WHERE customer_id = $1 AND movie_id = $2
	          ORDER BY date_out DESC LIMIT 1`
	rt, err := scanRental(r.db.QueryRowContext(ctx, query, customerID, movieID))
	if err != nil {
		return nil, mapNoRows(err, "rental")
	}
	return rt, nil
}

func (r *rentalRepository) Update(ctx context.Context, rt *domain.Rental) error {
	if (rt.DateReturned == nil) != (rt.RentalFeeCents == nil) {
		return fmt.Errorf("rental %s: return date and fee must be set together: %w", rt.ID, domain.ErrConflict)
	}

	query := `UPDATE rentals SET customer_id=$1, customer_name=$2, customer_phone=$3,
	              movie_id=$4, movie_title=$5, movie_daily_rental_rate_cents=$6,
	              date_returned=$7, rental_fee_cents=$8, updated_on=$9
	          WHERE id=$10 AND date_out=$11 AND date_returned IS NULL`
	now := time.Now().UTC()

	logger.DatabaseCall("UPDATE", "rentals", "rental_id", rt.ID)
	result, err := r.db.ExecContext(ctx, query, rt.Customer.ID, rt.Customer.Name, rt.Customer.Phone,
		rt.Movie.ID, rt.Movie.Title, rt.Movie.DailyRentalRateCents,
		rt.DateReturned, rt.RentalFeeCents, now, rt.ID, rt.DateOut)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "rental_id", rt.ID)
		return fmt.Errorf("update rental: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update rental rows affected: %w", err)
	}
	logger.DatabaseResult("UPDATE", rows, nil, "rental_id", rt.ID)

	if rows == 0 {
		found, err := exists(ctx, r.db, "rentals", rt.ID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("rental %s: %w", rt.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("rental %s is returned or its date out changed: %w", rt.ID, domain.ErrConflict)
	}

	rt.UpdatedOn = now
	return nil
}

func (r *rentalRepository) MarkReturned(ctx context.Context, rt *domain.Rental) error {
	if rt.DateReturned == nil || rt.RentalFeeCents == nil {
		return fmt.Errorf("rental %s: return date and fee are required: %w", rt.ID, domain.ErrInvalidInput)
	}

	query := `UPDATE rentals SET date_returned=$1, rental_fee_cents=$2, updated_on=$3
	          WHERE id=$4 AND customer_id=$5 AND movie_id=$6 AND movie_daily_rental_rate_cents=$7
	            AND date_out=$8 AND date_returned IS NULL`
	now := time.Now().UTC()

	logger.DatabaseCall("UPDATE", "rentals", "rental_id", rt.ID, "op", "mark_returned")
	result, err := r.db.ExecContext(ctx, query, rt.DateReturned, rt.RentalFeeCents, now,
		rt.ID, rt.Customer.ID, rt.Movie.ID, rt.Movie.DailyRentalRateCents, rt.DateOut)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "rental_id", rt.ID)
		return fmt.Errorf("mark rental returned: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark rental returned rows affected: %w", err)
	}
	logger.DatabaseResult("UPDATE", rows, nil, "rental_id", rt.ID)

	if rows == 0 {
		found, err := exists(ctx, r.db, "rentals", rt.ID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("rental %s: %w", rt.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("rental %s was returned or reassigned: %w", rt.ID, domain.ErrConflict)
	}

	rt.UpdatedOn = now
	return nil
}

func (r *rentalRepository) List(ctx context.Context) ([]domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals ORDER BY date_out DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list rentals: %w", err)
	}
	defer rows.Close()

	rentals := []domain.Rental{}
	for rows.Next() {
		rt, err := scanRental(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rental: %w", err)
		}
		rentals = append(rentals, *rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rentals: %w", err)
	}
	return rentals, nil
}

func (r *rentalRepository) Delete(ctx context.Context, id string) (*domain.Rental, error) {
	query := `DELETE FROM rentals WHERE id = $1 RETURNING ` + rentalColumns

	logger.DatabaseCall("DELETE", "rentals", "rental_id", id)
	rt, err := scanRental(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		logger.DatabaseResult("DELETE", 0, err, "rental_id", id)
		return nil, mapNoRows(err, "rental")
	}
	logger.DatabaseResult("DELETE", 1, nil, "rental_id", id)
	return rt, nil
}
