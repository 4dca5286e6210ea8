package postgres

import (
	"context"
	"database/sql"

	"movie-rental-backend/internal/domain"
	"movie-rental-backend/internal/repository"
)

type customerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) repository.CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	c := &domain.Customer{}
	query := `SELECT id, name, phone, is_gold, created_on, updated_on FROM customers WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.Phone, &c.IsGold, &c.CreatedOn, &c.UpdatedOn)
	if err != nil {
		return nil, mapNoRows(err, "customer")
	}
	return c, nil
}
