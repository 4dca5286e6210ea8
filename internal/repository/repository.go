package repository

import (
	"context"

	"movie-rental-backend/internal/domain"
)

type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
}

type MovieRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Movie, error)
}

// InventoryLedger owns the per-movie available unit count.
type InventoryLedger interface {
	// Adjust applies delta to the movie's stock in a single atomic step.
	// A decrement that would go below zero fails with domain.ErrOutOfStock.
	Adjust(ctx context.Context, movieID string, delta int) error
}

type RentalRepository interface {
	Create(ctx context.Context, rental *domain.Rental) error
	GetByID(ctx context.Context, id string) (*domain.Rental, error)
	FindOpenByCustomerAndMovie(ctx context.Context, customerID, movieID string) (*domain.Rental, error)
	FindLatestByCustomerAndMovie(ctx context.Context, customerID, movieID string) (*domain.Rental, error)
	// Update persists changes to an open rental. Returned rentals and changes
	// to DateOut are refused with domain.ErrConflict.
	Update(ctx context.Context, rental *domain.Rental) error
	// MarkReturned writes only the return date and fee. It succeeds only while
	// the stored rental is open and still carries the customer, movie, rate and
	// DateOut of rental; otherwise it fails with domain.ErrConflict.
	MarkReturned(ctx context.Context, rental *domain.Rental) error
	List(ctx context.Context) ([]domain.Rental, error)
	Delete(ctx context.Context, id string) (*domain.Rental, error)
}

type StockAdjustmentRepository interface {
	Create(ctx context.Context, adj *domain.StockAdjustment) error
	ListPending(ctx context.Context, limit int) ([]domain.StockAdjustment, error)
	Update(ctx context.Context, adj *domain.StockAdjustment) error
}
