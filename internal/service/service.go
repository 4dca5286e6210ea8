package service

import (
	"context"

	"movie-rental-backend/internal/domain"
)

// RentalService is the rental/inventory transaction core. Every mutating
// operation writes the rental first and adjusts stock second; a failed stock
// adjustment is reported as domain.ErrLedgerFailure and left for the
// reconciler, the rental write is never undone.
type RentalService interface {
	CreateRental(ctx context.Context, customerID, movieID string) (*domain.Rental, error)
	UpdateRentalAssignment(ctx context.Context, rentalID, customerID, movieID string) (*domain.Rental, error)
	ProcessReturn(ctx context.Context, customerID, movieID string) (*domain.Rental, error)
	ListRentals(ctx context.Context) ([]domain.Rental, error)
	GetRental(ctx context.Context, id string) (*domain.Rental, error)
	DeleteRental(ctx context.Context, id string) (*domain.Rental, error)
}
