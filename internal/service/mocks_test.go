package service_test

import (
	"context"

	"movie-rental-backend/internal/domain"

	"github.com/stretchr/testify/mock"
)

type MockCustomerRepo struct {
	mock.Mock
}

func (m *MockCustomerRepo) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

type MockMovieRepo struct {
	mock.Mock
}

func (m *MockMovieRepo) GetByID(ctx context.Context, id string) (*domain.Movie, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Movie), args.Error(1)
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Adjust(ctx context.Context, movieID string, delta int) error {
	args := m.Called(ctx, movieID, delta)
	return args.Error(0)
}

type MockRentalRepo struct {
	mock.Mock
}

func (m *MockRentalRepo) Create(ctx context.Context, rental *domain.Rental) error {
	args := m.Called(ctx, rental)
	return args.Error(0)
}
func (m *MockRentalRepo) GetByID(ctx context.Context, id string) (*domain.Rental, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}
func (m *MockRentalRepo) FindOpenByCustomerAndMovie(ctx context.Context, customerID, movieID string) (*domain.Rental, error) {
	args := m.Called(ctx, customerID, movieID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}
func (m *MockRentalRepo) FindLatestByCustomerAndMovie(ctx context.Context, customerID, movieID string) (*domain.Rental, error) {
	args := m.Called(ctx, customerID, movieID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}
func (m *MockRentalRepo) Update(ctx context.Context, rental *domain.Rental) error {
	args := m.Called(ctx, rental)
	return args.Error(0)
}
func (m *MockRentalRepo) MarkReturned(ctx context.Context, rental *domain.Rental) error {
	args := m.Called(ctx, rental)
	return args.Error(0)
}
func (m *MockRentalRepo) List(ctx context.Context) ([]domain.Rental, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Rental), args.Error(1)
}
func (m *MockRentalRepo) Delete(ctx context.Context, id string) (*domain.Rental, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}

type MockAdjustmentRepo struct {
	mock.Mock
}

func (m *MockAdjustmentRepo) Create(ctx context.Context, adj *domain.StockAdjustment) error {
	args := m.Called(ctx, adj)
	return args.Error(0)
}
func (m *MockAdjustmentRepo) ListPending(ctx context.Context, limit int) ([]domain.StockAdjustment, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.StockAdjustment), args.Error(1)
}
func (m *MockAdjustmentRepo) Update(ctx context.Context, adj *domain.StockAdjustment) error {
	args := m.Called(ctx, adj)
	return args.Error(0)
}

type MockGuard struct {
	mock.Mock
}

func (m *MockGuard) Acquire(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}
func (m *MockGuard) Release(ctx context.Context, key, token string) error {
	args := m.Called(ctx, key, token)
	return args.Error(0)
}
