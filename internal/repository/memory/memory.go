// Package memory keeps every record in process memory. It backs the
// "memory" storage type and the service-level tests.
package memory

import (
	"fmt"
	"sync"
	"time"

	"movie-rental-backend/internal/domain"
	"movie-rental-backend/internal/repository"
)

// state is shared by all repositories of one Store. A single mutex stands in
// for the row-level atomicity the database gives the postgres repositories.
type state struct {
	mu          sync.Mutex
	customers   map[string]domain.Customer
	movies      map[string]domain.Movie
	rentals     map[string]*domain.Rental
	adjustments map[string]*domain.StockAdjustment
}

type Store struct {
	st *state

	Customers   repository.CustomerRepository
	Movies      repository.MovieRepository
	Ledger      repository.InventoryLedger
	Rentals     repository.RentalRepository
	Adjustments repository.StockAdjustmentRepository
}

func NewStore() *Store {
	st := &state{
		customers:   make(map[string]domain.Customer),
		movies:      make(map[string]domain.Movie),
		rentals:     make(map[string]*domain.Rental),
		adjustments: make(map[string]*domain.StockAdjustment),
	}
	return &Store{
		st:          st,
		Customers:   &customerRepository{st: st},
		Movies:      &movieRepository{st: st},
		Ledger:      &inventoryLedger{st: st},
		Rentals:     &rentalRepository{st: st},
		Adjustments: &stockAdjustmentRepository{st: st},
	}
}

// LoadSeed reads customers and movies from a YAML file into the store.
func (s *Store) LoadSeed(path string) error {
	seed, err := repository.LoadSeedFile(path)
	if err != nil {
		return err
	}
	for i := range seed.Customers {
		if err := s.PutCustomer(seed.Customers[i]); err != nil {
			return err
		}
	}
	for i := range seed.Movies {
		if err := s.PutMovie(seed.Movies[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) PutCustomer(c domain.Customer) error {
	if c.ID == "" {
		return &domain.MissingFieldError{Field: "customer.id"}
	}
	now := time.Now().UTC()
	c.CreatedOn, c.UpdatedOn = now, now

	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	s.st.customers[c.ID] = c
	return nil
}

func (s *Store) PutMovie(m domain.Movie) error {
	if m.ID == "" {
		return &domain.MissingFieldError{Field: "movie.id"}
	}
	if m.NumberInStock < 0 {
		return fmt.Errorf("movie %s has negative stock: %w", m.ID, domain.ErrInvalidInput)
	}
	now := time.Now().UTC()
	m.CreatedOn, m.UpdatedOn = now, now

	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	s.st.movies[m.ID] = m
	return nil
}

// Stock returns the current unit count of a movie, or -1 if it is unknown.
func (s *Store) Stock(movieID string) int {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	m, ok := s.st.movies[movieID]
	if !ok {
		return -1
	}
	return m.NumberInStock
}
