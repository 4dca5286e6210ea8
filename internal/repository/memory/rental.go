package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"movie-rental-backend/internal/domain"
)

type rentalRepository struct {
	st *state
}

func (r *rentalRepository) Create(ctx context.Context, rt *domain.Rental) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	if _, ok := r.st.rentals[rt.ID]; ok {
		return fmt.Errorf("rental %s: %w", rt.ID, domain.ErrDuplicateKey)
	}
	now := time.Now().UTC()
	rt.CreatedOn, rt.UpdatedOn = now, now
	r.st.rentals[rt.ID] = rt.Clone()
	return nil
}

func (r *rentalRepository) GetByID(ctx context.Context, id string) (*domain.Rental, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	rt, ok := r.st.rentals[id]
	if !ok {
		return nil, fmt.Errorf("rental %s: %w", id, domain.ErrNotFound)
	}
	return rt.Clone(), nil
}

// pairLocked returns the rentals of a customer/movie pair ordered by DateOut
// ascending. The caller holds the mutex.
func (r *rentalRepository) pairLocked(customerID, movieID string) []*domain.Rental {
	var matches []*domain.Rental
	for _, rt := range r.st.rentals {
		if rt.Customer.ID == customerID && rt.Movie.ID == movieID {
			matches = append(matches, rt)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].DateOut.Before(matches[j].DateOut)
	})
	return matches
}

func (r *rentalRepository) FindOpenByCustomerAndMovie(ctx context.Context, customerID, movieID string) (*domain.Rental, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	for _, rt := range r.pairLocked(customerID, movieID) {
		if !rt.IsReturned() {
			return rt.Clone(), nil
		}
	}
	return nil, fmt.Errorf("open rental: %w", domain.ErrNotFound)
}

func (r *rentalRepository) FindLatestByCustomerAndMovie(ctx context.Context, customerID, movieID string) (*domain.Rental, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	matches := r.pairLocked(customerID, movieID)
	if len(matches) == 0 {
		return nil, fmt.Errorf("rental: %w", domain.ErrNotFound)
	}
	return matches[len(matches)-1].Clone(), nil
}

func (r *rentalRepository) Update(ctx context.Context, rt *domain.Rental) error {
	if (rt.DateReturned == nil) != (rt.RentalFeeCents == nil) {
		return fmt.Errorf("rental %s: return date and fee must be set together: %w", rt.ID, domain.ErrConflict)
	}

	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	stored, ok := r.st.rentals[rt.ID]
	if !ok {
		return fmt.Errorf("rental %s: %w", rt.ID, domain.ErrNotFound)
	}
	if stored.IsReturned() || !stored.DateOut.Equal(rt.DateOut) {
		return fmt.Errorf("rental %s is returned or its date out changed: %w", rt.ID, domain.ErrConflict)
	}

	rt.CreatedOn = stored.CreatedOn
	rt.UpdatedOn = time.Now().UTC()
	r.st.rentals[rt.ID] = rt.Clone()
	return nil
}

func (r *rentalRepository) MarkReturned(ctx context.Context, rt *domain.Rental) error {
	if rt.DateReturned == nil || rt.RentalFeeCents == nil {
		return fmt.Errorf("rental %s: return date and fee are required: %w", rt.ID, domain.ErrInvalidInput)
	}

	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	stored, ok := r.st.rentals[rt.ID]
	if !ok {
		return fmt.Errorf("rental %s: %w", rt.ID, domain.ErrNotFound)
	}
	if stored.IsReturned() ||
		stored.Customer.ID != rt.Customer.ID ||
		stored.Movie.ID != rt.Movie.ID ||
		stored.Movie.DailyRentalRateCents != rt.Movie.DailyRentalRateCents ||
		!stored.DateOut.Equal(rt.DateOut) {
		return fmt.Errorf("rental %s was returned or reassigned: %w", rt.ID, domain.ErrConflict)
	}

	returnedAt, fee := *rt.DateReturned, *rt.RentalFeeCents
	stored.DateReturned = &returnedAt
	stored.RentalFeeCents = &fee
	stored.UpdatedOn = time.Now().UTC()
	rt.UpdatedOn = stored.UpdatedOn
	return nil
}

func (r *rentalRepository) List(ctx context.Context) ([]domain.Rental, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	rentals := make([]domain.Rental, 0, len(r.st.rentals))
	for _, rt := range r.st.rentals {
		rentals = append(rentals, *rt.Clone())
	}
	sort.Slice(rentals, func(i, j int) bool {
		return rentals[i].DateOut.After(rentals[j].DateOut)
	})
	return rentals, nil
}

func (r *rentalRepository) Delete(ctx context.Context, id string) (*domain.Rental, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	rt, ok := r.st.rentals[id]
	if !ok {
		return nil, fmt.Errorf("rental %s: %w", id, domain.ErrNotFound)
	}
	delete(r.st.rentals, id)
	return rt.Clone(), nil
}
