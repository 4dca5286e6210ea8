package memory

import (
	"context"
	"fmt"

	"movie-rental-backend/internal/domain"
)

type customerRepository struct {
	st *state
}

func (r *customerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	c, ok := r.st.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer %s: %w", id, domain.ErrNotFound)
	}
	return &c, nil
}

type movieRepository struct {
	st *state
}

func (r *movieRepository) GetByID(ctx context.Context, id string) (*domain.Movie, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	m, ok := r.st.movies[id]
	if !ok {
		return nil, fmt.Errorf("movie %s: %w", id, domain.ErrNotFound)
	}
	return &m, nil
}
