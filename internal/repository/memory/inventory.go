package memory

import (
	"context"
	"fmt"
	"time"

	"movie-rental-backend/internal/domain"
)

type inventoryLedger struct {
	st *state
}

func (l *inventoryLedger) Adjust(ctx context.Context, movieID string, delta int) error {
	l.st.mu.Lock()
	defer l.st.mu.Unlock()

	m, ok := l.st.movies[movieID]
	if !ok {
		return fmt.Errorf("movie %s: %w", movieID, domain.ErrNotFound)
	}
	if m.NumberInStock+delta < 0 {
		return fmt.Errorf("movie %s: %w", movieID, domain.ErrOutOfStock)
	}
	m.NumberInStock += delta
	m.UpdatedOn = time.Now().UTC()
	l.st.movies[movieID] = m
	return nil
}
