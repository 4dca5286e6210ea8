package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"movie-rental-backend/internal/domain"
)

type stockAdjustmentRepository struct {
	st *state
}

func (r *stockAdjustmentRepository) Create(ctx context.Context, adj *domain.StockAdjustment) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	if _, ok := r.st.adjustments[adj.ID]; ok {
		return fmt.Errorf("stock adjustment %s: %w", adj.ID, domain.ErrDuplicateKey)
	}
	now := time.Now().UTC()
	adj.CreatedOn, adj.UpdatedOn = now, now
	cp := *adj
	r.st.adjustments[adj.ID] = &cp
	return nil
}

func (r *stockAdjustmentRepository) ListPending(ctx context.Context, limit int) ([]domain.StockAdjustment, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	var pending []domain.StockAdjustment
	for _, adj := range r.st.adjustments {
		if adj.Status == domain.StockAdjustmentStatusPending {
			pending = append(pending, *adj)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedOn.Before(pending[j].CreatedOn)
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (r *stockAdjustmentRepository) Update(ctx context.Context, adj *domain.StockAdjustment) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	stored, ok := r.st.adjustments[adj.ID]
	if !ok {
		return fmt.Errorf("stock adjustment %s: %w", adj.ID, domain.ErrNotFound)
	}
	stored.Status = adj.Status
	stored.Attempts = adj.Attempts
	stored.LastError = adj.LastError
	stored.UpdatedOn = time.Now().UTC()
	adj.UpdatedOn = stored.UpdatedOn
	return nil
}
