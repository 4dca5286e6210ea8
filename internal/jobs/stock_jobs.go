package jobs

import (
	"context"
	"errors"

	"movie-rental-backend/internal/domain"
	"movie-rental-backend/internal/logger"
)

// ReconcileResult summarises one reconciler pass.
type ReconcileResult struct {
	Applied int
	Pending int
	Failed  int
}

// ReconcileStockAdjustments replays stock changes that could not be applied
// when their rental was written.
func (jr *JobRunner) ReconcileStockAdjustments() {
	jr.runWithRecovery("ReconcileStockAdjustments", func() {
		res, err := jr.ReconcileOnce(context.Background())
		if err != nil {
			logger.Error("Failed to reconcile stock adjustments", "error", err)
			return
		}
		logger.Info("Reconciled stock adjustments", "applied", res.Applied, "pending", res.Pending, "failed", res.Failed)
	})
}

// transient reports whether a ledger error may clear up on a quick retry.
// Domain outcomes are stable within one pass.
func transient(err error) bool {
	return !errors.Is(err, domain.ErrNotFound) &&
		!errors.Is(err, domain.ErrOutOfStock) &&
		!errors.Is(err, context.Canceled)
}

func (jr *JobRunner) ReconcileOnce(ctx context.Context) (ReconcileResult, error) {
	var res ReconcileResult
	cfg := jr.config.Reconciler

	pending, err := jr.adjustments.ListPending(ctx, cfg.BatchSize)
	if err != nil {
		return res, err
	}

	for i := range pending {
		adj := &pending[i]
		adj.Attempts++

		err := RetryWithBackoff(ctx, cfg.RetryAttempts, jr.config.RetryBaseDelay(), transient, func(ctx context.Context) error {
			return jr.ledger.Adjust(ctx, adj.MovieID, adj.Delta)
		})

		switch {
		case err == nil:
			adj.Status = domain.StockAdjustmentStatusApplied
			adj.LastError = ""
			res.Applied++
		case errors.Is(err, domain.ErrNotFound) || adj.Attempts >= cfg.MaxAttempts:
			adj.Status = domain.StockAdjustmentStatusFailed
			adj.LastError = err.Error()
			res.Failed++
			logger.Error("Stock adjustment abandoned, manual correction required",
				"adjustment_id", adj.ID, "movie_id", adj.MovieID, "rental_id", adj.RentalID,
				"delta", adj.Delta, "attempts", adj.Attempts, "error", err)
		default:
			adj.LastError = err.Error()
			res.Pending++
			logger.Warn("Stock adjustment still pending",
				"adjustment_id", adj.ID, "movie_id", adj.MovieID, "attempts", adj.Attempts, "error", err)
		}

		if err := jr.adjustments.Update(ctx, adj); err != nil {
			logger.Error("Failed to update stock adjustment", "adjustment_id", adj.ID, "error", err)
		}
	}
	return res, nil
}
