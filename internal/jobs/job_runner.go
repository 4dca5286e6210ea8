package jobs

import (
	"movie-rental-backend/internal/config"
	"movie-rental-backend/internal/logger"
	"movie-rental-backend/internal/repository"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	ledger      repository.InventoryLedger
	adjustments repository.StockAdjustmentRepository
	config      *config.Config
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(ledger repository.InventoryLedger, adjustments repository.StockAdjustmentRepository, cfg *config.Config) *JobRunner {
	return &JobRunner{
		ledger:      ledger,
		adjustments: adjustments,
		config:      cfg,
	}
}

func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}
