package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"movie-rental-backend/internal/jobs"
	"movie-rental-backend/internal/logger"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a new scheduler with the provided job runner
func NewScheduler(jobRunner *jobs.JobRunner) (*Scheduler, error) {
	// Create cron with UTC timezone and seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	if err := s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) registerJobs() error {
	cfg := s.jobs.Config().Scheduler

	if _, err := s.cron.AddFunc(cfg.ReconcileStock, s.jobs.ReconcileStockAdjustments); err != nil {
		logger.Error("Failed to register ReconcileStockAdjustments job", "schedule", cfg.ReconcileStock, "error", err)
		return err
	}

	logger.Info("All cron jobs registered successfully", "reconcile_stock", cfg.ReconcileStock)
	return nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// IsRunning returns true if the scheduler has jobs registered
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}
