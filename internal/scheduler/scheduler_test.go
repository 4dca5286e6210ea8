package scheduler_test

import (
	"testing"

	"movie-rental-backend/internal/config"
	"movie-rental-backend/internal/jobs"
	"movie-rental-backend/internal/repository/memory"
	"movie-rental-backend/internal/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunner(t *testing.T, schedule string) *jobs.JobRunner {
	t.Helper()
	cfg, err := config.Parse([]byte(`
server:
  port: 8080
storage:
  type: memory
jwt:
  secret: scheduler-test-secret-0123456789abcdef
`))
	require.NoError(t, err)
	if schedule != "" {
		cfg.Scheduler.ReconcileStock = schedule
	}
	store := memory.NewStore()
	return jobs.NewJobRunner(store.Ledger, store.Adjustments, cfg)
}

func TestNewScheduler_RegistersReconciler(t *testing.T) {
	s, err := scheduler.NewScheduler(newRunner(t, ""))
	require.NoError(t, err)
	assert.True(t, s.IsRunning())

	s.Start()
	s.Stop()
}

func TestNewScheduler_BadSchedule(t *testing.T) {
	_, err := scheduler.NewScheduler(newRunner(t, "every now and then"))
	assert.Error(t, err)
}
