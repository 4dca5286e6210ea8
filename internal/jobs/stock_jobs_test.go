package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"movie-rental-backend/internal/config"
	"movie-rental-backend/internal/domain"
	"movie-rental-backend/internal/jobs"
	"movie-rental-backend/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type flakyLedger struct {
	mock.Mock
}

func (f *flakyLedger) Adjust(ctx context.Context, movieID string, delta int) error {
	return f.Called(movieID, delta).Error(0)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(`
server:
  port: 8080
storage:
  type: memory
jwt:
  secret: reconciler-test-secret-0123456789abcdef
reconciler:
  batch_size: 10
  max_attempts: 2
  retry_attempts: 2
  retry_base_delay_ms: 1
`))
	require.NoError(t, err)
	return cfg
}

func seedPending(t *testing.T, store *memory.Store, id, movieID string, delta int) {
	t.Helper()
	require.NoError(t, store.Adjustments.Create(context.Background(), &domain.StockAdjustment{
		ID: id, MovieID: movieID, RentalID: "r-" + id, Delta: delta,
		Reason: domain.StockAdjustmentReasonRentalReturned, Status: domain.StockAdjustmentStatusPending,
	}))
}

func TestReconcileOnce_AppliesPending(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.PutMovie(domain.Movie{ID: "m-1", NumberInStock: 0}))
	seedPending(t, store, "a-1", "m-1", 1)
	seedPending(t, store, "a-2", "m-1", 1)

	runner := jobs.NewJobRunner(store.Ledger, store.Adjustments, testConfig(t))
	res, err := runner.ReconcileOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Applied)
	assert.Equal(t, 2, store.Stock("m-1"))

	pending, err := store.Adjustments.ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	res, err = runner.ReconcileOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, jobs.ReconcileResult{}, res, "applied adjustments are not replayed")
}

func TestReconcileOnce_UnknownMovieFails(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedPending(t, store, "a-1", "m-gone", 1)

	runner := jobs.NewJobRunner(store.Ledger, store.Adjustments, testConfig(t))
	res, err := runner.ReconcileOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)

	pending, err := store.Adjustments.ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestReconcileOnce_OutOfStockStaysPendingUntilMaxAttempts(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.PutMovie(domain.Movie{ID: "m-1", NumberInStock: 0}))
	seedPending(t, store, "a-1", "m-1", -1)

	runner := jobs.NewJobRunner(store.Ledger, store.Adjustments, testConfig(t))

	res, err := runner.ReconcileOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pending)

	res, err = runner.ReconcileOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 0, store.Stock("m-1"))
}

func TestReconcileOnce_RetriesTransientErrors(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedPending(t, store, "a-1", "m-1", 1)

	ledger := new(flakyLedger)
	ledger.On("Adjust", "m-1", 1).Return(errors.New("connection reset")).Once()
	ledger.On("Adjust", "m-1", 1).Return(nil).Once()

	runner := jobs.NewJobRunner(ledger, store.Adjustments, testConfig(t))
	res, err := runner.ReconcileOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Applied)
	ledger.AssertNumberOfCalls(t, "Adjust", 2)
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()
	always := func(error) bool { return true }

	t.Run("StopsOnSuccess", func(t *testing.T) {
		calls := 0
		err := jobs.RetryWithBackoff(ctx, 5, time.Millisecond, always, func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("boom")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("PermanentErrorFailsFast", func(t *testing.T) {
		calls := 0
		err := jobs.RetryWithBackoff(ctx, 5, time.Millisecond, func(error) bool { return false }, func(context.Context) error {
			calls++
			return domain.ErrOutOfStock
		})
		assert.ErrorIs(t, err, domain.ErrOutOfStock)
		assert.Equal(t, 1, calls)
	})

	t.Run("ContextCancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := jobs.RetryWithBackoff(cctx, 3, time.Second, always, func(context.Context) error {
			return errors.New("boom")
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
