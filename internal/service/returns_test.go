package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"movie-rental-backend/internal/domain"
	"movie-rental-backend/internal/guard"
	"movie-rental-backend/internal/repository"
	"movie-rental-backend/internal/repository/memory"
	"movie-rental-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// clock is a settable time source shared with the service under test.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newMemoryService(t *testing.T, stock int) (service.RentalService, *memory.Store, *clock) {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.PutCustomer(*alice))
	m := *heat
	m.NumberInStock = stock
	require.NoError(t, store.PutMovie(m))

	clk := &clock{now: time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)}
	svc := service.NewRentalService(store.Customers, store.Movies, store.Ledger, store.Rentals, store.Adjustments,
		guard.NewLocalGuard(), service.WithClock(clk.Now))
	return svc, store, clk
}

func TestProcessReturn_RoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, store, clk := newMemoryService(t, 1)

	rental, err := svc.CreateRental(ctx, "c-1", "m-1")
	require.NoError(t, err)
	assert.Equal(t, 0, store.Stock("m-1"))

	clk.Advance(7 * 24 * time.Hour)
	returned, err := svc.ProcessReturn(ctx, "c-1", "m-1")
	require.NoError(t, err)
	assert.Equal(t, rental.ID, returned.ID)
	require.NotNil(t, returned.DateReturned)
	require.NotNil(t, returned.RentalFeeCents)
	assert.Equal(t, int64(7*200), *returned.RentalFeeCents)
	assert.Equal(t, 1, store.Stock("m-1"))
}

func TestProcessReturn_SameDayIsFree(t *testing.T) {
	ctx := context.Background()
	svc, _, clk := newMemoryService(t, 1)

	_, err := svc.CreateRental(ctx, "c-1", "m-1")
	require.NoError(t, err)
	clk.Advance(23 * time.Hour)

	returned, err := svc.ProcessReturn(ctx, "c-1", "m-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), *returned.RentalFeeCents)
}

func TestProcessReturn_SecondReturnIsRejected(t *testing.T) {
	ctx := context.Background()
	svc, store, clk := newMemoryService(t, 1)

	_, err := svc.CreateRental(ctx, "c-1", "m-1")
	require.NoError(t, err)
	clk.Advance(48 * time.Hour)

	first, err := svc.ProcessReturn(ctx, "c-1", "m-1")
	require.NoError(t, err)

	clk.Advance(48 * time.Hour)
	_, err = svc.ProcessReturn(ctx, "c-1", "m-1")
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)

	stored, err := store.Rentals.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, *first.DateReturned, *stored.DateReturned)
	assert.Equal(t, *first.RentalFeeCents, *stored.RentalFeeCents)
	assert.Equal(t, 1, store.Stock("m-1"))
}

func TestProcessReturn_ConcurrentReturnsApplyOnce(t *testing.T) {
	ctx := context.Background()
	svc, store, clk := newMemoryService(t, 1)

	_, err := svc.CreateRental(ctx, "c-1", "m-1")
	require.NoError(t, err)
	clk.Advance(72 * time.Hour)

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.ProcessReturn(ctx, "c-1", "m-1")
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, errors.Is(err, domain.ErrAlreadyProcessed) || errors.Is(err, domain.ErrReturnInProgress), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, store.Stock("m-1"))
}

func TestProcessReturn_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newMemoryService(t, 1)

	_, err := svc.ProcessReturn(ctx, "", "m-1")
	var missing *domain.MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "customerId", missing.Field)

	_, err = svc.ProcessReturn(ctx, "", "")
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "customerId", missing.Field, "customer is checked first")

	_, err = svc.ProcessReturn(ctx, "c-1", "")
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "movieId", missing.Field)

	_, err = svc.ProcessReturn(ctx, "c-1", "m-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateRental_LastUnit(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newMemoryService(t, 1)
	require.NoError(t, store.PutCustomer(domain.Customer{ID: "c-2", Name: "Bob"}))

	_, err := svc.CreateRental(ctx, "c-1", "m-1")
	require.NoError(t, err)

	_, err = svc.CreateRental(ctx, "c-2", "m-1")
	assert.ErrorIs(t, err, domain.ErrOutOfStock)
	assert.Equal(t, 0, store.Stock("m-1"))

	rentals, err := svc.ListRentals(ctx)
	require.NoError(t, err)
	assert.Len(t, rentals, 1)
}

func TestProcessReturn_LedgerFailureRecordsPending(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.PutCustomer(*alice))
	require.NoError(t, store.PutMovie(*heat))

	ledger := new(MockLedger)
	ledger.On("Adjust", mock.Anything, "m-1", -1).Return(nil)
	ledger.On("Adjust", mock.Anything, "m-1", 1).Return(errors.New("ledger offline"))

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := &clock{now: now}
	svc := service.NewRentalService(store.Customers, store.Movies, ledger, store.Rentals, store.Adjustments,
		guard.NewLocalGuard(), service.WithClock(clk.Now))

	_, err := svc.CreateRental(ctx, "c-1", "m-1")
	require.NoError(t, err)
	clk.Advance(3 * 24 * time.Hour)

	rental, err := svc.ProcessReturn(ctx, "c-1", "m-1")
	assert.ErrorIs(t, err, domain.ErrLedgerFailure)
	require.NotNil(t, rental)

	stored, err := store.Rentals.GetByID(ctx, rental.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsReturned(), "the return stays recorded")
	assert.Equal(t, int64(600), *stored.RentalFeeCents)

	pending, err := store.Adjustments.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].Delta)
	assert.Equal(t, rental.ID, pending[0].RentalID)
	assert.Equal(t, domain.StockAdjustmentReasonRentalReturned, pending[0].Reason)
}

func TestProcessReturn_GuardHeld(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	g := new(MockGuard)
	g.On("Acquire", mock.Anything, guard.ReturnKey("c-1", "m-1")).Return("", false, nil)

	svc := service.NewRentalService(store.Customers, store.Movies, store.Ledger, store.Rentals, store.Adjustments, g)
	_, err := svc.ProcessReturn(ctx, "c-1", "m-1")
	assert.ErrorIs(t, err, domain.ErrReturnInProgress)
	g.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessReturn_GuardUnavailableFallsBack(t *testing.T) {
	ctx := context.Background()
	svc, store, clk := newMemoryService(t, 1)
	_, err := svc.CreateRental(ctx, "c-1", "m-1")
	require.NoError(t, err)
	clk.Advance(24 * time.Hour)

	g := new(MockGuard)
	g.On("Acquire", mock.Anything, mock.Anything).Return("", false, errors.New("redis down"))
	fallback := service.NewRentalService(store.Customers, store.Movies, store.Ledger, store.Rentals, store.Adjustments,
		g, service.WithClock(clk.Now))

	returned, err := fallback.ProcessReturn(ctx, "c-1", "m-1")
	require.NoError(t, err)
	assert.Equal(t, int64(200), *returned.RentalFeeCents)
	g.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessReturn_ReleasesOwnClaim(t *testing.T) {
	ctx := context.Background()
	svc, store, clk := newMemoryService(t, 1)
	_, err := svc.CreateRental(ctx, "c-1", "m-1")
	require.NoError(t, err)
	clk.Advance(24 * time.Hour)

	key := guard.ReturnKey("c-1", "m-1")
	g := new(MockGuard)
	g.On("Acquire", mock.Anything, key).Return("claim-1", true, nil)
	g.On("Release", mock.Anything, key, "claim-1").Return(nil)
	guarded := service.NewRentalService(store.Customers, store.Movies, store.Ledger, store.Rentals, store.Adjustments,
		g, service.WithClock(clk.Now))

	_, err = guarded.ProcessReturn(ctx, "c-1", "m-1")
	require.NoError(t, err)
	g.AssertExpectations(t)
}

// interleavedRentals runs beforeFindOpen once, after the open rental has been
// read and before it is handed back to the caller.
type interleavedRentals struct {
	repository.RentalRepository
	once           sync.Once
	beforeFindOpen func()
}

func (r *interleavedRentals) FindOpenByCustomerAndMovie(ctx context.Context, customerID, movieID string) (*domain.Rental, error) {
	rental, err := r.RentalRepository.FindOpenByCustomerAndMovie(ctx, customerID, movieID)
	if r.beforeFindOpen != nil {
		r.once.Do(r.beforeFindOpen)
	}
	return rental, err
}

func TestProcessReturn_ReassignedDuringReturn(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.PutCustomer(*alice))
	m1 := *heat
	m1.NumberInStock = 1
	require.NoError(t, store.PutMovie(m1))
	m2 := *alien
	m2.NumberInStock = 1
	require.NoError(t, store.PutMovie(m2))

	rentals := &interleavedRentals{RentalRepository: store.Rentals}
	clk := &clock{now: time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)}
	svc := service.NewRentalService(store.Customers, store.Movies, store.Ledger, rentals, store.Adjustments,
		guard.NewLocalGuard(), service.WithClock(clk.Now))

	rental, err := svc.CreateRental(ctx, "c-1", "m-1")
	require.NoError(t, err)
	clk.Advance(48 * time.Hour)

	rentals.beforeFindOpen = func() {
		_, err := svc.UpdateRentalAssignment(ctx, rental.ID, "c-1", "m-2")
		require.NoError(t, err)
	}

	_, err = svc.ProcessReturn(ctx, "c-1", "m-1")
	assert.ErrorIs(t, err, domain.ErrConflict)

	stored, err := store.Rentals.GetByID(ctx, rental.ID)
	require.NoError(t, err)
	assert.Equal(t, "m-2", stored.Movie.ID, "reassignment must survive")
	assert.False(t, stored.IsReturned())
	assert.Equal(t, 1, store.Stock("m-1"))
	assert.Equal(t, 0, store.Stock("m-2"))

	// The rental is now returnable under its new movie.
	returned, err := svc.ProcessReturn(ctx, "c-1", "m-2")
	require.NoError(t, err)
	assert.Equal(t, int64(2*300), *returned.RentalFeeCents)
	assert.Equal(t, 1, store.Stock("m-1"))
	assert.Equal(t, 1, store.Stock("m-2"))
}
