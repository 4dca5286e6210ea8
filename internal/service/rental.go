package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"movie-rental-backend/internal/domain"
	"movie-rental-backend/internal/guard"
	"movie-rental-backend/internal/logger"
	"movie-rental-backend/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "movie-rental-backend/service"

type rentalService struct {
	customerRepo   repository.CustomerRepository
	movieRepo      repository.MovieRepository
	ledger         repository.InventoryLedger
	rentalRepo     repository.RentalRepository
	adjustmentRepo repository.StockAdjustmentRepository
	returnGuard    guard.ReturnGuard

	now            func() time.Time
	tracer         trace.Tracer
	ledgerFailures metric.Int64Counter
}

type Option func(*rentalService)

// WithClock replaces the wall clock used for DateOut and DateReturned.
func WithClock(now func() time.Time) Option {
	return func(s *rentalService) { s.now = now }
}

func NewRentalService(
	customerRepo repository.CustomerRepository,
	movieRepo repository.MovieRepository,
	ledger repository.InventoryLedger,
	rentalRepo repository.RentalRepository,
	adjustmentRepo repository.StockAdjustmentRepository,
	returnGuard guard.ReturnGuard,
	opts ...Option,
) RentalService {
	s := &rentalService{
		customerRepo:   customerRepo,
		movieRepo:      movieRepo,
		ledger:         ledger,
		rentalRepo:     rentalRepo,
		adjustmentRepo: adjustmentRepo,
		returnGuard:    returnGuard,
		now:            time.Now,
		tracer:         otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(s)
	}

	counter, err := otel.Meter(instrumentationName).Int64Counter("rental.ledger_failures",
		metric.WithDescription("Stock adjustments that failed after their rental write committed"))
	if err != nil {
		logger.Warn("Failed to create ledger failure counter", "error", err)
	}
	s.ledgerFailures = counter
	return s
}

// timestamp is UTC at microsecond precision so it survives a PostgreSQL round trip.
func (s *rentalService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *rentalService) lookupCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	c, err := s.customerRepo.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("customer %s: %w", id, domain.ErrInvalidCustomer)
	}
	return c, err
}

func (s *rentalService) lookupMovie(ctx context.Context, id string) (*domain.Movie, error) {
	m, err := s.movieRepo.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("movie %s: %w", id, domain.ErrInvalidMovie)
	}
	return m, err
}

func (s *rentalService) CreateRental(ctx context.Context, customerID, movieID string) (rental *domain.Rental, err error) {
	ctx, span := s.tracer.Start(ctx, "rental.create", trace.WithAttributes(
		attribute.String("customer.id", customerID),
		attribute.String("movie.id", movieID),
	))
	defer func() { endSpan(span, err) }()

	logger.EnterMethod("rentalService.CreateRental", "customerID", customerID, "movieID", movieID)

	if customerID == "" {
		return nil, &domain.MissingFieldError{Field: "customerId"}
	}
	if movieID == "" {
		return nil, &domain.MissingFieldError{Field: "movieId"}
	}

	customer, err := s.lookupCustomer(ctx, customerID)
	if err != nil {
		logger.ExitMethodWithError("rentalService.CreateRental", err, "customerID", customerID)
		return nil, err
	}
	movie, err := s.lookupMovie(ctx, movieID)
	if err != nil {
		logger.ExitMethodWithError("rentalService.CreateRental", err, "movieID", movieID)
		return nil, err
	}
	if !movie.InStock() {
		err = fmt.Errorf("movie %s: %w", movieID, domain.ErrOutOfStock)
		logger.ExitMethodWithError("rentalService.CreateRental", err, "movieID", movieID)
		return nil, err
	}

	rental = domain.NewRental(uuid.NewString(), customer, movie, s.timestamp())
	if err = s.rentalRepo.Create(ctx, rental); err != nil {
		logger.ExitMethodWithError("rentalService.CreateRental", err, "rentalID", rental.ID)
		return nil, err
	}
	span.SetAttributes(attribute.String("rental.id", rental.ID))

	if adjErr := s.ledger.Adjust(ctx, movieID, -1); adjErr != nil {
		err = s.ledgerFailure(ctx, rental.ID, []pendingAdjustment{{
			movieID: movieID, delta: -1, reason: domain.StockAdjustmentReasonRentalCreated, cause: adjErr,
		}})
		logger.ExitMethodWithError("rentalService.CreateRental", err, "rentalID", rental.ID)
		return rental, err
	}

	logger.ExitMethod("rentalService.CreateRental", "rentalID", rental.ID)
	return rental, nil
}

func (s *rentalService) UpdateRentalAssignment(ctx context.Context, rentalID, customerID, movieID string) (rental *domain.Rental, err error) {
	ctx, span := s.tracer.Start(ctx, "rental.update_assignment", trace.WithAttributes(
		attribute.String("rental.id", rentalID),
		attribute.String("customer.id", customerID),
		attribute.String("movie.id", movieID),
	))
	defer func() { endSpan(span, err) }()

	logger.EnterMethod("rentalService.UpdateRentalAssignment", "rentalID", rentalID, "customerID", customerID, "movieID", movieID)

	if customerID == "" {
		return nil, &domain.MissingFieldError{Field: "customerId"}
	}
	if movieID == "" {
		return nil, &domain.MissingFieldError{Field: "movieId"}
	}

	customer, err := s.lookupCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	movie, err := s.lookupMovie(ctx, movieID)
	if err != nil {
		return nil, err
	}
	if !movie.InStock() {
		return nil, fmt.Errorf("movie %s: %w", movieID, domain.ErrOutOfStock)
	}

	rental, err = s.rentalRepo.GetByID(ctx, rentalID)
	if err != nil {
		logger.ExitMethodWithError("rentalService.UpdateRentalAssignment", err, "rentalID", rentalID)
		return nil, err
	}
	if rental.IsReturned() {
		err = fmt.Errorf("rental %s is already returned: %w", rentalID, domain.ErrConflict)
		logger.ExitMethodWithError("rentalService.UpdateRentalAssignment", err, "rentalID", rentalID)
		return nil, err
	}

	previousMovieID := rental.Movie.ID
	rental.Customer = domain.SnapshotCustomer(customer)
	rental.Movie = domain.SnapshotMovie(movie)
	if err = s.rentalRepo.Update(ctx, rental); err != nil {
		logger.ExitMethodWithError("rentalService.UpdateRentalAssignment", err, "rentalID", rentalID)
		return nil, err
	}

	if previousMovieID != movieID {
		var failed []pendingAdjustment
		if adjErr := s.ledger.Adjust(ctx, movieID, -1); adjErr != nil {
			failed = append(failed, pendingAdjustment{movieID: movieID, delta: -1, reason: domain.StockAdjustmentReasonReassignedTo, cause: adjErr})
		}
		if adjErr := s.ledger.Adjust(ctx, previousMovieID, 1); adjErr != nil {
			failed = append(failed, pendingAdjustment{movieID: previousMovieID, delta: 1, reason: domain.StockAdjustmentReasonReassignedFrom, cause: adjErr})
		}
		if len(failed) > 0 {
			err = s.ledgerFailure(ctx, rental.ID, failed)
			logger.ExitMethodWithError("rentalService.UpdateRentalAssignment", err, "rentalID", rentalID)
			return rental, err
		}
	}

	logger.ExitMethod("rentalService.UpdateRentalAssignment", "rentalID", rentalID, "movieChanged", previousMovieID != movieID)
	return rental, nil
}

func (s *rentalService) ListRentals(ctx context.Context) ([]domain.Rental, error) {
	ctx, span := s.tracer.Start(ctx, "rental.list")
	defer span.End()
	return s.rentalRepo.List(ctx)
}

func (s *rentalService) GetRental(ctx context.Context, id string) (*domain.Rental, error) {
	ctx, span := s.tracer.Start(ctx, "rental.get", trace.WithAttributes(attribute.String("rental.id", id)))
	defer span.End()
	return s.rentalRepo.GetByID(ctx, id)
}

func (s *rentalService) DeleteRental(ctx context.Context, id string) (*domain.Rental, error) {
	ctx, span := s.tracer.Start(ctx, "rental.delete", trace.WithAttributes(attribute.String("rental.id", id)))
	defer span.End()

	rental, err := s.rentalRepo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "Rental deleted", "rentalID", id, "returned", rental.IsReturned())
	return rental, nil
}

type pendingAdjustment struct {
	movieID string
	delta   int
	reason  domain.StockAdjustmentReason
	cause   error
}

// ledgerFailure parks each failed adjustment in the outbox and builds the
// error returned to the caller. Outbox write failures are only logged.
func (s *rentalService) ledgerFailure(ctx context.Context, rentalID string, failed []pendingAdjustment) error {
	var causes []error
	for _, p := range failed {
		if s.ledgerFailures != nil {
			s.ledgerFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", string(p.reason))))
		}

		adj := &domain.StockAdjustment{
			ID:        uuid.NewString(),
			MovieID:   p.movieID,
			RentalID:  rentalID,
			Delta:     p.delta,
			Reason:    p.reason,
			Status:    domain.StockAdjustmentStatusPending,
			LastError: p.cause.Error(),
		}
		if err := s.adjustmentRepo.Create(ctx, adj); err != nil {
			logger.ErrorContext(ctx, "Failed to record pending stock adjustment, manual correction required",
				"rentalID", rentalID, "movieID", p.movieID, "delta", p.delta, "error", err)
		} else {
			logger.WarnContext(ctx, "Stock adjustment deferred to reconciler",
				"adjustmentID", adj.ID, "rentalID", rentalID, "movieID", p.movieID, "delta", p.delta, "cause", p.cause)
		}
		causes = append(causes, fmt.Errorf("movie %s delta %+d: %v", p.movieID, p.delta, p.cause))
	}
	return fmt.Errorf("%w: rental %s saved, stock not adjusted: %v", domain.ErrLedgerFailure, rentalID, errors.Join(causes...))
}
