package service

import (
	"context"
	"errors"
	"fmt"

	"movie-rental-backend/internal/domain"
	"movie-rental-backend/internal/guard"
	"movie-rental-backend/internal/logger"
	"movie-rental-backend/internal/utils"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

func (s *rentalService) ProcessReturn(ctx context.Context, customerID, movieID string) (rental *domain.Rental, err error) {
	ctx, span := s.tracer.Start(ctx, "rental.process_return", trace.WithAttributes(
		attribute.String("customer.id", customerID),
		attribute.String("movie.id", movieID),
	))
	defer func() { endSpan(span, err) }()

	logger.EnterMethod("rentalService.ProcessReturn", "customerID", customerID, "movieID", movieID)

	if customerID == "" {
		return nil, &domain.MissingFieldError{Field: "customerId"}
	}
	if movieID == "" {
		return nil, &domain.MissingFieldError{Field: "movieId"}
	}

	key := guard.ReturnKey(customerID, movieID)
	token, acquired, guardErr := s.returnGuard.Acquire(ctx, key)
	switch {
	case guardErr != nil:
		// The conditional rental update still rejects a second return.
		logger.WarnContext(ctx, "Return guard unavailable, continuing without it", "key", key, "error", guardErr)
	case !acquired:
		err = fmt.Errorf("customer %s movie %s: %w", customerID, movieID, domain.ErrReturnInProgress)
		logger.ExitMethodWithError("rentalService.ProcessReturn", err)
		return nil, err
	default:
		defer func() {
			if relErr := s.returnGuard.Release(context.WithoutCancel(ctx), key, token); relErr != nil {
				logger.Warn("Failed to release return guard", "key", key, "error", relErr)
			}
		}()
	}

	rental, err = s.findReturnable(ctx, customerID, movieID)
	if err != nil {
		logger.ExitMethodWithError("rentalService.ProcessReturn", err, "customerID", customerID, "movieID", movieID)
		return nil, err
	}
	span.SetAttributes(attribute.String("rental.id", rental.ID))

	returnedAt := s.timestamp()
	fee := utils.CalculateRentalFee(rental.DateOut, returnedAt, rental.Movie.DailyRentalRateCents)
	rental.DateReturned = &returnedAt
	rental.RentalFeeCents = &fee

	if err = s.rentalRepo.MarkReturned(ctx, rental); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			err = s.explainReturnConflict(ctx, rental.ID, err)
		}
		logger.ExitMethodWithError("rentalService.ProcessReturn", err, "rentalID", rental.ID)
		return nil, err
	}

	if adjErr := s.ledger.Adjust(ctx, rental.Movie.ID, 1); adjErr != nil {
		err = s.ledgerFailure(ctx, rental.ID, []pendingAdjustment{{
			movieID: rental.Movie.ID, delta: 1, reason: domain.StockAdjustmentReasonRentalReturned, cause: adjErr,
		}})
		logger.ExitMethodWithError("rentalService.ProcessReturn", err, "rentalID", rental.ID)
		return rental, err
	}

	logger.ExitMethod("rentalService.ProcessReturn", "rentalID", rental.ID, "feeCents", fee,
		"days", utils.RentalDays(rental.DateOut, returnedAt))
	return rental, nil
}

// findReturnable returns the open rental for the pair, telling an already
// returned pair apart from one that was never rented.
func (s *rentalService) findReturnable(ctx context.Context, customerID, movieID string) (*domain.Rental, error) {
	rental, err := s.rentalRepo.FindOpenByCustomerAndMovie(ctx, customerID, movieID)
	if err == nil {
		if rental.IsReturned() {
			return nil, fmt.Errorf("rental %s: %w", rental.ID, domain.ErrAlreadyProcessed)
		}
		return rental, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	latest, err := s.rentalRepo.FindLatestByCustomerAndMovie(ctx, customerID, movieID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("rental %s: %w", latest.ID, domain.ErrAlreadyProcessed)
	case errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("no rental for customer %s and movie %s: %w", customerID, movieID, domain.ErrNotFound)
	default:
		return nil, err
	}
}

// explainReturnConflict tells a concurrent return apart from a reassignment
// that committed between the lookup and the write.
func (s *rentalService) explainReturnConflict(ctx context.Context, rentalID string, conflict error) error {
	current, err := s.rentalRepo.GetByID(ctx, rentalID)
	switch {
	case err == nil && current.IsReturned():
		return fmt.Errorf("rental %s: %w", rentalID, domain.ErrAlreadyProcessed)
	case err == nil:
		logger.WarnContext(ctx, "Rental reassigned during return", "rentalID", rentalID,
			"customerID", current.Customer.ID, "movieID", current.Movie.ID)
		return fmt.Errorf("rental %s changed while the return was processed: %w", rentalID, domain.ErrConflict)
	case errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("rental %s: %w", rentalID, domain.ErrNotFound)
	default:
		return conflict
	}
}
