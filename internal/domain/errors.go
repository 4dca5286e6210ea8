package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("not found")
	ErrDuplicateKey     = errors.New("duplicate key")
	ErrConflict         = errors.New("conflicting update")
	ErrOutOfStock       = errors.New("movie not in stock")
	ErrAlreadyProcessed = errors.New("rental already processed")
	ErrInvalidCustomer  = errors.New("invalid customer")
	ErrInvalidMovie     = errors.New("invalid movie")
	ErrLedgerFailure    = errors.New("inventory adjustment failed")
	ErrReturnInProgress = errors.New("return already in progress")
)

// MissingFieldError reports a required field that was not supplied.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("invalid %s: field is required", e.Field)
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrInvalidInput
}
