package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"movie-rental-backend/internal/domain"
	"movie-rental-backend/internal/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps a service error to its HTTP status. Ledger failures are
// checked first: they may carry another sentinel in their message chain.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrLedgerFailure):
		return http.StatusInternalServerError
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidCustomer),
		errors.Is(err, domain.ErrInvalidMovie),
		errors.Is(err, domain.ErrOutOfStock),
		errors.Is(err, domain.ErrAlreadyProcessed):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrReturnInProgress),
		errors.Is(err, domain.ErrDuplicateKey):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeError(w, status, err.Error())
}
