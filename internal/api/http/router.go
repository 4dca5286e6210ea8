package http

import (
	"net/http"

	"movie-rental-backend/internal/config"
	"movie-rental-backend/internal/security"
	"movie-rental-backend/internal/service"

	"github.com/gorilla/mux"
)

// NewRouter wires the rental routes. Route names key into
// config.EndpointSecurityConfig.
func NewRouter(rentalSvc service.RentalService, tm security.TokenManager, rl config.RateLimitConfig) *mux.Router {
	h := NewRentalHandler(rentalSvc)
	auth := NewAuthMiddleware(tm)

	router := mux.NewRouter()
	router.Use(RequestLogger)
	if rl.RequestsPerSecond > 0 {
		router.Use(RateLimit(rl.RequestsPerSecond, rl.Burst))
	}
	router.Use(auth.Handler)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet).Name("Health")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/rentals", h.ListRentals).Methods(http.MethodGet).Name("ListRentals")
	api.HandleFunc("/rentals", h.CreateRental).Methods(http.MethodPost).Name("CreateRental")
	api.HandleFunc("/rentals/{id}", h.GetRental).Methods(http.MethodGet).Name("GetRental")
	api.HandleFunc("/rentals/{id}", h.UpdateRentalAssignment).Methods(http.MethodPut).Name("UpdateRentalAssignment")
	api.HandleFunc("/rentals/{id}", h.DeleteRental).Methods(http.MethodDelete).Name("DeleteRental")
	api.HandleFunc("/returns", h.ProcessReturn).Methods(http.MethodPost).Name("ProcessReturn")

	return router
}
