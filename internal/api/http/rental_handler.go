package http

import (
	"encoding/json"
	"net/http"

	"movie-rental-backend/internal/service"

	"github.com/gorilla/mux"
)

// RentalRequest is the body of create, update and return requests.
type RentalRequest struct {
	CustomerID string `json:"customerId"`
	MovieID    string `json:"movieId"`
}

type RentalHandler struct {
	rentalSvc service.RentalService
}

func NewRentalHandler(rentalSvc service.RentalService) *RentalHandler {
	return &RentalHandler{rentalSvc: rentalSvc}
}

func decodeRentalRequest(w http.ResponseWriter, r *http.Request) (*RentalRequest, bool) {
	var req RentalRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return nil, false
	}
	return &req, true
}

func (h *RentalHandler) ListRentals(w http.ResponseWriter, r *http.Request) {
	rentals, err := h.rentalSvc.ListRentals(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rentals)
}

func (h *RentalHandler) CreateRental(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRentalRequest(w, r)
	if !ok {
		return
	}
	rental, err := h.rentalSvc.CreateRental(r.Context(), req.CustomerID, req.MovieID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rental)
}

func (h *RentalHandler) GetRental(w http.ResponseWriter, r *http.Request) {
	rental, err := h.rentalSvc.GetRental(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rental)
}

func (h *RentalHandler) UpdateRentalAssignment(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRentalRequest(w, r)
	if !ok {
		return
	}
	rental, err := h.rentalSvc.UpdateRentalAssignment(r.Context(), mux.Vars(r)["id"], req.CustomerID, req.MovieID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rental)
}

func (h *RentalHandler) DeleteRental(w http.ResponseWriter, r *http.Request) {
	rental, err := h.rentalSvc.DeleteRental(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rental)
}

func (h *RentalHandler) ProcessReturn(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRentalRequest(w, r)
	if !ok {
		return
	}
	rental, err := h.rentalSvc.ProcessReturn(r.Context(), req.CustomerID, req.MovieID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rental)
}
