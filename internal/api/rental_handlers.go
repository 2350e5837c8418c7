package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"locadora/internal/db"
	"locadora/internal/entities"
	"locadora/internal/service"
)

type RentalHandler struct {
	Service *service.RentalService
}

func NewRentalHandler(svc *service.RentalService) *RentalHandler {
	return &RentalHandler{Service: svc}
}

func rentalResponse(r *db.Rental, checkoutURL string) entities.RentalResponse {
	return entities.RentalResponse{
		ID:             r.ID,
		Code:           r.Code,
		VehicleID:      r.VehicleID,
		CustomerID:     r.CustomerID,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		ReturnedAt:     r.ReturnedAt,
		PickupOdometer: r.PickupOdometer,
		ReturnOdometer: r.ReturnOdometer,
		TotalPrice:     r.TotalPrice,
		Status:         r.Status,
		CheckoutURL:    checkoutURL,
	}
}

func (h *RentalHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	var req entities.AvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	resp, err := h.Service.CheckAvailability(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *RentalHandler) CreateRental(w http.ResponseWriter, r *http.Request) {
	var req entities.RentalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	rental, checkoutURL, err := h.Service.CreateRental(r.Context(), &req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, rentalResponse(rental, checkoutURL))
}

func (h *RentalHandler) GetRental(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	rental, err := h.Service.GetRental(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rentalResponse(rental, ""))
}

func (h *RentalHandler) ListRentals(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	rentals, err := h.Service.ListRentals(r.Context(), status)
	if err != nil {
		respondError(w, err)
		return
	}
	list := entities.RentalsList{Total: len(rentals)}
	for i := range rentals {
		list.Rentals = append(list.Rentals, rentalResponse(&rentals[i], ""))
	}
	respondJSON(w, http.StatusOK, list)
}

// MyRentals lists rentals for the caller's email. Identity arrives trusted
// from the auth boundary.
func (h *RentalHandler) MyRentals(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		http.Error(w, "email required", http.StatusBadRequest)
		return
	}
	rentals, err := h.Service.ListRentalsByCustomerEmail(r.Context(), email)
	if err != nil {
		respondError(w, err)
		return
	}
	list := entities.RentalsList{Total: len(rentals)}
	for i := range rentals {
		list.Rentals = append(list.Rentals, rentalResponse(&rentals[i], ""))
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *RentalHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	var req entities.CheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	rental, err := h.Service.CheckIn(r.Context(), id, req.Odometer)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rentalResponse(rental, ""))
}

func (h *RentalHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	var req entities.CheckOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	rental, err := h.Service.CheckOut(r.Context(), id, req.Odometer, req.ReturnedAt)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rentalResponse(rental, ""))
}

func (h *RentalHandler) CancelRental(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	rental, err := h.Service.Cancel(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rentalResponse(rental, ""))
}

func (h *RentalHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	var req entities.ChangeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	rental, err := h.Service.ChangeStatus(r.Context(), id, req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rentalResponse(rental, ""))
}
