package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/satriohadi/go-record-store/internal/orders"
	"github.com/satriohadi/go-record-store/internal/pickup"
)

type PickupHandler struct {
	Service *pickup.Service
}

// PickupSummary = yang perlu dilihat di counter; bukan seluruh order.
type PickupSummary struct {
	OrderID       string               `json:"order_id"`
	CustomerName  string               `json:"customer_name"`
	Items         []orders.OrderItem   `json:"items"`
	TotalCents    int64                `json:"total_cents"`
	Status        orders.Status        `json:"status"`
	PaymentStatus orders.PaymentStatus `json:"payment_status"`
	PickupStatus  orders.PickupStatus  `json:"pickup_status"`
	PickedUpBy    string               `json:"picked_up_by,omitempty"`
}

func (h *PickupHandler) Register(r *chi.Mux, staff func(http.Handler) http.Handler) {
	// lookup publik: pegang code = boleh lihat
	r.Get("/pickup/{code}", h.lookup)
	r.With(staff).Put("/orders/{id}/pickup", h.confirm)
}

func (h *PickupHandler) lookup(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Service.Lookup(ctx, code)
	if errors.Is(err, orders.ErrOrderNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, PickupSummary{
		OrderID:       o.OrderID,
		CustomerName:  o.Customer.Name,
		Items:         o.Items,
		TotalCents:    o.TotalCents,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		PickupStatus:  o.PickupStatus,
		PickedUpBy:    o.PickedUpBy,
	})
}

type confirmPickupReq struct {
	PickedUpBy string `json:"picked_up_by"`
}

func (h *PickupHandler) confirm(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	var req confirmPickupReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Service.Confirm(ctx, orderID, req.PickedUpBy)
	if err != nil {
		// AlreadyPickedUp dan NotReady harus bisa dibedakan oleh UI counter
		switch {
		case errors.Is(err, orders.ErrAlreadyPickedUp):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "already_picked_up", "detail": err.Error()})
		case errors.Is(err, orders.ErrNotReadyForPickup):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "not_ready_for_pickup", "detail": err.Error()})
		case errors.Is(err, orders.ErrInvalidInput):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, orders.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return
	}
	writeJSON(w, http.StatusOK, o)
}
