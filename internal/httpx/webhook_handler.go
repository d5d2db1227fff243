package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/satriohadi/go-record-store/internal/payment"
	"github.com/satriohadi/go-record-store/internal/reconcile"
)

type WebhookHandler struct {
	Reconciler *reconcile.Service
}

func (h *WebhookHandler) Register(r *chi.Mux) {
	r.Post("/payments/notifications", h.handleNotification)
}

// Kontrak ke gateway: 200 {success:true} utk semua kasus yang tidak boleh
// di-retry lagi (termasuk replay dan order yang tidak ketemu), 403 utk
// signature mismatch, 404 utk payload yang kekurangan field wajib, 5xx hanya
// utk kegagalan infra (gateway akan retry; guard stok membuatnya aman).
func (h *WebhookHandler) handleNotification(w http.ResponseWriter, r *http.Request) {
	var n payment.Notification
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	ack, err := h.Reconciler.Handle(ctx, n)
	if err != nil {
		switch {
		case errors.Is(err, reconcile.ErrMalformed):
			writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "missing required fields"})
		case errors.Is(err, payment.ErrInvalidSignature):
			writeJSON(w, http.StatusForbidden, map[string]any{"success": false, "error": "invalid signature"})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		}
		return
	}

	resp := map[string]any{"success": true}
	switch ack {
	case reconcile.AckAlreadyApplied:
		resp["note"] = "already applied"
	case reconcile.AckUnmatched:
		resp["note"] = "order not found"
	case reconcile.AckUnrecognized:
		resp["note"] = "unrecognized transaction status"
	}
	writeJSON(w, http.StatusOK, resp)
}
