package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/satriohadi/go-record-store/internal/kafka"
	"github.com/satriohadi/go-record-store/internal/metricsx"
	"github.com/satriohadi/go-record-store/internal/orders"
	"github.com/satriohadi/go-record-store/internal/payment"
	"github.com/satriohadi/go-record-store/internal/redisx"
)

type OrderStore interface {
	CreateOrder(ctx context.Context, customer orders.CustomerInfo, items []orders.ItemInput, payAtStore bool) (*orders.Order, error)
	GetByOrderID(ctx context.Context, orderID string) (*orders.Order, error)
	List(ctx context.Context, f orders.ListFilter) ([]orders.Order, error)
	ListProducts(ctx context.Context) ([]orders.Product, error)
	SetPaymentSession(ctx context.Context, orderID, gatewayOrderID, token, redirectURL string) error
}

type PaymentGateway interface {
	CreateSession(ctx context.Context, in payment.SessionInput) (*payment.Session, error)
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type OrdersHandler struct {
	Store    OrderStore
	Gateway  PaymentGateway
	Producer Publisher // topic order.created
	Redis    *redis.Client
	Service  string
	Logger   *slog.Logger
}

type CreateOrderReq struct {
	Items      []orders.ItemInput  `json:"items"`
	Customer   orders.CustomerInfo `json:"customer"`
	PayAtStore bool                `json:"pay_at_store,omitempty"`
}

func (h *OrdersHandler) Register(r *chi.Mux, staff func(http.Handler) http.Handler) {
	r.Get("/products", h.listProducts)
	r.Post("/orders", h.createOrder)
	r.Post("/orders/{id}/payment", h.retryPayment)
	r.Group(func(r chi.Router) {
		r.Use(staff)
		r.Get("/orders", h.listOrders)
		r.Get("/orders/{id}", h.getOrder)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	o, err := h.Store.CreateOrder(ctx, req.Customer, req.Items, req.PayAtStore)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrInvalidInput),
			errors.Is(err, orders.ErrProductNotFound),
			orders.IsInsufficientStock(err):
			// sebut item/field yang bermasalah, jangan generik
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return
	}

	flow := "online"
	if req.PayAtStore {
		flow = "pay_at_store"
	}
	metricsx.OrdersCreated.WithLabelValues(flow).Inc()

	h.publishCreated(o, req.PayAtStore, r.Header.Get("X-Request-Id"))
	h.cacheStatus(ctx, o)

	// Flow online: minta payment session. Sengaja tidak atomik dengan create:
	// kalau gateway gagal/timeout, order tetap pending dan session bisa
	// di-retry via POST /orders/{id}/payment.
	if !req.PayAtStore {
		sess, err := h.Gateway.CreateSession(ctx, sessionInput(o, o.OrderID))
		if err != nil {
			h.Logger.Warn("payment session creation failed, order stays pending",
				slog.String("order_id", o.OrderID),
				slog.String("error", err.Error()))
		} else {
			if err := h.Store.SetPaymentSession(ctx, o.OrderID, o.OrderID, sess.Token, sess.RedirectURL); err != nil {
				h.Logger.Warn("persist payment session failed",
					slog.String("order_id", o.OrderID),
					slog.String("error", err.Error()))
			} else {
				o.SnapToken = sess.Token
				o.RedirectURL = sess.RedirectURL
			}
		}
	}

	writeJSON(w, http.StatusCreated, o)
}

// retryPayment mint gateway order id baru utk attempt berikutnya; gateway
// menolak reuse order_id, makanya midtrans_order_ids berbentuk list.
func (h *OrdersHandler) retryPayment(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	o, err := h.Store.GetByOrderID(ctx, orderID)
	if errors.Is(err, orders.ErrOrderNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if o.PaymentStatus != orders.PaymentPending || orders.IsTerminal(o.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "order is not awaiting payment"})
		return
	}

	gatewayOrderID := orders.RetryOrderID(o.OrderID, len(o.MidtransOrderIDs))
	sess, err := h.Gateway.CreateSession(ctx, sessionInput(o, gatewayOrderID))
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "payment gateway unavailable"})
		return
	}
	if err := h.Store.SetPaymentSession(ctx, o.OrderID, gatewayOrderID, sess.Token, sess.RedirectURL); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"order_id":         o.OrderID,
		"gateway_order_id": gatewayOrderID,
		"token":            sess.Token,
		"redirect_url":     sess.RedirectURL,
	})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Store.GetByOrderID(ctx, orderID)
	if errors.Is(err, orders.ErrOrderNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	q := r.URL.Query()
	f := orders.ListFilter{
		Status:        orders.Status(q.Get("status")),
		PaymentStatus: orders.PaymentStatus(q.Get("payment_status")),
	}
	fmt.Sscanf(q.Get("limit"), "%d", &f.Limit)
	fmt.Sscanf(q.Get("offset"), "%d", &f.Offset)

	out, err := h.Store.List(ctx, f)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if out == nil {
		out = []orders.Order{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Store.ListProducts(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if ps == nil {
		ps = []orders.Product{}
	}
	writeJSON(w, http.StatusOK, ps)
}

func sessionInput(o *orders.Order, gatewayOrderID string) payment.SessionInput {
	in := payment.SessionInput{
		GatewayOrderID: gatewayOrderID,
		GrossAmount:    o.TotalCents,
		CustomerName:   o.Customer.Name,
		CustomerEmail:  o.Customer.Email,
		CustomerPhone:  o.Customer.Phone,
	}
	for _, it := range o.Items {
		in.Items = append(in.Items, payment.SessionItem{
			ID: it.ProductID, Name: it.Name, Price: it.PriceCents, Quantity: it.Quantity,
		})
	}
	return in
}

func (h *OrdersHandler) publishCreated(o *orders.Order, payAtStore bool, traceID string) {
	if h.Producer == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       traceID,
		CorrelationID: o.OrderID,
		Payload: kafkax.MustMarshal(orders.OrderCreatedPayload{
			OrderID:    o.OrderID,
			Items:      o.Items,
			Customer:   o.Customer.Name,
			TotalCents: o.TotalCents,
			PayAtStore: payAtStore,
		}),
	}
	h.Producer.Publish(orders.PartitionKey(o.OrderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, o *orders.Order) {
	if h.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, o.OrderID)
	body := fmt.Sprintf(`{"status":%q,"payment_status":%q}`, o.Status, o.PaymentStatus)
	_ = h.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err()
}
