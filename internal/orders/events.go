package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated   = "OrderCreated"
	EventOrderPaid      = "OrderPaid"
	EventOrderCancelled = "OrderCancelled"
	EventOrderPickedUp  = "OrderPickedUp"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "store-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id eksternal
	Payload       json.RawMessage `json:"payload"`
}

// ---- Payload tipe per event ----

type OrderCreatedPayload struct {
	OrderID    string      `json:"order_id"`
	Items      []OrderItem `json:"items"`
	Customer   string      `json:"customer_name"`
	TotalCents int64       `json:"total_cents"`
	PayAtStore bool        `json:"pay_at_store"`
}

type OrderPaidPayload struct {
	OrderID       string `json:"order_id"`
	TransactionID string `json:"transaction_id"`
	PaymentMethod string `json:"payment_method"`
	TotalCents    int64  `json:"total_cents"`
	PickupCode    string `json:"pickup_code"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
}

type OrderCancelledPayload struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"` // cancel | deny | expire
}

type OrderPickedUpPayload struct {
	OrderID    string    `json:"order_id"`
	PickedUpBy string    `json:"picked_up_by"`
	PickedUpAt time.Time `json:"picked_up_at"`
}
