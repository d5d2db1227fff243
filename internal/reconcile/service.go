package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/satriohadi/go-record-store/internal/kafka"
	"github.com/satriohadi/go-record-store/internal/metricsx"
	"github.com/satriohadi/go-record-store/internal/orders"
	"github.com/satriohadi/go-record-store/internal/payment"
	"github.com/satriohadi/go-record-store/internal/redisx"
)

// OrderStore = potongan repo yang reconciler butuhkan; *orders.Repo memenuhi ini.
type OrderStore interface {
	FindByGatewayOrderID(ctx context.Context, gatewayID string) (*orders.Order, error)
	ApplySettlement(ctx context.Context, orderID, transactionID, paymentMethod string) (*orders.SettlementResult, error)
	ApplyStatus(ctx context.Context, orderID string, status orders.Status, pay orders.PaymentStatus, transactionID, paymentMethod string) (*orders.Order, error)
}

// Publisher = subset kafkax.Producer, biar test bisa pakai fake.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

var ErrMalformed = errors.New("malformed notification payload")

// Ack menjelaskan kenapa notifikasi di-ack. Semua varian ini dijawab 200 ke
// gateway supaya dia berhenti retry; yang 403/500 lewat jalur error.
type Ack int

const (
	AckApplied Ack = iota
	AckAlreadyApplied
	AckUnmatched
	AckUnrecognized
)

type Service struct {
	Store          OrderStore
	Redis          *redis.Client
	ProducerPaid   Publisher
	ProducerCancel Publisher
	ServerKey      string
	ServiceName    string
	Logger         *slog.Logger
}

// Handle memproses satu notifikasi pembayaran. Urutan: validasi payload ->
// signature -> dedup -> resolve order -> mapping -> mutasi (guarded) -> ack.
// Replay aman: guard stock_reduced di storage yang jadi batas idempotency,
// dedup Redis cuma short-circuit murah.
func (s *Service) Handle(ctx context.Context, n payment.Notification) (Ack, error) {
	if !n.Valid() {
		metricsx.WebhookOutcomes.WithLabelValues("malformed").Inc()
		return 0, ErrMalformed
	}

	if !payment.VerifySignature(n.OrderID, n.StatusCode, n.GrossAmount, s.ServerKey, n.SignatureKey) {
		metricsx.WebhookOutcomes.WithLabelValues("rejected_signature").Inc()
		s.Logger.Warn("webhook signature mismatch",
			slog.String("gateway_order_id", n.OrderID),
			slog.String("transaction_id", n.TransactionID))
		return 0, payment.ErrInvalidSignature
	}

	// dedup best-effort; kalau Redis down kita tetap jalan, guard di DB yang
	// memastikan at-most-once.
	dkey := fmt.Sprintf(redisx.KeyDedupWebhook, n.TransactionID, n.TransactionStatus)
	if s.Redis != nil && n.TransactionID != "" {
		if exists, err := redisx.Exists(ctx, s.Redis, dkey); err == nil && exists {
			metricsx.WebhookOutcomes.WithLabelValues("replayed").Inc()
			return AckAlreadyApplied, nil
		}
	}

	o, err := s.Store.FindByGatewayOrderID(ctx, n.OrderID)
	if errors.Is(err, orders.ErrOrderNotFound) {
		// permanen tidak bisa di-match; ack supaya gateway berhenti retry
		metricsx.WebhookOutcomes.WithLabelValues("unmatched").Inc()
		s.Logger.Warn("webhook for unknown order",
			slog.String("gateway_order_id", n.OrderID))
		return AckUnmatched, nil
	}
	if err != nil {
		return 0, err
	}

	outcome := payment.MapStatus(n.TransactionStatus, n.FraudStatus)
	ack, err := s.apply(ctx, o, n, outcome)
	if err != nil {
		if errors.Is(err, orders.ErrInvalidTransition) {
			// order sudah terminal; duplicate/out-of-order notification,
			// perlakukan sebagai sudah diterapkan
			metricsx.WebhookOutcomes.WithLabelValues("replayed").Inc()
			s.Logger.Info("webhook on terminal order treated as applied",
				slog.String("order_id", o.OrderID),
				slog.String("transaction_status", n.TransactionStatus))
			return AckAlreadyApplied, nil
		}
		metricsx.WebhookOutcomes.WithLabelValues("error").Inc()
		return 0, err
	}

	if s.Redis != nil && n.TransactionID != "" {
		_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	}
	s.cacheStatus(ctx, o.OrderID)
	return ack, nil
}

func (s *Service) apply(ctx context.Context, o *orders.Order, n payment.Notification, out payment.Outcome) (Ack, error) {
	switch out.Kind {
	case payment.OutcomeSettled:
		res, err := s.Store.ApplySettlement(ctx, o.OrderID, n.TransactionID, n.PaymentType)
		if err != nil {
			return 0, err
		}
		for _, pid := range res.Oversold {
			metricsx.StockOversold.Inc()
			s.Logger.Error("stock oversold at settlement, clamped to zero",
				slog.String("order_id", o.OrderID),
				slog.String("product_id", pid))
		}
		for _, pid := range res.Depleted {
			s.Logger.Info("stock depleted",
				slog.String("order_id", o.OrderID),
				slog.String("product_id", pid))
		}
		if !res.StockApplied {
			// replay: status dan stok sudah diterapkan sebelumnya, jangan
			// publish order.paid lagi (event id baru lolos dedup notifier)
			metricsx.WebhookOutcomes.WithLabelValues("replayed").Inc()
			return AckAlreadyApplied, nil
		}
		metricsx.WebhookOutcomes.WithLabelValues("applied").Inc()
		s.publishPaid(res.Order, n)
		return AckApplied, nil

	case payment.OutcomeChallenge, payment.OutcomePending:
		_, err := s.Store.ApplyStatus(ctx, o.OrderID, orders.StatusPending, orders.PaymentPending, n.TransactionID, n.PaymentType)
		if err != nil {
			return 0, err
		}
		metricsx.WebhookOutcomes.WithLabelValues("applied").Inc()
		return AckApplied, nil

	case payment.OutcomeFailed:
		upd, err := s.Store.ApplyStatus(ctx, o.OrderID, orders.StatusCancelled, orders.PaymentFailed, n.TransactionID, n.PaymentType)
		if err != nil {
			return 0, err
		}
		metricsx.WebhookOutcomes.WithLabelValues("applied").Inc()
		s.publishCancelled(upd, out.Reason)
		return AckApplied, nil

	case payment.OutcomeRefunded:
		_, err := s.Store.ApplyStatus(ctx, o.OrderID, orders.StatusRefunded, orders.PaymentRefunded, n.TransactionID, n.PaymentType)
		if err != nil {
			return 0, err
		}
		metricsx.WebhookOutcomes.WithLabelValues("applied").Inc()
		return AckApplied, nil

	default: // OutcomeUnrecognized
		metricsx.WebhookOutcomes.WithLabelValues("unrecognized").Inc()
		s.Logger.Warn("unrecognized transaction status, no state change",
			slog.String("order_id", o.OrderID),
			slog.String("raw_status", out.Raw))
		return AckUnrecognized, nil
	}
}

func (s *Service) publishPaid(o *orders.Order, n payment.Notification) {
	if s.ProducerPaid == nil || o == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderPaid,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		CorrelationID: o.OrderID,
		Payload: kafkax.MustMarshal(orders.OrderPaidPayload{
			OrderID:       o.OrderID,
			TransactionID: n.TransactionID,
			PaymentMethod: n.PaymentType,
			TotalCents:    o.TotalCents,
			PickupCode:    o.PickupCode,
			CustomerName:  o.Customer.Name,
			CustomerPhone: o.Customer.Phone,
		}),
	}
	s.ProducerPaid.Publish(orders.PartitionKey(o.OrderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderPaid)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (s *Service) publishCancelled(o *orders.Order, reason string) {
	if s.ProducerCancel == nil || o == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderCancelled,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		CorrelationID: o.OrderID,
		Payload: kafkax.MustMarshal(orders.OrderCancelledPayload{
			OrderID: o.OrderID,
			Reason:  reason,
		}),
	}
	s.ProducerCancel.Publish(orders.PartitionKey(o.OrderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderCancelled)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (s *Service) cacheStatus(ctx context.Context, orderID string) {
	if s.Redis == nil {
		return
	}
	o, err := s.Store.FindByGatewayOrderID(ctx, orderID)
	if err != nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, o.OrderID)
	body := fmt.Sprintf(`{"status":%q,"payment_status":%q}`, o.Status, o.PaymentStatus)
	_ = s.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err()
}
