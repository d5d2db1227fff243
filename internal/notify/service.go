package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/satriohadi/go-record-store/internal/kafka"
	"github.com/satriohadi/go-record-store/internal/orders"
	"github.com/satriohadi/go-record-store/internal/redisx"
)

// Notifier kirim pesan ke customer. Format pesan & transport (WhatsApp dsb)
// di luar core ini; default cuma log.
type Notifier interface {
	OrderPaid(ctx context.Context, p orders.OrderPaidPayload) error
	OrderPickedUp(ctx context.Context, p orders.OrderPickedUpPayload) error
}

type LogNotifier struct{ Logger *slog.Logger }

func (n *LogNotifier) OrderPaid(_ context.Context, p orders.OrderPaidPayload) error {
	n.Logger.Info("notify: order paid, ready for pickup",
		slog.String("order_id", p.OrderID),
		slog.String("customer", p.CustomerName),
		slog.String("phone", p.CustomerPhone),
		slog.String("pickup_code", p.PickupCode))
	return nil
}

func (n *LogNotifier) OrderPickedUp(_ context.Context, p orders.OrderPickedUpPayload) error {
	n.Logger.Info("notify: order picked up",
		slog.String("order_id", p.OrderID),
		slog.String("picked_up_by", p.PickedUpBy))
	return nil
}

// Service dipasang sebagai handler consumer utk topic order.paid dan
// order.picked_up.
type Service struct {
	Notifier Notifier
	Redis    *redis.Client
	Logger   *slog.Logger
}

func (s *Service) HandleEvent(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// pesan rusak tidak akan membaik kalau di-retry; log lalu commit
		s.Logger.Error("drop undecodable event", slog.String("error", err.Error()))
		return nil
	}

	// dedup via event_id; consumer group bisa redeliver setelah rebalance
	if s.Redis != nil {
		dkey := fmt.Sprintf(redisx.KeyDedupNotifier, env.EventID)
		if exists, err := redisx.Exists(ctx, s.Redis, dkey); err == nil && exists {
			return nil
		}
		defer func() { _ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err() }()
	}

	switch env.EventType {
	case orders.EventOrderPaid:
		p, err := kafkax.UnwrapPayload[orders.OrderPaidPayload](env.Payload)
		if err != nil {
			s.Logger.Error("drop event with bad payload",
				slog.String("event_type", env.EventType),
				slog.String("error", err.Error()))
			return nil
		}
		return s.Notifier.OrderPaid(ctx, p)
	case orders.EventOrderPickedUp:
		p, err := kafkax.UnwrapPayload[orders.OrderPickedUpPayload](env.Payload)
		if err != nil {
			s.Logger.Error("drop event with bad payload",
				slog.String("event_type", env.EventType),
				slog.String("error", err.Error()))
			return nil
		}
		return s.Notifier.OrderPickedUp(ctx, p)
	default:
		return nil // topic lain bukan urusan notifier
	}
}
