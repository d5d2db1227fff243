package pickup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/satriohadi/go-record-store/internal/kafka"
	"github.com/satriohadi/go-record-store/internal/metricsx"
	"github.com/satriohadi/go-record-store/internal/orders"
	"github.com/satriohadi/go-record-store/internal/redisx"
)

type OrderStore interface {
	GetByOrderID(ctx context.Context, orderID string) (*orders.Order, error)
	GetByPickupCode(ctx context.Context, code string) (*orders.Order, error)
	ConfirmPickup(ctx context.Context, orderID, pickedUpBy string, now time.Time) (*orders.Order, error)
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type Service struct {
	Store       OrderStore
	Redis       *redis.Client
	Producer    Publisher
	ServiceName string
	Logger      *slog.Logger
	Now         func() time.Time // nil = time.Now
}

// Lookup by pickup code: code-nya sendiri yang jadi capability, tidak perlu
// auth utk view. Mutasi confirm tetap staff-only (di handler).
func (s *Service) Lookup(ctx context.Context, code string) (*orders.Order, error) {
	if len(code) != 6 {
		return nil, orders.ErrOrderNotFound
	}
	for _, c := range code {
		if (c < '0' || c > '9') && (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return nil, orders.ErrOrderNotFound
		}
	}

	// fast path cache; DB tetap source of truth
	if s.Redis != nil {
		key := fmt.Sprintf(redisx.KeyPickupCode, code)
		if id, err := s.Redis.Get(ctx, key).Result(); err == nil && id != "" {
			if o, err := s.Store.GetByOrderID(ctx, id); err == nil {
				return o, nil
			}
		}
	}

	o, err := s.Store.GetByPickupCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if s.Redis != nil {
		key := fmt.Sprintf(redisx.KeyPickupCode, code)
		_ = s.Redis.Set(ctx, key, o.OrderID, redisx.TTLPickupCache).Err()
	}
	return o, nil
}

// Confirm: transisi one-way ke picked_up + completed. AlreadyPickedUp dan
// NotReadyForPickup dibedakan eksplisit; UI counter harus menampilkan keduanya
// berbeda dari sukses.
func (s *Service) Confirm(ctx context.Context, orderID, pickedUpBy string) (*orders.Order, error) {
	if pickedUpBy == "" {
		return nil, fmt.Errorf("%w: picked_up_by is required", orders.ErrInvalidInput)
	}
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now()
	}

	o, err := s.Store.ConfirmPickup(ctx, orderID, pickedUpBy, now)
	if err != nil {
		return nil, err
	}

	metricsx.PickupConfirmed.Inc()
	if s.Logger != nil {
		s.Logger.Info("order picked up",
			slog.String("order_id", o.OrderID),
			slog.String("picked_up_by", pickedUpBy))
	}
	s.publishPickedUp(o, now)
	s.invalidateStatus(ctx, o.OrderID)
	return o, nil
}

func (s *Service) publishPickedUp(o *orders.Order, at time.Time) {
	if s.Producer == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderPickedUp,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		CorrelationID: o.OrderID,
		Payload: kafkax.MustMarshal(orders.OrderPickedUpPayload{
			OrderID:    o.OrderID,
			PickedUpBy: o.PickedUpBy,
			PickedUpAt: at,
		}),
	}
	s.Producer.Publish(orders.PartitionKey(o.OrderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderPickedUp)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (s *Service) invalidateStatus(ctx context.Context, orderID string) {
	if s.Redis == nil {
		return
	}
	_ = s.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrderStatus, orderID)).Err()
}
