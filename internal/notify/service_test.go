package notify

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/satriohadi/go-record-store/internal/kafka"
	"github.com/satriohadi/go-record-store/internal/orders"
)

type recordingNotifier struct {
	paid     []orders.OrderPaidPayload
	pickedUp []orders.OrderPickedUpPayload
}

func (r *recordingNotifier) OrderPaid(_ context.Context, p orders.OrderPaidPayload) error {
	r.paid = append(r.paid, p)
	return nil
}

func (r *recordingNotifier) OrderPickedUp(_ context.Context, p orders.OrderPickedUpPayload) error {
	r.pickedUp = append(r.pickedUp, p)
	return nil
}

func envelopeMessage(t *testing.T, eventType string, payload any) kafkago.Message {
	t.Helper()
	env := orders.Envelope{
		EventID:      "ev-1",
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     "store-api-test",
		Payload:      kafkax.MustMarshal(payload),
	}
	return kafkago.Message{Value: kafkax.MustMarshal(env)}
}

func newTestService(n Notifier) *Service {
	return &Service{
		Notifier: n,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestHandleEventOrderPaid(t *testing.T) {
	rec := &recordingNotifier{}
	svc := newTestService(rec)

	m := envelopeMessage(t, orders.EventOrderPaid, orders.OrderPaidPayload{
		OrderID: "ORD-20250314-0042", CustomerName: "Jane", PickupCode: "654321",
	})
	if err := svc.HandleEvent(context.Background(), m); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(rec.paid) != 1 || rec.paid[0].OrderID != "ORD-20250314-0042" {
		t.Errorf("paid notifications = %+v", rec.paid)
	}
}

func TestHandleEventOrderPickedUp(t *testing.T) {
	rec := &recordingNotifier{}
	svc := newTestService(rec)

	m := envelopeMessage(t, orders.EventOrderPickedUp, orders.OrderPickedUpPayload{
		OrderID: "ORD-20250314-0042", PickedUpBy: "Jane",
	})
	if err := svc.HandleEvent(context.Background(), m); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(rec.pickedUp) != 1 {
		t.Errorf("pickup notifications = %+v", rec.pickedUp)
	}
}

func TestHandleEventIgnoresOtherTypes(t *testing.T) {
	rec := &recordingNotifier{}
	svc := newTestService(rec)

	m := envelopeMessage(t, orders.EventOrderCreated, orders.OrderCreatedPayload{OrderID: "x"})
	if err := svc.HandleEvent(context.Background(), m); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(rec.paid) != 0 || len(rec.pickedUp) != 0 {
		t.Errorf("unexpected notifications for unrelated event")
	}
}

func TestHandleEventDropsGarbage(t *testing.T) {
	rec := &recordingNotifier{}
	svc := newTestService(rec)

	// pesan rusak harus di-drop (return nil) supaya offset tetap commit,
	// bukan diretry selamanya
	if err := svc.HandleEvent(context.Background(), kafkago.Message{Value: []byte("{broken")}); err != nil {
		t.Fatalf("garbage must be dropped, got %v", err)
	}

	bad := orders.Envelope{EventID: "ev-2", EventType: orders.EventOrderPaid, Payload: json.RawMessage(`"not an object"`)}
	if err := svc.HandleEvent(context.Background(), kafkago.Message{Value: kafkax.MustMarshal(bad)}); err != nil {
		t.Fatalf("bad payload must be dropped, got %v", err)
	}
	if len(rec.paid) != 0 {
		t.Errorf("notifier invoked for bad payload")
	}
}
