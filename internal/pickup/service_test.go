package pickup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/satriohadi/go-record-store/internal/orders"
)

// fakeStore meniru semantik ConfirmPickup repo: satu UPDATE kondisional,
// pembeda AlreadyPickedUp vs NotReady dari state order.
type fakeStore struct {
	order   *orders.Order
	lookups int
}

func (f *fakeStore) GetByOrderID(_ context.Context, orderID string) (*orders.Order, error) {
	if f.order == nil || f.order.OrderID != orderID {
		return nil, orders.ErrOrderNotFound
	}
	cp := *f.order
	return &cp, nil
}

func (f *fakeStore) GetByPickupCode(_ context.Context, code string) (*orders.Order, error) {
	f.lookups++
	if f.order == nil || f.order.PickupCode != code {
		return nil, orders.ErrOrderNotFound
	}
	cp := *f.order
	return &cp, nil
}

func (f *fakeStore) ConfirmPickup(_ context.Context, orderID, by string, now time.Time) (*orders.Order, error) {
	o := f.order
	if o == nil || o.OrderID != orderID {
		return nil, orders.ErrOrderNotFound
	}
	if o.PickupStatus == orders.PickupPending && orders.EligibleForPickup(o.Status) {
		o.PickupStatus = orders.PickupDone
		o.PickedUpBy = by
		o.PickedUpAt = &now
		o.Status = orders.StatusCompleted
		cp := *o
		return &cp, nil
	}
	if o.PickupStatus == orders.PickupDone {
		return nil, orders.ErrAlreadyPickedUp
	}
	return nil, fmt.Errorf("%w: status is %s", orders.ErrNotReadyForPickup, o.Status)
}

func paidOrder() *orders.Order {
	return &orders.Order{
		OrderID:       "ORD-20250314-0042",
		Customer:      orders.CustomerInfo{Name: "Jane", Email: "jane@example.com", Phone: "0812"},
		Status:        orders.StatusPaid,
		PaymentStatus: orders.PaymentPaid,
		PickupCode:    "654321",
		PickupStatus:  orders.PickupPending,
	}
}

func newService(store *fakeStore) *Service {
	return &Service{
		Store:  store,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestConfirm(t *testing.T) {
	store := &fakeStore{order: paidOrder()}
	svc := newService(store)

	o, err := svc.Confirm(context.Background(), "ORD-20250314-0042", "Jane")
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if o.Status != orders.StatusCompleted {
		t.Errorf("status = %s, want completed", o.Status)
	}
	if o.PickupStatus != orders.PickupDone || o.PickedUpBy != "Jane" || o.PickedUpAt == nil {
		t.Errorf("pickup fields not set: %+v", o)
	}
}

func TestConfirmTwice(t *testing.T) {
	store := &fakeStore{order: paidOrder()}
	svc := newService(store)

	first, err := svc.Confirm(context.Background(), "ORD-20250314-0042", "Jane")
	if err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	firstAt := *first.PickedUpAt

	_, err = svc.Confirm(context.Background(), "ORD-20250314-0042", "Budi")
	if !errors.Is(err, orders.ErrAlreadyPickedUp) {
		t.Fatalf("second confirm: expected ErrAlreadyPickedUp, got %v", err)
	}
	if !store.order.PickedUpAt.Equal(firstAt) || store.order.PickedUpBy != "Jane" {
		t.Errorf("second confirm changed pickup fields: %+v", store.order)
	}
}

func TestConfirmNotReady(t *testing.T) {
	o := paidOrder()
	o.Status = orders.StatusPending
	o.PaymentStatus = orders.PaymentPending
	store := &fakeStore{order: o}
	svc := newService(store)

	_, err := svc.Confirm(context.Background(), "ORD-20250314-0042", "Jane")
	if !errors.Is(err, orders.ErrNotReadyForPickup) {
		t.Fatalf("expected ErrNotReadyForPickup, got %v", err)
	}
	if store.order.PickupStatus != orders.PickupPending {
		t.Errorf("pickup status mutated on rejection")
	}
}

func TestConfirmRequiresName(t *testing.T) {
	store := &fakeStore{order: paidOrder()}
	svc := newService(store)

	_, err := svc.Confirm(context.Background(), "ORD-20250314-0042", "")
	if !errors.Is(err, orders.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestConfirmReadyPickupAlias(t *testing.T) {
	o := paidOrder()
	o.Status = orders.StatusReadyPickup
	store := &fakeStore{order: o}
	svc := newService(store)

	got, err := svc.Confirm(context.Background(), "ORD-20250314-0042", "Jane")
	if err != nil {
		t.Fatalf("ready_pickup order must be confirmable: %v", err)
	}
	if got.Status != orders.StatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
}

func TestLookup(t *testing.T) {
	store := &fakeStore{order: paidOrder()}
	svc := newService(store)

	o, err := svc.Lookup(context.Background(), "654321")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if o.OrderID != "ORD-20250314-0042" {
		t.Errorf("wrong order: %s", o.OrderID)
	}

	t.Run("unknown code", func(t *testing.T) {
		if _, err := svc.Lookup(context.Background(), "000000"); !errors.Is(err, orders.ErrOrderNotFound) {
			t.Errorf("expected ErrOrderNotFound, got %v", err)
		}
	})

	t.Run("bad code shape skips store", func(t *testing.T) {
		before := store.lookups
		if _, err := svc.Lookup(context.Background(), "12-45!"); !errors.Is(err, orders.ErrOrderNotFound) {
			t.Errorf("expected ErrOrderNotFound, got %v", err)
		}
		if _, err := svc.Lookup(context.Background(), "1234"); !errors.Is(err, orders.ErrOrderNotFound) {
			t.Errorf("expected ErrOrderNotFound, got %v", err)
		}
		if store.lookups != before {
			t.Errorf("store queried for malformed code")
		}
	})
}
