package orders

import (
	"regexp"
	"testing"
	"time"
)

func TestNewOrderID(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	re := regexp.MustCompile(`^ORD-20250314-\d{4}$`)
	for i := 0; i < 50; i++ {
		id := NewOrderID(now)
		if !re.MatchString(id) {
			t.Fatalf("bad order id format: %s", id)
		}
	}
}

func TestNewPickupCode(t *testing.T) {
	re := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 50; i++ {
		code := NewPickupCode()
		if !re.MatchString(code) {
			t.Fatalf("bad pickup code format: %s", code)
		}
	}
}

func TestRetryOrderID(t *testing.T) {
	got := RetryOrderID("ORD-20250314-0042", 2)
	if got != "ORD-20250314-0042-R2" {
		t.Fatalf("unexpected retry id: %s", got)
	}
}
