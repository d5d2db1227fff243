package orders

import (
	"errors"
	"testing"
)

func TestValidateCreateInput(t *testing.T) {
	customer := CustomerInfo{Name: "Jane", Email: "jane@example.com", Phone: "0812000111"}
	items := []ItemInput{{ProductID: "p1", Quantity: 1}}

	if err := ValidateCreateInput(customer, items); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	cases := []struct {
		name     string
		customer CustomerInfo
		items    []ItemInput
	}{
		{"empty items", customer, nil},
		{"missing name", CustomerInfo{Email: "a@b.c", Phone: "1"}, items},
		{"missing email", CustomerInfo{Name: "a", Phone: "1"}, items},
		{"missing phone", CustomerInfo{Name: "a", Email: "a@b.c"}, items},
		{"zero quantity", customer, []ItemInput{{ProductID: "p1", Quantity: 0}}},
		{"missing product id", customer, []ItemInput{{Quantity: 1}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCreateInput(tc.customer, tc.items)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}
