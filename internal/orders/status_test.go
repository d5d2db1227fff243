package orders

import "testing"

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusPending, StatusProcessing},
		{StatusPending, StatusPaid},
		{StatusPending, StatusCancelled},
		{StatusProcessing, StatusPaid},
		{StatusProcessing, StatusCancelled},
		{StatusPaid, StatusCompleted},
		{StatusPaid, StatusRefunded},
		{StatusPaid, StatusCancelled},
		{StatusReadyPickup, StatusCompleted},
	}
	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s allowed", tc.from, tc.to)
		}
	}

	denied := []struct{ from, to Status }{
		{StatusPending, StatusCompleted},
		{StatusProcessing, StatusCompleted},
		{StatusCancelled, StatusPaid},
		{StatusCompleted, StatusPaid},
		{StatusRefunded, StatusPending},
	}
	for _, tc := range denied {
		if CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s denied", tc.from, tc.to)
		}
	}
}

func TestTerminalClosure(t *testing.T) {
	terminals := []Status{StatusCompleted, StatusCancelled, StatusRefunded}
	targets := []Status{StatusPending, StatusProcessing, StatusPaid, StatusReadyPickup,
		StatusCompleted, StatusCancelled, StatusRefunded}

	for _, from := range terminals {
		if !IsTerminal(from) {
			t.Errorf("%s should be terminal", from)
		}
		for _, to := range targets {
			if from == to {
				continue // same-value write = no-op, bukan transisi
			}
			if CanTransition(from, to) {
				t.Errorf("terminal %s must not transition to %s", from, to)
			}
		}
	}
}

func TestPaymentStatusTerminal(t *testing.T) {
	if !CanTransitionPayment(PaymentPending, PaymentPaid) {
		t.Error("pending -> paid should be allowed")
	}
	if !CanTransitionPayment(PaymentPending, PaymentFailed) {
		t.Error("pending -> failed should be allowed")
	}
	for _, from := range []PaymentStatus{PaymentPaid, PaymentFailed, PaymentRefunded} {
		for _, to := range []PaymentStatus{PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded} {
			if from == to {
				continue
			}
			if CanTransitionPayment(from, to) {
				t.Errorf("terminal %s must not transition to %s", from, to)
			}
		}
	}
}

func TestEligibleForPickup(t *testing.T) {
	if !EligibleForPickup(StatusPaid) || !EligibleForPickup(StatusReadyPickup) {
		t.Error("paid and ready_pickup must be pickup-eligible")
	}
	for _, s := range []Status{StatusPending, StatusProcessing, StatusCompleted, StatusCancelled, StatusRefunded} {
		if EligibleForPickup(s) {
			t.Errorf("%s must not be pickup-eligible", s)
		}
	}
}
