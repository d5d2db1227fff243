package payment

import "testing"

func TestVerifySignature(t *testing.T) {
	const serverKey = "SB-Mid-server-test"

	sig := ComputeSignature("ORD-20250314-0042", "200", "250000.00", serverKey)

	if !VerifySignature("ORD-20250314-0042", "200", "250000.00", serverKey, sig) {
		t.Error("valid signature rejected")
	}

	t.Run("tampered gross amount", func(t *testing.T) {
		if VerifySignature("ORD-20250314-0042", "200", "1.00", serverKey, sig) {
			t.Error("signature over original amount must not verify tampered amount")
		}
	})

	t.Run("wrong server key", func(t *testing.T) {
		if VerifySignature("ORD-20250314-0042", "200", "250000.00", "other-key", sig) {
			t.Error("signature must be bound to server key")
		}
	})

	t.Run("empty signature", func(t *testing.T) {
		if VerifySignature("ORD-20250314-0042", "200", "250000.00", serverKey, "") {
			t.Error("empty signature accepted")
		}
	})
}
