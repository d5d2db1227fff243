package payment

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
)

// Signature notifikasi Midtrans: sha512 hex dari
// order_id + status_code + gross_amount + server_key.
func ComputeSignature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// VerifySignature constant-time; mismatch = security boundary, bukan
// transient failure.
func VerifySignature(orderID, statusCode, grossAmount, serverKey, got string) bool {
	want := ComputeSignature(orderID, statusCode, grossAmount, serverKey)
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}
