package payment

import "errors"

var ErrInvalidSignature = errors.New("invalid notification signature")

// Notification = payload webhook dari gateway, hanya field yang core ini
// baca. Field lain di body diabaikan.
type Notification struct {
	OrderID           string `json:"order_id"`
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status,omitempty"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	PaymentType       string `json:"payment_type,omitempty"`
}

func (n Notification) Valid() bool {
	return n.OrderID != "" && n.TransactionStatus != "" && n.StatusCode != "" &&
		n.GrossAmount != "" && n.SignatureKey != ""
}

// OutcomeKind = hasil mapping status gateway ke aksi internal. Tagged union
// kecil; status yang tidak dikenal jadi Unrecognized eksplisit, bukan diam-diam
// lewat begitu saja.
type OutcomeKind int

const (
	OutcomeSettled OutcomeKind = iota // paid/paid + decrement stok (guarded)
	OutcomeChallenge                  // capture tapi fraud challenge: tetap pending
	OutcomePending                    // menunggu pembayaran
	OutcomeFailed                     // cancel | deny | expire
	OutcomeRefunded
	OutcomeUnrecognized
)

type Outcome struct {
	Kind   OutcomeKind
	Raw    string // transaction_status apa adanya, utk logging Unrecognized
	Reason string // cancel/deny/expire utk OutcomeFailed
}

// MapStatus pure function: tidak ada side effect di sini, reconciler yang
// mengeksekusi hasilnya.
func MapStatus(transactionStatus, fraudStatus string) Outcome {
	switch transactionStatus {
	case "capture":
		switch fraudStatus {
		case "accept", "":
			return Outcome{Kind: OutcomeSettled, Raw: transactionStatus}
		case "challenge":
			return Outcome{Kind: OutcomeChallenge, Raw: transactionStatus}
		default:
			return Outcome{Kind: OutcomeUnrecognized, Raw: transactionStatus + "/" + fraudStatus}
		}
	case "settlement":
		return Outcome{Kind: OutcomeSettled, Raw: transactionStatus}
	case "cancel", "deny", "expire":
		return Outcome{Kind: OutcomeFailed, Raw: transactionStatus, Reason: transactionStatus}
	case "pending":
		return Outcome{Kind: OutcomePending, Raw: transactionStatus}
	case "refund", "partial_refund":
		return Outcome{Kind: OutcomeRefunded, Raw: transactionStatus}
	default:
		return Outcome{Kind: OutcomeUnrecognized, Raw: transactionStatus}
	}
}
