package orders

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// NewOrderID: ORD-YYYYMMDD-NNNN. Suffix 4 digit random; tabrakan di hari
// yang sama secara praktis diabaikan, unique index di DB yang jadi penjaga
// terakhir.
func NewOrderID(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%04d", now.Format("20060102"), randDigits(4))
}

// NewPickupCode: 6 digit, dipakai customer sebagai capability token di
// counter. Bukan secret kelas tinggi, tapi tetap crypto/rand.
func NewPickupCode() string {
	return fmt.Sprintf("%06d", randDigits(6))
}

func randDigits(n int) int64 {
	max := big.NewInt(1)
	for i := 0; i < n; i++ {
		max.Mul(max, big.NewInt(10))
	}
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		// crypto/rand gagal berarti environment rusak berat
		panic(err)
	}
	return v.Int64()
}

// RetryOrderID mint gateway order id baru per attempt pembayaran.
// Midtrans menolak reuse order_id utk transaksi baru.
func RetryOrderID(orderID string, attempt int) string {
	return fmt.Sprintf("%s-R%d", orderID, attempt)
}
