package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// SettlementResult melaporkan apa yang benar-benar terjadi supaya caller
// (reconciler) bisa membedakan "apply pertama" dari replay.
type SettlementResult struct {
	Order        *Order
	StockApplied bool     // true hanya pada apply pertama
	Depleted     []string // product id yang stoknya habis karena settlement ini
	Oversold     []string // product id yang stoknya sudah keburu habis (di-clamp ke 0)
}

// ApplySettlement: status -> paid/paid plus decrement stok at-most-once.
// Guard stock_reduced di-CAS dalam tx yang sama dengan update status, jadi
// dua webhook settlement yang balapan tidak mungkin decrement dua kali.
func (r *Repo) ApplySettlement(ctx context.Context, orderID, transactionID, paymentMethod string) (*SettlementResult, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var cur Status
	var curPay PaymentStatus
	var pk string
	err = tx.QueryRow(ctx, `SELECT id, status, payment_status FROM orders WHERE order_id=$1 FOR UPDATE`, orderID).
		Scan(&pk, &cur, &curPay)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if !CanTransition(cur, StatusPaid) || !CanTransitionPayment(curPay, PaymentPaid) {
		return nil, fmt.Errorf("%w: %s/%s -> paid/paid", ErrInvalidTransition, cur, curPay)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE orders SET status='paid', payment_status='paid',
		       midtrans_transaction_id=$2, payment_method=$3, updated_at=now()
		WHERE id=$1`, pk, transactionID, paymentMethod); err != nil {
		return nil, err
	}

	// CAS guard: baris hanya ter-update kalau stock_reduced masih false.
	ct, err := tx.Exec(ctx, `UPDATE orders SET stock_reduced=true WHERE id=$1 AND stock_reduced=false`, pk)
	if err != nil {
		return nil, err
	}

	res := &SettlementResult{StockApplied: ct.RowsAffected() == 1}
	if res.StockApplied {
		rows, err := tx.Query(ctx, `SELECT product_id, quantity FROM order_items WHERE order_pk=$1`, pk)
		if err != nil {
			return nil, err
		}
		type line struct {
			pid string
			qty int
		}
		var lines []line
		for rows.Next() {
			var l line
			if err := rows.Scan(&l.pid, &l.qty); err != nil {
				rows.Close()
				return nil, err
			}
			lines = append(lines, l)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}

		for _, l := range lines {
			err := decrementStock(ctx, tx, l.pid, l.qty)
			if err == nil {
				var stock int
				if err := tx.QueryRow(ctx, `SELECT stock FROM products WHERE id=$1`, l.pid).Scan(&stock); err != nil {
					return nil, err
				}
				if stock == 0 {
					res.Depleted = append(res.Depleted, l.pid)
				}
				continue
			}
			// Uang sudah diterima; stok yang keburu habis karena order lain
			// di-clamp ke 0 dan dilaporkan, order tetap paid. Lihat DESIGN.md.
			if IsInsufficientStock(err) {
				if _, cerr := tx.Exec(ctx, `
					UPDATE products SET stock=0, status='sold', is_available=false, updated_at=now()
					WHERE id=$1`, l.pid); cerr != nil {
					return nil, cerr
				}
				res.Oversold = append(res.Oversold, l.pid)
				continue
			}
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	o, err := r.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	res.Order = o
	return res, nil
}

// ApplyStatus utk mapping non-settlement (pending, cancelled, refunded).
// Tidak menyentuh stok. Transisi dari terminal = ErrInvalidTransition; caller
// webhook memperlakukannya sebagai "sudah diterapkan".
func (r *Repo) ApplyStatus(ctx context.Context, orderID string, status Status, pay PaymentStatus, transactionID, paymentMethod string) (*Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var cur Status
	var curPay PaymentStatus
	var pk string
	err = tx.QueryRow(ctx, `SELECT id, status, payment_status FROM orders WHERE order_id=$1 FOR UPDATE`, orderID).
		Scan(&pk, &cur, &curPay)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if !CanTransition(cur, status) || !CanTransitionPayment(curPay, pay) {
		return nil, fmt.Errorf("%w: %s/%s -> %s/%s", ErrInvalidTransition, cur, curPay, status, pay)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE orders SET status=$2, payment_status=$3,
		       midtrans_transaction_id = CASE WHEN $4 <> '' THEN $4 ELSE midtrans_transaction_id END,
		       payment_method = CASE WHEN $5 <> '' THEN $5 ELSE payment_method END,
		       updated_at=now()
		WHERE id=$1`, pk, status, pay, transactionID, paymentMethod); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetByOrderID(ctx, orderID)
}

// ConfirmPickup: transisi satu arah, satu UPDATE kondisional supaya dua
// konfirmasi yang balapan cuma satu yang menang. Kalau tidak ada baris yang
// ter-update, baca ulang utk membedakan AlreadyPickedUp vs NotReady.
func (r *Repo) ConfirmPickup(ctx context.Context, orderID, pickedUpBy string, now time.Time) (*Order, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders
		SET pickup_status='picked_up', picked_up_by=$2, picked_up_at=$3,
		    status='completed', updated_at=now()
		WHERE order_id=$1
		  AND pickup_status='pending'
		  AND status IN ('paid','ready_pickup')`, orderID, pickedUpBy, now)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() == 1 {
		return r.GetByOrderID(ctx, orderID)
	}

	o, err := r.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.PickupStatus == PickupDone {
		return nil, ErrAlreadyPickedUp
	}
	return nil, fmt.Errorf("%w: status is %s", ErrNotReadyForPickup, o.Status)
}

// ListProducts: katalog yang masih bisa dibeli.
func (r *Repo) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, artist, category, price_cents, stock, sold_count, is_available, status, created_at, updated_at
		FROM products
		WHERE is_available = true
		ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Artist, &p.Category, &p.PriceCents, &p.Stock,
			&p.SoldCount, &p.IsAvailable, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
