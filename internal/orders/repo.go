package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ItemInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type Repo struct{ DB *pgxpool.Pool }

const orderColumns = `id, order_id, customer_name, customer_email, customer_phone,
	total_cents, status, payment_status, payment_method, snap_token, redirect_url,
	midtrans_transaction_id, midtrans_order_ids, stock_reduced,
	pickup_code, pickup_status, picked_up_by, picked_up_at, created_at, updated_at`

// CreateOrder: validasi stok + snapshot harga + insert order dalam satu tx.
// Flow online TIDAK menyentuh stok di sini (decrement terjadi saat webhook
// settlement). Flow pay-at-store decrement langsung, atomik per baris produk.
func (r *Repo) CreateOrder(ctx context.Context, customer CustomerInfo, items []ItemInput, payAtStore bool) (*Order, error) {
	if err := ValidateCreateInput(customer, items); err != nil {
		return nil, err
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// ambil snapshot produk; harga dari DB, jangan trust client
	ids := make([]any, 0, len(items))
	params := ""
	for i, it := range items {
		if i > 0 {
			params += ","
		}
		params += fmt.Sprintf("$%d", i+1)
		ids = append(ids, it.ProductID)
	}
	rows, err := tx.Query(ctx, `SELECT id, name, artist, category, price_cents, stock
	                            FROM products WHERE id IN (`+params+`)`, ids...)
	if err != nil {
		return nil, err
	}
	type snap struct {
		name, artist, category string
		price                  int64
		stock                  int
	}
	snaps := map[string]snap{}
	for rows.Next() {
		var id string
		var s snap
		if err := rows.Scan(&id, &s.name, &s.artist, &s.category, &s.price, &s.stock); err != nil {
			rows.Close()
			return nil, err
		}
		snaps[id] = s
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	o := &Order{
		ID:            uuid.NewString(),
		Customer:      customer,
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		PickupCode:    NewPickupCode(),
		PickupStatus:  PickupPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, it := range items {
		s, ok := snaps[it.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, it.ProductID)
		}
		if s.stock < it.Quantity {
			return nil, &InsufficientStockError{
				ProductID: it.ProductID, Name: s.name,
				Requested: it.Quantity, Available: s.stock,
			}
		}
		o.Items = append(o.Items, OrderItem{
			ProductID:  it.ProductID,
			Name:       s.name,
			Artist:     s.artist,
			Category:   s.category,
			Quantity:   it.Quantity,
			PriceCents: s.price,
		})
		o.TotalCents += s.price * int64(it.Quantity)
	}

	if payAtStore {
		o.PaymentMethod = "Pay at Store"
		o.StockReduced = true
	}

	// order_id random suffix bisa tabrakan di hari yang sama; ON CONFLICT DO
	// NOTHING supaya tx tidak abort, regenerate lalu coba lagi beberapa kali.
	inserted := false
	for attempt := 0; attempt < 4 && !inserted; attempt++ {
		o.OrderID = NewOrderID(now)
		ct, err := tx.Exec(ctx, `
			INSERT INTO orders(id, order_id, customer_name, customer_email, customer_phone,
			                   total_cents, status, payment_status, payment_method,
			                   midtrans_order_ids, stock_reduced,
			                   pickup_code, pickup_status, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$14)
			ON CONFLICT (order_id) DO NOTHING`,
			o.ID, o.OrderID, customer.Name, customer.Email, customer.Phone,
			o.TotalCents, o.Status, o.PaymentStatus, o.PaymentMethod,
			[]string{o.OrderID}, o.StockReduced,
			o.PickupCode, o.PickupStatus, now,
		)
		if err != nil {
			return nil, err
		}
		inserted = ct.RowsAffected() == 1
	}
	if !inserted {
		return nil, fmt.Errorf("generate order id: too many collisions")
	}
	o.MidtransOrderIDs = []string{o.OrderID}

	for _, it := range o.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(order_pk, product_id, name, artist, category, quantity, price_cents)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			o.ID, it.ProductID, it.Name, it.Artist, it.Category, it.Quantity, it.PriceCents,
		); err != nil {
			return nil, err
		}
	}

	if payAtStore {
		for _, it := range o.Items {
			if err := decrementStock(ctx, tx, it.ProductID, it.Quantity); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

// decrementStock: satu UPDATE kondisional, bukan read-then-write. Rows
// affected 0 = stok kurang.
func decrementStock(ctx context.Context, tx pgx.Tx, productID string, qty int) error {
	ct, err := tx.Exec(ctx, `
		UPDATE products
		SET stock = stock - $2,
		    sold_count = sold_count + $2,
		    status = CASE WHEN stock - $2 <= 0 THEN 'sold' ELSE status END,
		    is_available = (stock - $2 > 0),
		    updated_at = now()
		WHERE id = $1 AND stock >= $2`, productID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		var name string
		var stock int
		if err := tx.QueryRow(ctx, `SELECT name, stock FROM products WHERE id=$1`, productID).Scan(&name, &stock); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: %s", ErrProductNotFound, productID)
			}
			return err
		}
		return &InsufficientStockError{ProductID: productID, Name: name, Requested: qty, Available: stock}
	}
	return nil
}

func (r *Repo) GetByOrderID(ctx context.Context, orderID string) (*Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_id=$1`, orderID)
}

// GetByPickupCode: code 6 digit bisa tabrakan antar order lama; ambil yang
// paling baru yang belum selesai dulu, fallback ke yang terbaru.
func (r *Repo) GetByPickupCode(ctx context.Context, code string) (*Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE pickup_code=$1
	                      ORDER BY (pickup_status = 'pending') DESC, created_at DESC
	                      LIMIT 1`, code)
}

// FindByGatewayOrderID: notifikasi bisa membawa order_id attempt mana pun
// (retry payment mint id baru per attempt), plus transaction_id.
func (r *Repo) FindByGatewayOrderID(ctx context.Context, gatewayID string) (*Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders
	                      WHERE order_id=$1
	                         OR midtrans_transaction_id=$1
	                         OR $1 = ANY(midtrans_order_ids)
	                      LIMIT 1`, gatewayID)
}

func (r *Repo) getOne(ctx context.Context, q string, args ...any) (*Order, error) {
	row := r.DB.QueryRow(ctx, q, args...)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.OrderID, &o.Customer.Name, &o.Customer.Email, &o.Customer.Phone,
		&o.TotalCents, &o.Status, &o.PaymentStatus, &o.PaymentMethod, &o.SnapToken, &o.RedirectURL,
		&o.MidtransTransactionID, &o.MidtransOrderIDs, &o.StockReduced,
		&o.PickupCode, &o.PickupStatus, &o.PickedUpBy, &o.PickedUpAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repo) loadItems(ctx context.Context, o *Order) error {
	rows, err := r.DB.Query(ctx, `SELECT product_id, name, artist, category, quantity, price_cents
	                              FROM order_items WHERE order_pk=$1`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Artist, &it.Category, &it.Quantity, &it.PriceCents); err != nil {
			return err
		}
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}

type ListFilter struct {
	Status        Status
	PaymentStatus PaymentStatus
	Limit         int
	Offset        int
}

func (r *Repo) List(ctx context.Context, f ListFilter) ([]Order, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	q := `SELECT ` + orderColumns + ` FROM orders`
	args := []any{}
	where := ""
	if f.Status != "" {
		args = append(args, f.Status)
		where = fmt.Sprintf(" WHERE status=$%d", len(args))
	}
	if f.PaymentStatus != "" {
		args = append(args, f.PaymentStatus)
		if where == "" {
			where = fmt.Sprintf(" WHERE payment_status=$%d", len(args))
		} else {
			where += fmt.Sprintf(" AND payment_status=$%d", len(args))
		}
	}
	args = append(args, f.Limit, f.Offset)
	q += where + fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := r.loadItems(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// SetPaymentSession simpan token snap + catat gateway order id attempt ini
// (append kalau belum ada di list).
func (r *Repo) SetPaymentSession(ctx context.Context, orderID, gatewayOrderID, token, redirectURL string) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders
		SET snap_token = $2,
		    redirect_url = $3,
		    midtrans_order_ids = CASE WHEN $4 = ANY(midtrans_order_ids)
		                              THEN midtrans_order_ids
		                              ELSE array_append(midtrans_order_ids, $4) END,
		    updated_at = now()
		WHERE order_id = $1`, orderID, token, redirectURL, gatewayOrderID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}
