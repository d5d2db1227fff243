package orders

import "time"

// Product = satu item fisik di katalog (vinyl/CD/kaset). Kebanyakan barang
// collectible stoknya 1; begitu stock habis, status jadi sold dan tidak ada
// jalur restock.
type Product struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Artist      string        `json:"artist"`
	Category    string        `json:"category"` // vinyl | cd | cassette
	PriceCents  int64         `json:"price_cents"`
	Stock       int           `json:"stock"`
	SoldCount   int           `json:"sold_count"`
	IsAvailable bool          `json:"is_available"`
	Status      ProductStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type ProductStatus string

const (
	ProductForSale      ProductStatus = "for_sale"
	ProductInCollection ProductStatus = "in_collection"
	ProductSold         ProductStatus = "sold"
)

type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// OrderItem = snapshot item saat order dibuat. Denormalized: perubahan
// katalog setelahnya tidak boleh mengubah order historis.
type OrderItem struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	Artist     string `json:"artist"`
	Category   string `json:"category"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"` // harga satuan saat order
}

type Order struct {
	ID            string        `json:"id"`       // uuid internal
	OrderID       string        `json:"order_id"` // ORD-YYYYMMDD-NNNN, dipakai keluar
	Items         []OrderItem   `json:"items"`
	Customer      CustomerInfo  `json:"customer"`
	TotalCents    int64         `json:"total_cents"` // dihitung sekali saat create
	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaymentMethod string        `json:"payment_method,omitempty"`
	SnapToken     string        `json:"snap_token,omitempty"`
	RedirectURL   string        `json:"redirect_url,omitempty"`

	// Korelasi gateway: satu logical order bisa punya beberapa gateway order id
	// karena retry payment mint id baru per attempt.
	MidtransTransactionID string   `json:"midtrans_transaction_id,omitempty"`
	MidtransOrderIDs      []string `json:"midtrans_order_ids,omitempty"`

	// Guard supaya replay webhook tidak decrement stok dua kali.
	StockReduced bool `json:"stock_reduced"`

	PickupCode   string       `json:"pickup_code"`
	PickupStatus PickupStatus `json:"pickup_status"`
	PickedUpBy   string       `json:"picked_up_by,omitempty"`
	PickedUpAt   *time.Time   `json:"picked_up_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
