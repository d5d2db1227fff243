package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Client bicara ke Snap API gateway. Hanya field yang core ini tulis/baca;
// wire format SDK selebihnya di luar scope.
type Client struct {
	BaseURL   string
	ServerKey string
	HTTP      *http.Client
}

func NewClient(baseURL, serverKey string) *Client {
	return &Client{
		BaseURL:   baseURL,
		ServerKey: serverKey,
		HTTP:      &http.Client{Timeout: 10 * time.Second},
	}
}

type Session struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

type snapItem struct {
	ID       string `json:"id"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Name     string `json:"name"`
}

type snapRequest struct {
	TransactionDetails struct {
		OrderID     string `json:"order_id"`
		GrossAmount int64  `json:"gross_amount"`
	} `json:"transaction_details"`
	ItemDetails     []snapItem `json:"item_details"`
	CustomerDetails struct {
		FirstName string `json:"first_name"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
	} `json:"customer_details"`
}

type SessionItem struct {
	ID       string
	Name     string
	Price    int64
	Quantity int
}

type SessionInput struct {
	GatewayOrderID string
	GrossAmount    int64
	Items          []SessionItem
	CustomerName   string
	CustomerEmail  string
	CustomerPhone  string
}

// CreateSession minta token pembayaran ke gateway. Timeout dipaksa di sini;
// timeout = gagal, order dibiarkan pending dan session bisa di-retry.
func (c *Client) CreateSession(ctx context.Context, in SessionInput) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var req snapRequest
	req.TransactionDetails.OrderID = in.GatewayOrderID
	req.TransactionDetails.GrossAmount = in.GrossAmount
	req.CustomerDetails.FirstName = in.CustomerName
	req.CustomerDetails.Email = in.CustomerEmail
	req.CustomerDetails.Phone = in.CustomerPhone
	for _, it := range in.Items {
		req.ItemDetails = append(req.ItemDetails, snapItem{
			ID: it.ID, Price: it.Price, Quantity: it.Quantity, Name: it.Name,
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/snap/v1/transactions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	// basic auth: server key sebagai username, password kosong
	httpReq.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(c.ServerKey+":")))

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("payment session request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("payment session request: gateway returned %s: %s",
			strconv.Itoa(resp.StatusCode), string(b))
	}

	var s Session
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("payment session decode: %w", err)
	}
	if s.Token == "" {
		return nil, fmt.Errorf("payment session decode: empty token")
	}
	return &s, nil
}
