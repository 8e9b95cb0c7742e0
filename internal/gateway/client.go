package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Client talks to the payment gateway's REST API. Inbound money arrives
// via webhooks; this client covers the outbound direction, currently
// refund requests after a cancellation.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type refundRequest struct {
	BookingID     string `json:"booking_id"`
	TransactionID string `json:"transaction_id"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
}

// RequestRefund asks the gateway to return amount to the payer. The
// transaction id is our idempotency key, so retries are safe; the
// gateway confirms the actual money movement via webhook later.
func (c *Client) RequestRefund(ctx context.Context, bookingID uuid.UUID, transactionID string, amount decimal.Decimal) error {
	body, err := json.Marshal(refundRequest{
		BookingID:     bookingID.String(),
		TransactionID: transactionID,
		Amount:        amount.StringFixed(2),
		Currency:      "INR",
	})
	if err != nil {
		return fmt.Errorf("gateway: marshal refund request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/refunds", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("gateway: build refund request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Idempotency-Key", transactionID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway: refund request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("gateway: refund request returned %d: %s", resp.StatusCode, payload)
	}
	return nil
}
