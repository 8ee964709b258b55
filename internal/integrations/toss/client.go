package toss

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type Config struct {
	BaseURL string
}

// Client talks to the Toss payments confirmation API. The secret key is
// passed per call because each tenant subdomain carries its own credential.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// APIError is a non-2xx gateway response. Body holds the gateway's own JSON
// so callers can forward it verbatim.
type APIError struct {
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("toss api status %d: %s", e.StatusCode, strings.TrimSpace(string(e.Body)))
}

// ConfirmRequest is the confirmation payload: the gateway payment reference
// plus the order identity the payment must match.
type ConfirmRequest struct {
	PaymentKey string `json:"paymentKey"`
	OrderID    string `json:"orderId"`
	Amount     int64  `json:"amount"`
}

// Payment is the subset of the gateway confirmation response the checkout
// flow consumes.
type Payment struct {
	PaymentKey  string `json:"paymentKey"`
	OrderID     string `json:"orderId"`
	Status      string `json:"status"`
	ApprovedAt  string `json:"approvedAt"`
	TotalAmount int64  `json:"totalAmount"`
}

func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		// Bounded so a stalled gateway cannot pin a confirmation forever.
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.tosspayments.com"
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// ConfirmPayment calls the gateway confirmation endpoint, authenticated with
// HTTP Basic (secret key as username, empty password). The raw response body
// is returned alongside the decoded payment so gateway failures can be passed
// through to the caller untouched.
func (c *Client) ConfirmPayment(ctx context.Context, secretKey string, in ConfirmRequest) (Payment, []byte, error) {
	var out Payment
	if strings.TrimSpace(secretKey) == "" {
		return out, nil, fmt.Errorf("secret key is required")
	}

	payload, err := json.Marshal(in)
	if err != nil {
		return out, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payments/confirm", bytes.NewReader(payload))
	if err != nil {
		return out, nil, err
	}
	req.Header.Set("Authorization", "Basic "+BasicCredential(secretKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return out, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return out, body, &APIError{StatusCode: resp.StatusCode, Body: body}
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, body, fmt.Errorf("decode confirm response: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug("toss_confirm", "order_id", out.OrderID, "status", out.Status)
	}
	return out, body, nil
}

// BasicCredential encodes a gateway secret as the Basic token the API
// expects: base64 of "secret:".
func BasicCredential(secretKey string) string {
	return base64.StdEncoding.EncodeToString([]byte(secretKey + ":"))
}
