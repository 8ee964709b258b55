package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MerchantNotifier posts the save-finished callback to the tenant's shop
// after a confirmed payment. Delivery is best-effort: the payment outcome is
// already gateway-confirmed, so callback failures are logged and swallowed.
type MerchantNotifier struct {
	httpClient *http.Client
	logger     *slog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// PaymentFinishedNotice mirrors the payload the hosted success page used to
// send to the merchant shop.
type PaymentFinishedNotice struct {
	OrderID    string          `json:"orderId"`
	PaymentKey string          `json:"paymentKey"`
	Amount     int64           `json:"amount"`
	Detail     json.RawMessage `json:"detail"`
	From       string          `json:"from"`
}

func NewMerchantNotifier(httpClient *http.Client, logger *slog.Logger) *MerchantNotifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MerchantNotifier{
		httpClient: httpClient,
		logger:     logger,
		limiters:   make(map[string]*rate.Limiter),
	}
}

// NotifyPaymentFinished posts the notice to {baseURL}/api/payments/save-finished.
func (n *MerchantNotifier) NotifyPaymentFinished(ctx context.Context, baseURL string, notice PaymentFinishedNotice) error {
	target := strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/api/payments/save-finished"
	parsed, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("merchant callback url: %w", err)
	}
	if err := n.limiterFor(parsed.Host).Wait(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(notice)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("merchant callback status %d", resp.StatusCode)
	}
	n.logger.Debug("merchant_notified", "host", parsed.Host, "order_id", notice.OrderID)
	return nil
}

func (n *MerchantNotifier) limiterFor(host string) *rate.Limiter {
	n.mu.Lock()
	defer n.mu.Unlock()
	limiter, ok := n.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(5), 5)
		n.limiters[host] = limiter
	}
	return limiter
}

// MerchantBaseURL builds the per-tenant shop origin from a sanitized
// subdomain and the configured callback domain.
func MerchantBaseURL(tenant, callbackDomain string) (string, bool) {
	tenant = sanitizeTenant(tenant)
	callbackDomain = strings.TrimSpace(callbackDomain)
	if tenant == "" || callbackDomain == "" {
		return "", false
	}
	return "https://" + tenant + "." + callbackDomain, true
}

// sanitizeTenant keeps the subdomain to lowercase letters, digits and
// hyphens, matching what the success page accepted.
func sanitizeTenant(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	var b strings.Builder
	for _, r := range raw {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
