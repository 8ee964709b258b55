package toss

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestConfirmPaymentSendsBasicAuth(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payments/confirm" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		want := "Basic " + base64.StdEncoding.EncodeToString([]byte("sk_test_123:"))
		if got := r.Header.Get("Authorization"); got != want {
			t.Fatalf("unexpected auth header: %s", got)
		}
		var req ConfirmRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.PaymentKey != "pk-1" || req.OrderID != "ORD-1" || req.Amount != 1000 {
			t.Fatalf("unexpected request: %+v", req)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"paymentKey":  "pk-1",
			"orderId":     "ORD-1",
			"status":      "DONE",
			"approvedAt":  "2026-09-01T10:00:00+09:00",
			"totalAmount": 1000,
		})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, srv.Client(), nil)
	payment, raw, err := client.ConfirmPayment(context.Background(), "sk_test_123", ConfirmRequest{
		PaymentKey: "pk-1",
		OrderID:    "ORD-1",
		Amount:     1000,
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if payment.TotalAmount != 1000 || payment.ApprovedAt == "" {
		t.Fatalf("unexpected payment: %+v", payment)
	}
	if !strings.Contains(string(raw), "approvedAt") {
		t.Fatalf("raw body should carry the gateway response: %s", string(raw))
	}
}

func TestConfirmPaymentGatewayErrorKeepsBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"code":    "REJECT_CARD_PAYMENT",
			"message": "card rejected",
		})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, srv.Client(), nil)
	_, raw, err := client.ConfirmPayment(context.Background(), "sk_test_123", ConfirmRequest{
		PaymentKey: "pk-1",
		OrderID:    "ORD-1",
		Amount:     1000,
	})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusForbidden {
		t.Fatalf("unexpected status: %d", apiErr.StatusCode)
	}
	if !strings.Contains(string(raw), "REJECT_CARD_PAYMENT") {
		t.Fatalf("gateway body should be preserved verbatim: %s", string(raw))
	}
}

func TestBasicCredential(t *testing.T) {
	t.Parallel()

	decoded, err := base64.StdEncoding.DecodeString(BasicCredential("sk"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(decoded) != "sk:" {
		t.Fatalf("credential should be secret plus empty password, got %q", decoded)
	}
}
