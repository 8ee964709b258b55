package integrations

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNotifyPaymentFinished(t *testing.T) {
	t.Parallel()

	var got PaymentFinishedNotice
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/payments/save-finished" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode notice: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewMerchantNotifier(srv.Client(), nil)
	err := n.NotifyPaymentFinished(context.Background(), srv.URL, PaymentFinishedNotice{
		OrderID:    "ORD-1",
		PaymentKey: "pk-1",
		Amount:     1000,
		Detail:     json.RawMessage(`{"ok":true}`),
		From:       "healingeye",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if got.OrderID != "ORD-1" || got.From != "healingeye" {
		t.Fatalf("unexpected notice: %+v", got)
	}
}

func TestNotifyPaymentFinishedNonSuccessStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewMerchantNotifier(srv.Client(), nil)
	if err := n.NotifyPaymentFinished(context.Background(), srv.URL, PaymentFinishedNotice{OrderID: "ORD-1"}); err == nil {
		t.Fatalf("expected error on non-2xx callback response")
	}
}

func TestMerchantBaseURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		tenant string
		domain string
		want   string
		ok     bool
	}{
		{name: "plain", tenant: "healingeye", domain: "medipaysolution.co.kr", want: "https://healingeye.medipaysolution.co.kr", ok: true},
		{name: "sanitized", tenant: " Healing_Eye! ", domain: "medipaysolution.co.kr", want: "https://healingeye.medipaysolution.co.kr", ok: true},
		{name: "empty_tenant", tenant: "!!", domain: "medipaysolution.co.kr", ok: false},
		{name: "no_domain", tenant: "healingeye", domain: "", ok: false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := MerchantBaseURL(tc.tenant, tc.domain)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
