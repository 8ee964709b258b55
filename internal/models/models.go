package models

import "time"

// PayLinkToken is the single-use pay-link record. TokenHash is the only
// persisted form of the secret; the plaintext token is returned to the
// caller once at issuance and never stored.
type PayLinkToken struct {
	ID         string     `json:"id"`
	TokenHash  string     `json:"-"`
	OrderID    string     `json:"orderId"`
	Amount     int64      `json:"amount"`
	OrderName  string     `json:"orderName"`
	OrderItems string     `json:"orderItems"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	Used       bool       `json:"used"`
	UsedAt     *time.Time `json:"usedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// ExpiredAt reports whether the token is past its expiry at the given instant.
// Expiry is computed at read time, never stored.
func (t PayLinkToken) ExpiredAt(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}

// CreatePayLinkTokenParams represents create pay link token params.
type CreatePayLinkTokenParams struct {
	TokenHash  string
	OrderID    string
	Amount     int64
	OrderName  string
	OrderItems string
	ExpiresAt  time.Time
}
