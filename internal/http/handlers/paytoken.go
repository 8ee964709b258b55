package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"paylink/backend/internal/models"
	"paylink/backend/internal/paylink"
	"paylink/backend/internal/repository"
)

const defaultTTLMinutes = 30

type issueTokenRequest struct {
	Amount     *int64      `json:"amount"`
	OrderName  string      `json:"orderName" validate:"required"`
	OrderID    string      `json:"orderId" validate:"required"`
	OrderItems interface{} `json:"orderItems"`
	TTLMinutes *int        `json:"ttlMinutes"`
}

type issueTokenResponse struct {
	OK         bool      `json:"ok"`
	Token      string    `json:"token"`
	PayURL     string    `json:"payUrl"`
	ExpiresAt  time.Time `json:"expiresAt"`
	Amount     int64     `json:"amount"`
	OrderName  string    `json:"orderName"`
	OrderID    string    `json:"orderId"`
	OrderItems string    `json:"orderItems"`
}

type validateTokenResponse struct {
	OK         bool   `json:"ok"`
	TokenID    string `json:"tokenId"`
	OrderID    string `json:"orderId"`
	Amount     int64  `json:"amount"`
	OrderName  string `json:"orderName"`
	OrderItems string `json:"orderItems"`
}

type issueQRResponse struct {
	OK         bool      `json:"ok"`
	Token      string    `json:"token"`
	PayURL     string    `json:"payUrl"`
	QRURL      string    `json:"qrUrl"`
	QRImageURL string    `json:"qrImageUrl,omitempty"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// IssueToken mints a single-use pay-link token: random plaintext returned to
// the caller, only its hash persisted.
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	if !h.issueLimiter.Allow(r.RemoteAddr) {
		writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{"ok": false, "message": "too many requests"})
		return
	}

	rec, token, ok := h.issuePayLinkToken(logger, w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, issueTokenResponse{
		OK:         true,
		Token:      token,
		PayURL:     paylink.BuildPayURL(h.cfg.BaseURL, token),
		ExpiresAt:  rec.ExpiresAt,
		Amount:     rec.Amount,
		OrderName:  rec.OrderName,
		OrderID:    rec.OrderID,
		OrderItems: rec.OrderItems,
	})
}

// issuePayLinkToken is the shared issuance path for the JSON and QR issue
// endpoints. On failure the response has already been written.
func (h *Handler) issuePayLinkToken(logger interface {
	Info(string, ...any)
	Warn(string, ...any)
	Error(string, ...any)
}, w http.ResponseWriter, r *http.Request) (models.PayLinkToken, string, bool) {
	var req issueTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("issue_paytoken", "status", "invalid_json")
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"ok": false, "message": "invalid params"})
		return models.PayLinkToken{}, "", false
	}
	if err := h.validator.Struct(req); err != nil || req.Amount == nil || *req.Amount <= 0 {
		logger.Warn("issue_paytoken", "status", "invalid_params")
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"ok": false, "message": "invalid params"})
		return models.PayLinkToken{}, "", false
	}

	token, err := paylink.NewPlainToken()
	if err != nil {
		logger.Error("issue_paytoken", "status", "token_generation_failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"ok": false, "message": "server error"})
		return models.PayLinkToken{}, "", false
	}

	// A negative TTL is allowed; it yields an already-expired token, which
	// merchants use to revoke a link before sending a fresh one.
	ttl := defaultTTLMinutes
	if req.TTLMinutes != nil {
		ttl = *req.TTLMinutes
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	rec, err := h.store.CreatePayLinkToken(ctx, models.CreatePayLinkTokenParams{
		TokenHash:  paylink.HashToken(token),
		OrderID:    strings.TrimSpace(req.OrderID),
		Amount:     *req.Amount,
		OrderName:  strings.TrimSpace(req.OrderName),
		OrderItems: normalizeOrderItems(req.OrderItems),
		ExpiresAt:  h.now().Add(time.Duration(ttl) * time.Minute),
	})
	if err != nil {
		logger.Error("issue_paytoken", "status", "db_error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"ok": false, "message": "server error"})
		return models.PayLinkToken{}, "", false
	}

	logger.Info("issue_paytoken", "order_id", rec.OrderID, "amount", rec.Amount, "expires_at", rec.ExpiresAt)
	return rec, token, true
}

// ValidateToken reports a pay-link token's status without mutating it.
// Priority order: not-found, already-used, expired, then success.
func (h *Handler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	token := r.URL.Query().Get("token")
	if token == "" {
		writeTokenFail(w, http.StatusBadRequest, "BAD_REQUEST", "")
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	rec, err := h.store.GetPayLinkTokenByHash(ctx, paylink.HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrPayTokenNotFound) {
			writeTokenFail(w, http.StatusNotFound, "NOT_FOUND", "")
			return
		}
		logger.Error("validate_paytoken", "status", "db_error", "error", err)
		writeTokenFail(w, http.StatusInternalServerError, "SERVER_ERROR", "server error")
		return
	}

	if rec.Used {
		writeTokenFail(w, http.StatusConflict, "ALREADY_USED", "link already used")
		return
	}
	if rec.ExpiredAt(h.now()) {
		writeTokenFail(w, http.StatusGone, "EXPIRED", "link expired")
		return
	}

	writeJSON(w, http.StatusOK, validateTokenResponse{
		OK:         true,
		TokenID:    rec.ID,
		OrderID:    rec.OrderID,
		Amount:     rec.Amount,
		OrderName:  rec.OrderName,
		OrderItems: rec.OrderItems,
	})
}

// TokenQRImage renders the pay URL for an already-issued token as a PNG QR
// code. The plaintext token stays in the query string; nothing is stored.
func (h *Handler) TokenQRImage(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	q := r.URL.Query()
	token := q.Get("token")
	if token == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"ok": false, "message": "token required"})
		return
	}
	if format := strings.ToLower(q.Get("format")); format != "" && format != "png" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"ok": false, "message": "unsupported format"})
		return
	}
	size, _ := strconv.Atoi(q.Get("size"))

	png, err := paylink.EncodeQRPNG(paylink.BuildPayURL(h.cfg.BaseURL, token), size)
	if err != nil {
		logger.Error("paytoken_qr", "status", "encode_failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"ok": false, "message": "QR generation failed"})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if q.Get("download") == "1" {
		w.Header().Set("Content-Disposition", `attachment; filename="pay-qr.png"`)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// IssueTokenQR issues a token and responds with both the pay URL and a QR
// render URL. When S3 is configured the PNG is also uploaded and its public
// URL returned.
func (h *Handler) IssueTokenQR(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	if !h.issueLimiter.Allow(r.RemoteAddr) {
		writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{"ok": false, "message": "too many requests"})
		return
	}

	rec, token, ok := h.issuePayLinkToken(logger, w, r)
	if !ok {
		return
	}

	payURL := paylink.BuildPayURL(h.cfg.BaseURL, token)
	resp := issueQRResponse{
		OK:        true,
		Token:     token,
		PayURL:    payURL,
		QRURL:     fmt.Sprintf("%s/api/paytoken/qr?token=%s&size=360", strings.TrimRight(h.cfg.BaseURL, "/"), url.QueryEscape(token)),
		ExpiresAt: rec.ExpiresAt,
	}

	if h.s3 != nil {
		png, err := paylink.EncodeQRPNG(payURL, 360)
		if err == nil {
			ctx, cancel := h.withTimeout(r.Context())
			defer cancel()
			if imageURL, err := h.s3.UploadQRImage(ctx, rec.OrderID, png); err == nil {
				resp.QRImageURL = imageURL
			} else {
				logger.Warn("issue_paytoken_qr", "status", "s3_upload_failed", "error", err)
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// normalizeOrderItems flattens the list-or-string orderItems field to the
// comma-joined string the token record stores.
func normalizeOrderItems(v interface{}) string {
	switch items := v.(type) {
	case nil:
		return ""
	case string:
		return items
	case []interface{}:
		parts := make([]string, 0, len(items))
		for _, item := range items {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(items)
	}
}
