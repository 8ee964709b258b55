package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"paylink/backend/internal/integrations"
	"paylink/backend/internal/integrations/toss"
	"paylink/backend/internal/repository"
)

type confirmRequest struct {
	PaymentKey string `json:"paymentKey" validate:"required"`
	OrderID    string `json:"orderId" validate:"required"`
	Amount     *int64 `json:"amount" validate:"required"`
	From       string `json:"from"`
}

type confirmResponse struct {
	OK          bool   `json:"ok"`
	OrderID     string `json:"orderId"`
	ApprovedAt  string `json:"approvedAt"`
	TotalAmount int64  `json:"totalAmount"`
	OrderName   string `json:"orderName"`
	OrderItems  string `json:"orderItems"`
}

// ConfirmPayment reconciles a client-asserted payment with the stored token,
// confirms it with the gateway, and consumes the token. Every local gate runs
// before the outbound call: a request that cannot succeed never reaches the
// gateway, and a tampered amount never leaves this process.
func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("confirm", "status", "invalid_json")
		writeConfirmFail(w, http.StatusBadRequest, "", "invalid params")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		logger.Warn("confirm", "status", "invalid_params")
		writeConfirmFail(w, http.StatusBadRequest, "", "invalid params")
		return
	}
	orderID := strings.TrimSpace(req.OrderID)
	from := strings.TrimSpace(req.From)

	secretKey, ok := h.cfg.Gateway.ResolveSecretKey(from)
	if !ok {
		logger.Warn("confirm", "status", "secret_key_not_found", "from", from)
		if from == "" {
			writeConfirmFail(w, http.StatusBadRequest, "", "secret key not found")
		} else {
			writeConfirmFail(w, http.StatusBadRequest, "", fmt.Sprintf("secret key not found for subdomain '%s'", from))
		}
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	rec, err := h.store.GetPayLinkTokenByOrderID(ctx, orderID)
	cancel()
	if err != nil {
		h.handlePayTokenError(logger, w, "confirm", err)
		return
	}

	now := h.now()
	switch {
	case rec.Used:
		logger.Warn("confirm", "status", "already_used", "order_id", orderID)
		writeConfirmFail(w, http.StatusConflict, "ALREADY_USED", "already used")
		return
	case rec.ExpiredAt(now):
		logger.Warn("confirm", "status", "expired", "order_id", orderID)
		writeConfirmFail(w, http.StatusGone, "EXPIRED", "expired")
		return
	case rec.Amount != *req.Amount:
		logger.Warn("confirm", "status", "amount_mismatch", "order_id", orderID, "expected", rec.Amount, "got", *req.Amount)
		writeConfirmFail(w, http.StatusConflict, "AMOUNT_MISMATCH", "amount mismatch")
		return
	}

	payment, rawBody, err := h.gateway.ConfirmPayment(r.Context(), secretKey, toss.ConfirmRequest{
		PaymentKey: req.PaymentKey,
		OrderID:    orderID,
		Amount:     *req.Amount,
	})
	if err != nil {
		var apiErr *toss.APIError
		if errors.As(err, &apiErr) {
			// The gateway keeps its own error vocabulary; forward it untouched.
			logger.Warn("confirm", "status", "gateway_rejected", "order_id", orderID, "gateway_status", apiErr.StatusCode)
			if len(apiErr.Body) > 0 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write(apiErr.Body)
				return
			}
			writeConfirmFail(w, http.StatusBadRequest, "", "gateway error")
			return
		}
		logger.Error("confirm", "status", "gateway_unreachable", "order_id", orderID, "error", err)
		writeConfirmFail(w, http.StatusBadGateway, "", "gateway request failed")
		return
	}

	ctx, cancel = h.withTimeout(r.Context())
	_, err = h.store.ConsumePayLinkToken(ctx, orderID)
	cancel()
	if err != nil {
		// A concurrent confirmation won the conditional update: never report
		// a duplicate success.
		h.handlePayTokenError(logger, w, "confirm", err)
		return
	}

	logger.Info("confirm", "status", "consumed", "order_id", orderID, "total_amount", payment.TotalAmount)
	h.notifyMerchant(from, req.PaymentKey, *req.Amount, orderID, rawBody)

	writeJSON(w, http.StatusOK, confirmResponse{
		OK:          true,
		OrderID:     payment.OrderID,
		ApprovedAt:  payment.ApprovedAt,
		TotalAmount: payment.TotalAmount,
		OrderName:   rec.OrderName,
		OrderItems:  rec.OrderItems,
	})
}

// notifyMerchant fires the save-finished callback to the tenant shop. It runs
// detached from the request: the confirmation response never waits on it and
// never reflects its failure.
func (h *Handler) notifyMerchant(from, paymentKey string, amount int64, orderID string, detail []byte) {
	if h.notifier == nil || from == "" {
		return
	}
	baseURL, ok := integrations.MerchantBaseURL(from, h.cfg.MerchantCallbackDomain)
	if !ok {
		return
	}
	logger := h.logger
	notice := integrations.PaymentFinishedNotice{
		OrderID:    orderID,
		PaymentKey: paymentKey,
		Amount:     amount,
		Detail:     json.RawMessage(detail),
		From:       from,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.notifier.NotifyPaymentFinished(ctx, baseURL, notice); err != nil {
			logger.Warn("confirm", "status", "merchant_callback_failed", "order_id", orderID, "error", err)
		}
	}()
}

func (h *Handler) handlePayTokenError(logger interface {
	Error(string, ...any)
	Warn(string, ...any)
}, w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, repository.ErrPayTokenNotFound):
		logger.Warn(action, "status", "token_not_found", "error", err)
		writeConfirmFail(w, http.StatusNotFound, "", "token not found")
	case errors.Is(err, repository.ErrPayTokenAlreadyUsed):
		logger.Warn(action, "status", "already_used", "error", err)
		writeConfirmFail(w, http.StatusConflict, "ALREADY_USED", "already used")
	default:
		logger.Error(action, "status", "internal_error", "error", err)
		writeConfirmFail(w, http.StatusInternalServerError, "", "server error")
	}
}
