package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"paylink/backend/internal/auth"
	"paylink/backend/internal/models"

	"golang.org/x/crypto/bcrypt"
)

type adminAuthRequest struct {
	Password string `json:"password"`
}

type adminAuthResponse struct {
	OK          bool   `json:"ok"`
	AccessToken string `json:"accessToken"`
}

type listPayTokensResponse struct {
	Items []models.PayLinkToken `json:"items"`
	Total int                   `json:"total"`
}

// AuthAdmin exchanges the operator password for a bearer access token.
func (h *Handler) AuthAdmin(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	if h.cfg.JWTSecret == "" || (h.cfg.AdminPassHash == "" && h.cfg.AdminPassword == "") {
		writeError(w, http.StatusServiceUnavailable, "admin auth is not configured")
		return
	}

	var req adminAuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	password := strings.TrimSpace(req.Password)
	if password == "" {
		writeError(w, http.StatusBadRequest, "password is required")
		return
	}

	if h.cfg.AdminPassHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(h.cfg.AdminPassHash), []byte(password)); err != nil {
			logger.Warn("auth_admin", "status", "invalid_credentials")
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
	} else if password != h.cfg.AdminPassword {
		logger.Warn("auth_admin", "status", "invalid_credentials")
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.SignAccessToken(h.cfg.JWTSecret, true)
	if err != nil {
		logger.Error("auth_admin", "status", "sign_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, adminAuthResponse{OK: true, AccessToken: token})
}

// ListPayTokens returns recently issued tokens for the merchant support
// surface. Token hashes never leave the repository model's JSON encoding.
func (h *Handler) ListPayTokens(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)

	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	items, err := h.store.ListPayLinkTokens(ctx, limit)
	if err != nil {
		logger.Error("admin_list_paytokens", "status", "db_error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, listPayTokensResponse{Items: items, Total: len(items)})
}
