package handlers

import (
	"encoding/json"
	"net/http"
)

// writeJSON writes a JSON response body.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeTokenFail writes the validate-endpoint error envelope: {ok:false, code, message?}.
func writeTokenFail(w http.ResponseWriter, status int, code, message string) {
	payload := map[string]interface{}{"ok": false, "code": code}
	if message != "" {
		payload["message"] = message
	}
	writeJSON(w, status, payload)
}

// writeConfirmFail writes the confirm-endpoint error envelope: {message, code?}.
func writeConfirmFail(w http.ResponseWriter, status int, code, message string) {
	payload := map[string]interface{}{"message": message}
	if code != "" {
		payload["code"] = code
	}
	writeJSON(w, status, payload)
}

// writeError writes the generic {error} envelope used by the admin surface.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
