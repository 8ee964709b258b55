package paylink

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/url"
	"strings"
)

const plainTokenBytes = 32

// NewPlainToken generates a URL-safe plaintext token. Callers persist only
// its hash; the plaintext goes to the client exactly once.
func NewPlainToken() (string, error) {
	buf := make([]byte, plainTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashToken computes the deterministic lookup digest for a plaintext token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// BuildPayURL builds the hosted checkout URL embedding the plaintext token.
func BuildPayURL(base, token string) string {
	return strings.TrimRight(base, "/") + "/pay?token=" + url.QueryEscape(token)
}
