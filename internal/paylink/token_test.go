package paylink

import (
	"net/url"
	"strings"
	"testing"
)

func TestNewPlainTokenIsURLSafe(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		token, err := NewPlainToken()
		if err != nil {
			t.Fatalf("new token: %v", err)
		}
		if len(token) < 43 {
			// 32 random bytes in unpadded base64url is 43 chars.
			t.Fatalf("token too short: %d", len(token))
		}
		if strings.ContainsAny(token, "+/=") {
			t.Fatalf("token not URL-safe: %q", token)
		}
		if _, dup := seen[token]; dup {
			t.Fatalf("duplicate token generated")
		}
		seen[token] = struct{}{}
	}
}

func TestHashTokenDeterministic(t *testing.T) {
	t.Parallel()

	a := HashToken("some-token")
	b := HashToken("some-token")
	if a != b {
		t.Fatalf("hash should be deterministic: %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected fixed-length hex digest, got %d chars", len(a))
	}
	if a == HashToken("other-token") {
		t.Fatalf("distinct tokens should not collide")
	}
}

func TestBuildPayURL(t *testing.T) {
	t.Parallel()

	got := BuildPayURL("https://pay.example.com/", "ab+c d")
	parsed, err := url.Parse(got)
	if err != nil {
		t.Fatalf("parse pay url: %v", err)
	}
	if parsed.Path != "/pay" {
		t.Fatalf("unexpected path: %s", parsed.Path)
	}
	if parsed.Query().Get("token") != "ab+c d" {
		t.Fatalf("token not round-tripped: %q", parsed.Query().Get("token"))
	}
}
