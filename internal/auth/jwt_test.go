package auth

import "testing"

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Parallel()

	token, err := SignAccessToken("test-secret", true)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := ParseAccessToken("test-secret", token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !claims.IsAdmin {
		t.Fatalf("admin claim lost")
	}
}

func TestAccessTokenWrongSecret(t *testing.T) {
	t.Parallel()

	token, err := SignAccessToken("test-secret", true)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseAccessToken("other-secret", token); err == nil {
		t.Fatalf("expected verification failure with wrong secret")
	}
}
