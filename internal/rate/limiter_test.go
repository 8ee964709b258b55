package rate

import (
	"testing"
	"time"
)

func TestWindowLimiterCapsPerKey(t *testing.T) {
	t.Parallel()

	l := NewWindowLimiter(2, time.Hour)
	if !l.Allow("a") || !l.Allow("a") {
		t.Fatalf("first two hits should pass")
	}
	if l.Allow("a") {
		t.Fatalf("third hit within window should be rejected")
	}
	if !l.Allow("b") {
		t.Fatalf("separate key should have its own budget")
	}
}

func TestWindowLimiterResetsAfterWindow(t *testing.T) {
	t.Parallel()

	l := NewWindowLimiter(1, 10*time.Millisecond)
	if !l.Allow("a") {
		t.Fatalf("first hit should pass")
	}
	if l.Allow("a") {
		t.Fatalf("second hit should be rejected")
	}
	time.Sleep(15 * time.Millisecond)
	if !l.Allow("a") {
		t.Fatalf("hit after window should pass")
	}
}
