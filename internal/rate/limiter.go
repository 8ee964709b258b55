package rate

import (
	"sync"
	"time"
)

// WindowLimiter is a fixed-window counter keyed by caller identity. Issue
// endpoints use it per client IP to cap token minting bursts.
type WindowLimiter struct {
	mu          sync.Mutex
	limit       int
	window      time.Duration
	buckets     map[string]*bucket
	lastCleanup time.Time
}

type bucket struct {
	start time.Time
	count int
}

func NewWindowLimiter(limit int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{
		limit:       limit,
		window:      window,
		buckets:     make(map[string]*bucket),
		lastCleanup: time.Now(),
	}
}

// Allow records one hit for key and reports whether it is within the limit
// for the current window.
func (l *WindowLimiter) Allow(key string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	l.maybeCleanup(now)

	b, ok := l.buckets[key]
	if !ok {
		l.buckets[key] = &bucket{start: now, count: 1}
		return true
	}
	if now.Sub(b.start) >= l.window {
		b.start = now
		b.count = 1
		return true
	}
	if b.count >= l.limit {
		return false
	}
	b.count++
	return true
}

func (l *WindowLimiter) maybeCleanup(now time.Time) {
	if l.window <= 0 || now.Sub(l.lastCleanup) < l.window {
		return
	}
	for key, b := range l.buckets {
		if now.Sub(b.start) >= l.window {
			delete(l.buckets, key)
		}
	}
	l.lastCleanup = now
}
