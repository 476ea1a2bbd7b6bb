package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a token bucket per client key. A zero rate or burst disables
// limiting.
type Limiter struct {
	mu      sync.Mutex
	rps     float64
	burst   float64
	buckets map[string]*bucket
}

type bucket struct {
	tokens float64
	last   time.Time
}

func NewLimiter(rps float64, burst int) *Limiter {
	return &Limiter{
		rps:     rps,
		burst:   float64(burst),
		buckets: make(map[string]*bucket),
	}
}

// Allow returns true if the request is allowed, false if rate limited.
func (l *Limiter) Allow(key string, now time.Time) bool {
	if l == nil || key == "" || l.rps <= 0 || l.burst <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.burst, last: now}
		l.buckets[key] = b
	}

	elapsed := now.Sub(b.last).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	b.tokens += elapsed * l.rps
	if b.tokens > l.burst {
		b.tokens = l.burst
	}
	b.last = now

	if b.tokens < 1 {
		return false
	}

	b.tokens -= 1
	return true
}

// Prune drops buckets idle since before cutoff and returns how many were
// removed. A dropped bucket is recreated full on the next request.
func (l *Limiter) Prune(cutoff time.Time) int {
	if l == nil {
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, b := range l.buckets {
		if b.last.Before(cutoff) {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}
