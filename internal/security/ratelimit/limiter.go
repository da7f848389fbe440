package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a sliding-window request limiter keyed by tenant.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	maxReqs int
	window  time.Duration
	cleanup *time.Ticker
}

type bucket struct {
	requests []time.Time
	lastSeen time.Time
}

// NewLimiter creates a limiter allowing maxRequests per window per tenant.
func NewLimiter(maxRequests int, window time.Duration) *Limiter {
	limiter := &Limiter{
		buckets: make(map[string]*bucket),
		maxReqs: maxRequests,
		window:  window,
		cleanup: time.NewTicker(5 * time.Minute),
	}
	go limiter.cleanupOldBuckets()
	return limiter
}

// Allow reports whether the tenant may make another request now. An empty
// tenant is never limited; the gate rejects those requests first.
func (l *Limiter) Allow(tenantID string) bool {
	if tenantID == "" {
		return true
	}
	return l.allow(tenantID, l.maxReqs, l.window)
}

// AllowStrict applies a tighter limit for sensitive endpoints such as login.
func (l *Limiter) AllowStrict(identifier string, maxReqs int, window time.Duration) bool {
	return l.allow("strict:"+identifier, maxReqs, window)
}

func (l *Limiter) allow(key string, maxReqs int, window time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, exists := l.buckets[key]
	if !exists {
		b = &bucket{}
		l.buckets[key] = b
	}

	cutoff := now.Add(-window)
	kept := b.requests[:0]
	for _, t := range b.requests {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	b.requests = kept
	b.lastSeen = now

	if len(b.requests) >= maxReqs {
		return false
	}

	b.requests = append(b.requests, now)
	return true
}

func (l *Limiter) cleanupOldBuckets() {
	for range l.cleanup.C {
		l.mu.Lock()
		staleThreshold := time.Now().Add(-15 * time.Minute)
		for key, b := range l.buckets {
			if b.lastSeen.Before(staleThreshold) {
				delete(l.buckets, key)
			}
		}
		l.mu.Unlock()
	}
}

// Stop halts the background cleanup.
func (l *Limiter) Stop() {
	l.cleanup.Stop()
}
