// Package ratelimit throttles outbound requests so a chatty caller
// stays inside the service's limits instead of burning retries on 429s.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter gates outbound exchanges per key. The transport keys by
// endpoint URL, so every endpoint gets its own budget.
type Limiter interface {
	// Allow reports whether one exchange may proceed for the key
	Allow(ctx context.Context, key string) bool

	// AllowN reports whether n exchanges may proceed for the key
	AllowN(ctx context.Context, key string, n int) bool

	// Reset clears the accumulated state for the key
	Reset(ctx context.Context, key string)
}

// Config holds rate limiter configuration
type Config struct {
	// RequestsPerSecond is the sustained outbound rate per key
	RequestsPerSecond float64

	// Burst is the number of exchanges allowed to fire back-to-back
	Burst int

	// Enabled indicates whether throttling is enforced
	Enabled bool
}

// DefaultConfig returns a conservative default for a single client
func DefaultConfig() *Config {
	return &Config{
		RequestsPerSecond: 10,
		Burst:             20,
		Enabled:           true,
	}
}

// tokenBucket implements Limiter with one refilling bucket per key
type tokenBucket struct {
	mu      sync.Mutex
	config  *Config
	buckets map[string]*bucket

	cleanupInterval time.Duration
	lastCleanup     time.Time
}

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// refill tops the bucket up for the time elapsed since the last call
func (b *bucket) refill(now time.Time, perSecond float64, burst int) {
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens = min(b.tokens+elapsed*perSecond, float64(burst))
	b.lastRefill = now
}

// NewTokenBucket creates a token bucket limiter; nil config means
// DefaultConfig
func NewTokenBucket(config *Config) Limiter {
	if config == nil {
		config = DefaultConfig()
	}
	return &tokenBucket{
		config:          config,
		buckets:         make(map[string]*bucket),
		cleanupInterval: 5 * time.Minute,
		lastCleanup:     time.Now(),
	}
}

// Allow implements Limiter
func (tb *tokenBucket) Allow(ctx context.Context, key string) bool {
	return tb.AllowN(ctx, key, 1)
}

// AllowN implements Limiter
func (tb *tokenBucket) AllowN(_ context.Context, key string, n int) bool {
	if !tb.config.Enabled {
		return true
	}

	tb.mu.Lock()
	defer tb.mu.Unlock()

	if time.Since(tb.lastCleanup) > tb.cleanupInterval {
		tb.cleanup()
	}

	now := time.Now()
	b, ok := tb.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(tb.config.Burst), lastRefill: now}
		tb.buckets[key] = b
	}
	b.refill(now, tb.config.RequestsPerSecond, tb.config.Burst)

	if b.tokens >= float64(n) {
		b.tokens -= float64(n)
		return true
	}
	return false
}

// Reset implements Limiter
func (tb *tokenBucket) Reset(_ context.Context, key string) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	delete(tb.buckets, key)
}

// cleanup drops buckets idle long enough to be full again anyway
func (tb *tokenBucket) cleanup() {
	now := time.Now()
	for key, b := range tb.buckets {
		if now.Sub(b.lastRefill) > 10*time.Minute {
			delete(tb.buckets, key)
		}
	}
	tb.lastCleanup = now
}
