package transport

import (
	"context"
	"math"
	"math/rand"
	"net/http"
	"time"
)

// RetryConfig controls how HTTPTransport re-sends failed exchanges
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (default: 3)
	MaxRetries int

	// InitialBackoff is the initial backoff duration (default: 100ms)
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration (default: 10s)
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff (default: 2.0)
	BackoffMultiplier float64

	// Jitter adds randomness to backoff (default: true)
	Jitter bool

	// RetryableStatusCodes are HTTP status codes that trigger retries
	RetryableStatusCodes map[int]bool

	// Enabled indicates whether retries are enabled
	Enabled bool
}

// DefaultRetryConfig returns a default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            true,
		RetryableStatusCodes: map[int]bool{
			http.StatusRequestTimeout:      true, // 408
			http.StatusTooManyRequests:     true, // 429
			http.StatusInternalServerError: true, // 500
			http.StatusBadGateway:          true, // 502
			http.StatusServiceUnavailable:  true, // 503
			http.StatusGatewayTimeout:      true, // 504
		},
		Enabled: true,
	}
}

// shouldRetry reports whether the status code warrants another attempt
func (rc *RetryConfig) shouldRetry(statusCode int) bool {
	if !rc.Enabled {
		return false
	}
	return rc.RetryableStatusCodes[statusCode]
}

// backoff returns the sleep before the given retry attempt
func (rc *RetryConfig) backoff(attempt int) time.Duration {
	d := float64(rc.InitialBackoff) * math.Pow(rc.BackoffMultiplier, float64(attempt))
	if d > float64(rc.MaxBackoff) {
		d = float64(rc.MaxBackoff)
	}
	if rc.Jitter {
		d += d * 0.25 * rand.Float64()
	}
	return time.Duration(d)
}

// retryWithBackoff runs attempt until it yields a non-retryable result
// or the budget is spent. The last response or error wins; bodies of
// discarded attempts are closed here, the final one is the caller's.
func retryWithBackoff(ctx context.Context, config *RetryConfig, attempt func() (*http.Response, error)) (*http.Response, error) {
	if config == nil || !config.Enabled {
		return attempt()
	}

	var resp *http.Response
	var lastErr error

	for try := 0; ; try++ {
		resp, lastErr = attempt()

		if lastErr == nil && resp != nil && !config.shouldRetry(resp.StatusCode) {
			return resp, nil
		}
		if try == config.MaxRetries {
			break
		}
		if lastErr == nil && resp != nil && resp.Body != nil {
			resp.Body.Close()
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(config.backoff(try)):
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return resp, nil
}
