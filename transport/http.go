package transport

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/deeplooplabs/ai-client/ratelimit"
)

// Config tunes HTTPTransport
type Config struct {
	// HTTPClient overrides the built-in pooled client when set
	HTTPClient *http.Client

	// Timeout is the total exchange timeout (default: 60s)
	Timeout time.Duration

	// ConnectTimeout bounds dialing (default: 10s)
	ConnectTimeout time.Duration

	// ReadTimeout bounds the wait for response headers (default: 30s)
	ReadTimeout time.Duration

	// Connection pool settings
	MaxIdleConns        int           // Maximum idle connections (default: 100)
	MaxConnsPerHost     int           // Maximum connections per host (default: 10)
	IdleConnTimeout     time.Duration // Idle connection timeout (default: 90s)
	MaxIdleConnsPerHost int           // Maximum idle connections per host (default: 10)

	// Retry configuration
	Retry *RetryConfig

	// Throttle rejects exchanges client-side before they reach the wire
	Throttle ratelimit.Limiter
}

// DefaultConfig returns a default transport configuration
func DefaultConfig() *Config {
	return &Config{
		Timeout:             60 * time.Second,
		ConnectTimeout:      10 * time.Second,
		ReadTimeout:         30 * time.Second,
		MaxIdleConns:        100,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConnsPerHost: 10,
		Retry:               DefaultRetryConfig(),
	}
}

// WithTimeout sets the total exchange timeout
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithConnectTimeout sets the dial timeout
func (c *Config) WithConnectTimeout(timeout time.Duration) *Config {
	c.ConnectTimeout = timeout
	return c
}

// WithReadTimeout sets the response header timeout
func (c *Config) WithReadTimeout(timeout time.Duration) *Config {
	c.ReadTimeout = timeout
	return c
}

// WithConnectionPool sets the connection pool parameters
func (c *Config) WithConnectionPool(maxIdleConns, maxConnsPerHost, maxIdleConnsPerHost int, idleConnTimeout time.Duration) *Config {
	c.MaxIdleConns = maxIdleConns
	c.MaxConnsPerHost = maxConnsPerHost
	c.MaxIdleConnsPerHost = maxIdleConnsPerHost
	c.IdleConnTimeout = idleConnTimeout
	return c
}

// WithRetry sets the retry configuration
func (c *Config) WithRetry(retry *RetryConfig) *Config {
	c.Retry = retry
	return c
}

// WithThrottle sets the client-side rate limiter
func (c *Config) WithThrottle(limiter ratelimit.Limiter) *Config {
	c.Throttle = limiter
	return c
}

// WithHTTPClient sets a pre-built HTTP client
func (c *Config) WithHTTPClient(client *http.Client) *Config {
	c.HTTPClient = client
	return c
}

// HTTPTransport sends exchanges over a pooled net/http client with
// retry and optional client-side throttling.
type HTTPTransport struct {
	config       *Config
	client       *http.Client
	streamClient *http.Client
}

// NewHTTPTransport creates a transport from the given configuration;
// nil means DefaultConfig
func NewHTTPTransport(config *Config) *HTTPTransport {
	if config == nil {
		config = DefaultConfig()
	}

	pool := &http.Transport{
		MaxIdleConns:        config.MaxIdleConns,
		MaxConnsPerHost:     config.MaxConnsPerHost,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
	}
	if config.ConnectTimeout > 0 {
		pool.DialContext = (&net.Dialer{Timeout: config.ConnectTimeout}).DialContext
	}
	if config.ReadTimeout > 0 {
		pool.ResponseHeaderTimeout = config.ReadTimeout
	}

	client := config.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout:   config.Timeout,
			Transport: pool,
		}
	}

	// a total timeout would sever event streams that legitimately stay
	// open past it, so streaming exchanges get a client without one
	streamClient := &http.Client{Transport: client.Transport}

	return &HTTPTransport{
		config:       config,
		client:       client,
		streamClient: streamClient,
	}
}

// Do implements Transport
func (t *HTTPTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	if t.config.Throttle != nil && !t.config.Throttle.Allow(ctx, req.URL) {
		return nil, fmt.Errorf("request throttled client-side")
	}

	client := t.client
	if req.Header.Get("Accept") == "text/event-stream" {
		client = t.streamClient
	}

	attempt := func() (*http.Response, error) {
		httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(req.Body))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		for key, values := range req.Header {
			for _, value := range values {
				httpReq.Header.Add(key, value)
			}
		}
		return client.Do(httpReq)
	}

	resp, err := retryWithBackoff(ctx, t.config.Retry, attempt)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
	}, nil
}

var _ Transport = (*HTTPTransport)(nil)
