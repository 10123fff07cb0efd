package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/deeplooplabs/ai-client/ratelimit"
)

func TestHTTPTransport_CarriesMethodHeadersAndBody(t *testing.T) {
	var gotMethod, gotAuth, gotContentType, gotBody string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	tr := NewHTTPTransport(nil)
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Authorization", "Bearer sk-test")

	resp, err := tr.Do(context.Background(), &Request{
		Method: http.MethodPost,
		URL:    server.URL + "/v1/chat/completions",
		Header: header,
		Body:   []byte(`{"model":"gpt-4"}`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("expected POST, got %s", gotMethod)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("expected bearer header, got '%s'", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Errorf("expected JSON content type, got '%s'", gotContentType)
	}
	if gotBody != `{"model":"gpt-4"}` {
		t.Errorf("payload should arrive unmodified, got '%s'", gotBody)
	}

	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"ok":true}` {
		t.Errorf("response body should pass through, got '%s'", body)
	}
}

func TestHTTPTransport_RetriesUntilSuccess(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	config := DefaultConfig().WithRetry(&RetryConfig{
		MaxRetries:           3,
		InitialBackoff:       time.Millisecond,
		MaxBackoff:           time.Millisecond,
		BackoffMultiplier:    1.0,
		RetryableStatusCodes: map[int]bool{http.StatusServiceUnavailable: true},
		Enabled:              true,
	})
	tr := NewHTTPTransport(config)

	resp, err := tr.Do(context.Background(), &Request{Method: http.MethodPost, URL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected eventual 200, got %d", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestHTTPTransport_EachAttemptResendsTheFullBody(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"model":"gpt-4"}` {
			t.Errorf("attempt %d got truncated body '%s'", atomic.LoadInt32(&calls)+1, body)
		}
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	config := DefaultConfig().WithRetry(&RetryConfig{
		MaxRetries:           1,
		InitialBackoff:       time.Millisecond,
		MaxBackoff:           time.Millisecond,
		BackoffMultiplier:    1.0,
		RetryableStatusCodes: map[int]bool{http.StatusBadGateway: true},
		Enabled:              true,
	})
	tr := NewHTTPTransport(config)

	resp, err := tr.Do(context.Background(), &Request{
		Method: http.MethodPost,
		URL:    server.URL,
		Body:   []byte(`{"model":"gpt-4"}`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("expected 2 attempts, got %d", got)
	}
}

func TestHTTPTransport_NonRetryableStatusIsAResult(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer server.Close()

	tr := NewHTTPTransport(nil)
	resp, err := tr.Do(context.Background(), &Request{Method: http.MethodPost, URL: server.URL})
	if err != nil {
		t.Fatalf("a 401 is a response, not a transport failure: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("non-retryable status should not be retried, got %d attempts", got)
	}
}

func TestHTTPTransport_ThrottleRejectsBeforeTheWire(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	limiter := ratelimit.NewTokenBucket(&ratelimit.Config{
		RequestsPerSecond: 0.001,
		Burst:             1,
		Enabled:           true,
	})
	tr := NewHTTPTransport(DefaultConfig().WithThrottle(limiter))

	req := &Request{Method: http.MethodPost, URL: server.URL}
	resp, err := tr.Do(context.Background(), req)
	if err != nil {
		t.Fatalf("first request should pass the throttle: %v", err)
	}
	resp.Body.Close()

	if _, err := tr.Do(context.Background(), req); err == nil {
		t.Fatal("second request should be throttled")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("throttled request must never reach the server, got %d calls", got)
	}
}

func TestHTTPTransport_ContextCancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	tr := NewHTTPTransport(DefaultConfig().WithRetry(nil))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := tr.Do(ctx, &Request{Method: http.MethodPost, URL: server.URL}); err == nil {
		t.Fatal("expected cancellation error")
	}
}
