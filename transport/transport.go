// Package transport carries marshaled completion payloads to the
// service. A Transport resolves one request to one status-and-body
// response or one error; retry, throttling, and failover policy all
// live behind this boundary so callers never re-send.
package transport

import (
	"context"
	"io"
	"net/http"
)

// Request is a single outgoing exchange
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is the service's answer. The caller owns closing Body; for
// streaming exchanges it stays open until the stream is drained.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// Transport executes one exchange. Implementations must honor ctx
// cancellation and must not retain req or the response body after
// returning.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}
