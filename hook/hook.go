// Package hook lets callers observe the lifecycle of completion
// exchanges: the outgoing payload, the decoded result, stream chunks,
// and failures. The exchange identity travels in the context and can
// be recovered with aiclient.ExchangeFrom.
package hook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/deeplooplabs/ai-client/openai"
)

// Hook is the base interface for all hooks
type Hook interface {
	// Name returns the unique name of this hook
	Name() string
}

// RequestHook observes non-streaming exchanges. BeforeRequest runs on
// the caller's goroutine before dispatch; an error aborts the exchange
// there and then. AfterRequest runs after a successful decode; its
// error is logged, not delivered.
type RequestHook interface {
	Hook
	// BeforeRequest is called with the final payload before dispatch
	BeforeRequest(ctx context.Context, req *openai.ChatCompletionRequest) error
	// AfterRequest is called with the decoded result before the callback
	AfterRequest(ctx context.Context, req *openai.ChatCompletionRequest, resp *openai.ChatCompletionResponse) error
}

// StreamingHook observes each streaming chunk before it is decoded. An
// error ends the stream with that error as the terminal event.
type StreamingHook interface {
	Hook
	// OnChunk receives the raw chunk data and may transform it
	OnChunk(ctx context.Context, chunk []byte) ([]byte, error)
}

// ErrorHook observes every failure before it reaches the callback
type ErrorHook interface {
	Hook
	// OnError is called once per failed exchange
	OnError(ctx context.Context, err error)
}

// Registry holds the hooks a client consults during an exchange
type Registry struct {
	requestHooks   []RequestHook
	streamingHooks []StreamingHook
	errorHooks     []ErrorHook
}

// NewRegistry creates an empty hook registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Register sorts each hook into the lifecycle slots its type supports
func (r *Registry) Register(hooks ...Hook) {
	for _, h := range hooks {
		known := false
		if rh, ok := h.(RequestHook); ok {
			r.requestHooks = append(r.requestHooks, rh)
			known = true
		}
		if sh, ok := h.(StreamingHook); ok {
			r.streamingHooks = append(r.streamingHooks, sh)
			known = true
		}
		if eh, ok := h.(ErrorHook); ok {
			r.errorHooks = append(r.errorHooks, eh)
			known = true
		}
		if !known {
			slog.Warn(fmt.Sprintf("unknown hook type: %T", h))
		}
	}
}

// RequestHooks returns all request hooks
func (r *Registry) RequestHooks() []RequestHook {
	return r.requestHooks
}

// StreamingHooks returns all streaming hooks
func (r *Registry) StreamingHooks() []StreamingHook {
	return r.streamingHooks
}

// ErrorHooks returns all error hooks
func (r *Registry) ErrorHooks() []ErrorHook {
	return r.errorHooks
}
