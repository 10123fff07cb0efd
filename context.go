package aiclient

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Context carries the identity and metadata of a single completion exchange
// from dispatch to callback delivery. Hooks receive it on every lifecycle
// event and may attach values via Set.
type Context struct {
	RequestID string
	StartTime time.Time
	Model     string
	Stream    bool
	Metadata  map[string]any
	mu        sync.RWMutex
}

// NewContext creates a context for one exchange against the given model
func NewContext(model string) *Context {
	return &Context{
		RequestID: uuid.New().String(),
		StartTime: time.Now(),
		Model:     model,
		Metadata:  make(map[string]any),
	}
}

// Set stores a value in the context metadata
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Metadata[key] = value
}

// Get retrieves a value from the context metadata
func (c *Context) Get(key string) any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Metadata[key]
}

// Elapsed returns the time since the exchange started
func (c *Context) Elapsed() time.Duration {
	return time.Since(c.StartTime)
}

type contextKey struct{}

// WithExchange attaches an exchange context to ctx so hooks and loggers
// further down can recover it
func WithExchange(ctx context.Context, exch *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, exch)
}

// ExchangeFrom returns the exchange context attached to ctx, or nil
func ExchangeFrom(ctx context.Context) *Context {
	exch, _ := ctx.Value(contextKey{}).(*Context)
	return exch
}
