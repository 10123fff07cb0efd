package chat

import (
	"github.com/deeplooplabs/ai-client/credential"
	"github.com/deeplooplabs/ai-client/hook"
	"github.com/deeplooplabs/ai-client/transport"
)

// Option configures the Client
type Option func(*Client)

// WithDefaults sets the client's default generation config. The config
// is copied; later changes to the argument do not reach the client.
func WithDefaults(cfg *GenerationConfig) Option {
	return func(c *Client) {
		c.defaults = cfg.Clone()
	}
}

// WithTransport sets the transport
func WithTransport(t transport.Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

// WithCredentials sets the credential source
func WithCredentials(src credential.Source) Option {
	return func(c *Client) {
		c.credentials = src
	}
}

// WithEndpoint sets the chat completions URL
func WithEndpoint(url string) Option {
	return func(c *Client) {
		c.endpoint = url
	}
}

// WithHooks sets the hook registry
func WithHooks(hooks *hook.Registry) Option {
	return func(c *Client) {
		c.hooks = hooks
	}
}

// WithHook registers a single hook
func WithHook(h hook.Hook) Option {
	return func(c *Client) {
		c.hooks.Register(h)
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithModelResolver sets the alias resolver consulted before dispatch
func WithModelResolver(r ModelResolver) Option {
	return func(c *Client) {
		c.resolver = r
	}
}
