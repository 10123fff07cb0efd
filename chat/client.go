package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	aiclient "github.com/deeplooplabs/ai-client"
	"github.com/deeplooplabs/ai-client/credential"
	"github.com/deeplooplabs/ai-client/hook"
	"github.com/deeplooplabs/ai-client/openai"
	"github.com/deeplooplabs/ai-client/transport"
)

// DefaultEndpoint is the chat completions endpoint of the public service
const DefaultEndpoint = "https://api.openai.com/v1/chat/completions"

// ModelResolver maps a friendly alias to the concrete model identifier
// plus an optional config layer that sits between the client defaults
// and the per-call override.
type ModelResolver interface {
	Resolve(alias string) (model string, profile *GenerationConfig, ok bool)
}

// Callback receives the outcome of one Complete call exactly once:
// either a decoded result or an error, never both and never twice. The
// error is a TransportError or DecodeError from the aiclient package.
type Callback func(result *openai.ChatCompletionResponse, err error)

// Client sends chat completion requests. Its default GenerationConfig
// is fixed at construction; per-call overrides merge onto ephemeral
// copies and the shared defaults are never written again, which keeps
// concurrent calls independent.
type Client struct {
	endpoint    string
	defaults    *GenerationConfig
	builder     *RequestBuilder
	transport   transport.Transport
	credentials credential.Source
	hooks       *hook.Registry
	metrics     *Metrics
	resolver    ModelResolver
}

// NewClient creates a client. Credentials are required; everything
// else has a usable default.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		endpoint: DefaultEndpoint,
		defaults: &GenerationConfig{},
		builder:  NewRequestBuilder(),
		hooks:    hook.NewRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.credentials == nil {
		return nil, aiclient.NewConfigError("credentials", "must be configured", nil)
	}
	if err := c.defaults.Validate(); err != nil {
		return nil, err
	}
	if c.transport == nil {
		c.transport = transport.NewHTTPTransport(nil)
	}
	return c, nil
}

// Defaults returns a copy of the client's default config
func (c *Client) Defaults() *GenerationConfig {
	return c.defaults.Clone()
}

// Complete dispatches one buffered completion exchange. The call
// returns after validation: a ConfigError (or a rejecting hook's
// error) comes back synchronously and nothing is sent; otherwise the
// outcome reaches callback exactly once on a separate goroutine.
// Complete always requests buffered delivery; CompleteStream is the
// incremental variant.
func (c *Client) Complete(ctx context.Context, conv Conversation, overrides *GenerationConfig, callback Callback) error {
	if callback == nil {
		return aiclient.NewConfigError("callback", "must not be nil", nil)
	}

	cfg := c.resolveConfig(overrides)
	cfg.Stream = nil

	req, err := c.builder.Build(conv, cfg)
	if err != nil {
		return err
	}

	exch := aiclient.NewContext(req.Model)
	ctx = aiclient.WithExchange(ctx, exch)

	for _, h := range c.hooks.RequestHooks() {
		if err := h.BeforeRequest(ctx, req); err != nil {
			return fmt.Errorf("hook %s rejected the request: %w", h.Name(), err)
		}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	if c.metrics != nil {
		c.metrics.InFlight.Inc()
	}
	go c.send(ctx, exch, req, payload, c.deliverOnce(ctx, callback))
	return nil
}

// deliverOnce wraps callback so the outcome can only land once, with
// error hooks observing every failure first
func (c *Client) deliverOnce(ctx context.Context, callback Callback) Callback {
	var once sync.Once
	return func(result *openai.ChatCompletionResponse, err error) {
		once.Do(func() {
			if err != nil {
				for _, h := range c.hooks.ErrorHooks() {
					h.OnError(ctx, err)
				}
			}
			callback(result, err)
		})
	}
}

func (c *Client) send(ctx context.Context, exch *aiclient.Context, req *openai.ChatCompletionRequest, payload []byte, deliver Callback) {
	defer func() {
		if c.metrics != nil {
			c.metrics.InFlight.Dec()
		}
	}()

	result, err := c.exchange(ctx, payload)
	if err == nil {
		for _, h := range c.hooks.RequestHooks() {
			if hookErr := h.AfterRequest(ctx, req, result); hookErr != nil {
				slog.Warn("after request hook failed",
					"hook", h.Name(),
					"request_id", exch.RequestID,
					"error", hookErr)
			}
		}
	}
	c.record(exch, result, err)
	deliver(result, err)
}

// exchange runs the wire round trip and decodes the body
func (c *Client) exchange(ctx context.Context, payload []byte) (*openai.ChatCompletionResponse, error) {
	req, err := c.wireRequest(ctx, payload, false)
	if err != nil {
		return nil, err
	}

	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		return nil, aiclient.NewTransportError("send request", 0, "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, aiclient.NewTransportError("read response", resp.StatusCode, "", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, aiclient.NewTransportError("send request", resp.StatusCode, serviceMessage(body), nil)
	}

	var result openai.ChatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, aiclient.NewDecodeError("invalid completion body", err)
	}
	if len(result.Choices) == 0 {
		return nil, aiclient.NewDecodeError("body is not a completion result", nil)
	}
	return &result, nil
}

// wireRequest assembles the transport request with auth headers
func (c *Client) wireRequest(ctx context.Context, payload []byte, stream bool) (*transport.Request, error) {
	token, err := c.credentials.Token(ctx)
	if err != nil {
		return nil, aiclient.NewTransportError("obtain credentials", 0, "", err)
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Authorization", "Bearer "+token)
	if stream {
		header.Set("Accept", "text/event-stream")
	}

	return &transport.Request{
		Method: http.MethodPost,
		URL:    c.endpoint,
		Header: header,
		Body:   payload,
	}, nil
}

// resolveConfig layers call override over model profile over client
// defaults, all on fresh copies
func (c *Client) resolveConfig(overrides *GenerationConfig) *GenerationConfig {
	cfg := c.defaults.Merge(overrides)
	if c.resolver == nil {
		return cfg
	}

	alias := cfg.Model
	if alias == "" {
		alias = DefaultModel
	}
	target, profile, ok := c.resolver.Resolve(alias)
	if !ok {
		return cfg
	}
	cfg = c.defaults.Merge(profile).Merge(overrides)
	cfg.Model = target
	return cfg
}

// record reports one finished exchange into the metrics, if any
func (c *Client) record(exch *aiclient.Context, result *openai.ChatCompletionResponse, err error) {
	if c.metrics == nil {
		return
	}
	c.metrics.CompletionDuration.WithLabelValues(exch.Model).Observe(exch.Elapsed().Seconds())
	if err != nil {
		c.metrics.CompletionsTotal.WithLabelValues(exch.Model, "error").Inc()
		c.metrics.ErrorsTotal.WithLabelValues(exch.Model, errorKind(err)).Inc()
		return
	}
	c.metrics.CompletionsTotal.WithLabelValues(exch.Model, "ok").Inc()
	if result != nil {
		c.metrics.TokensUsed.WithLabelValues(exch.Model, "input").Add(float64(result.Usage.PromptTokens))
		c.metrics.TokensUsed.WithLabelValues(exch.Model, "output").Add(float64(result.Usage.CompletionTokens))
		c.metrics.TokensUsed.WithLabelValues(exch.Model, "total").Add(float64(result.Usage.TotalTokens))
	}
}

func errorKind(err error) string {
	switch {
	case aiclient.IsTransportError(err):
		return "transport"
	case aiclient.IsDecodeError(err):
		return "decode"
	default:
		return "other"
	}
}

// serviceMessage pulls the human-readable message out of an error
// envelope, falling back to the raw body
func serviceMessage(body []byte) string {
	var envelope openai.ErrorResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 512 {
		msg = msg[:512]
	}
	return msg
}
