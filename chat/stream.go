package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	aiclient "github.com/deeplooplabs/ai-client"
	"github.com/deeplooplabs/ai-client/openai"
)

// StreamEvent is one delivery from CompleteStream: a decoded chunk, or
// the single terminal event (Done on a clean end, Err on a failure).
type StreamEvent struct {
	Chunk *openai.ChatCompletionStreamResponse
	Done  bool
	Err   error
}

// StreamCallback receives chunk events in arrival order and then
// exactly one terminal event. Nothing follows the terminal event.
type StreamCallback func(event StreamEvent)

// CompleteStream dispatches one streaming completion exchange. The
// synchronous contract matches Complete: validation failures return
// immediately and nothing is sent. The payload always carries
// stream set to true.
func (c *Client) CompleteStream(ctx context.Context, conv Conversation, overrides *GenerationConfig, callback StreamCallback) error {
	if callback == nil {
		return aiclient.NewConfigError("callback", "must not be nil", nil)
	}

	cfg := c.resolveConfig(overrides)
	streaming := true
	cfg.Stream = &streaming

	req, err := c.builder.Build(conv, cfg)
	if err != nil {
		return err
	}

	exch := aiclient.NewContext(req.Model)
	exch.Stream = true
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
	go c.stream(ctx, exch, payload, callback)
	return nil
}

func (c *Client) stream(ctx context.Context, exch *aiclient.Context, payload []byte, callback StreamCallback) {
	defer func() {
		if c.metrics != nil {
			c.metrics.InFlight.Dec()
		}
	}()

	var once sync.Once
	terminal := func(err error) {
		once.Do(func() {
			if err != nil {
				for _, h := range c.hooks.ErrorHooks() {
					h.OnError(ctx, err)
				}
			}
			c.record(exch, nil, err)
			if err != nil {
				callback(StreamEvent{Err: err})
				return
			}
			callback(StreamEvent{Done: true})
		})
	}

	req, err := c.wireRequest(ctx, payload, true)
	if err != nil {
		terminal(err)
		return
	}

	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		terminal(aiclient.NewTransportError("send request", 0, "", err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		terminal(aiclient.NewTransportError("send request", resp.StatusCode, serviceMessage(body), nil))
		return
	}

	decoder := openai.NewStreamDecoder(resp.Body)
	for decoder.Next() {
		event := decoder.Event()
		if event.Done {
			terminal(nil)
			return
		}

		data := event.Data
		for _, h := range c.hooks.StreamingHooks() {
			data, err = h.OnChunk(ctx, data)
			if err != nil {
				terminal(fmt.Errorf("hook %s failed on chunk: %w", h.Name(), err))
				return
			}
		}

		var chunk openai.ChatCompletionStreamResponse
		if err := json.Unmarshal(data, &chunk); err != nil {
			terminal(aiclient.NewDecodeError("invalid stream chunk", err))
			return
		}
		if c.metrics != nil {
			c.metrics.ChunksTotal.WithLabelValues(exch.Model).Inc()
		}
		callback(StreamEvent{Chunk: &chunk})
	}

	// a stream may end at EOF without the done marker
	if err := decoder.Err(); err != nil {
		terminal(aiclient.NewTransportError("read stream", 0, "", err))
		return
	}
	terminal(nil)
}
