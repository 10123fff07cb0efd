package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	aiclient "github.com/deeplooplabs/ai-client"
	"github.com/deeplooplabs/ai-client/chat"
	"github.com/deeplooplabs/ai-client/credential"
	"github.com/deeplooplabs/ai-client/hook"
	"github.com/deeplooplabs/ai-client/openai"
	"github.com/deeplooplabs/ai-client/transport"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using system environment variables")
	} else {
		slog.Info("Loaded .env file")
	}

	endpoint := os.Getenv("OPENAI_ENDPOINT")
	llmModel := os.Getenv("LLM_MODEL")
	if llmModel == "" {
		llmModel = "gpt-4o-mini"
	}
	slog.Info("Configuration", "OPENAI_ENDPOINT", endpoint, "LLM_MODEL", llmModel)

	// Longer timeouts for slow upstreams, retries for flaky ones
	tr := transport.NewHTTPTransport(
		transport.DefaultConfig().
			WithTimeout(5 * time.Minute).
			WithReadTimeout(2 * time.Minute).
			WithRetry(transport.DefaultRetryConfig()),
	)

	// Example: spread exchanges across two endpoints and roll over when
	// one goes dark
	//
	// failover, err := transport.NewFailover(primary, secondary)
	// if err != nil { ... }
	// then pass chat.WithTransport(failover) below

	// Create hooks
	hooks := hook.NewRegistry()
	hooks.Register(&LoggingHook{}, &ErrorHook{})

	defaults := chat.NewGenerationConfig().
		WithModel(llmModel).
		WithTemperature(0.7).
		WithMaxTokens(512)

	opts := []chat.Option{
		chat.WithCredentials(credential.NewEnv("OPENAI_API_KEY")),
		chat.WithDefaults(defaults),
		chat.WithTransport(tr),
		chat.WithHooks(hooks),
		chat.WithMetrics(chat.NewMetrics("example")),
	}
	if endpoint != "" {
		opts = append(opts, chat.WithEndpoint(endpoint))
	}

	client, err := chat.NewClient(opts...)
	if err != nil {
		slog.Error("client construction failed", "error", err)
		os.Exit(1)
	}

	conv := chat.NewConversation().
		System("You are a concise assistant.").
		User("Name three uses for a paperclip.")

	// Buffered completion: the whole result lands in one callback
	done := make(chan struct{})
	err = client.Complete(context.Background(), conv, nil, func(resp *openai.ChatCompletionResponse, err error) {
		defer close(done)
		if err != nil {
			slog.Error("completion failed", "error", err)
			return
		}
		slog.Info("completion",
			"content", resp.Choices[0].Message.Content,
			"tokens", resp.Usage.TotalTokens)
	})
	if err != nil {
		slog.Error("dispatch failed", "error", err)
		os.Exit(1)
	}
	<-done

	// Streaming completion: chunks arrive as the model produces them
	streamDone := make(chan struct{})
	err = client.CompleteStream(context.Background(), conv, chat.NewGenerationConfig().WithMaxTokens(128), func(event chat.StreamEvent) {
		switch {
		case event.Err != nil:
			slog.Error("stream failed", "error", event.Err)
			close(streamDone)
		case event.Done:
			os.Stdout.WriteString("\n")
			slog.Info("stream finished")
			close(streamDone)
		default:
			if len(event.Chunk.Choices) > 0 && event.Chunk.Choices[0].Delta != nil {
				os.Stdout.WriteString(event.Chunk.Choices[0].Delta.Content)
			}
		}
	})
	if err != nil {
		slog.Error("dispatch failed", "error", err)
		os.Exit(1)
	}
	<-streamDone
}

// LoggingHook logs all exchanges
type LoggingHook struct{}

func (h *LoggingHook) Name() string {
	return "logging"
}

func (h *LoggingHook) BeforeRequest(ctx context.Context, req *openai.ChatCompletionRequest) error {
	slog.InfoContext(ctx, "[Hook] BeforeRequest", "request", jsonString(req), "request_id", requestID(ctx))
	return nil
}

func (h *LoggingHook) AfterRequest(ctx context.Context, req *openai.ChatCompletionRequest, resp *openai.ChatCompletionResponse) error {
	slog.InfoContext(ctx, "[Hook] AfterRequest", "response", jsonString(resp), "request_id", requestID(ctx))
	return nil
}

var _ hook.RequestHook = new(LoggingHook)

type ErrorHook struct{}

func (h *ErrorHook) Name() string {
	return "error"
}

func (h *ErrorHook) OnError(ctx context.Context, err error) {
	slog.ErrorContext(ctx, "[Hook] OnError", "error", err, "request_id", requestID(ctx))
}

var _ hook.ErrorHook = new(ErrorHook)

func requestID(ctx context.Context) string {
	if exch := aiclient.ExchangeFrom(ctx); exch != nil {
		return exch.RequestID
	}
	return ""
}

func jsonString(v interface{}) string {
	s, _ := json.Marshal(v)
	return string(s)
}
