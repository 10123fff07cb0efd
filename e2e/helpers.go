package e2e

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deeplooplabs/ai-client/chat"
	"github.com/deeplooplabs/ai-client/credential"
	"github.com/deeplooplabs/ai-client/openai"
	"github.com/deeplooplabs/ai-client/transport"
)

// TestAPIKey is the bearer token every test environment dispatches with
const TestAPIKey = "sk-e2e-test"

// TestEnvironment provides a complete test setup with a stub service
// and a client pointed at it
type TestEnvironment struct {
	Server  *httptest.Server
	Service *StubService
	Client  *chat.Client
	T       *testing.T
}

// NewTestEnvironment creates a new test environment with all necessary
// components. Extra options land on the client after the defaults, so
// tests can swap the transport or add hooks.
func NewTestEnvironment(t *testing.T, opts ...chat.Option) *TestEnvironment {
	service := NewStubService()
	server := httptest.NewServer(service)

	options := append([]chat.Option{
		chat.WithCredentials(credential.NewStatic(TestAPIKey)),
		chat.WithEndpoint(server.URL + "/v1/chat/completions"),
	}, opts...)

	client, err := chat.NewClient(options...)
	require.NoError(t, err, "client construction should succeed")

	t.Cleanup(func() {
		server.Close()
	})

	return &TestEnvironment{
		Server:  server,
		Service: service,
		Client:  client,
		T:       t,
	}
}

// AwaitCompletion dispatches one buffered completion and blocks until
// its callback lands
func AwaitCompletion(t *testing.T, client *chat.Client, conv chat.Conversation, overrides *chat.GenerationConfig) (*openai.ChatCompletionResponse, error) {
	t.Helper()

	type outcome struct {
		resp *openai.ChatCompletionResponse
		err  error
	}
	results := make(chan outcome, 1)

	err := client.Complete(context.Background(), conv, overrides, func(resp *openai.ChatCompletionResponse, err error) {
		results <- outcome{resp, err}
	})
	require.NoError(t, err, "dispatch should succeed")

	select {
	case r := <-results:
		return r.resp, r.err
	case <-time.After(5 * time.Second):
		t.Fatal("callback was never invoked")
		return nil, nil
	}
}

// CollectStream dispatches one streaming completion and accumulates
// the chunk contents until the terminal event
func CollectStream(t *testing.T, client *chat.Client, conv chat.Conversation, overrides *chat.GenerationConfig) (string, error) {
	t.Helper()

	var accumulated strings.Builder
	chunkCount := 0
	terminal := make(chan error, 1)

	err := client.CompleteStream(context.Background(), conv, overrides, func(event chat.StreamEvent) {
		switch {
		case event.Err != nil:
			terminal <- event.Err
		case event.Done:
			terminal <- nil
		default:
			chunkCount++
			if len(event.Chunk.Choices) > 0 && event.Chunk.Choices[0].Delta != nil {
				accumulated.WriteString(event.Chunk.Choices[0].Delta.Content)
			}
		}
	})
	require.NoError(t, err, "dispatch should succeed")

	select {
	case err := <-terminal:
		if err == nil {
			require.Greater(t, chunkCount, 0, "should receive at least one chunk")
		}
		return accumulated.String(), err
	case <-time.After(5 * time.Second):
		t.Fatal("the stream never terminated")
		return "", nil
	}
}

// endpointTransport pins every request to one URL before delegating.
// Failover tests use it to aim the same payload at different servers.
type endpointTransport struct {
	base transport.Transport
	url  string
}

func (e *endpointTransport) Do(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	pinned := *req
	pinned.URL = e.url
	return e.base.Do(ctx, &pinned)
}

var _ transport.Transport = (*endpointTransport)(nil)
