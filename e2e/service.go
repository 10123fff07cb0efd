package e2e

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	openailib "github.com/sashabaranov/go-openai"
)

// StubService imitates the completions service over HTTP. Incoming
// payloads are decoded with the reference SDK's request type, which
// keeps the client honest about the wire format, and answers come from
// scripted responses built with the same SDK's response types.
type StubService struct {
	mu sync.Mutex

	requests []openailib.ChatCompletionRequest
	headers  []http.Header

	chatResponse *openailib.ChatCompletionResponse
	streamWords  []string
	streamDelay  time.Duration

	// leading calls answered with an error before normal service resumes
	failuresLeft int
	failStatus   int
	failMessage  string
}

// NewStubService creates a stub with default scripted behavior
func NewStubService() *StubService {
	return &StubService{
		streamDelay: 2 * time.Millisecond,
	}
}

// ServeHTTP implements the chat completions endpoint
func (s *StubService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}

	var req openailib.ChatCompletionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("undecodable payload: %v", err))
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.headers = append(s.headers, r.Header.Clone())
	failing := s.failuresLeft > 0
	if failing {
		s.failuresLeft--
	}
	failStatus, failMessage := s.failStatus, s.failMessage
	response := s.chatResponse
	words := s.streamWords
	delay := s.streamDelay
	s.mu.Unlock()

	if failing {
		s.writeError(w, failStatus, failMessage)
		return
	}

	if req.Stream {
		s.writeStream(w, req.Model, words, delay)
		return
	}

	if response == nil {
		response = defaultCompletion(req.Model)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (s *StubService) writeError(w http.ResponseWriter, status int, message string) {
	envelope := struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}{}
	envelope.Error.Message = message
	envelope.Error.Type = "invalid_request_error"

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope)
}

func (s *StubService) writeStream(w http.ResponseWriter, model string, words []string, delay time.Duration) {
	if len(words) == 0 {
		words = []string{"Hello", " from", " the", " stub"}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	writeChunk := func(chunk openailib.ChatCompletionStreamResponse) {
		data, _ := json.Marshal(chunk)
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
		time.Sleep(delay)
	}

	writeChunk(openailib.ChatCompletionStreamResponse{
		ID:      "chatcmpl-stream123",
		Object:  "chat.completion.chunk",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []openailib.ChatCompletionStreamChoice{
			{Index: 0, Delta: openailib.ChatCompletionStreamChoiceDelta{Role: "assistant"}},
		},
	})

	for _, word := range words {
		writeChunk(openailib.ChatCompletionStreamResponse{
			ID:      "chatcmpl-stream123",
			Object:  "chat.completion.chunk",
			Created: time.Now().Unix(),
			Model:   model,
			Choices: []openailib.ChatCompletionStreamChoice{
				{Index: 0, Delta: openailib.ChatCompletionStreamChoiceDelta{Content: word}},
			},
		})
	}

	writeChunk(openailib.ChatCompletionStreamResponse{
		ID:      "chatcmpl-stream123",
		Object:  "chat.completion.chunk",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []openailib.ChatCompletionStreamChoice{
			{Index: 0, FinishReason: openailib.FinishReasonStop},
		},
	})

	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func defaultCompletion(model string) *openailib.ChatCompletionResponse {
	return &openailib.ChatCompletionResponse{
		ID:      "chatcmpl-e2e123",
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []openailib.ChatCompletionChoice{
			{
				Index: 0,
				Message: openailib.ChatCompletionMessage{
					Role:    openailib.ChatMessageRoleAssistant,
					Content: "This is a scripted response.",
				},
				FinishReason: openailib.FinishReasonStop,
			},
		},
		Usage: openailib.Usage{
			PromptTokens:     10,
			CompletionTokens: 20,
			TotalTokens:      30,
		},
	}
}

// Configuration and inspection (thread-safe)

// SetChatResponse scripts the buffered completion response
func (s *StubService) SetChatResponse(resp *openailib.ChatCompletionResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatResponse = resp
}

// SetStreamWords scripts the streamed content, one chunk per word
func (s *StubService) SetStreamWords(words ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streamWords = words
}

// FailNext answers the next n calls with the given status and message
func (s *StubService) FailNext(n, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failuresLeft = n
	s.failStatus = status
	s.failMessage = message
}

// Requests returns every request decoded so far
func (s *StubService) Requests() []openailib.ChatCompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]openailib.ChatCompletionRequest(nil), s.requests...)
}

// Header returns the headers of the i-th call
func (s *StubService) Header(i int) http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.headers[i]
}

// CallCount returns how many calls reached the service
func (s *StubService) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}
