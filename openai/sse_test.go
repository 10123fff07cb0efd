package openai

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestStreamDecoder_DataLinesAndDoneMarker(t *testing.T) {
	body := strings.Join([]string{
		": keep-alive comment",
		"event: message",
		`data: {"id": "1"}`,
		"",
		`data:  {"id": "2"}`,
		"",
		"data: [DONE]",
		"",
	}, "\n")

	dec := NewStreamDecoder(strings.NewReader(body))

	var events []StreamEvent
	for dec.Next() {
		events = append(events, dec.Event())
	}
	if dec.Err() != nil {
		t.Fatalf("unexpected error: %v", dec.Err())
	}

	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if string(events[0].Data) != `{"id": "1"}` {
		t.Errorf("expected first payload, got '%s'", events[0].Data)
	}
	if string(events[1].Data) != `{"id": "2"}` {
		t.Errorf("extra space after colon should be trimmed, got '%s'", events[1].Data)
	}
	if !events[2].Done {
		t.Error("final event should carry the done marker")
	}
	if dec.Next() {
		t.Error("decoder should stay exhausted after the done marker")
	}
}

func TestStreamDecoder_EOFWithoutDoneMarker(t *testing.T) {
	dec := NewStreamDecoder(strings.NewReader("data: {\"id\": \"1\"}\n\n"))

	if !dec.Next() {
		t.Fatal("expected one data event")
	}
	if dec.Next() {
		t.Error("expected stream to end at EOF")
	}
	if dec.Err() != nil {
		t.Errorf("clean EOF should not be an error, got %v", dec.Err())
	}
}

func TestStreamDecoder_ReadError(t *testing.T) {
	readErr := errors.New("connection reset")
	dec := NewStreamDecoder(io.MultiReader(
		strings.NewReader("data: {\"id\": \"1\"}\n"),
		&failingReader{err: readErr},
	))

	if !dec.Next() {
		t.Fatal("expected the buffered event before the failure")
	}
	if dec.Next() {
		t.Error("expected decoding to stop at the read error")
	}
	if !errors.Is(dec.Err(), readErr) {
		t.Errorf("expected the read error surfaced, got %v", dec.Err())
	}
}

func TestStreamDecoder_EventDataIsStable(t *testing.T) {
	dec := NewStreamDecoder(strings.NewReader("data: first\ndata: second\n"))

	if !dec.Next() {
		t.Fatal("expected first event")
	}
	first := dec.Event().Data
	if !dec.Next() {
		t.Fatal("expected second event")
	}
	if string(first) != "first" {
		t.Errorf("earlier event data should survive later reads, got '%s'", first)
	}
}

type failingReader struct {
	err error
}

func (r *failingReader) Read([]byte) (int, error) {
	return 0, r.err
}
