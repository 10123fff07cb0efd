package openai

import (
	"bufio"
	"bytes"
	"io"
)

// doneMarker terminates a completion stream.
const doneMarker = "[DONE]"

// StreamEvent is one decoded server-sent event from a completion stream
type StreamEvent struct {
	Data []byte
	Done bool
}

// StreamDecoder reads server-sent events off a streaming response body.
// Only data lines carry completion chunks; comments, event names, and
// blank separators are skipped.
type StreamDecoder struct {
	scanner *bufio.Scanner
	event   StreamEvent
	err     error
	closed  bool
}

// NewStreamDecoder creates a decoder over the raw response body
func NewStreamDecoder(r io.Reader) *StreamDecoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &StreamDecoder{scanner: scanner}
}

// Next advances to the next data event. It returns false once the stream
// is exhausted, whether by the done marker, EOF, or a read error.
func (d *StreamDecoder) Next() bool {
	if d.closed {
		return false
	}
	for d.scanner.Scan() {
		data, ok := dataLine(d.scanner.Bytes())
		if !ok {
			continue
		}
		if string(data) == doneMarker {
			d.event = StreamEvent{Done: true}
			d.closed = true
			return true
		}
		// the scanner reuses its buffer between lines
		d.event = StreamEvent{Data: append([]byte(nil), data...)}
		return true
	}
	d.closed = true
	d.err = d.scanner.Err()
	return false
}

// Event returns the event produced by the last successful Next
func (d *StreamDecoder) Event() StreamEvent {
	return d.event
}

// Err returns the first read error encountered, if any
func (d *StreamDecoder) Err() error {
	return d.err
}

// dataLine returns the payload of a "data:" line
func dataLine(line []byte) ([]byte, bool) {
	if len(line) == 0 || line[0] == ':' {
		return nil, false
	}
	if !bytes.HasPrefix(line, []byte("data:")) {
		return nil, false
	}
	data := bytes.TrimPrefix(line, []byte("data:"))
	data = bytes.TrimLeft(data, " ")
	return data, true
}
