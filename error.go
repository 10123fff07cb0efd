// Package aiclient defines the error taxonomy and the per-exchange context
// shared by the chat completion client packages.
package aiclient

import (
	"errors"
	"fmt"
)

// ConfigError reports an invalid generation parameter. It is returned
// synchronously from request building; a request that fails validation is
// never sent.
type ConfigError struct {
	Param  string
	Value  any
	Reason string
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("invalid generation config: %s %s (got %v)", e.Param, e.Reason, e.Value)
	}
	return fmt.Sprintf("invalid generation config: %s %s", e.Param, e.Reason)
}

// TransportError reports a failed exchange with the completion service:
// either the request never completed, or it completed with a non-success
// status. StatusCode is zero when no response was received.
type TransportError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("transport: %s: status %d: %s", e.Op, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("transport: %s: status %d", e.Op, e.StatusCode)
	default:
		return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
	}
}

// Unwrap returns the underlying error, if any
func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError reports a response body that arrived but could not be
// interpreted as a chat completion.
type DecodeError struct {
	Reason string
	Err    error
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode response: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode response: %s", e.Reason)
}

// Unwrap returns the underlying error, if any
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new configuration error for the given parameter
func NewConfigError(param, reason string, value any) *ConfigError {
	return &ConfigError{Param: param, Value: value, Reason: reason}
}

// NewTransportError creates a new transport error
func NewTransportError(op string, statusCode int, message string, err error) *TransportError {
	return &TransportError{Op: op, StatusCode: statusCode, Message: message, Err: err}
}

// NewDecodeError creates a new decode error
func NewDecodeError(reason string, err error) *DecodeError {
	return &DecodeError{Reason: reason, Err: err}
}

// IsConfigError reports whether err is or wraps a ConfigError
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsTransportError reports whether err is or wraps a TransportError
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsDecodeError reports whether err is or wraps a DecodeError
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
