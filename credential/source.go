// Package credential supplies bearer tokens for completion requests.
// Sources are explicit collaborators; the client never reads process
// state on its own.
package credential

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Source yields the bearer token attached to an outgoing request. A
// source may be called concurrently and on every exchange, so rotating
// implementations can hand out fresh tokens.
type Source interface {
	Token(ctx context.Context) (string, error)
}

// Static serves one fixed token
type Static struct {
	token string
}

// NewStatic creates a source around a fixed token
func NewStatic(token string) *Static {
	return &Static{token: token}
}

// Token implements Source
func (s *Static) Token(_ context.Context) (string, error) {
	if s.token == "" {
		return "", fmt.Errorf("credential: static token is empty")
	}
	return s.token, nil
}

// Env reads the token from an environment variable on every call
type Env struct {
	key string
}

// NewEnv creates a source backed by the named environment variable
func NewEnv(key string) *Env {
	return &Env{key: key}
}

// Token implements Source
func (e *Env) Token(_ context.Context) (string, error) {
	value := strings.TrimSpace(os.Getenv(e.key))
	if value == "" {
		return "", fmt.Errorf("credential: environment variable %s is not set", e.key)
	}
	return value, nil
}

// Dotenv serves a key from a .env file read once at construction. The
// process environment is left untouched.
type Dotenv struct {
	key    string
	values map[string]string
}

// NewDotenv loads the .env file at path and serves the named key
func NewDotenv(path, key string) (*Dotenv, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("credential: load %s: %w", path, err)
	}
	return &Dotenv{key: key, values: values}, nil
}

// Token implements Source
func (d *Dotenv) Token(_ context.Context) (string, error) {
	value := strings.TrimSpace(d.values[d.key])
	if value == "" {
		return "", fmt.Errorf("credential: %s not found in env file", d.key)
	}
	return value, nil
}

var (
	_ Source = (*Static)(nil)
	_ Source = (*Env)(nil)
	_ Source = (*Dotenv)(nil)
)
