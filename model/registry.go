// Package model maps friendly model aliases to concrete model
// identifiers and per-model generation profiles.
package model

import (
	"github.com/deeplooplabs/ai-client/chat"
)

// Profile pairs a concrete model identifier with an optional config
// layer that sits between the client defaults and per-call overrides.
// An empty Model means the alias already is the identifier.
type Profile struct {
	Model  string
	Config *chat.GenerationConfig
}

// Registry resolves model aliases
type Registry interface {
	// Resolve returns the concrete model and profile for a given alias
	Resolve(alias string) (model string, profile *chat.GenerationConfig, ok bool)
}

// MapRegistry is an in-memory registry. Register everything before
// handing it to a client; Resolve is safe for concurrent use once
// registration is done.
type MapRegistry struct {
	profiles map[string]Profile
}

// NewMapRegistry creates a new map-based registry
func NewMapRegistry() *MapRegistry {
	return &MapRegistry{
		profiles: make(map[string]Profile),
	}
}

// Register registers an alias with its concrete model and optional
// profile. The profile is shared with every resolution, so callers
// must not write it afterwards.
func (r *MapRegistry) Register(alias, model string, cfg *chat.GenerationConfig) {
	r.profiles[alias] = Profile{
		Model:  model,
		Config: cfg,
	}
}

// Resolve returns the concrete model and profile for a given alias
func (r *MapRegistry) Resolve(alias string) (string, *chat.GenerationConfig, bool) {
	p, ok := r.profiles[alias]
	if !ok {
		return "", nil, false
	}
	target := p.Model
	if target == "" {
		target = alias
	}
	return target, p.Config, true
}

var (
	_ Registry           = (*MapRegistry)(nil)
	_ chat.ModelResolver = (*MapRegistry)(nil)
)
