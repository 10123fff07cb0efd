// Package chat builds chat completion requests and delivers their
// results. The Client owns an immutable default GenerationConfig; each
// call may lay an override on top without touching the shared copy.
package chat

import (
	"math"
	"sort"

	aiclient "github.com/deeplooplabs/ai-client"
)

// DefaultModel is used when neither the defaults nor the override name one
const DefaultModel = "gpt-3.5-turbo"

// Documented service-side defaults. A nil field resolves to these, and
// a resolved value equal to its default stays off the wire unless
// IncludeDefaults asks for it.
const (
	DefaultTemperature      = 1.0
	DefaultTopP             = 1.0
	DefaultN                = 1
	DefaultPresencePenalty  = 0.0
	DefaultFrequencyPenalty = 0.0
)

// maxStopSequences is the most stop sequences the service accepts
const maxStopSequences = 4

// GenerationConfig is the full parameter set of one completion request.
// Pointer fields distinguish "unset, inherit the default" (nil) from an
// explicit value; explicit values win even when they equal the default.
type GenerationConfig struct {
	// Model is the model identifier
	Model string

	// MaxTokens caps the generated completion length; nil leaves the
	// cap to the service
	MaxTokens *int

	// Temperature controls sampling randomness (default: 1.0)
	Temperature *float64

	// TopP controls nucleus sampling (default: 1.0)
	TopP *float64

	// N is the number of choices to generate (default: 1)
	N *int

	// Stream requests incremental delivery (default: false)
	Stream *bool

	// Stop lists up to four sequences that end generation
	Stop []string

	// PresencePenalty discourages reuse of seen tokens (default: 0.0)
	PresencePenalty *float64

	// FrequencyPenalty discourages frequent tokens (default: 0.0)
	FrequencyPenalty *float64

	// LogitBias maps token identifiers to bias values
	LogitBias map[string]float64

	// User is an end-user identifier forwarded to the service
	User string

	// IncludeDefaults emits every optional parameter at its resolved
	// value instead of leaving default-valued ones off the wire
	IncludeDefaults bool
}

// NewGenerationConfig creates an empty config; every field inherits its
// documented default until set
func NewGenerationConfig() *GenerationConfig {
	return &GenerationConfig{}
}

// WithModel sets the model identifier
func (c *GenerationConfig) WithModel(model string) *GenerationConfig {
	c.Model = model
	return c
}

// WithMaxTokens sets the completion length cap
func (c *GenerationConfig) WithMaxTokens(maxTokens int) *GenerationConfig {
	c.MaxTokens = &maxTokens
	return c
}

// WithTemperature sets the sampling temperature
func (c *GenerationConfig) WithTemperature(temperature float64) *GenerationConfig {
	c.Temperature = &temperature
	return c
}

// WithTopP sets the nucleus sampling mass
func (c *GenerationConfig) WithTopP(topP float64) *GenerationConfig {
	c.TopP = &topP
	return c
}

// WithN sets the number of choices to generate
func (c *GenerationConfig) WithN(n int) *GenerationConfig {
	c.N = &n
	return c
}

// WithStream sets the streaming flag
func (c *GenerationConfig) WithStream(stream bool) *GenerationConfig {
	c.Stream = &stream
	return c
}

// WithStop sets the stop sequences. Calling it with none is an
// explicit clear, which merge treats differently from never setting it.
func (c *GenerationConfig) WithStop(stop ...string) *GenerationConfig {
	c.Stop = append([]string{}, stop...)
	return c
}

// WithPresencePenalty sets the presence penalty
func (c *GenerationConfig) WithPresencePenalty(penalty float64) *GenerationConfig {
	c.PresencePenalty = &penalty
	return c
}

// WithFrequencyPenalty sets the frequency penalty
func (c *GenerationConfig) WithFrequencyPenalty(penalty float64) *GenerationConfig {
	c.FrequencyPenalty = &penalty
	return c
}

// WithLogitBias sets the token bias map
func (c *GenerationConfig) WithLogitBias(bias map[string]float64) *GenerationConfig {
	c.LogitBias = bias
	return c
}

// WithUser sets the end-user identifier
func (c *GenerationConfig) WithUser(user string) *GenerationConfig {
	c.User = user
	return c
}

// WithIncludeDefaults sets the inclusion policy switch
func (c *GenerationConfig) WithIncludeDefaults(include bool) *GenerationConfig {
	c.IncludeDefaults = include
	return c
}

// Clone returns a deep copy sharing no memory with the receiver
func (c *GenerationConfig) Clone() *GenerationConfig {
	if c == nil {
		return &GenerationConfig{}
	}
	out := &GenerationConfig{
		Model:           c.Model,
		User:            c.User,
		IncludeDefaults: c.IncludeDefaults,
	}
	out.MaxTokens = cloneInt(c.MaxTokens)
	out.Temperature = cloneFloat(c.Temperature)
	out.TopP = cloneFloat(c.TopP)
	out.N = cloneInt(c.N)
	out.Stream = cloneBool(c.Stream)
	out.PresencePenalty = cloneFloat(c.PresencePenalty)
	out.FrequencyPenalty = cloneFloat(c.FrequencyPenalty)
	if c.Stop != nil {
		out.Stop = append([]string(nil), c.Stop...)
	}
	if c.LogitBias != nil {
		out.LogitBias = make(map[string]float64, len(c.LogitBias))
		for k, v := range c.LogitBias {
			out.LogitBias[k] = v
		}
	}
	return out
}

// Merge lays override on top of the receiver and returns a fresh
// config. Per field the override wins when set; neither input is
// modified and the result aliases neither. A non-nil empty Stop slice
// clears inherited stop sequences; IncludeDefaults set on either layer
// applies.
func (c *GenerationConfig) Merge(override *GenerationConfig) *GenerationConfig {
	merged := c.Clone()
	if override == nil {
		return merged
	}

	if override.Model != "" {
		merged.Model = override.Model
	}
	if override.MaxTokens != nil {
		merged.MaxTokens = cloneInt(override.MaxTokens)
	}
	if override.Temperature != nil {
		merged.Temperature = cloneFloat(override.Temperature)
	}
	if override.TopP != nil {
		merged.TopP = cloneFloat(override.TopP)
	}
	if override.N != nil {
		merged.N = cloneInt(override.N)
	}
	if override.Stream != nil {
		merged.Stream = cloneBool(override.Stream)
	}
	if override.Stop != nil {
		merged.Stop = append([]string(nil), override.Stop...)
	}
	if override.PresencePenalty != nil {
		merged.PresencePenalty = cloneFloat(override.PresencePenalty)
	}
	if override.FrequencyPenalty != nil {
		merged.FrequencyPenalty = cloneFloat(override.FrequencyPenalty)
	}
	if override.LogitBias != nil {
		merged.LogitBias = make(map[string]float64, len(override.LogitBias))
		for k, v := range override.LogitBias {
			merged.LogitBias[k] = v
		}
	}
	if override.User != "" {
		merged.User = override.User
	}
	if override.IncludeDefaults {
		merged.IncludeDefaults = true
	}
	return merged
}

// Validate checks the structurally invalid states that must never
// reach the wire. Out-of-convention finite values (a temperature of
// 5.0, say) pass through for the service to judge.
func (c *GenerationConfig) Validate() error {
	if c.MaxTokens != nil && *c.MaxTokens <= 0 {
		return aiclient.NewConfigError("max_tokens", "must be positive", *c.MaxTokens)
	}
	if c.N != nil && *c.N < 1 {
		return aiclient.NewConfigError("n", "must be at least 1", *c.N)
	}
	if c.Temperature != nil && !isFinite(*c.Temperature) {
		return aiclient.NewConfigError("temperature", "must be a finite number", *c.Temperature)
	}
	if c.TopP != nil && !isFinite(*c.TopP) {
		return aiclient.NewConfigError("top_p", "must be a finite number", *c.TopP)
	}
	if c.PresencePenalty != nil && !isFinite(*c.PresencePenalty) {
		return aiclient.NewConfigError("presence_penalty", "must be a finite number", *c.PresencePenalty)
	}
	if c.FrequencyPenalty != nil && !isFinite(*c.FrequencyPenalty) {
		return aiclient.NewConfigError("frequency_penalty", "must be a finite number", *c.FrequencyPenalty)
	}
	if len(c.Stop) > maxStopSequences {
		return aiclient.NewConfigError("stop", "allows at most 4 sequences", len(c.Stop))
	}
	for _, token := range sortedKeys(c.LogitBias) {
		if !isFinite(c.LogitBias[token]) {
			return aiclient.NewConfigError("logit_bias", "bias for token "+token+" must be finite", c.LogitBias[token])
		}
	}
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func cloneBool(v *bool) *bool {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
