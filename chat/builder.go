package chat

import (
	"github.com/deeplooplabs/ai-client/openai"
)

// RequestBuilder turns a conversation and a generation config into the
// wire payload. Build is pure: same inputs, same payload, no I/O, no
// clock, no randomness.
//
// Optional parameters follow a default-minimal policy: a parameter is
// emitted only when its resolved value differs from the documented
// default, or when IncludeDefaults is set. Parameters whose default is
// the absence of a preference (max_tokens, stop, logit_bias, user) are
// emitted only when set either way. model and messages are always
// present.
type RequestBuilder struct{}

// NewRequestBuilder creates a request builder
func NewRequestBuilder() *RequestBuilder {
	return &RequestBuilder{}
}

// Build validates cfg and assembles the payload. A nil cfg behaves as
// the zero config. Validation failures return a ConfigError and no
// payload; nothing is sent anywhere.
func (b *RequestBuilder) Build(conv Conversation, cfg *GenerationConfig) (*openai.ChatCompletionRequest, error) {
	if cfg == nil {
		cfg = &GenerationConfig{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	// an empty conversation still serializes as [], not null
	messages := make([]openai.Message, len(conv))
	copy(messages, conv)

	req := &openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	}

	include := cfg.IncludeDefaults

	if cfg.MaxTokens != nil {
		req.MaxTokens = cloneInt(cfg.MaxTokens)
	}
	req.Temperature = resolveFloat(cfg.Temperature, DefaultTemperature, include)
	req.TopP = resolveFloat(cfg.TopP, DefaultTopP, include)
	req.N = resolveInt(cfg.N, DefaultN, include)
	req.Stream = resolveBool(cfg.Stream, false, include)
	if len(cfg.Stop) > 0 {
		req.Stop = append([]string(nil), cfg.Stop...)
	}
	req.PresencePenalty = resolveFloat(cfg.PresencePenalty, DefaultPresencePenalty, include)
	req.FrequencyPenalty = resolveFloat(cfg.FrequencyPenalty, DefaultFrequencyPenalty, include)
	if len(cfg.LogitBias) > 0 {
		req.LogitBias = make(map[string]float64, len(cfg.LogitBias))
		for k, v := range cfg.LogitBias {
			req.LogitBias[k] = v
		}
	}
	if cfg.User != "" {
		req.User = cfg.User
	}

	return req, nil
}

// resolveFloat applies the inclusion policy to one float parameter
func resolveFloat(v *float64, def float64, includeDefaults bool) *float64 {
	resolved := def
	if v != nil {
		resolved = *v
	}
	if resolved != def || includeDefaults {
		return &resolved
	}
	return nil
}

// resolveInt applies the inclusion policy to one int parameter
func resolveInt(v *int, def int, includeDefaults bool) *int {
	resolved := def
	if v != nil {
		resolved = *v
	}
	if resolved != def || includeDefaults {
		return &resolved
	}
	return nil
}

// resolveBool applies the inclusion policy to one bool parameter
func resolveBool(v *bool, def bool, includeDefaults bool) *bool {
	resolved := def
	if v != nil {
		resolved = *v
	}
	if resolved != def || includeDefaults {
		return &resolved
	}
	return nil
}
