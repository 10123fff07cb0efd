package chat

import (
	"errors"
	"math"
	"testing"

	aiclient "github.com/deeplooplabs/ai-client"
)

func TestGenerationConfig_MergeOverrideWinsPerField(t *testing.T) {
	defaults := NewGenerationConfig().
		WithModel("gpt-4").
		WithTemperature(0.2).
		WithMaxTokens(256).
		WithUser("default-user")

	override := NewGenerationConfig().
		WithTemperature(0.9).
		WithTopP(0.5)

	merged := defaults.Merge(override)

	if merged.Model != "gpt-4" {
		t.Errorf("unset override field should inherit, got '%s'", merged.Model)
	}
	if merged.Temperature == nil || *merged.Temperature != 0.9 {
		t.Error("override temperature should win")
	}
	if merged.TopP == nil || *merged.TopP != 0.5 {
		t.Error("override top_p should win")
	}
	if merged.MaxTokens == nil || *merged.MaxTokens != 256 {
		t.Error("default max_tokens should survive")
	}
	if merged.User != "default-user" {
		t.Errorf("default user should survive, got '%s'", merged.User)
	}
}

func TestGenerationConfig_MergeLeavesInputsUntouched(t *testing.T) {
	defaults := NewGenerationConfig().
		WithTemperature(0.2).
		WithStop("\n").
		WithLogitBias(map[string]float64{"50256": -100})
	override := NewGenerationConfig().WithTemperature(1.5)

	merged := defaults.Merge(override)

	if *defaults.Temperature != 0.2 {
		t.Error("merge must not write the receiver")
	}
	if *override.Temperature != 1.5 {
		t.Error("merge must not write the override")
	}

	*merged.Temperature = 99
	merged.Stop[0] = "changed"
	merged.LogitBias["50256"] = 0

	if *defaults.Temperature != 0.2 {
		t.Error("merged temperature must not alias the defaults")
	}
	if defaults.Stop[0] != "\n" {
		t.Error("merged stop slice must not alias the defaults")
	}
	if defaults.LogitBias["50256"] != -100 {
		t.Error("merged bias map must not alias the defaults")
	}
}

func TestGenerationConfig_MergeNilOverride(t *testing.T) {
	defaults := NewGenerationConfig().WithModel("gpt-4").WithN(3)

	merged := defaults.Merge(nil)

	if merged == defaults {
		t.Fatal("merge should hand back a copy, not the receiver")
	}
	if merged.Model != "gpt-4" || merged.N == nil || *merged.N != 3 {
		t.Error("copy should carry the defaults")
	}
}

func TestGenerationConfig_MergeExplicitEmptyStopClears(t *testing.T) {
	defaults := NewGenerationConfig().WithStop("\n", "END")

	merged := defaults.Merge(NewGenerationConfig().WithStop())

	if len(merged.Stop) != 0 {
		t.Errorf("explicit empty stop list should clear inherited stops, got %v", merged.Stop)
	}
}

func TestGenerationConfig_MergeIncludeDefaultsIsSticky(t *testing.T) {
	defaults := NewGenerationConfig().WithIncludeDefaults(true)

	if !defaults.Merge(NewGenerationConfig()).IncludeDefaults {
		t.Error("include-defaults set on the base should survive the merge")
	}
	if !NewGenerationConfig().Merge(NewGenerationConfig().WithIncludeDefaults(true)).IncludeDefaults {
		t.Error("include-defaults set on the override should apply")
	}
}

func TestGenerationConfig_ExplicitValueEqualToDefaultStaysSet(t *testing.T) {
	override := NewGenerationConfig().WithTemperature(DefaultTemperature)

	merged := NewGenerationConfig().WithTemperature(0.1).Merge(override)

	if merged.Temperature == nil || *merged.Temperature != DefaultTemperature {
		t.Error("an explicit value equal to the default is still an explicit value")
	}
}

func TestGenerationConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		config    *GenerationConfig
		wantParam string
	}{
		{"zero max_tokens", NewGenerationConfig().WithMaxTokens(0), "max_tokens"},
		{"negative max_tokens", NewGenerationConfig().WithMaxTokens(-16), "max_tokens"},
		{"zero n", NewGenerationConfig().WithN(0), "n"},
		{"NaN temperature", NewGenerationConfig().WithTemperature(math.NaN()), "temperature"},
		{"infinite temperature", NewGenerationConfig().WithTemperature(math.Inf(1)), "temperature"},
		{"NaN top_p", NewGenerationConfig().WithTopP(math.NaN()), "top_p"},
		{"infinite presence penalty", NewGenerationConfig().WithPresencePenalty(math.Inf(-1)), "presence_penalty"},
		{"infinite frequency penalty", NewGenerationConfig().WithFrequencyPenalty(math.Inf(1)), "frequency_penalty"},
		{"five stop sequences", NewGenerationConfig().WithStop("a", "b", "c", "d", "e"), "stop"},
		{"non-finite logit bias", NewGenerationConfig().WithLogitBias(map[string]float64{"50256": math.NaN()}), "logit_bias"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if err == nil {
				t.Fatal("expected a config error")
			}
			var ce *aiclient.ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected ConfigError, got %T", err)
			}
			if ce.Param != tt.wantParam {
				t.Errorf("expected param '%s', got '%s'", tt.wantParam, ce.Param)
			}
		})
	}
}

func TestGenerationConfig_ValidatePassesUnconventionalFiniteValues(t *testing.T) {
	configs := []*GenerationConfig{
		NewGenerationConfig(),
		NewGenerationConfig().WithTemperature(5.0),
		NewGenerationConfig().WithTopP(7.5),
		NewGenerationConfig().WithPresencePenalty(-9),
		NewGenerationConfig().WithStop("a", "b", "c", "d"),
		NewGenerationConfig().WithMaxTokens(1).WithN(8),
	}

	for _, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			t.Errorf("finite values are the service's to judge, got %v", err)
		}
	}
}

func TestGenerationConfig_CloneOfNil(t *testing.T) {
	var cfg *GenerationConfig
	clone := cfg.Clone()
	if clone == nil {
		t.Fatal("clone of nil should be a usable zero config")
	}
	if err := clone.Validate(); err != nil {
		t.Errorf("zero config should validate, got %v", err)
	}
}
