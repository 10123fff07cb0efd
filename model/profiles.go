package model

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/deeplooplabs/ai-client/chat"
)

// ProfileConfig is the YAML shape of one model profile. Optional
// fields are pointers so an absent key and an explicit zero stay
// distinct, mirroring GenerationConfig.
type ProfileConfig struct {
	Model            string             `yaml:"model"`
	MaxTokens        *int               `yaml:"max_tokens"`
	Temperature      *float64           `yaml:"temperature"`
	TopP             *float64           `yaml:"top_p"`
	N                *int               `yaml:"n"`
	Stop             []string           `yaml:"stop"`
	PresencePenalty  *float64           `yaml:"presence_penalty"`
	FrequencyPenalty *float64           `yaml:"frequency_penalty"`
	LogitBias        map[string]float64 `yaml:"logit_bias"`
	User             string             `yaml:"user"`
	IncludeDefaults  bool               `yaml:"include_defaults"`
}

type profilesFile struct {
	Profiles map[string]ProfileConfig `yaml:"profiles"`
}

// LoadProfiles reads model profiles from a YAML file and builds a
// registry from them. Profiles are validated on load so a bad file
// fails here rather than on the first call that uses it.
//
// The file looks like:
//
//	profiles:
//	  fast:
//	    model: gpt-4o-mini
//	    max_tokens: 256
//	  careful:
//	    model: gpt-4
//	    temperature: 0.2
func LoadProfiles(path string) (*MapRegistry, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve profiles path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read profiles file %q: %w", absPath, err)
	}

	var file profilesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse profiles file %q: %w", absPath, err)
	}
	if len(file.Profiles) == 0 {
		return nil, fmt.Errorf("profiles file %q: no profiles defined", absPath)
	}

	registry := NewMapRegistry()

	// sorted so a file with several bad profiles always reports the same one
	aliases := make([]string, 0, len(file.Profiles))
	for alias := range file.Profiles {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	for _, alias := range aliases {
		if strings.TrimSpace(alias) == "" {
			return nil, fmt.Errorf("profiles file %q: profile alias must not be empty", absPath)
		}
		pc := file.Profiles[alias]
		cfg := pc.generationConfig()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("profile %s: %w", alias, err)
		}
		registry.Register(alias, pc.Model, cfg)
	}
	return registry, nil
}

// generationConfig converts the YAML shape into the config layer the
// client merges between its defaults and the per-call overrides
func (pc ProfileConfig) generationConfig() *chat.GenerationConfig {
	cfg := chat.NewGenerationConfig()
	if pc.MaxTokens != nil {
		cfg = cfg.WithMaxTokens(*pc.MaxTokens)
	}
	if pc.Temperature != nil {
		cfg = cfg.WithTemperature(*pc.Temperature)
	}
	if pc.TopP != nil {
		cfg = cfg.WithTopP(*pc.TopP)
	}
	if pc.N != nil {
		cfg = cfg.WithN(*pc.N)
	}
	if pc.Stop != nil {
		cfg = cfg.WithStop(pc.Stop...)
	}
	if pc.PresencePenalty != nil {
		cfg = cfg.WithPresencePenalty(*pc.PresencePenalty)
	}
	if pc.FrequencyPenalty != nil {
		cfg = cfg.WithFrequencyPenalty(*pc.FrequencyPenalty)
	}
	if pc.LogitBias != nil {
		cfg = cfg.WithLogitBias(pc.LogitBias)
	}
	if pc.User != "" {
		cfg = cfg.WithUser(pc.User)
	}
	if pc.IncludeDefaults {
		cfg = cfg.WithIncludeDefaults(true)
	}
	return cfg
}
