package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix is stripped from environment variables overriding config keys,
// e.g. PRISMATIC_FETCH_CONCURRENCY → fetch_concurrency.
const envPrefix = "PRISMATIC_"

// Config holds the tunable parameters of the pipeline. Values load from an
// optional YAML file and can be overridden through the environment.
type Config struct {
	// SampleSize is the number of records sampled per collection.
	SampleSize int `koanf:"sample_size" validate:"gt=0"`

	// MessageBatchSize is the number of recent messages scanned per pass.
	MessageBatchSize int `koanf:"message_batch_size" validate:"gt=0"`

	// FetchConcurrency caps simultaneous message fetches.
	FetchConcurrency int `koanf:"fetch_concurrency" validate:"gt=0"`

	// ClassifierThreshold is the minimum zero-shot score kept as a finding.
	ClassifierThreshold float64 `koanf:"classifier_threshold" validate:"gte=0,lte=1"`

	// ClassifierTimeout bounds a single classifier call.
	ClassifierTimeout time.Duration `koanf:"classifier_timeout" validate:"gt=0"`

	// LogLevel selects the zap logging level.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`
}

// DefaultConfig returns the pipeline defaults.
func DefaultConfig() Config {
	return Config{
		SampleSize:          50,
		MessageBatchSize:    25,
		FetchConcurrency:    5,
		ClassifierThreshold: 0.70,
		ClassifierTimeout:   30 * time.Second,
		LogLevel:            "info",
	}
}

// LoadConfig builds a Config from defaults, an optional YAML file, and
// PRISMATIC_ environment variables, in increasing precedence.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cfg, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return cfg, fmt.Errorf("failed to load environment config: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks the config against its declared constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return newPipelineError(ErrorCategoryValidation, "config", err)
	}
	return nil
}
