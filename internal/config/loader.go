package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if MINGLE_CONFIG is set
//  3. env (prefix MINGLE_)
func Load(_ context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("MINGLE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: MINGLE_ADDR, MINGLE_QUEUE_SIZE, ...
	// Map env keys like MINGLE_QUEUE_SIZE -> queue_size (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("MINGLE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "mingle_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects configurations the engine cannot run with.
func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.MinGroupSize < 2 {
		return fmt.Errorf("%w: min_group_size must be at least 2", ErrInvalidConfig)
	}
	if c.TargetGroupSize < c.MinGroupSize {
		return fmt.Errorf("%w: target_group_size must be at least min_group_size", ErrInvalidConfig)
	}
	if c.MaxGroupSize < c.TargetGroupSize {
		return fmt.Errorf("%w: max_group_size must be at least target_group_size", ErrInvalidConfig)
	}
	if c.MatchIntervalSeconds < 0 {
		return fmt.Errorf("%w: match_interval_seconds must not be negative", ErrInvalidConfig)
	}
	switch c.Store {
	case StoreMemory, StoreMongo:
	default:
		return fmt.Errorf("%w: store must be %q or %q", ErrInvalidConfig, StoreMemory, StoreMongo)
	}
	if c.Store == StoreMongo && c.MongoURI == "" {
		return fmt.Errorf("%w: mongo_uri must not be empty when store is mongo", ErrInvalidConfig)
	}
	return nil
}
