package config

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if CTRD_CONFIG is set
//  3. env (prefix CTRD_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("CTRD_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Environment variables: CTRD_ADDR, CTRD_CLICKHOUSE_URL, ...
	// Map env keys like CTRD_CACHE_SIZE -> cache_size (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("CTRD_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "ctrd_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	// Basic validation
	if cfg.Addr == "" {
		return nil, errors.New("addr must not be empty")
	}
	if cfg.ClickHouseURL == "" {
		return nil, errors.New("clickhouse_url must not be empty")
	}
	if cfg.ModelPath == "" {
		return nil, errors.New("model_path must not be empty")
	}
	if cfg.BaselineCTR <= 0 {
		return nil, errors.New("baseline_ctr must be positive")
	}
	if cfg.MinBoost <= 0 || cfg.MaxBoost <= cfg.MinBoost {
		return nil, errors.New("boost bounds must satisfy 0 < min_boost < max_boost")
	}
	return &cfg, nil
}
