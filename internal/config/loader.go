package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if SGSFETCH_CONFIG is set
//  3. env (prefix SGSFETCH_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("SGSFETCH_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: SGSFETCH_INPUT, SGSFETCH_GROUP_SIZE, ...
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("SGSFETCH_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "sgsfetch_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field consistency without touching the filesystem.
func (c *Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("%w: input must not be empty", ErrInvalidConfig)
	}
	if c.OutputEN == "" || c.OutputPT == "" {
		return fmt.Errorf("%w: output paths must not be empty", ErrInvalidConfig)
	}
	if c.GroupSize <= 0 {
		return fmt.Errorf("%w: group_size must be positive (got %d)", ErrInvalidConfig, c.GroupSize)
	}
	if c.Limit < 0 {
		return fmt.Errorf("%w: limit must not be negative (got %d)", ErrInvalidConfig, c.Limit)
	}
	if c.ThrottleMS < 0 {
		return fmt.Errorf("%w: throttle_ms must not be negative (got %d)", ErrInvalidConfig, c.ThrottleMS)
	}
	if c.UserAgent == "" {
		return fmt.Errorf("%w: user_agent must not be empty", ErrInvalidConfig)
	}

	start, err := c.Start()
	if err != nil {
		return fmt.Errorf("%w: start_date %q is not dd/MM/yyyy", ErrInvalidConfig, c.StartDate)
	}
	end, err := c.End()
	if err != nil {
		return fmt.Errorf("%w: end_date %q is not dd/MM/yyyy", ErrInvalidConfig, c.EndDate)
	}
	if end.Before(start) {
		return fmt.Errorf("%w: end_date precedes start_date", ErrInvalidConfig)
	}

	return nil
}
