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

	"github.com/okian/bnet/internal/domain/namespace"
)

// Environment variable names.
const (
	envPrefix = "BNET_"
	envFile   = "BNET_CONFIG"
)

var regions = map[string]bool{"us": true, "eu": true, "kr": true, "tw": true, "cn": true}

var logFormats = map[string]bool{"text": true, "json": true, "pretty": true}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if BNET_CONFIG is set
//  3. env (prefix BNET_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(envFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// BNET_REQUEST_TIMEOUT_MS -> request_timeout_ms. Keys stay flat so
	// underscores match the koanf tags.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
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

// Validate checks field ranges and the configured endpoint list.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case !regions[strings.ToLower(c.Region)]:
		return fmt.Errorf("%w: unknown region %q", ErrInvalidConfig, c.Region)
	case !logFormats[strings.ToLower(c.LogFormat)]:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	case c.RequestTimeoutMS <= 0:
		return fmt.Errorf("%w: request_timeout_ms must be positive", ErrInvalidConfig)
	case c.MaxBodyBytes <= 0:
		return fmt.Errorf("%w: max_body_bytes must be positive", ErrInvalidConfig)
	case c.MaxConcurrency <= 0:
		return fmt.Errorf("%w: max_concurrency must be positive", ErrInvalidConfig)
	}
	seen := make(map[string]bool, len(c.Endpoints))
	for i, e := range c.Endpoints {
		if strings.TrimSpace(e.Name) == "" {
			return fmt.Errorf("%w: endpoints[%d] has no name", ErrInvalidConfig, i)
		}
		if seen[e.Name] {
			return fmt.Errorf("%w: endpoint %q declared twice", ErrInvalidConfig, e.Name)
		}
		seen[e.Name] = true
		if !strings.HasPrefix(e.Path, "/") {
			return fmt.Errorf("%w: endpoint %q path must start with /", ErrInvalidConfig, e.Name)
		}
		if _, err := namespace.Parse(e.Namespace); err != nil {
			return fmt.Errorf("%w: endpoint %q: %v", ErrInvalidConfig, e.Name, err)
		}
	}
	return nil
}
