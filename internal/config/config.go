// Package config defines client and gateway configuration and how it is loaded.
//
// Conventions:
// - Provide New(ctx) returning a Config populated with defaults.
// - Load layers a YAML file and BNET_ environment variables over the defaults.
// - External errors are wrapped with this package's sentinels.
package config

import (
	"context"
	"time"
)

// Endpoint declares an extra API resource by configuration. Responses are
// decoded as raw JSON objects.
type Endpoint struct {
	// Name is the identifier used by the gateway and CLI, e.g. "item".
	Name string `koanf:"name"`

	// Path is the template, e.g. "/data/wow/item/{itemId}".
	Path string `koanf:"path"`

	// Namespace is one of profile, static, dynamic.
	Namespace string `koanf:"namespace"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text, json or pretty.
	LogFormat string `koanf:"log_format"`

	// Addr configures the gateway listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Region selects the API host and namespace suffix: us, eu, kr, tw, cn.
	Region string `koanf:"region"`

	// Locale is sent as the locale query parameter, e.g. "en_US".
	Locale string `koanf:"locale"`

	// BaseURL overrides the region host when set.
	BaseURL string `koanf:"base_url"`

	// AccessToken is a bearer token obtained out of band.
	AccessToken string `koanf:"access_token"`

	// RequestTimeoutMS bounds each upstream call.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// MaxBodyBytes caps the size of an upstream response body.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// MaxConcurrency bounds in-flight calls in a batch lookup.
	MaxConcurrency int `koanf:"max_concurrency"`

	// MetricsEnabled turns Prometheus collection on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// Endpoints adds resources beyond the built-in catalog.
	Endpoints []Endpoint `koanf:"endpoints"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		Region:           "eu",
		Locale:           "en_US",
		RequestTimeoutMS: 10_000,
		MaxBodyBytes:     10 << 20,
		MaxConcurrency:   8,
		MetricsEnabled:   true,
	}
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}
