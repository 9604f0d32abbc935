package client

import (
	"net/http"
	"time"

	"github.com/okian/bnet/internal/config"
	"github.com/okian/bnet/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithRegion selects the API host and the namespace suffix.
func WithRegion(region string) Option {
	return func(c *Client) {
		if region != "" {
			c.region = region
		}
	}
}

// WithBaseURL overrides the region host, e.g. for tests or proxies.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithLocale sets the locale query parameter; empty omits it.
func WithLocale(locale string) Option {
	return func(c *Client) {
		c.locale = locale
	}
}

// WithAccessToken sets a bearer token obtained out of band.
func WithAccessToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithTimeout bounds each request; zero or negative keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxBodySize caps the decompressed response body.
func WithMaxBodySize(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBodySize = n
		}
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewFromConfig builds a Client from loaded configuration. Extra options
// are applied last.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Client, error) {
	base := []Option{
		WithRegion(cfg.Region),
		WithLocale(cfg.Locale),
		WithAccessToken(cfg.AccessToken),
		WithTimeout(cfg.RequestTimeout()),
		WithMaxBodySize(cfg.MaxBodyBytes),
	}
	if cfg.BaseURL != "" {
		base = append(base, WithBaseURL(cfg.BaseURL))
	}
	return New(append(base, opts...)...)
}
