// Package client implements endpoint.Transport over HTTPS against the
// Battle.net API. It owns URL construction, namespace and locale selection,
// response decompression and error classification; it never retries.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"

	"github.com/okian/bnet/internal/domain/endpoint"
	"github.com/okian/bnet/internal/domain/namespace"
	"github.com/okian/bnet/pkg/logger"
	"github.com/okian/bnet/pkg/metrics"
)

const (
	defaultRegion      = "eu"
	defaultTimeout     = 10 * time.Second
	defaultMaxBodySize = 10 << 20 // 10 MB
	errorBodyLimit     = 4 << 10

	namespaceHeader = "Battlenet-Namespace"
	acceptEncoding  = "br, gzip"
	chinaBaseURL    = "https://gateway.battlenet.com.cn"
)

// ErrBodyTooLarge is the cause of a TransportError when a response exceeds
// the configured body limit.
var ErrBodyTooLarge = errors.New("response body exceeds limit")

// Client performs GET requests against one regional API host. It holds no
// per-request state and is safe for concurrent use.
type Client struct {
	region      string
	baseURL     string
	locale      string
	token       string
	timeout     time.Duration
	maxBodySize int64
	httpClient  *http.Client
	logger      logger.Logger

	base *url.URL
}

var _ endpoint.Transport = (*Client)(nil)

// New creates a Client. Without WithBaseURL the host is derived from the region.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		region:      defaultRegion,
		locale:      "en_US",
		timeout:     defaultTimeout,
		maxBodySize: defaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.region = strings.ToLower(c.region)
	if c.baseURL == "" {
		c.baseURL = RegionBaseURL(c.region)
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q must be http or https", ErrBaseURL, base.Scheme)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrBaseURL, c.baseURL)
	}
	base.RawQuery = ""
	base.Fragment = ""
	c.base = base

	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   32,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		}
	}
	if c.logger == nil {
		c.logger = logger.Named("client")
	}
	return c, nil
}

// RegionBaseURL returns the API host for a region.
func RegionBaseURL(region string) string {
	if region == "cn" {
		return chinaBaseURL
	}
	return "https://" + region + ".api.blizzard.com"
}

// BaseURL returns the resolved host URL.
func (c *Client) BaseURL() string { return c.base.String() }

// Region returns the configured region.
func (c *Client) Region() string { return c.region }

// Get fetches path within ns and returns the decompressed body. Network
// failures come back as *endpoint.TransportError and non-2xx answers as
// *endpoint.StatusError.
func (c *Client) Get(ctx context.Context, path string, ns namespace.Namespace) ([]byte, error) {
	start := time.Now()
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target, err := c.resolve(path)
	if err != nil {
		return nil, &endpoint.TransportError{Path: path, Namespace: ns, Cause: err}
	}
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &endpoint.TransportError{Path: path, Namespace: ns, Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", acceptEncoding)
	req.Header.Set(namespaceHeader, ns.Qualify(c.region))
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	metrics.IncUpstreamInFlight()
	defer metrics.DecUpstreamInFlight()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordTransportError(classify(err))
		metrics.RecordUpstreamRequest(ns.String(), 0, sinceMs(start))
		c.logger.Debug(ctx, "upstream request failed",
			logger.String("path", path), logger.String("namespace", ns.String()), logger.Error(err))
		return nil, &endpoint.TransportError{Path: path, Namespace: ns, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RecordUpstreamRequest(ns.String(), resp.StatusCode, sinceMs(start))
		se := &endpoint.StatusError{Path: path, Namespace: ns, StatusCode: resp.StatusCode}
		if body, rerr := c.readBody(resp, errorBodyLimit); rerr == nil {
			fillStatusError(se, body)
		}
		c.logger.Debug(ctx, "upstream non-success status",
			logger.String("path", path), logger.Int("status", resp.StatusCode))
		return nil, se
	}

	body, err := c.readBody(resp, c.maxBodySize)
	if err != nil {
		kind := "body"
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			kind = "timeout"
		} else if errors.Is(ctx.Err(), context.Canceled) {
			kind = "canceled"
		}
		metrics.RecordTransportError(kind)
		metrics.RecordUpstreamRequest(ns.String(), 0, sinceMs(start))
		return nil, &endpoint.TransportError{Path: path, Namespace: ns, Cause: err}
	}

	metrics.RecordUpstreamRequest(ns.String(), resp.StatusCode, sinceMs(start))
	metrics.AddUpstreamBytes(len(body))
	c.logger.Debug(ctx, "upstream request",
		logger.String("path", path),
		logger.String("namespace", ns.Qualify(c.region)),
		logger.Int("status", resp.StatusCode),
		logger.Int("bytes", len(body)),
		logger.Duration("took", time.Since(start)))
	return body, nil
}

// resolve joins the escaped resource path onto the base URL and adds the locale.
func (c *Client) resolve(path string) (string, error) {
	if !strings.HasPrefix(path, "/") {
		return "", fmt.Errorf("path %q must start with /", path)
	}
	u, err := url.Parse(strings.TrimRight(c.base.String(), "/") + path)
	if err != nil {
		return "", err
	}
	if c.locale != "" {
		q := u.Query()
		q.Set("locale", c.locale)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// readBody decompresses according to Content-Encoding and enforces limit.
func (c *Client) readBody(resp *http.Response, limit int64) ([]byte, error) {
	var r io.Reader
	switch enc := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))); enc {
	case "", "identity":
		r = resp.Body
	case "br":
		r = brotli.NewReader(resp.Body)
	case "gzip":
		gr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("invalid gzip body: %w", err)
		}
		defer gr.Close()
		r = gr
	default:
		return nil, fmt.Errorf("unsupported Content-Encoding %q", enc)
	}
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w of %d bytes", ErrBodyTooLarge, limit)
	}
	return body, nil
}

// blizzardError is the error document returned by the API.
type blizzardError struct {
	Type   string `json:"type"`
	Detail string `json:"detail"`
}

func fillStatusError(se *endpoint.StatusError, body []byte) {
	var be blizzardError
	if json.Unmarshal(body, &be) != nil {
		return
	}
	se.Code = be.Type
	se.Detail = be.Detail
}

func classify(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return "timeout"
	}
	return "network"
}

func sinceMs(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
