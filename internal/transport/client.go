// Package transport provides the HTTP client used to download catalog
// documents and the pages that reference them.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/agentstation/fieldmap/pkg/constants"
	"github.com/agentstation/fieldmap/pkg/errors"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
var DefaultHTTPTimeout = constants.DefaultHTTPTimeout

// DefaultUserAgent mimics a desktop browser; some catalog hosts reject bare clients.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// maxBodySize caps downloaded documents (64 MiB).
const maxBodySize = 64 << 20

// Client performs one-shot GET requests. There are no retries.
type Client struct {
	http      *http.Client
	userAgent string
	referer   string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithReferer sets the Referer header sent with every request.
func WithReferer(referer string) Option {
	return func(c *Client) {
		c.referer = referer
	}
}

// New creates a new transport client.
func New(opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{Timeout: DefaultHTTPTimeout},
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches url and returns the response body. Any non-200 status is an error.
func (c *Client) Get(ctx context.Context, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WrapIO("fetch", url, err)
	}
	if accept == "" {
		accept = "application/json, text/plain, */*"
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.referer != "" {
		req.Header.Set("Referer", c.referer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.WrapIO("fetch", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewIOError("fetch", url, fmt.Errorf("unexpected status %s", resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.WrapIO("read", url, err)
	}
	return body, nil
}

// GetJSON is Get with a JSON Accept header.
func (c *Client) GetJSON(ctx context.Context, url string) ([]byte, error) {
	return c.Get(ctx, url, "application/json, text/plain, */*")
}

// GetHTML is Get with an HTML Accept header.
func (c *Client) GetHTML(ctx context.Context, url string) ([]byte, error) {
	return c.Get(ctx, url, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
}
