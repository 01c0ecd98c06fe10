// Package http implements weft's network-facing services: document
// fetching, robots.txt policy, and sitemap discovery. Static HTML only;
// no script execution.
package http

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/weftlabs/weft"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
const DefaultFetchTimeout = 10 * time.Second

// DefaultUserAgent identifies the engine to origin servers.
const DefaultUserAgent = "weft/1.0 (+https://github.com/weftlabs/weft)"

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 10 << 20

// Compile-time interface verification.
var _ weft.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves HTML documents over HTTP. It does not execute
// JavaScript and is suitable for static sites only.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests. Defaults to
// DefaultFetchTimeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.timeout = d }
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.userAgent = ua }
}

// WithClient sets a custom HTTP client.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// NewFetcher creates a new HTTP Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:   DefaultFetchTimeout,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = &http.Client{Timeout: f.timeout}
	}
	return f
}

// Fetch retrieves the document at url. Non-2xx responses are classified
// into domain errors: 429 and 503 become rate-limit errors carrying any
// Retry-After hint, other statuses become network errors tagged with
// the status code.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*weft.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, weft.Errorf(weft.EINVALID, "invalid url %q: %v", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, weft.NetworkErrorf(0, "fetch %s: %v", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		return nil, weft.RateLimitErrorf(retryAfter(resp), "HTTP %d for %s", resp.StatusCode, url)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, weft.NetworkErrorf(resp.StatusCode, "HTTP %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, weft.NetworkErrorf(resp.StatusCode, "read %s: %v", url, err)
	}

	finalURL := url
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return &weft.FetchResult{
		HTML:       string(body),
		FinalURL:   finalURL,
		StatusCode: resp.StatusCode,
	}, nil
}

// Close releases resources. The underlying client needs no explicit
// cleanup.
func (f *Fetcher) Close() error {
	return nil
}

// retryAfter parses a Retry-After header as delay seconds or an HTTP
// date. Zero means no usable hint.
func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
