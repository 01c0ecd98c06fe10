package weft

import (
	"context"
	"time"
)

// FetchResult is what the document source supplies for one URL.
type FetchResult struct {
	HTML       string
	FinalURL   string
	StatusCode int
}

// Fetcher retrieves HTML documents. The engine never performs network
// I/O itself; it only gates and paces fetches through a HostLimiter and
// RobotsPolicy.
type Fetcher interface {
	// Fetch retrieves the document at url. The context controls timeout
	// and cancellation. Failures are reported as ENETWORK or ERATELIMIT
	// errors.
	Fetch(ctx context.Context, url string) (*FetchResult, error)

	// Close releases any underlying resources.
	Close() error
}

// RobotsPolicy answers whether a URL may be fetched at all. A denial
// must prevent any slot acquisition or fetch attempt.
type RobotsPolicy interface {
	CanFetch(ctx context.Context, url string, userAgent string) (bool, error)
}

// HostStats are the per-host counters maintained by a HostLimiter. The
// limiter owns these exclusively; they are only readable through its
// synchronized Stats operation.
type HostStats struct {
	Host                string        `json:"host"`
	TotalRequests       int           `json:"totalRequests"`
	Successes           int           `json:"successes"`
	Failures            int           `json:"failures"`
	AvgResponseTime     time.Duration `json:"avgResponseTime"`
	LastRequest         time.Time     `json:"lastRequest"`
	CurrentDelay        time.Duration `json:"currentDelay"`
	ConsecutiveFailures int           `json:"consecutiveFailures"`
	ActiveRequests      int           `json:"activeRequests"`
}

// HostLimiter paces requests per host with adaptive delays, bounded
// concurrency, and retry decisions. Every AcquireSlot must be paired
// with a ReleaseSlot, even on error; a leaked slot starves future
// requests to that host.
type HostLimiter interface {
	// AcquireSlot reserves a concurrency slot for the host. It returns
	// false without blocking when the host is at its concurrency cap.
	AcquireSlot(host string) bool

	// ReleaseSlot returns a previously acquired slot.
	ReleaseSlot(host string)

	// Wait sleeps until the host's current delay has elapsed since its
	// last request. Returns an error only if the context is canceled.
	Wait(ctx context.Context, host string) error

	// RecordResult feeds the outcome of one request back into the
	// host's adaptive delay.
	RecordResult(host string, success bool, responseTime time.Duration)

	// ShouldRetry reports whether another attempt is allowed.
	ShouldRetry(host string, attempt int) bool

	// RetryDelay returns how long to wait before the given attempt,
	// preferring an explicit server hint over exponential backoff.
	RetryDelay(host string, attempt int, retryAfter time.Duration) time.Duration

	// Stats returns a copy of the host's counters.
	Stats(host string) HostStats

	// Reset clears the host's counters and delay state.
	Reset(host string)
}

// SitemapService discovers page URLs from a site's sitemaps.
type SitemapService interface {
	DiscoverURLs(ctx context.Context, baseURL string) ([]string, error)
}

// MainContent is the boilerplate-free main content of a page.
type MainContent struct {
	Title       string
	Text        string
	ContentHTML string
}

// MainExtractor pulls the main content out of a page, removing
// boilerplate. Used as a fallback when detail-mode selector extraction
// finds nothing.
type MainExtractor interface {
	ExtractMain(html string) (*MainContent, error)
}

// Converter transforms HTML into Markdown for markdown-kind extraction.
type Converter interface {
	Convert(html string) (string, error)
}
