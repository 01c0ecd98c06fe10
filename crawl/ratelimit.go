package crawl

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/weftlabs/weft"
	"golang.org/x/time/rate"
)

// Compile-time interface verification.
var _ weft.HostLimiter = (*HostLimiter)(nil)

// LimiterConfig tunes the adaptive per-host limiter.
type LimiterConfig struct {
	// MaxConcurrentPerHost caps simultaneous in-flight requests per host.
	MaxConcurrentPerHost int
	// BaseDelay is the starting inter-request delay per host.
	BaseDelay time.Duration
	// MaxDelay caps the adaptive delay and any server retry hint.
	MaxDelay time.Duration
	// BackoffFactor is the exponential base applied per consecutive
	// failure.
	BackoffFactor float64
	// MaxRetries bounds attempts per request.
	MaxRetries int
	// GlobalRPS caps the request rate across all hosts combined. Zero
	// disables the global bucket.
	GlobalRPS float64
}

// DefaultLimiterConfig returns the limiter defaults.
func DefaultLimiterConfig() LimiterConfig {
	return LimiterConfig{
		MaxConcurrentPerHost: 2,
		BaseDelay:            time.Second,
		MaxDelay:             30 * time.Second,
		BackoffFactor:        2.0,
		MaxRetries:           3,
		GlobalRPS:            10,
	}
}

// hostState is the mutable per-host record. All access goes through the
// limiter's mutex.
type hostState struct {
	stats weft.HostStats
}

// HostLimiter paces requests per host with adaptive delays, bounded
// concurrency, and retry decisions. A token bucket additionally caps
// the global request rate across hosts. Safe for concurrent use.
type HostLimiter struct {
	cfg    LimiterConfig
	global *rate.Limiter

	mu    sync.Mutex
	hosts map[string]*hostState
}

// NewHostLimiter creates a limiter with the given configuration. Zero
// fields fall back to the defaults.
func NewHostLimiter(cfg LimiterConfig) *HostLimiter {
	def := DefaultLimiterConfig()
	if cfg.MaxConcurrentPerHost <= 0 {
		cfg.MaxConcurrentPerHost = def.MaxConcurrentPerHost
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	if cfg.BackoffFactor <= 1 {
		cfg.BackoffFactor = def.BackoffFactor
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}

	l := &HostLimiter{
		cfg:   cfg,
		hosts: make(map[string]*hostState),
	}
	if cfg.GlobalRPS > 0 {
		l.global = rate.NewLimiter(rate.Limit(cfg.GlobalRPS), 1)
	}
	return l
}

// state returns the host's record, creating it on first use. Caller
// must hold the mutex.
func (l *HostLimiter) state(host string) *hostState {
	s, ok := l.hosts[host]
	if !ok {
		s = &hostState{stats: weft.HostStats{
			Host:         host,
			CurrentDelay: l.cfg.BaseDelay,
		}}
		l.hosts[host] = s
	}
	return s
}

// AcquireSlot reserves a concurrency slot for the host. It returns
// false without blocking when the host is at its cap.
func (l *HostLimiter) AcquireSlot(host string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.state(host)
	if s.stats.ActiveRequests >= l.cfg.MaxConcurrentPerHost {
		return false
	}
	s.stats.ActiveRequests++
	return true
}

// ReleaseSlot returns a previously acquired slot. Releasing below zero
// is a caller bug and is clamped.
func (l *HostLimiter) ReleaseSlot(host string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.state(host)
	if s.stats.ActiveRequests > 0 {
		s.stats.ActiveRequests--
	}
}

// Wait sleeps until the host's current delay has elapsed since its last
// request, then consumes a global rate token. Returns an error only if
// the context is canceled.
func (l *HostLimiter) Wait(ctx context.Context, host string) error {
	l.mu.Lock()
	s := l.state(host)
	wait := s.stats.CurrentDelay - time.Since(s.stats.LastRequest)
	s.stats.LastRequest = time.Now()
	l.mu.Unlock()

	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	if l.global != nil {
		return l.global.Wait(ctx)
	}
	return nil
}

// RecordResult feeds one request outcome back into the host's adaptive
// delay. Failures grow the delay exponentially with the consecutive
// failure count; successes halve the failure count and ease the delay
// toward the running response-time average. A success never increases
// the delay.
func (l *HostLimiter) RecordResult(host string, success bool, responseTime time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.state(host)
	s.stats.TotalRequests++
	s.stats.LastRequest = time.Now()

	// Running average response time.
	n := time.Duration(s.stats.TotalRequests)
	s.stats.AvgResponseTime += (responseTime - s.stats.AvgResponseTime) / n

	if success {
		s.stats.Successes++
		s.stats.ConsecutiveFailures /= 2
		target := min(s.stats.AvgResponseTime, l.cfg.MaxDelay)
		eased := max(time.Duration(float64(s.stats.CurrentDelay)*0.9), target)
		s.stats.CurrentDelay = min(eased, s.stats.CurrentDelay)
		return
	}

	s.stats.Failures++
	s.stats.ConsecutiveFailures++
	backoff := math.Pow(l.cfg.BackoffFactor, float64(s.stats.ConsecutiveFailures))
	grown := time.Duration(float64(l.cfg.BaseDelay) * backoff)
	s.stats.CurrentDelay = min(grown, l.cfg.MaxDelay)
}

// ShouldRetry reports whether another attempt is allowed. Attempts are
// zero-based: attempt n is the nth retry.
func (l *HostLimiter) ShouldRetry(host string, attempt int) bool {
	return attempt < l.cfg.MaxRetries
}

// RetryDelay returns how long to wait before the given attempt. An
// explicit server hint wins over exponential backoff; both are capped
// at MaxDelay.
func (l *HostLimiter) RetryDelay(host string, attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		return min(retryAfter, l.cfg.MaxDelay)
	}
	backoff := math.Pow(l.cfg.BackoffFactor, float64(attempt))
	return min(time.Duration(float64(l.cfg.BaseDelay)*backoff), l.cfg.MaxDelay)
}

// Stats returns a copy of the host's counters.
func (l *HostLimiter) Stats(host string) weft.HostStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state(host).stats
}

// Reset clears the host's counters and delay state.
func (l *HostLimiter) Reset(host string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.hosts, host)
}
