package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/weftlabs/weft"
)

// Compile-time interface verification.
var _ weft.HostLimiter = (*LoggingHostLimiter)(nil)

// LoggingHostLimiter wraps a HostLimiter and logs waits and recorded
// outcomes. Slot bookkeeping is delegated silently.
type LoggingHostLimiter struct {
	next   weft.HostLimiter
	logger *slog.Logger
}

// NewLoggingHostLimiter creates a new LoggingHostLimiter.
func NewLoggingHostLimiter(next weft.HostLimiter, logger *slog.Logger) *LoggingHostLimiter {
	return &LoggingHostLimiter{next: next, logger: logger}
}

// AcquireSlot delegates to the wrapped limiter.
func (l *LoggingHostLimiter) AcquireSlot(host string) bool {
	return l.next.AcquireSlot(host)
}

// ReleaseSlot delegates to the wrapped limiter.
func (l *LoggingHostLimiter) ReleaseSlot(host string) {
	l.next.ReleaseSlot(host)
}

// Wait delegates to the wrapped limiter and logs how long it slept.
func (l *LoggingHostLimiter) Wait(ctx context.Context, host string) (err error) {
	defer func(begin time.Time) {
		l.logger.Debug("limiter wait",
			"host", host,
			"waited", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return l.next.Wait(ctx, host)
}

// RecordResult delegates to the wrapped limiter and logs the outcome
// with the host's delay after adaptation.
func (l *LoggingHostLimiter) RecordResult(host string, success bool, responseTime time.Duration) {
	l.next.RecordResult(host, success, responseTime)
	stats := l.next.Stats(host)
	l.logger.Debug("limiter record",
		"host", host,
		"success", success,
		"responseTime", responseTime,
		"delay", stats.CurrentDelay,
		"consecutiveFailures", stats.ConsecutiveFailures,
	)
}

// ShouldRetry delegates to the wrapped limiter.
func (l *LoggingHostLimiter) ShouldRetry(host string, attempt int) bool {
	return l.next.ShouldRetry(host, attempt)
}

// RetryDelay delegates to the wrapped limiter.
func (l *LoggingHostLimiter) RetryDelay(host string, attempt int, retryAfter time.Duration) time.Duration {
	return l.next.RetryDelay(host, attempt, retryAfter)
}

// Stats delegates to the wrapped limiter.
func (l *LoggingHostLimiter) Stats(host string) weft.HostStats {
	return l.next.Stats(host)
}

// Reset delegates to the wrapped limiter.
func (l *LoggingHostLimiter) Reset(host string) {
	l.next.Reset(host)
}
