package mock

import (
	"context"
	"time"

	"github.com/weftlabs/weft"
)

var _ weft.HostLimiter = (*HostLimiter)(nil)

// HostLimiter is a mock implementation of weft.HostLimiter. Nil
// function fields default to permissive no-ops so tests only wire what
// they assert on.
type HostLimiter struct {
	AcquireSlotFn  func(host string) bool
	ReleaseSlotFn  func(host string)
	WaitFn         func(ctx context.Context, host string) error
	RecordResultFn func(host string, success bool, responseTime time.Duration)
	ShouldRetryFn  func(host string, attempt int) bool
	RetryDelayFn   func(host string, attempt int, retryAfter time.Duration) time.Duration
	StatsFn        func(host string) weft.HostStats
	ResetFn        func(host string)
}

func (l *HostLimiter) AcquireSlot(host string) bool {
	if l.AcquireSlotFn == nil {
		return true
	}
	return l.AcquireSlotFn(host)
}

func (l *HostLimiter) ReleaseSlot(host string) {
	if l.ReleaseSlotFn != nil {
		l.ReleaseSlotFn(host)
	}
}

func (l *HostLimiter) Wait(ctx context.Context, host string) error {
	if l.WaitFn == nil {
		return nil
	}
	return l.WaitFn(ctx, host)
}

func (l *HostLimiter) RecordResult(host string, success bool, responseTime time.Duration) {
	if l.RecordResultFn != nil {
		l.RecordResultFn(host, success, responseTime)
	}
}

func (l *HostLimiter) ShouldRetry(host string, attempt int) bool {
	if l.ShouldRetryFn == nil {
		return false
	}
	return l.ShouldRetryFn(host, attempt)
}

func (l *HostLimiter) RetryDelay(host string, attempt int, retryAfter time.Duration) time.Duration {
	if l.RetryDelayFn == nil {
		return 0
	}
	return l.RetryDelayFn(host, attempt, retryAfter)
}

func (l *HostLimiter) Stats(host string) weft.HostStats {
	if l.StatsFn == nil {
		return weft.HostStats{Host: host}
	}
	return l.StatsFn(host)
}

func (l *HostLimiter) Reset(host string) {
	if l.ResetFn != nil {
		l.ResetFn(host)
	}
}
