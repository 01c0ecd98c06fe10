package crawl

import (
	"context"
	"math"
	"time"

	"github.com/weftlabs/weft"
)

// DelayStrategy names how retry delays grow with the attempt number.
type DelayStrategy string

// Delay strategies.
const (
	DelayNone        DelayStrategy = "none"
	DelayFixed       DelayStrategy = "fixed"
	DelayLinear      DelayStrategy = "linear"
	DelayExponential DelayStrategy = "exponential"
)

// RetryPolicy decides whether and when to retry a failed request.
// Retryability itself is decided by the error's code; the policy only
// shapes the schedule.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Strategy    DelayStrategy
}

// DefaultRetryPolicy returns the standard policy: three retries with
// exponential backoff from one second, capped at thirty.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Strategy:    DelayExponential,
	}
}

// Delay returns the wait before retry attempt n (zero-based). The
// result is monotone non-decreasing in n and capped at MaxDelay.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	var d time.Duration
	switch p.Strategy {
	case DelayNone:
		return 0
	case DelayFixed:
		d = p.BaseDelay
	case DelayLinear:
		d = p.BaseDelay * time.Duration(attempt+1)
	default: // exponential
		d = time.Duration(float64(p.BaseDelay) * math.Pow(2, float64(attempt)))
	}
	if p.MaxDelay > 0 {
		d = min(d, p.MaxDelay)
	}
	return d
}

// Do runs fn with the policy's retry schedule. Only errors the domain
// classifies as retryable are retried; a server Retry-After hint, when
// present, overrides the computed delay. The last error is returned
// when attempts are exhausted.
func Do[T any](ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; ; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if attempt >= policy.MaxAttempts || !weft.Retryable(err) {
			return zero, lastErr
		}

		delay := policy.Delay(attempt)
		if hint := weft.RetryAfterHint(err); hint > 0 {
			delay = hint
			if policy.MaxDelay > 0 {
				delay = min(delay, policy.MaxDelay)
			}
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}
