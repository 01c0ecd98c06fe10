package crawl_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weftlabs/weft/crawl"
)

func testLimiterConfig() crawl.LimiterConfig {
	return crawl.LimiterConfig{
		MaxConcurrentPerHost: 2,
		BaseDelay:            10 * time.Millisecond,
		MaxDelay:             100 * time.Millisecond,
		BackoffFactor:        2.0,
		MaxRetries:           3,
	}
}

func TestHostLimiter_SlotCap(t *testing.T) {
	t.Parallel()

	l := crawl.NewHostLimiter(testLimiterConfig())

	assert.True(t, l.AcquireSlot("example.com"))
	assert.True(t, l.AcquireSlot("example.com"))
	assert.False(t, l.AcquireSlot("example.com"), "third slot must be refused")

	// Another host is unaffected.
	assert.True(t, l.AcquireSlot("other.com"))

	l.ReleaseSlot("example.com")
	assert.True(t, l.AcquireSlot("example.com"))
}

func TestHostLimiter_ActiveNeverNegative(t *testing.T) {
	t.Parallel()

	l := crawl.NewHostLimiter(testLimiterConfig())

	// Spurious releases must not drive the counter below zero.
	l.ReleaseSlot("example.com")
	l.ReleaseSlot("example.com")
	assert.Equal(t, 0, l.Stats("example.com").ActiveRequests)

	assert.True(t, l.AcquireSlot("example.com"))
	assert.Equal(t, 1, l.Stats("example.com").ActiveRequests)
}

func TestHostLimiter_SlotInvariantUnderConcurrency(t *testing.T) {
	t.Parallel()

	cfg := testLimiterConfig()
	cfg.MaxConcurrentPerHost = 3
	l := crawl.NewHostLimiter(cfg)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.AcquireSlot("example.com") {
				active := l.Stats("example.com").ActiveRequests
				assert.LessOrEqual(t, active, 3)
				assert.GreaterOrEqual(t, active, 1)
				l.ReleaseSlot("example.com")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, l.Stats("example.com").ActiveRequests)
}

func TestHostLimiter_BackoffGrowsMonotonically(t *testing.T) {
	t.Parallel()

	l := crawl.NewHostLimiter(testLimiterConfig())

	prev := l.Stats("example.com").CurrentDelay
	for range 5 {
		l.RecordResult("example.com", false, 10*time.Millisecond)
		cur := l.Stats("example.com").CurrentDelay
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
	assert.LessOrEqual(t, prev, 100*time.Millisecond, "delay must respect the cap")
}

func TestHostLimiter_SuccessNeverIncreasesDelay(t *testing.T) {
	t.Parallel()

	l := crawl.NewHostLimiter(testLimiterConfig())

	l.RecordResult("example.com", false, time.Millisecond)
	l.RecordResult("example.com", false, time.Millisecond)
	grown := l.Stats("example.com").CurrentDelay

	l.RecordResult("example.com", true, time.Millisecond)
	stats := l.Stats("example.com")
	assert.LessOrEqual(t, stats.CurrentDelay, grown)
	assert.Equal(t, 1, stats.ConsecutiveFailures, "success halves the failure count")
}

func TestHostLimiter_SuccessEasesTowardResponseAverage(t *testing.T) {
	t.Parallel()

	l := crawl.NewHostLimiter(testLimiterConfig())

	for range 50 {
		l.RecordResult("example.com", true, 2*time.Millisecond)
	}

	stats := l.Stats("example.com")
	assert.Equal(t, 2*time.Millisecond, stats.AvgResponseTime)
	assert.Equal(t, 2*time.Millisecond, stats.CurrentDelay,
		"delay converges on the observed response average")
}

func TestHostLimiter_ShouldRetry(t *testing.T) {
	t.Parallel()

	l := crawl.NewHostLimiter(testLimiterConfig())

	assert.True(t, l.ShouldRetry("example.com", 0))
	assert.True(t, l.ShouldRetry("example.com", 2))
	assert.False(t, l.ShouldRetry("example.com", 3))
	assert.False(t, l.ShouldRetry("example.com", 10))
}

func TestHostLimiter_RetryDelay(t *testing.T) {
	t.Parallel()

	l := crawl.NewHostLimiter(testLimiterConfig())

	t.Run("monotone in attempt", func(t *testing.T) {
		t.Parallel()
		prev := time.Duration(-1)
		for attempt := range 6 {
			d := l.RetryDelay("example.com", attempt, 0)
			assert.GreaterOrEqual(t, d, prev)
			assert.LessOrEqual(t, d, 100*time.Millisecond)
			prev = d
		}
	})

	t.Run("server hint wins", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, 50*time.Millisecond, l.RetryDelay("example.com", 0, 50*time.Millisecond))
	})

	t.Run("server hint is capped", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, 100*time.Millisecond, l.RetryDelay("example.com", 0, time.Hour))
	})
}

func TestHostLimiter_StatsAndReset(t *testing.T) {
	t.Parallel()

	l := crawl.NewHostLimiter(testLimiterConfig())

	l.RecordResult("example.com", true, 20*time.Millisecond)
	l.RecordResult("example.com", false, 40*time.Millisecond)

	stats := l.Stats("example.com")
	assert.Equal(t, "example.com", stats.Host)
	assert.Equal(t, 2, stats.TotalRequests)
	assert.Equal(t, 1, stats.Successes)
	assert.Equal(t, 1, stats.Failures)
	assert.Greater(t, stats.AvgResponseTime, time.Duration(0))

	l.Reset("example.com")
	fresh := l.Stats("example.com")
	assert.Equal(t, 0, fresh.TotalRequests)
	assert.Equal(t, 10*time.Millisecond, fresh.CurrentDelay)
}

func TestHostLimiter_WaitHonorsContext(t *testing.T) {
	t.Parallel()

	cfg := testLimiterConfig()
	cfg.BaseDelay = time.Minute
	l := crawl.NewHostLimiter(cfg)

	// Prime last-request so the next wait would sleep.
	require.NoError(t, l.Wait(context.Background(), "example.com"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := l.Wait(ctx, "example.com")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
