package httpserver

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	viewerIP      = "192.168.1.1"
	otherViewerIP = "192.168.1.2"
)

func TestGlobalConnectionLimiter_AcquireRelease(t *testing.T) {
	limiter := NewGlobalConnectionLimiter(3)

	for _i := 0; _i < 3; _i++ {
		assert.True(t, limiter.Acquire())
	}
	assert.True(t, limiter.Full())
	assert.False(t, limiter.Acquire())
	assert.Equal(t, int64(3), limiter.Current())

	limiter.Release()
	assert.False(t, limiter.Full())
	assert.True(t, limiter.Acquire())
	assert.Equal(t, int64(3), limiter.Current())
}

func TestGlobalConnectionLimiter_Concurrent(t *testing.T) {
	limiter := NewGlobalConnectionLimiter(100)
	var successCount, failCount atomic.Int64

	start := make(chan struct{})
	var wg sync.WaitGroup
	for _i := 0; _i < 200; _i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if limiter.Acquire() {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int64(100), successCount.Load())
	assert.Equal(t, int64(100), failCount.Load())
	assert.Equal(t, int64(100), limiter.Current())
}

func TestIPConnectionLimiter_AcquireRelease(t *testing.T) {
	limiter := NewIPConnectionLimiter(2)

	assert.True(t, limiter.Acquire(viewerIP))
	assert.True(t, limiter.Acquire(viewerIP))
	assert.False(t, limiter.Acquire(viewerIP))
	assert.True(t, limiter.Acquire(otherViewerIP))

	limiter.Release(viewerIP)
	assert.Equal(t, 1, limiter.Count(viewerIP))
	assert.True(t, limiter.Acquire(viewerIP))

	limiter.Release(otherViewerIP)
	limiter.Release(otherViewerIP) // extra release is a no-op
	assert.Equal(t, 0, limiter.Count(otherViewerIP))
}

func TestConnectionRateLimiter_RefillFollowsClock(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testNow)
	limiter := NewConnectionRateLimiter(clock, 10, 5)

	for _i := 0; _i < 5; _i++ {
		require.True(t, limiter.Allow(viewerIP))
	}
	assert.False(t, limiter.Allow(viewerIP))
	assert.True(t, limiter.Allow(otherViewerIP))

	clock.Advance(100 * time.Millisecond)
	assert.True(t, limiter.Allow(viewerIP))
	assert.False(t, limiter.Allow(viewerIP))
}

func TestConnectionRateLimiter_SweepsIdleBuckets(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testNow)
	limiter := NewConnectionRateLimiter(clock, 10, 5)

	limiter.Allow(viewerIP)
	limiter.Allow(otherViewerIP)
	assert.Equal(t, 2, limiter.ActiveLimiters())

	clock.Advance(6 * time.Minute)
	limiter.Allow(otherViewerIP)
	assert.Equal(t, 2, limiter.ActiveLimiters(), "buckets younger than the idle TTL survive a sweep")

	clock.Advance(6 * time.Minute)
	limiter.Allow(otherViewerIP)
	assert.Equal(t, 1, limiter.ActiveLimiters())
}

func TestConnectionLimits_Reasons(t *testing.T) {
	tests := []struct {
		name       string
		globalMax  int64
		perIPMax   int
		rate       float64
		burst      int
		wantReason LimitReason
	}{
		{"global", 1, 10, 100, 100, LimitReasonGlobal},
		{"per ip", 10, 1, 100, 100, LimitReasonPerIP},
		{"rate", 10, 10, 1, 1, LimitReasonRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limits := NewConnectionLimits(clockwork.NewFakeClockAt(testNow), tt.globalMax, tt.perIPMax, tt.rate, tt.burst)

			ok, reason := limits.Acquire(viewerIP)
			require.True(t, ok)
			assert.Empty(t, reason)

			ok, reason = limits.Acquire(viewerIP)
			assert.False(t, ok)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestConnectionLimits_RollbackOnPerIPFailure(t *testing.T) {
	limits := NewConnectionLimits(clockwork.NewFakeClockAt(testNow), 100, 1, 100, 100)

	ok, _ := limits.Acquire(viewerIP)
	require.True(t, ok)
	assert.Equal(t, int64(1), limits.Global().Current())

	ok, reason := limits.Acquire(viewerIP)
	assert.False(t, ok)
	assert.Equal(t, LimitReasonPerIP, reason)
	assert.Equal(t, int64(1), limits.Global().Current())

	limits.Release(viewerIP)
	assert.Equal(t, int64(0), limits.Global().Current())
	assert.Equal(t, 0, limits.PerIP().Count(viewerIP))
}
