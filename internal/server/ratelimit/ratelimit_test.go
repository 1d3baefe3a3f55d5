package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonathan/form-filler/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests move time without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(cfg *Config) (*Limiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewLimiter(cfg)
	l.now = clock.Now
	return l, clock
}

func TestLimiter_Allow(t *testing.T) {
	l, _ := newTestLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})
	defer l.Stop()

	for i := 0; i < 10; i++ {
		allowed, info := l.Allow("127.0.0.1", "/aliases", "GET")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 10, info.Limit)
		assert.Equal(t, 9-i, info.Remaining)
	}

	allowed, info := l.Allow("127.0.0.1", "/aliases", "GET")
	assert.False(t, allowed)
	assert.Zero(t, info.Remaining)
	assert.Equal(t, 6*time.Second, info.RetryAfter, "one token per six seconds")
}

func TestLimiter_Refill(t *testing.T) {
	l, clock := newTestLimiter(&Config{Enabled: true, DefaultLimit: 60, DefaultWindow: time.Minute})
	defer l.Stop()

	for i := 0; i < 60; i++ {
		l.Allow("c", "/aliases", "GET")
	}
	allowed, _ := l.Allow("c", "/aliases", "GET")
	require.False(t, allowed)

	clock.Advance(time.Second)
	allowed, _ = l.Allow("c", "/aliases", "GET")
	assert.True(t, allowed)
	allowed, _ = l.Allow("c", "/aliases", "GET")
	assert.False(t, allowed)
}

func TestLimiter_ResetTime(t *testing.T) {
	l, clock := newTestLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: 10 * time.Second})
	defer l.Stop()

	for i := 0; i < 5; i++ {
		l.Allow("c", "/aliases", "GET")
	}
	_, info := l.Allow("c", "/aliases", "GET")
	assert.Equal(t, 4, info.Remaining)
	assert.Equal(t, clock.Now().Add(6*time.Second), info.ResetTime)
}

func TestLimiter_Whitelist(t *testing.T) {
	l, _ := newTestLimiter(&Config{
		Enabled:      true,
		DefaultLimit: 1, DefaultWindow: time.Minute,
		Whitelist: map[string]bool{"10.0.0.1": true},
	})
	defer l.Stop()

	for i := 0; i < 5; i++ {
		allowed, _ := l.Allow("10.0.0.1", "/fill", "POST")
		assert.True(t, allowed)
	}
}

func TestLimiter_Blacklist(t *testing.T) {
	l, _ := newTestLimiter(&Config{
		Enabled:      true,
		DefaultLimit: 100, DefaultWindow: time.Minute,
		Blacklist: map[string]bool{"10.0.0.2": true},
	})
	defer l.Stop()

	allowed, _ := l.Allow("10.0.0.2", "/health", "GET")
	assert.False(t, allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	l, _ := newTestLimiter(&Config{Enabled: false, DefaultLimit: 1})
	defer l.Stop()

	for i := 0; i < 3; i++ {
		allowed, info := l.Allow("c", "/fill", "POST")
		assert.True(t, allowed)
		assert.Zero(t, info.Limit)
	}
}

func TestLimiter_EndpointSpecific(t *testing.T) {
	l, _ := newTestLimiter(&Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		EndpointConfigs: DefaultEndpointConfigs(),
	})
	defer l.Stop()

	for i := 0; i < 2; i++ {
		allowed, _ := l.Allow("c", "/fill/url", "POST")
		require.True(t, allowed)
	}
	allowed, info := l.Allow("c", "/fill/url", "POST")
	assert.False(t, allowed, "burst of two for live fills")
	assert.Equal(t, 10, info.Limit)

	allowed, _ = l.Allow("c", "/fill", "POST")
	assert.True(t, allowed, "separate bucket per endpoint")

	allowed, _ = l.Allow("other", "/fill/url", "POST")
	assert.True(t, allowed, "separate bucket per client")
}

func TestLimiter_HealthChecksUnlimited(t *testing.T) {
	l, _ := newTestLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Hour})
	defer l.Stop()

	for i := 0; i < 5; i++ {
		ok, _ := l.Allow("c", "/health", "GET")
		assert.True(t, ok)
		ok, _ = l.Allow("c", "/metrics", "GET")
		assert.True(t, ok)
	}
	assert.Zero(t, l.Size())
}

func TestLimiter_Concurrent(t *testing.T) {
	l, _ := newTestLimiter(&Config{Enabled: true, DefaultLimit: 50, DefaultWindow: time.Hour})
	defer l.Stop()

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Allow("c", "/fill", "POST"); ok {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(50), allowed.Load())
}

func TestLimiter_Cleanup(t *testing.T) {
	l, clock := newTestLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})
	defer l.Stop()

	l.Allow("old", "/fill", "POST")
	clock.Advance(2 * time.Hour)
	l.Allow("new", "/fill", "POST")
	require.Equal(t, 2, l.Size())

	l.cleanupBuckets()
	assert.Equal(t, 1, l.Size())
}

func TestNewLimiter_NilConfig(t *testing.T) {
	l := NewLimiter(nil)
	defer l.Stop()

	allowed, info := l.Allow("c", "/aliases", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)
}

func TestLimiter_StopTwice(t *testing.T) {
	l := NewLimiter(nil)
	l.Stop()
	assert.NotPanics(t, l.Stop)
}

func TestMatchEndpoint(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/fill", Method: "POST", Limit: 1},
		{Path: "/runs/", Method: "GET", Limit: 2},
	}

	assert.Equal(t, 1, MatchEndpoint("/fill", "POST", configs).Limit)
	assert.Nil(t, MatchEndpoint("/fill", "GET", configs))
	assert.Equal(t, 2, MatchEndpoint("/runs/abc", "GET", configs).Limit)
	assert.Zero(t, MatchEndpoint("/health", "GET", configs).Limit)
	assert.Nil(t, MatchEndpoint("/other", "POST", configs))
}

func TestFromSettings(t *testing.T) {
	cfg := FromSettings(&config.RateLimitConfig{
		Enabled:         true,
		DefaultLimit:    25,
		DefaultWindow:   time.Minute,
		CleanupInterval: time.Minute,
		Whitelist:       []string{"1.1.1.1", "2.2.2.2"},
		Blacklist:       []string{"3.3.3.3"},
	})
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 25, cfg.DefaultLimit)
	assert.True(t, cfg.Whitelist["2.2.2.2"])
	assert.True(t, cfg.Blacklist["3.3.3.3"])
	assert.False(t, cfg.Blacklist["1.1.1.1"])
	assert.NotNil(t, MatchEndpoint("/fill/url", "POST", cfg.EndpointConfigs))

	assert.False(t, FromSettings(&config.RateLimitConfig{Enabled: false, DefaultLimit: 5}).Enabled)
	assert.False(t, FromSettings(nil).Enabled)
}
