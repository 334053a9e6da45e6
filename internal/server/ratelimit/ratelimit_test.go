package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
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

func newTestLimiter(config *Config, clock *fakeClock) *Limiter {
	l := NewLimiter(config)
	l.now = clock.Now
	return l
}

func TestTokenBucket_Take(t *testing.T) {
	clock := newFakeClock()
	bucket := newTokenBucket(10, 1.0, clock.Now()) // 10 tokens, 1 token per second

	// Should allow 10 requests immediately (burst)
	for i := 0; i < 10; i++ {
		allowed, remaining, _, _ := bucket.take(clock.Now())
		if !allowed {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
		if remaining != 9-i {
			t.Errorf("Expected remaining %d, got %d", 9-i, remaining)
		}
	}

	allowed, _, resetTime, retryAfter := bucket.take(clock.Now())
	if allowed {
		t.Error("Expected 11th request to be denied")
	}
	if retryAfter != time.Second {
		t.Errorf("Expected retry after 1s, got %v", retryAfter)
	}
	if want := clock.Now().Add(10 * time.Second); !resetTime.Equal(want) {
		t.Errorf("Expected reset at %v, got %v", want, resetTime)
	}
}

func TestTokenBucket_Refill(t *testing.T) {
	clock := newFakeClock()
	bucket := newTokenBucket(10, 1.0, clock.Now())

	for i := 0; i < 10; i++ {
		bucket.take(clock.Now())
	}

	clock.Advance(1500 * time.Millisecond)

	if allowed, _, _, _ := bucket.take(clock.Now()); !allowed {
		t.Error("Expected request to be allowed after refill")
	}
	allowed, _, _, retryAfter := bucket.take(clock.Now())
	if allowed {
		t.Error("Expected request to be denied after consuming refilled token")
	}
	if retryAfter != 500*time.Millisecond {
		t.Errorf("Expected retry after 500ms, got %v", retryAfter)
	}

	// Refill never exceeds capacity
	clock.Advance(time.Hour)
	_, remaining, _, _ := bucket.take(clock.Now())
	if remaining != 9 {
		t.Errorf("Expected 9 remaining after full refill, got %d", remaining)
	}
}

func TestLimiter_Allow(t *testing.T) {
	clock := newFakeClock()
	limiter := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
	}, clock)
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		allowed, rateInfo := limiter.Allow("127.0.0.1", "/applications/mine", "GET")
		if !allowed {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
		if rateInfo.Limit != 10 {
			t.Errorf("Expected limit 10, got %d", rateInfo.Limit)
		}
	}

	allowed, rateInfo := limiter.Allow("127.0.0.1", "/applications/mine", "GET")
	if allowed {
		t.Error("Expected 11th request to be denied")
	}
	if rateInfo.Remaining != 0 {
		t.Errorf("Expected remaining 0, got %d", rateInfo.Remaining)
	}
	if rateInfo.RetryAfter <= 0 {
		t.Error("Expected retry after to be positive")
	}

	// Another client has its own bucket
	if allowed, _ := limiter.Allow("10.0.0.2", "/applications/mine", "GET"); !allowed {
		t.Error("Expected other client to be allowed")
	}
}

func TestLimiter_WhitelistBlacklistDisabled(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"127.0.0.1": true},
		Blacklist:     map[string]bool{"192.168.1.1": true},
	})
	defer limiter.Stop()

	for i := 0; i < 100; i++ {
		if allowed, _ := limiter.Allow("127.0.0.1", "/applications", "POST"); !allowed {
			t.Fatalf("Expected whitelisted request %d to be allowed", i+1)
		}
	}
	if allowed, _ := limiter.Allow("192.168.1.1", "/health", "GET"); allowed {
		t.Error("Expected blacklisted request to be denied")
	}

	disabled := NewLimiter(&Config{Enabled: false})
	defer disabled.Stop()
	for i := 0; i < 100; i++ {
		if allowed, _ := disabled.Allow("10.0.0.1", "/applications", "POST"); !allowed {
			t.Fatalf("Expected request %d to be allowed when disabled", i+1)
		}
	}
}

func TestLimiter_PatternsShareBucket(t *testing.T) {
	clock := newFakeClock()
	limiter := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		EndpointConfigs: []EndpointConfig{
			{Path: "/applications/{id}/status", Method: "PUT", Limit: 3, Window: time.Hour, Burst: 3},
		},
	}, clock)
	defer limiter.Stop()

	for i := 0; i < 3; i++ {
		path := fmt.Sprintf("/applications/id-%d/status", i)
		if allowed, info := limiter.Allow("127.0.0.1", path, "PUT"); !allowed || info.Limit != 3 {
			t.Errorf("Expected request %d to be allowed with limit 3, got %v %d", i+1, allowed, info.Limit)
		}
	}
	if allowed, _ := limiter.Allow("127.0.0.1", "/applications/another/status", "PUT"); allowed {
		t.Error("Expected a new id to hit the same exhausted bucket")
	}

	// GET on the same path falls through to the default
	if _, info := limiter.Allow("127.0.0.1", "/applications/x", "GET"); info.Limit != 1000 {
		t.Errorf("Expected default limit 1000, got %d", info.Limit)
	}
}

func TestLimiter_HealthIsUnlimited(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute})
	defer limiter.Stop()

	for i := 0; i < 50; i++ {
		if allowed, _ := limiter.Allow("127.0.0.1", "/health", "GET"); !allowed {
			t.Fatalf("Expected health check %d to be allowed", i+1)
		}
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	clock := newFakeClock()
	limiter := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Minute,
	}, clock)
	defer limiter.Stop()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0

	// 200 concurrent requests with a frozen clock: exactly 100 pass
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if allowed, _ := limiter.Allow("127.0.0.1", "/applications/mine", "GET"); allowed {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowedCount != 100 {
		t.Errorf("Expected 100 allowed requests, got %d", allowedCount)
	}
}

func TestLimiter_EvictIdle(t *testing.T) {
	clock := newFakeClock()
	limiter := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
		IdleTTL:       time.Hour,
	}, clock)
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		limiter.Allow(fmt.Sprintf("127.0.0.%d", i+1), "/applications/mine", "GET")
	}

	clock.Advance(45 * time.Minute)
	for i := 0; i < 5; i++ {
		limiter.Allow(fmt.Sprintf("127.0.0.%d", i+1), "/applications/mine", "GET")
	}

	clock.Advance(30 * time.Minute)
	if evicted := limiter.evictIdle(); evicted != 5 {
		t.Errorf("Expected 5 idle buckets evicted, got %d", evicted)
	}
	if len(limiter.buckets) != 5 {
		t.Errorf("Expected 5 buckets left, got %d", len(limiter.buckets))
	}
}

func TestNewLimiter_NilConfig(t *testing.T) {
	limiter := NewLimiter(nil)
	defer limiter.Stop()
	defer limiter.Stop() // idempotent

	allowed, rateInfo := limiter.Allow("127.0.0.1", "/applications/mine", "GET")
	if !allowed {
		t.Error("Expected request to be allowed with default config")
	}
	if rateInfo.Limit != defaultLimit {
		t.Errorf("Expected default limit %d, got %d", defaultLimit, rateInfo.Limit)
	}
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpointConfigs()
	tests := []struct {
		path, method string
		wantPath     string
	}{
		{"/applications", "POST", "/applications"},
		{"/applications/123/status", "PUT", "/applications/{id}/status"},
		{"/applications/123", "DELETE", "/applications/{id}"},
		{"/applications/123/status/extra", "PUT", ""},
		{"/applications//status", "PUT", ""},
		{"/applications/mine", "GET", ""},
		{"/health", "GET", "/health"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			switch {
			case tt.wantPath == "" && got != nil:
				t.Errorf("Expected no match, got %s", got.Path)
			case tt.wantPath != "" && (got == nil || got.Path != tt.wantPath):
				t.Errorf("Expected %s, got %+v", tt.wantPath, got)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "42")
	t.Setenv("RATE_LIMIT_DEFAULT_WINDOW", "30s")
	t.Setenv("RATE_LIMIT_WHITELIST", "10.0.0.1, 10.0.0.2")
	t.Setenv("RATE_LIMIT_BLACKLIST", "")

	cfg := LoadConfig()
	if !cfg.Enabled || cfg.DefaultLimit != 42 || cfg.DefaultWindow != 30*time.Second {
		t.Errorf("Unexpected config: %+v", cfg)
	}
	if !cfg.Whitelist["10.0.0.1"] || !cfg.Whitelist["10.0.0.2"] || len(cfg.Blacklist) != 0 {
		t.Errorf("Unexpected lists: %v %v", cfg.Whitelist, cfg.Blacklist)
	}

	t.Setenv("RATE_LIMIT_ENABLED", "false")
	if LoadConfig().Enabled {
		t.Error("Expected limiter to be disabled")
	}
}
