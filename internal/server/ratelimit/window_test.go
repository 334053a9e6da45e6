package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func TestMemoryWindow(t *testing.T) {
	clock := newFakeClock()
	limiter := NewMemoryWindow(3, time.Hour)
	limiter.now = clock.Now
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if ok, _ := limiter.Allow(ctx, "apply:a"); !ok {
			t.Fatalf("Expected event %d to be allowed", i+1)
		}
	}
	if ok, _ := limiter.Allow(ctx, "apply:a"); ok {
		t.Error("Expected 4th event to be denied")
	}
	if ok, _ := limiter.Allow(ctx, "apply:b"); !ok {
		t.Error("Expected other key to be allowed")
	}

	clock.Advance(time.Hour)
	if ok, _ := limiter.Allow(ctx, "apply:a"); !ok {
		t.Error("Expected a new window to allow again")
	}
	if len(limiter.windows) != 1 {
		t.Errorf("Expected expired windows to be evicted, have %d", len(limiter.windows))
	}
}

func TestMemoryWindow_Unlimited(t *testing.T) {
	for _, l := range []*MemoryWindow{NewMemoryWindow(0, time.Hour), NewMemoryWindow(5, 0)} {
		for i := 0; i < 20; i++ {
			if ok, err := l.Allow(context.Background(), "k"); !ok || err != nil {
				t.Fatalf("Expected unlimited limiter to allow, got %v %v", ok, err)
			}
		}
	}
}

func TestRedisWindow_FailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer client.Close()

	limiter := NewRedisWindow(client, 1, time.Minute, "test")
	ok, err := limiter.Allow(context.Background(), "k")
	if !ok {
		t.Error("Expected limiter to admit when Redis is unreachable")
	}
	if err == nil {
		t.Error("Expected the Redis error to be reported")
	}
}

// Runs against a real Redis when REDIS_URL is set.
func TestRedisWindow_Integration(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set, skipping integration test")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("invalid REDIS_URL: %v", err)
	}
	client := redis.NewClient(opts)
	defer client.Close()

	limiter := NewRedisWindow(client, 2, time.Minute, "jobportal-test")
	key := uuid.NewString()
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if ok, err := limiter.Allow(ctx, key); !ok || err != nil {
			t.Fatalf("Expected event %d to be allowed, got %v %v", i+1, ok, err)
		}
	}
	if ok, err := limiter.Allow(ctx, key); ok || err != nil {
		t.Errorf("Expected 3rd event to be denied, got %v %v", ok, err)
	}
}
