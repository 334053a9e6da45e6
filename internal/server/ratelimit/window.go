package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// WindowLimiter admits at most a fixed number of events per key within a window.
type WindowLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// MemoryWindow is an in-process WindowLimiter. Counts are lost on restart and
// are not shared between replicas; use RedisWindow for that.
type MemoryWindow struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	windows map[string]*fixedWindow
	now     func() time.Time
}

type fixedWindow struct {
	count int
	end   time.Time
}

// NewMemoryWindow creates a limiter admitting limit events per key per window.
// A non-positive limit or window admits everything.
func NewMemoryWindow(limit int, window time.Duration) *MemoryWindow {
	return &MemoryWindow{
		limit:   limit,
		window:  window,
		windows: make(map[string]*fixedWindow),
		now:     time.Now,
	}
}

// Allow implements WindowLimiter. It never returns an error.
func (m *MemoryWindow) Allow(_ context.Context, key string) (bool, error) {
	if m.limit <= 0 || m.window <= 0 || key == "" {
		return true, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[key]
	if !ok || !now.Before(w.end) {
		m.evictExpired(now)
		m.windows[key] = &fixedWindow{count: 1, end: now.Add(m.window)}
		return true, nil
	}
	if w.count >= m.limit {
		return false, nil
	}
	w.count++
	return true, nil
}

// evictExpired must be called with m.mu held.
func (m *MemoryWindow) evictExpired(now time.Time) {
	for key, w := range m.windows {
		if !now.Before(w.end) {
			delete(m.windows, key)
		}
	}
}

const windowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return 0
end
return 1
`

// DefaultRedisTimeout bounds a single RedisWindow check.
const DefaultRedisTimeout = 250 * time.Millisecond

// RedisWindow is a WindowLimiter shared by every replica through Redis.
type RedisWindow struct {
	client  redis.UniversalClient
	limit   int
	window  time.Duration
	prefix  string
	timeout time.Duration
	script  *redis.Script
}

// NewRedisWindow creates a Redis-backed limiter. Keys are stored as prefix:key.
func NewRedisWindow(client redis.UniversalClient, limit int, window time.Duration, prefix string) *RedisWindow {
	return &RedisWindow{
		client:  client,
		limit:   limit,
		window:  window,
		prefix:  prefix,
		timeout: DefaultRedisTimeout,
		script:  redis.NewScript(windowScript),
	}
}

// Allow implements WindowLimiter. On a Redis error it admits the event and
// returns the error so the caller can log it.
func (r *RedisWindow) Allow(ctx context.Context, key string) (bool, error) {
	if r.limit <= 0 || r.window <= 0 || key == "" {
		return true, nil
	}
	redisKey := key
	if r.prefix != "" {
		redisKey = r.prefix + ":" + key
	}
	ttl := r.window.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	allowed, err := r.script.Run(ctx, r.client, []string{redisKey}, ttl, r.limit).Int64()
	if err != nil {
		return true, fmt.Errorf("submit limiter unavailable: %w", err)
	}
	return allowed == 1, nil
}
