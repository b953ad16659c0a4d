package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// IssueLimiter caps how often codes can be requested for one subject
type IssueLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// NewIssueLimiter uses Redis when a client is given and process memory otherwise
func NewIssueLimiter(client *redis.Client, limit int, window time.Duration) IssueLimiter {
	if limit <= 0 {
		return nil
	}
	if client != nil {
		return &RedisIssueLimiter{client: client, limit: limit, window: window}
	}
	return NewMemoryIssueLimiter(limit, window, time.Now)
}

// RedisIssueLimiter is a fixed-window counter shared by every instance
type RedisIssueLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// Allow increments the window counter for key
func (l *RedisIssueLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := "otp:issue:" + key
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to update issue counter: %w", err)
	}
	return incr.Val() <= int64(l.limit), nil
}

// MemoryIssueLimiter is the single-instance fallback
type MemoryIssueLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	now     func() time.Time
	windows map[string]*issueWindow
	// expired windows are swept at most once per window length
	nextSweep time.Time
}

type issueWindow struct {
	count   int
	resetAt time.Time
}

// NewMemoryIssueLimiter creates an in-process limiter
func NewMemoryIssueLimiter(limit int, window time.Duration, now func() time.Time) *MemoryIssueLimiter {
	return &MemoryIssueLimiter{limit: limit, window: window, now: now, windows: make(map[string]*issueWindow)}
}

// Allow counts one request for key
func (l *MemoryIssueLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if !now.Before(l.nextSweep) {
		for k, w := range l.windows {
			if !now.Before(w.resetAt) {
				delete(l.windows, k)
			}
		}
		l.nextSweep = now.Add(l.window)
	}

	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &issueWindow{resetAt: now.Add(l.window)}
		l.windows[key] = w
	}
	w.count++
	return w.count <= l.limit, nil
}
