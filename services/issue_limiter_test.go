package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryIssueLimiter_FixedWindow(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	limiter := NewMemoryIssueLimiter(3, 15*time.Minute, func() time.Time { return now })
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, "application_fee:10:1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := limiter.Allow(ctx, "application_fee:10:1")
	assert.False(t, ok)

	// other keys have their own window
	ok, _ = limiter.Allow(ctx, "monthly_rent:20:all:1")
	assert.True(t, ok)

	now = now.Add(15 * time.Minute)
	ok, _ = limiter.Allow(ctx, "application_fee:10:1")
	assert.True(t, ok)
}

func TestMemoryIssueLimiter_SweepsExpiredWindows(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	limiter := NewMemoryIssueLimiter(3, 15*time.Minute, func() time.Time { return now })
	ctx := context.Background()

	for _, key := range []string{"application_fee:10:1", "monthly_rent:20:all:1", "quarterly_tax:30:Q1:1"} {
		_, err := limiter.Allow(ctx, key)
		require.NoError(t, err)
	}
	assert.Len(t, limiter.windows, 3)

	now = now.Add(16 * time.Minute)
	ok, err := limiter.Allow(ctx, "application_fee:10:2")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, limiter.windows, 1)
	assert.Contains(t, limiter.windows, "application_fee:10:2")
}

func TestNewIssueLimiter(t *testing.T) {
	assert.Nil(t, NewIssueLimiter(nil, 0, time.Minute))
	assert.IsType(t, &MemoryIssueLimiter{}, NewIssueLimiter(nil, 5, time.Minute))
}
