package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/zuwa/backend/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	return client
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t)

	assert.False(t, client.Enabled())
	assert.Nil(t, client.Redis())
	assert.NoError(t, client.Ping(context.Background()))
	assert.NoError(t, client.Close())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(disabledClient(t), "test")

	d, err := limiter.Allow(context.Background(), EastmoneyRateLimit)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, EastmoneyRateLimit.Limit, d.Remaining)
	assert.Zero(t, d.RetryAfter)

	assert.NoError(t, limiter.Wait(context.Background(), ForumRateLimit))
}

func TestRateLimiter_Integration(t *testing.T) {
	if os.Getenv("REDIS_HOST") == "" {
		t.Skip("REDIS_HOST not set, skipping integration test")
	}

	client, err := New(&config.Config{Redis: config.RedisConfig{
		Enabled: true,
		Host:    os.Getenv("REDIS_HOST"),
		Port:    "6379",
	}})
	require.NoError(t, err)
	defer client.Close()

	cfg := RateLimitConfig{Key: fmt.Sprintf("test-%d", time.Now().UnixNano()), Limit: 3, Window: time.Second}
	limiter := NewRateLimiter(client, "test")
	ctx := context.Background()

	for i := 0; i < cfg.Limit; i++ {
		d, err := limiter.Allow(ctx, cfg)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, cfg.Limit-i-1, d.Remaining)
	}

	d, err := limiter.Allow(ctx, cfg)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, d.RetryAfter, cfg.Window)

	start := time.Now()
	require.NoError(t, limiter.Wait(ctx, cfg))
	assert.Greater(t, time.Since(start), 10*time.Millisecond)
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")
	ctx := context.Background()

	var result string
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, cache.Set(ctx, "key", "value", TTLShort))
	assert.NoError(t, cache.Delete(ctx, "key"))
}

func TestCache_GetOrSetDisabledCallsLoader(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")

	type payload struct {
		Symbol string  `json:"symbol"`
		Price  float64 `json:"price"`
	}

	calls := 0
	var got payload
	err := cache.GetOrSet(context.Background(), SnapshotKey("600519", "2026-03-02"), &got, TTLMedium, func() (interface{}, error) {
		calls++
		return payload{Symbol: "600519", Price: 1688.5}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, payload{Symbol: "600519", Price: 1688.5}, got)
}

func TestCache_GetOrSetPropagatesLoaderError(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")
	boom := errors.New("upstream down")

	var got map[string]interface{}
	err := cache.GetOrSet(context.Background(), "k", &got, TTLShort, func() (interface{}, error) {
		return nil, boom
	})

	assert.ErrorIs(t, err, boom)
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "snapshot:600519:2026-03-02", SnapshotKey("600519", "2026-03-02"))
	assert.Equal(t, "sector:白酒", SectorKey("白酒"))
	assert.Equal(t, "decision:000001", DecisionKey("000001"))
}
