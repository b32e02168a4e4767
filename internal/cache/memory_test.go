package cache

import (
	"context"
	"testing"
	"time"

	"github.com/andresuchdata/stockrisk/internal/config"
	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryQueryCache(time.Minute, 0)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	rows := []domain.StockMetricRow{{Location: "A", Item: "X", DaysOfCover: domain.Float(2)}}
	require.NoError(t, c.Set(ctx, "k", rows))

	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, rows, got)

	// callers cannot mutate the stored slice
	got[0].Location = "changed"
	again, _, _ := c.Get(ctx, "k")
	assert.Equal(t, "A", again[0].Location)

	now = now.Add(2 * time.Minute)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestMemoryQueryCacheEvictsAtCapacity(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryQueryCache(time.Minute, 2)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "a", nil))
	now = now.Add(time.Second)
	require.NoError(t, c.Set(ctx, "b", nil))
	now = now.Add(time.Second)
	require.NoError(t, c.Set(ctx, "c", nil))

	assert.Equal(t, 2, c.Len())
	_, ok, _ := c.Get(ctx, "a")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "c")
	assert.True(t, ok)

	require.NoError(t, c.InvalidateAll(ctx))
	assert.Equal(t, 0, c.Len())
}

func TestQueryKey(t *testing.T) {
	k1 := QueryKey("SELECT 1", "A")
	k2 := QueryKey("SELECT 1", "A")
	k3 := QueryKey("SELECT 1", "B")
	k4 := QueryKey("SELECT 2", "A")

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.NotEqual(t, k1, k4)
	assert.Contains(t, k1, queryKeyPrefix+":")
}

func TestNewQueryCache(t *testing.T) {
	c, err := NewQueryCache(config.CacheConfig{Enabled: false, Backend: BackendRedis})
	require.NoError(t, err)
	assert.IsType(t, &noopQueryCache{}, c)

	c, err = NewQueryCache(config.CacheConfig{Enabled: true})
	require.NoError(t, err)
	assert.IsType(t, &MemoryQueryCache{}, c)

	_, err = NewQueryCache(config.CacheConfig{Enabled: true, Backend: "memcached"})
	assert.Error(t, err)
}
