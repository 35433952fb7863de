package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	ID    string  `json:"id"`
	Price float64 `json:"price"`
}

func TestMemoryCache_SetGet(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "quote:spot:2330", payload{ID: "2330", Price: 1010}, time.Minute))

	var got payload
	require.NoError(t, mc.Get(ctx, "quote:spot:2330", &got))
	assert.Equal(t, payload{ID: "2330", Price: 1010}, got)

	typed, err := GetTyped[payload](ctx, mc, "quote:spot:2330")
	require.NoError(t, err)
	assert.Equal(t, 1010.0, typed.Price)

	err = mc.Get(ctx, "quote:spot:9999", &got)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCache_Expiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { return now }

	require.NoError(t, mc.Set(ctx, "k", 1, 20*time.Minute))
	assert.Equal(t, 20*time.Minute, mc.TTL("k"))

	now = now.Add(19 * time.Minute)
	var v int
	require.NoError(t, mc.Get(ctx, "k", &v))
	assert.Equal(t, 1, v)

	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, mc.Get(ctx, "k", &v), ErrCacheMiss)
	ok, err := mc.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	ctx := context.Background()

	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { now = now.Add(time.Second); return now }

	require.NoError(t, mc.Set(ctx, "a", 1, time.Hour))
	require.NoError(t, mc.Set(ctx, "b", 2, time.Hour))
	var v int
	require.NoError(t, mc.Get(ctx, "a", &v))
	require.NoError(t, mc.Set(ctx, "c", 3, time.Hour))

	assert.ErrorIs(t, mc.Get(ctx, "b", &v), ErrCacheMiss)
	assert.NoError(t, mc.Get(ctx, "a", &v))
	assert.NoError(t, mc.Get(ctx, "c", &v))
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = mc.Set(ctx, "shared", payload{Price: float64(i)}, time.Minute)
				var p payload
				_ = mc.Get(ctx, "shared", &p)
			}
		}(i)
	}
	wg.Wait()

	var p payload
	require.NoError(t, mc.Get(ctx, "shared", &p))
	assert.GreaterOrEqual(t, p.Price, 0.0)
}

func TestMemoryCache_CloseTwice(t *testing.T) {
	mc := NewMemoryCache()
	assert.NoError(t, mc.Close())
	assert.NoError(t, mc.Close())
}
