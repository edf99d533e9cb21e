package cache

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailabilityCache(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	defer client.Close()

	logger := zerolog.New(io.Discard)
	c := NewAvailabilityCache(client, time.Minute, &logger)
	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		times := []string{"09:00", "10:00", "11:00"}
		c.Set(ctx, 10, "2026-01-15", times)

		got, hit := c.Get(ctx, 10, "2026-01-15")
		assert.True(t, hit)
		assert.Equal(t, times, got)
	})

	t.Run("MissOnUnknownKey", func(t *testing.T) {
		_, hit := c.Get(ctx, 10, "2026-12-31")
		assert.False(t, hit)
	})

	t.Run("Invalidate", func(t *testing.T) {
		c.Set(ctx, 10, "2026-01-16", []string{"09:00"})
		c.Invalidate(ctx, 10, "2026-01-16")

		_, hit := c.Get(ctx, 10, "2026-01-16")
		assert.False(t, hit)
	})

	t.Run("TTLExpiry", func(t *testing.T) {
		c.Set(ctx, 10, "2026-01-17", []string{"09:00"})
		s.FastForward(time.Minute + time.Second)

		_, hit := c.Get(ctx, 10, "2026-01-17")
		assert.False(t, hit)
	})

	t.Run("CorruptEntryDropped", func(t *testing.T) {
		require.NoError(t, s.Set("availability:10:2026-01-18", "not json"))

		_, hit := c.Get(ctx, 10, "2026-01-18")
		assert.False(t, hit)
		assert.False(t, s.Exists("availability:10:2026-01-18"))
	})

	t.Run("NilCache", func(t *testing.T) {
		var nilCache *AvailabilityCache
		_, hit := nilCache.Get(ctx, 10, "2026-01-15")
		assert.False(t, hit)
		nilCache.Set(ctx, 10, "2026-01-15", nil)
		nilCache.Invalidate(ctx, 10, "2026-01-15")
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, Ping(ctx, client))
	})
}
