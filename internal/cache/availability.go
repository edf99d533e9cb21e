package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"studioz/internal/config"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

// AvailabilityCache keeps per-date open-slot lists in Redis so that read
// traffic does not hit the reservation store. Writers invalidate the key
// after every slot change; a miss falls through to the store.
type AvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zerolog.Logger
}

func NewAvailabilityCache(client *redis.Client, ttl time.Duration, logger *zerolog.Logger) *AvailabilityCache {
	return &AvailabilityCache{client: client, ttl: ttl, logger: logger}
}

func availabilityKey(itemID int64, date string) string {
	return fmt.Sprintf("availability:%d:%s", itemID, date)
}

// Get returns the cached slot list for the item and date. The second
// return value reports a cache hit; a disabled cache always misses.
func (c *AvailabilityCache) Get(ctx context.Context, itemID int64, date string) ([]string, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	val, err := c.client.Get(ctx, availabilityKey(itemID, date)).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn().Err(err).Int64("item_id", itemID).Str("date", date).Msg("availability cache read failed")
		return nil, false
	}

	var times []string
	if err := json.Unmarshal([]byte(val), &times); err != nil {
		c.logger.Warn().Err(err).Str("date", date).Msg("availability cache entry is corrupt, dropping")
		c.client.Del(ctx, availabilityKey(itemID, date))
		return nil, false
	}
	return times, true
}

func (c *AvailabilityCache) Set(ctx context.Context, itemID int64, date string, times []string) {
	if c == nil || c.client == nil {
		return
	}

	data, err := json.Marshal(times)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, availabilityKey(itemID, date), data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Int64("item_id", itemID).Str("date", date).Msg("availability cache write failed")
	}
}

// Invalidate drops the cached entry for the item and date. Slot changes
// call this before announcing the update.
func (c *AvailabilityCache) Invalidate(ctx context.Context, itemID int64, date string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, availabilityKey(itemID, date)).Err(); err != nil {
		c.logger.Warn().Err(err).Int64("item_id", itemID).Str("date", date).Msg("availability cache invalidation failed")
	}
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
