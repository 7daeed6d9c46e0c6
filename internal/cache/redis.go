package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Aniket1246/mentorbooking/internal/calendar"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// redisClient is the slice of the redis API the cache needs.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

var _ redisClient = (*redis.Client)(nil)

// BusyCache хранит занятые интервалы внешнего календаря с коротким TTL.
// Промах кэша никогда не является ошибкой.
type BusyCache struct {
	client redisClient
	ttl    time.Duration
	logger *zap.Logger
}

func NewBusyCache(addr, password string, db int, ttl time.Duration, logger *zap.Logger) *BusyCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &BusyCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Ping проверяет соединение с Redis
func (c *BusyCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

func (c *BusyCache) GetBusy(ctx context.Context, key string) ([]calendar.BusyInterval, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get busy intervals: %w", err)
	}

	var intervals []calendar.BusyInterval
	if err := json.Unmarshal(data, &intervals); err != nil {
		// Битая запись равносильна промаху
		c.logger.Warn("Corrupt busy cache entry", zap.String("key", key), zap.Error(err))
		return nil, false, nil
	}

	return intervals, true, nil
}

func (c *BusyCache) SetBusy(ctx context.Context, key string, intervals []calendar.BusyInterval) error {
	data, err := json.Marshal(intervals)
	if err != nil {
		return fmt.Errorf("encode busy intervals: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set busy intervals: %w", err)
	}
	return nil
}

func (c *BusyCache) Close() error {
	return c.client.Close()
}
