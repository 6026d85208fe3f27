package cache

import (
	"digitalmaturity/internal/model"
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const statsKey = "admin:stats"

// StatsCache handles Redis operations for the admin dashboard aggregates
type StatsCache interface {
	GetStats(ctx context.Context) (*model.Stats, error)
	SetStats(ctx context.Context, stats *model.Stats) error
	Invalidate(ctx context.Context) error
}

type statsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatsCache creates a new stats cache
func NewStatsCache(client *redis.Client, ttl time.Duration) StatsCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &statsCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *statsCache) GetStats(ctx context.Context) (*model.Stats, error) {
	data, err := c.client.Get(ctx, statsKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var stats model.Stats
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *statsCache) SetStats(ctx context.Context, stats *model.Stats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statsKey, data, c.ttl).Err()
}

func (c *statsCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, statsKey).Err()
}
