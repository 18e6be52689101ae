package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/reframeapp/reframe/internal/models"
	"github.com/sirupsen/logrus"
)

// ErrCacheMiss is returned when a key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Cache implementation
type Cache struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewCache(client *redis.Client, logger *logrus.Logger) *Cache {
	return &Cache{
		client: client,
		logger: logger,
	}
}

// Cache key constants
const (
	FeedbackStatsKey = "feedback:stats"
	SystemHealthKey  = "system:health"
)

// CacheFeedbackStats caches the aggregated feedback stats
func (c *Cache) CacheFeedbackStats(ctx context.Context, stats map[string]models.FeedbackStat, expiration time.Duration) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal feedback stats: %w", err)
	}

	return c.client.Set(ctx, FeedbackStatsKey, data, expiration).Err()
}

// GetCachedFeedbackStats retrieves cached feedback stats
func (c *Cache) GetCachedFeedbackStats(ctx context.Context) (map[string]models.FeedbackStat, error) {
	data, err := c.client.Get(ctx, FeedbackStatsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var stats map[string]models.FeedbackStat
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal feedback stats: %w", err)
	}
	return stats, nil
}

// InvalidateFeedbackStats drops the cached stats after new feedback lands
func (c *Cache) InvalidateFeedbackStats(ctx context.Context) error {
	return c.client.Del(ctx, FeedbackStatsKey).Err()
}

// CacheSystemHealth caches the latest health snapshot
func (c *Cache) CacheSystemHealth(ctx context.Context, health interface{}, expiration time.Duration) error {
	data, err := json.Marshal(health)
	if err != nil {
		return fmt.Errorf("failed to marshal system health: %w", err)
	}

	return c.client.Set(ctx, SystemHealthKey, data, expiration).Err()
}

// GetCachedSystemHealth decodes the cached health snapshot into result
func (c *Cache) GetCachedSystemHealth(ctx context.Context, result interface{}) error {
	data, err := c.client.Get(ctx, SystemHealthKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return err
	}

	return json.Unmarshal(data, result)
}
