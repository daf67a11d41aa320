package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/complaintrack/complaint-service/internal/domain"
)

const statsKey = "dashboard:stats"

// StatsCache keeps the dashboard aggregate in Redis for a short TTL so the
// full-table scan does not run on every dashboard hit. A nil client degrades
// to always-miss.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewStatsCache builds the cache wrapper.
func NewStatsCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *StatsCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &StatsCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached stats, or nil on miss or cache failure.
func (c *StatsCache) Get(ctx context.Context) *domain.DashboardStats {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := c.client.Get(ctx, statsKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("stats cache read failed", zap.Error(err))
		}
		return nil
	}
	var stats domain.DashboardStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		c.logger.Warn("stats cache decode failed", zap.Error(err))
		return nil
	}
	return &stats
}

// Set stores the stats. Failures are logged, never surfaced.
func (c *StatsCache) Set(ctx context.Context, stats *domain.DashboardStats) {
	if c == nil || c.client == nil || stats == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, statsKey, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("stats cache write failed", zap.Error(err))
	}
}

// Invalidate drops the cached aggregate after any ticket write.
func (c *StatsCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, statsKey).Err(); err != nil {
		c.logger.Warn("stats cache invalidate failed", zap.Error(err))
	}
}
