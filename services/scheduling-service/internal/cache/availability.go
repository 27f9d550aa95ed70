// Package cache keeps per-week availability summaries in Redis so repeated
// calendar loads do not rebuild the grid for unchanged weeks. Entries are
// short-lived and invalidated on every booking mutation; a cache failure is
// never fatal, the caller just recomputes.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fachline/backend/services/scheduling-service/internal/availability"
)

type AvailabilityCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAvailabilityCache(rdb *redis.Client, ttl time.Duration) *AvailabilityCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &AvailabilityCache{rdb: rdb, ttl: ttl}
}

func key(workerID string, weekStart time.Time) string {
	return fmt.Sprintf("avail:%s:%s", workerID, weekStart.Format("2006-01-02"))
}

func (c *AvailabilityCache) Get(ctx context.Context, workerID string, weekStart time.Time) ([]availability.Level, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, key(workerID, weekStart)).Bytes()
	if err != nil {
		return nil, false
	}
	var levels []availability.Level
	if err := json.Unmarshal(raw, &levels); err != nil {
		return nil, false
	}
	return levels, true
}

func (c *AvailabilityCache) Set(ctx context.Context, workerID string, weekStart time.Time, levels []availability.Level) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(levels)
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, key(workerID, weekStart), raw, c.ttl).Err()
}

// InvalidateWorker drops every cached week for the worker.
func (c *AvailabilityCache) InvalidateWorker(ctx context.Context, workerID string) {
	if c == nil || c.rdb == nil {
		return
	}
	iter := c.rdb.Scan(ctx, 0, fmt.Sprintf("avail:%s:*", workerID), 100).Iterator()
	for iter.Next(ctx) {
		_ = c.rdb.Del(ctx, iter.Val()).Err()
	}
}
