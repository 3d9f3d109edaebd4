package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rverma/hyperliquid-data/internal/model"
)

const snapshotCacheKey = "funding:snapshot:latest"

// SnapshotCache layers a Redis read-through cache over a Store for the
// instrument snapshot, the hottest read on the HTTP API. All other operations
// pass straight through. Cache failures degrade to the inner store.
type SnapshotCache struct {
	Store
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewSnapshotCache wraps inner with a snapshot cache.
func NewSnapshotCache(inner Store, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *SnapshotCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotCache{
		Store:  inner,
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *SnapshotCache) GetSnapshot(ctx context.Context) ([]model.Instrument, error) {
	data, err := c.rdb.Get(ctx, snapshotCacheKey).Bytes()
	if err == nil {
		var instruments []model.Instrument
		if err := json.Unmarshal(data, &instruments); err == nil {
			return instruments, nil
		}
		c.logger.Warn("discarding undecodable snapshot cache entry")
	} else if err != redis.Nil {
		c.logger.Warn("snapshot cache read failed", "err", err)
	}

	instruments, err := c.Store.GetSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, instruments)
	return instruments, nil
}

func (c *SnapshotCache) ReplaceSnapshot(ctx context.Context, instruments []model.Instrument) error {
	if err := c.Store.ReplaceSnapshot(ctx, instruments); err != nil {
		return err
	}
	// Drop rather than refill so the cache never outlives the store's truth.
	if err := c.rdb.Del(ctx, snapshotCacheKey).Err(); err != nil {
		c.logger.Warn("snapshot cache invalidation failed", "err", err)
	}
	return nil
}

func (c *SnapshotCache) Clear(ctx context.Context) error {
	if err := c.Store.Clear(ctx); err != nil {
		return err
	}
	if err := c.rdb.Del(ctx, snapshotCacheKey).Err(); err != nil {
		c.logger.Warn("snapshot cache invalidation failed", "err", err)
	}
	return nil
}

func (c *SnapshotCache) fill(ctx context.Context, instruments []model.Instrument) {
	data, err := json.Marshal(instruments)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, snapshotCacheKey, data, c.ttl).Err(); err != nil {
		c.logger.Warn("snapshot cache fill failed", "err", err)
	}
}
