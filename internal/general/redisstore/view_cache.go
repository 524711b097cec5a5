package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ride-tracker/internal/domain/trip"
	"ride-tracker/internal/general/config"
	"ride-tracker/internal/general/logger"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ride-tracker:view:"

// ErrNotFound is returned when no view is cached for the rider.
var ErrNotFound = errors.New("redisstore: view not found")

// Connect opens a client from cfg and verifies it with PING.
func Connect(ctx context.Context, cfg *config.Config, log *logger.Logger) (*redis.Client, error) {
	opts := &redis.Options{
		Addr: cfg.Redis.Address,
		DB:   cfg.Redis.DB,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Info(ctx, "redis_connected", "Connected to Redis", map[string]any{"address": cfg.Redis.Address, "db": cfg.Redis.DB})
	return client, nil
}

// ViewCache stores the latest reconciled view per rider as JSON with a TTL.
type ViewCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewViewCache wraps rdb. A non-positive ttl keeps keys forever.
func NewViewCache(rdb redis.Cmdable, ttl time.Duration) *ViewCache {
	return &ViewCache{rdb: rdb, ttl: ttl}
}

// Key is the redis key holding riderID's view.
func Key(riderID string) string { return keyPrefix + riderID }

func (c *ViewCache) Put(ctx context.Context, riderID string, view *trip.View) error {
	body, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("redisstore: marshal view: %w", err)
	}
	ttl := c.ttl
	if ttl < 0 {
		ttl = 0
	}
	return c.rdb.Set(ctx, Key(riderID), body, ttl).Err()
}

func (c *ViewCache) Get(ctx context.Context, riderID string) (*trip.View, error) {
	body, err := c.rdb.Get(ctx, Key(riderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var view trip.View
	if err := json.Unmarshal(body, &view); err != nil {
		return nil, fmt.Errorf("redisstore: decode view: %w", err)
	}
	return &view, nil
}

func (c *ViewCache) Delete(ctx context.Context, riderID string) error {
	return c.rdb.Del(ctx, Key(riderID)).Err()
}

// Name identifies the sink in logs.
func (c *ViewCache) Name() string { return "redis" }

// Publish caches view, or deletes the key when the ride is gone.
func (c *ViewCache) Publish(ctx context.Context, riderID string, view *trip.View) error {
	if view == nil {
		return c.Delete(ctx, riderID)
	}
	return c.Put(ctx, riderID, view)
}
