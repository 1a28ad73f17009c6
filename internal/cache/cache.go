// Package cache keeps recently viewed listing details in Redis. Every
// operation fails safe: an unreachable Redis behaves like an empty cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/erazemk/dormswap/internal/model"
)

// DefaultTTL applies when New is given a non-positive ttl.
const DefaultTTL = 5 * time.Minute

const itemKeyPrefix = "dormswap:item:"

// Client wraps redis.Client. A nil *Client is a valid, always-empty cache.
type Client struct {
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

// New creates a Redis-backed cache. It does not connect until first use.
func New(addr, password string, db int, ttl time.Duration, logger *slog.Logger) *Client {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	opts := &redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	}
	return &Client{
		client: redis.NewClient(opts),
		ttl:    ttl,
		log:    logger.With("adapter", "redis"),
	}
}

// Ping checks connectivity. Callers use it to log a warning at startup.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Item returns the cached detail of a listing.
func (c *Client) Item(ctx context.Context, id string) (model.Item, bool) {
	data := c.get(ctx, itemKeyPrefix+id)
	if data == nil {
		return model.Item{}, false
	}
	var item model.Item
	if err := json.Unmarshal(data, &item); err != nil {
		c.log.Warn("dropping unreadable cache entry", "item_id", id, "error", err)
		c.delete(ctx, itemKeyPrefix+id)
		return model.Item{}, false
	}
	return item, true
}

// PutItem caches a listing detail.
func (c *Client) PutItem(ctx context.Context, item model.Item) {
	if c == nil || item.ID == "" {
		return
	}
	data, err := json.Marshal(item)
	if err != nil {
		c.log.Warn("encoding cache entry", "item_id", item.ID, "error", err)
		return
	}
	c.set(ctx, itemKeyPrefix+item.ID, data)
}

// InvalidateItem drops a listing detail.
func (c *Client) InvalidateItem(ctx context.Context, id string) {
	c.delete(ctx, itemKeyPrefix+id)
}

func (c *Client) get(ctx context.Context, key string) []byte {
	if c == nil || c.client == nil {
		return nil
	}
	res, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		c.log.Debug("cache get failed", "key", key, "error", err)
		return nil
	}
	return res
}

func (c *Client) set(ctx context.Context, key string, value []byte) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		c.log.Debug("cache set failed", "key", key, "error", err)
	}
}

func (c *Client) delete(ctx context.Context, key string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.log.Debug("cache delete failed", "key", key, "error", err)
	}
}
