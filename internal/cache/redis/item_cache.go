package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rijulg06/thriftchain/internal/domain"
)

const itemTTL = 5 * time.Minute

// ItemCache implements domain.ItemCache using Redis hashes with JSON-
// serialized listing data.
//
// Key schema:
//
//	item:{id} - hash with field "data" containing JSON
type ItemCache struct {
	rdb *redis.Client
}

// NewItemCache creates an ItemCache backed by the given Client.
func NewItemCache(c *Client) *ItemCache {
	return &ItemCache{rdb: c.Underlying()}
}

func itemKey(id string) string { return "item:" + id }

// Set stores an Item in the cache with a 5-minute TTL.
func (ic *ItemCache) Set(ctx context.Context, item domain.Item) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("redis: marshal item %s: %w", item.ID, err)
	}

	key := itemKey(item.ID)

	pipe := ic.rdb.TxPipeline()
	pipe.HSet(ctx, key, "data", data)
	pipe.Expire(ctx, key, itemTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set item %s: %w", item.ID, err)
	}
	return nil
}

// Get retrieves an Item by its ID from the cache.
// It returns domain.ErrNotFound when the key does not exist.
func (ic *ItemCache) Get(ctx context.Context, id string) (domain.Item, error) {
	data, err := ic.rdb.HGet(ctx, itemKey(id), "data").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Item{}, domain.ErrNotFound
		}
		return domain.Item{}, fmt.Errorf("redis: get item %s: %w", id, err)
	}

	var item domain.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return domain.Item{}, fmt.Errorf("redis: unmarshal item %s: %w", id, err)
	}
	return item, nil
}

// Invalidate removes an Item from the cache.
func (ic *ItemCache) Invalidate(ctx context.Context, id string) error {
	if err := ic.rdb.Del(ctx, itemKey(id)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate item %s: %w", id, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.ItemCache = (*ItemCache)(nil)
