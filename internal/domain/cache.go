package domain

import (
	"context"
	"time"
)

// ItemCache provides fast item lookups in front of the primary store.
type ItemCache interface {
	Set(ctx context.Context, item Item) error
	Get(ctx context.Context, id string) (Item, error)
	Invalidate(ctx context.Context, id string) error
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Wait(ctx context.Context, key string) error
}

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// StreamMessage represents a single entry from a durable event stream.
type StreamMessage struct {
	ID      string
	Payload []byte
}

// EventBus carries marketplace events to off-core consumers: ephemeral
// pub/sub for the WebSocket hub plus a durable stream for indexers. The
// core only appends; it never blocks on consumers.
type EventBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	StreamAppend(ctx context.Context, stream string, payload []byte) error
	StreamRead(ctx context.Context, stream string, lastID string, count int) ([]StreamMessage, error)
}

// BlobWriter stores opaque blobs (listing images, event archives).
type BlobWriter interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
}

// BlobReader retrieves stored blobs.
type BlobReader interface {
	Get(ctx context.Context, path string) ([]byte, string, error)
	Exists(ctx context.Context, path string) (bool, error)
}
