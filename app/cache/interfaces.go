package cache

import (
	"context"
	"time"
)

// FeedCache stores rendered public feed documents.
type FeedCache interface {
	GetFeed(ctx context.Context, key string) (string, bool, error)
	SetFeed(ctx context.Context, key, content string, ttl time.Duration) error
	InvalidateFeed(ctx context.Context) error
	Health(ctx context.Context) map[string]any
	Close() error
}
