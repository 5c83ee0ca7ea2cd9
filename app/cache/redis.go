package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ FeedCache = (*Cache)(nil)

const feedKeyPrefix = "feed:"

// Cache keeps rendered feed pages in Redis.
type Cache struct {
	client *redis.Client
}

type feedEntry struct {
	Content  string `json:"content"`
	CachedAt int64  `json:"cached_at"`
}

func NewCache(ctx context.Context, addr string) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("Connected to Redis", "addr", addr)

	return &Cache{client: client}, nil
}

// FeedKey derives a short stable key from the request that produced a document.
func FeedKey(requestURI string) string {
	hash := sha256.Sum256([]byte(requestURI))
	return fmt.Sprintf("%s%x", feedKeyPrefix, hash[:8])
}

// GetFeed returns the cached document under key. A missing or unreadable
// entry is a miss, not an error.
func (c *Cache) GetFeed(ctx context.Context, key string) (string, bool, error) {
	data, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	var entry feedEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		c.client.Del(ctx, key)
		return "", false, nil
	}

	return entry.Content, true, nil
}

func (c *Cache) SetFeed(ctx context.Context, key, content string, ttl time.Duration) error {
	data, err := json.Marshal(feedEntry{Content: content, CachedAt: time.Now().Unix()})
	if err != nil {
		return fmt.Errorf("failed to marshal feed entry: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}

	return nil
}

// InvalidateFeed removes every cached feed document.
func (c *Cache) InvalidateFeed(ctx context.Context) error {
	var keys []string

	iter := c.client.Scan(ctx, 0, feedKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan feed keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete feed keys: %w", err)
	}

	slog.Debug("Feed cache invalidated", "keys", len(keys))
	return nil
}

func (c *Cache) Health(ctx context.Context) map[string]any {
	health := map[string]any{
		"status": "healthy",
		"type":   "redis",
	}

	if err := c.client.Ping(ctx).Err(); err != nil {
		health["status"] = "unhealthy"
		health["error"] = err.Error()
		return health
	}

	if size, err := c.client.DBSize(ctx).Result(); err == nil {
		health["key_count"] = size
	}

	return health
}

func (c *Cache) Close() error {
	return c.client.Close()
}
