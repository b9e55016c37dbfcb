package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	reportsCacheTTL   = 5 * time.Minute
	dashboardCacheTTL = 60 * time.Second
)

// initRedis connects to Redis at redisURL ("host:port" or a redis:// URL).
func initRedis(redisURL string) (*redis.Client, error) {
	if !strings.Contains(redisURL, "://") {
		redisURL = "redis://" + redisURL
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// responseCache is a best-effort JSON cache. A nil client or any Redis error
// behaves like a miss, so callers always fall back to the database.
type responseCache struct {
	client *redis.Client
	logger *slog.Logger
}

func newResponseCache(client *redis.Client, logger *slog.Logger) *responseCache {
	return &responseCache{client: client, logger: logger}
}

func reportsCacheKey(userID string) string {
	return "reports:" + userID
}

func dashboardCacheKey(userID string, month, year int) string {
	return fmt.Sprintf("dashboard:%s:%04d-%02d", userID, year, month)
}

func (c *responseCache) get(ctx context.Context, key string, dst any) bool {
	if c == nil || c.client == nil {
		return false
	}
	cached, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache read failed", "key", key, "error", err)
		}
		return false
	}
	return json.Unmarshal([]byte(cached), dst) == nil
}

func (c *responseCache) set(ctx context.Context, key string, v any, ttl time.Duration) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.client.SetEx(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

func (c *responseCache) invalidate(ctx context.Context, keys ...string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("cache invalidation failed", "keys", keys, "error", err)
	}
}
