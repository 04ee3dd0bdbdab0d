package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/bubbles/internal/config"
)

// Unread counts are cached per (user, match) with a sliding TTL; the DB is
// the fallback and the source of truth.
const unreadTTL = time.Hour

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	return c.Client.Del(ctx, keys...).Err()
}

// KeyForUnreadCount generates the Redis key for a user's unread count in a match.
func (c *RedisCache) KeyForUnreadCount(userID, matchID uint64) string {
	return fmt.Sprintf("unread:count:%d:%d", userID, matchID)
}

// GetUnreadCount reads a cached unread count. Returns ok=false on cache miss.
func (c *RedisCache) GetUnreadCount(ctx context.Context, userID, matchID uint64) (int64, bool, error) {
	val, err := c.Client.Get(ctx, c.KeyForUnreadCount(userID, matchID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil // treat unparseable value as a miss
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, c.KeyForUnreadCount(userID, matchID), unreadTTL).Err()
	return n, true, nil
}

// SetUnreadCount stores an unread count with a fresh TTL.
func (c *RedisCache) SetUnreadCount(ctx context.Context, userID, matchID uint64, count int64) error {
	return c.Client.Set(ctx, c.KeyForUnreadCount(userID, matchID), count, unreadTTL).Err()
}

// InvalidateUnreadCount drops cached unread counts for the given users in a
// match. Called when a new message lands or a last-read marker moves.
func (c *RedisCache) InvalidateUnreadCount(ctx context.Context, matchID uint64, userIDs ...uint64) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, c.KeyForUnreadCount(id, matchID))
	}
	return c.Client.Del(ctx, keys...).Err()
}
