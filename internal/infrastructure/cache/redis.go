package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"gemach-ledger/internal/config"
	"gemach-ledger/internal/domain/blacklist"
)

// RedisBlacklistCache caches IsBlocked answers. Every error degrades to a
// cache miss so a Redis outage only costs latency, never correctness.
type RedisBlacklistCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

var _ blacklist.ActiveCache = (*RedisBlacklistCache)(nil)

func NewRedisBlacklistCache(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (*RedisBlacklistCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}

	return &RedisBlacklistCache{
		client: client,
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
		logger: logger.With("component", "RedisBlacklistCache"),
	}, nil
}

func (c *RedisBlacklistCache) key(t blacklist.SubjectType, personID uuid.UUID) string {
	return fmt.Sprintf("%sblocked:%s:%s", c.prefix, t, personID)
}

func (c *RedisBlacklistCache) GetIsBlocked(ctx context.Context, t blacklist.SubjectType, personID uuid.UUID) (bool, bool) {
	val, err := c.client.Get(ctx, c.key(t, personID)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.WarnContext(ctx, "Redis get failed", "key", c.key(t, personID), "error", err)
		}
		return false, false
	}
	return val == "1", true
}

func (c *RedisBlacklistCache) SetIsBlocked(ctx context.Context, t blacklist.SubjectType, personID uuid.UUID, blocked bool) {
	val := "0"
	if blocked {
		val = "1"
	}
	if err := c.client.Set(ctx, c.key(t, personID), val, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "Redis set failed", "key", c.key(t, personID), "error", err)
	}
}

func (c *RedisBlacklistCache) Invalidate(ctx context.Context, t blacklist.SubjectType, personID uuid.UUID) {
	if err := c.client.Del(ctx, c.key(t, personID)).Err(); err != nil {
		c.logger.WarnContext(ctx, "Redis del failed", "key", c.key(t, personID), "error", err)
	}
}

func (c *RedisBlacklistCache) Close() error {
	return c.client.Close()
}
