package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"rental-manager/internal/config"
	"rental-manager/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

var ErrMiss = errors.New("cache miss")

// KV is the subset of Redis the caches need
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type RedisKV struct {
	c *redis.Client
}

// NewRedisClient creates a client from the redis config section
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func NewRedisKV(c *redis.Client) *RedisKV { return &RedisKV{c: c} }

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.c.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrMiss
		}
		return "", err
	}
	return val, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.c.Set(ctx, key, value, ttl).Err()
}

func (r *RedisKV) Del(ctx context.Context, keys ...string) error {
	return r.c.Del(ctx, keys...).Err()
}

const pendingKeyPrefix = "rent:pending:"

type pendingEntry struct {
	AsOf  time.Time                `json:"as_of"`
	Items []models.PendingIncrease `json:"items"`
}

// PendingCache stores each account's pending increase projection for the day it was computed.
// Cache errors are logged and treated as misses; the database stays authoritative.
type PendingCache struct {
	kv     KV
	ttl    time.Duration
	logger *zap.Logger
}

func NewPendingCache(kv KV, ttl time.Duration, logger *zap.Logger) *PendingCache {
	return &PendingCache{kv: kv, ttl: ttl, logger: logger.Named("cache")}
}

func pendingKey(accountID string) string {
	return pendingKeyPrefix + accountID
}

// GetPending returns the cached projection when it was computed for asOf
func (c *PendingCache) GetPending(ctx context.Context, accountID string, asOf time.Time) ([]models.PendingIncrease, bool) {
	raw, err := c.kv.Get(ctx, pendingKey(accountID))
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			c.logger.Warn("Pending cache read failed", zap.String("account", accountID), zap.Error(err))
		}
		return nil, false
	}

	var entry pendingEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		c.logger.Warn("Discarding unreadable pending cache entry", zap.String("account", accountID), zap.Error(err))
		return nil, false
	}
	// Days-until values are only valid for the day they were computed
	if !entry.AsOf.Equal(asOf) {
		return nil, false
	}
	return entry.Items, true
}

// SetPending stores the projection computed for asOf
func (c *PendingCache) SetPending(ctx context.Context, accountID string, asOf time.Time, items []models.PendingIncrease) {
	data, err := json.Marshal(pendingEntry{AsOf: asOf, Items: items})
	if err != nil {
		c.logger.Warn("Failed to encode pending cache entry", zap.String("account", accountID), zap.Error(err))
		return
	}
	if err := c.kv.Set(ctx, pendingKey(accountID), string(data), c.ttl); err != nil {
		c.logger.Warn("Pending cache write failed", zap.String("account", accountID), zap.Error(err))
	}
}

// InvalidatePending drops the account's projection
func (c *PendingCache) InvalidatePending(ctx context.Context, accountID string) {
	if err := c.kv.Del(ctx, pendingKey(accountID)); err != nil {
		c.logger.Warn("Pending cache invalidation failed", zap.String("account", accountID), zap.Error(err))
	}
}
