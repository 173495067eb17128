package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"estate-discovery/internal/domain"
	"estate-discovery/internal/infra/metrics"
)

// ErrMiss возвращается Get, если ключа нет.
var ErrMiss = errors.New("cache miss")

// RedisCache реализует domain.Cache через Redis.
type RedisCache struct {
	client *redis.Client
	prefix string
}

var _ domain.Cache = (*RedisCache)(nil)

// NewRedis создаёт кэш. Все ключи получают префикс prefix.
func NewRedis(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) key(k string) string {
	return c.prefix + k
}

// Once выполняет функцию, если ключ ещё не задан.
func (c *RedisCache) Once(key string, ttl time.Duration, fn func() error) error {
	ctx := context.Background()
	start := time.Now()
	ok, err := c.client.SetNX(ctx, c.key(key), "1", ttl).Result()
	metrics.ObserveNetworkRequest("redis", "setnx", "cache", start, err)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := fn(); err != nil {
		_ = c.client.Del(ctx, c.key(key)).Err()
		return err
	}
	return nil
}

// Set задаёт значение.
func (c *RedisCache) Set(key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	err := c.client.Set(context.Background(), c.key(key), value, ttl).Err()
	metrics.ObserveNetworkRequest("redis", "set", "cache", start, err)
	return err
}

// Get возвращает значение или ErrMiss.
func (c *RedisCache) Get(key string) ([]byte, error) {
	start := time.Now()
	data, err := c.client.Get(context.Background(), c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.ObserveNetworkRequest("redis", "get", "cache", start, nil)
		return nil, ErrMiss
	}
	metrics.ObserveNetworkRequest("redis", "get", "cache", start, err)
	return data, err
}

// Delete удаляет ключи.
func (c *RedisCache) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, c.key(k))
	}
	start := time.Now()
	err := c.client.Del(context.Background(), full...).Err()
	metrics.ObserveNetworkRequest("redis", "del", "cache", start, err)
	return err
}
