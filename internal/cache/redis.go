package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tracefind/trace-search/internal/pkg/errors"
	"github.com/tracefind/trace-search/internal/result"
)

const responseKeyPrefix = "trace:results:"

// RedisCache stores ranked responses as JSON with a server-side TTL,
// shared across instances.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to redis and verifies the connection.
func NewRedisCache(url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.CacheError("invalid redis url", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.CacheError("failed to connect to redis", err)
	}

	return &RedisCache{client: client}, nil
}

// NewRedisCacheWithClient wraps an existing client, used when the cache
// shares a connection with other redis-backed components.
func NewRedisCacheWithClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Put(ctx context.Context, resp *result.RankedResponse, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return errors.CacheError("failed to marshal response", err)
	}
	if err := c.client.Set(ctx, responseKeyPrefix+resp.QueryID, data, ttl).Err(); err != nil {
		return errors.CacheError("failed to store response", err)
	}
	return nil
}

func (c *RedisCache) Get(ctx context.Context, queryID string) (*result.RankedResponse, bool, error) {
	data, err := c.client.Get(ctx, responseKeyPrefix+queryID).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.CacheError("failed to read response", err)
	}

	var resp result.RankedResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, false, errors.CacheError("failed to unmarshal cached response", err)
	}
	return &resp, true, nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
