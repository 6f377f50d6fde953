package cachesvc

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Benouakrim/Academora-02-sub002/core"
)

type redisCache struct {
	client *redis.Client
	prefix string
}

var _ core.Cache = (*redisCache)(nil)

func NewRedisCache(conf *core.Config) core.Cache {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Cache.RedisAddr,
		Password: conf.Cache.RedisPassword,
		DB:       conf.Cache.RedisDB,
	})
	return &redisCache{client: client, prefix: conf.AppName + ":"}
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, core.ErrCacheMiss
	}
	return data, err
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, c.prefix+key, value, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = c.prefix + key
	}
	return c.client.Del(ctx, prefixed...).Err()
}

func (c *redisCache) Close() error {
	return c.client.Close()
}
