package cachesvc

import (
	"context"
	"time"

	"github.com/allegro/bigcache"
	"github.com/pkg/errors"

	"github.com/Benouakrim/Academora-02-sub002/core"
)

type memoryCache struct {
	cache *bigcache.BigCache
}

var _ core.Cache = (*memoryCache)(nil)

// NewMemoryCache returns an in-process cache. Entries live for ttl regardless
// of the ttl passed to Set, as bigcache only supports a global life window.
func NewMemoryCache(ttl time.Duration) (core.Cache, error) {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	conf := bigcache.DefaultConfig(ttl)
	conf.Shards = 64
	conf.CleanWindow = ttl / 2
	conf.MaxEntrySize = 4096
	conf.HardMaxCacheSize = 64 // MB
	conf.Verbose = false

	bc, err := bigcache.NewBigCache(conf)
	if err != nil {
		return nil, errors.Wrap(err, "creating bigcache")
	}
	return &memoryCache{cache: bc}, nil
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.cache.Get(key)
	if err == bigcache.ErrEntryNotFound {
		return nil, core.ErrCacheMiss
	}
	return data, err
}

func (c *memoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.cache.Set(key, value)
}

func (c *memoryCache) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if err := c.cache.Delete(key); err != nil && err != bigcache.ErrEntryNotFound {
			return err
		}
	}
	return nil
}

func (c *memoryCache) Close() error {
	return c.cache.Close()
}
