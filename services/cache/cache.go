// Package cachesvc provides the core.Cache backends selected by CACHE_BACKEND.
package cachesvc

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/Benouakrim/Academora-02-sub002/core"
)

// New returns the cache backend configured in conf.
func New(conf *core.Config) (core.Cache, error) {
	switch conf.Cache.Backend {
	case "memory", "":
		return NewMemoryCache(conf.Cache.TTL)
	case "redis":
		return NewRedisCache(conf), nil
	case "none":
		return NewNoopCache(), nil
	}
	return nil, errors.Errorf("unknown cache backend %q", conf.Cache.Backend)
}

type noopCache struct{}

var _ core.Cache = (*noopCache)(nil)

// NewNoopCache returns a cache that never stores anything.
func NewNoopCache() core.Cache { return &noopCache{} }

func (*noopCache) Get(context.Context, string) ([]byte, error)             { return nil, core.ErrCacheMiss }
func (*noopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (*noopCache) Delete(context.Context, ...string) error                  { return nil }
func (*noopCache) Close() error                                             { return nil }
