package cachesvc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benouakrim/Academora-02-sub002/core"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemoryCache(time.Minute)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	_, err = c.Get(ctx, "missing")
	assert.Equal(t, core.ErrCacheMiss, err)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	data, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), data)

	assert.NoError(t, c.Delete(ctx, "k", "missing"))
	_, err = c.Get(ctx, "k")
	assert.Equal(t, core.ErrCacheMiss, err)
}

func TestNoopCache(t *testing.T) {
	ctx := context.Background()
	c := NewNoopCache()
	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	_, err := c.Get(ctx, "k")
	assert.Equal(t, core.ErrCacheMiss, err)
}

func TestNew(t *testing.T) {
	conf := core.NewTestConfig()

	tests := []struct {
		backend string
		wantErr bool
	}{
		{backend: "memory"},
		{backend: "none"},
		{backend: "redis"},
		{backend: "memcached", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.backend, func(t *testing.T) {
			conf.Cache.Backend = tc.backend
			c, err := New(conf)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, c)
			_ = c.Close()
		})
	}
}
