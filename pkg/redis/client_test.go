package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/config"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	cfg := config.Default().Redis
	c, err := NewClient(context.Background(), cfg)
	if err != nil {
		t.Skipf("redis not available at %s: %v", cfg.Addr, err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClientRoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	prefix := "test:rank:" + t.Name() + ":"

	_, ok, err := c.Get(ctx, prefix+"missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, prefix+"a", []byte("0.5"), time.Minute))
	require.NoError(t, c.Set(ctx, prefix+"b", []byte("0.25"), time.Minute))

	value, ok, err := c.Get(ctx, prefix+"a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "0.5", string(value))

	n, err := c.DeletePrefix(ctx, prefix)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, ok, err = c.Get(ctx, prefix+"b")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewClientUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	_, err := NewClient(ctx, config.RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
