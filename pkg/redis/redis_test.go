package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, RedisAdapter) {
	mr := miniredis.RunT(t)
	adapter, err := NewRedisAdapter(context.Background(), "test:", &Options{Addrs: []string{mr.Addr()}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })
	return mr, adapter
}

func TestRedisAdapter_KeyPrefix(t *testing.T) {
	mr, adapter := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "k", []byte("v"), time.Minute))
	assert.True(t, mr.Exists("test:k"))

	got, err := adapter.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, adapter.Del(ctx, "k"))
	_, err = adapter.Get(ctx, "k")
	assert.ErrorIs(t, err, NilError)
}

func TestRedisAdapter_SetNX(t *testing.T) {
	_, adapter := setupTestRedis(t)
	ctx := context.Background()

	ok, err := adapter.SetNX(ctx, "lock", []byte("1"), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = adapter.SetNX(ctx, "lock", []byte("2"), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisAdapter_Streams(t *testing.T) {
	_, adapter := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, adapter.XGroupCreateMkStream(ctx, "feed", "g", "0"))
	_, err := adapter.XAdd(ctx, "feed", 0, map[string]interface{}{"data": "one"})
	require.NoError(t, err)

	msgs, err := adapter.XReadGroup(ctx, "g", "c1", "feed", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "one", msgs[0].Values["data"])

	pending, err := adapter.XPendingCount(ctx, "feed", "g")
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)

	require.NoError(t, adapter.XAck(ctx, "feed", "g", msgs[0].ID))
	pending, err = adapter.XPendingCount(ctx, "feed", "g")
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending)

	n, err := adapter.XLen(ctx, "feed")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
