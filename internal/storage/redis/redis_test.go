package redis

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/aks-gateway/internal/access"
	"github.com/taoyao-code/aks-gateway/internal/config"
)

// 需要Redis服务器，通过 AKS_TEST_REDIS 指定地址，未设置时跳过
func newTestClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("AKS_TEST_REDIS")
	if addr == "" {
		t.Skip("需要Redis服务器，跳过测试")
	}
	c, err := NewClient(context.Background(), config.RedisConfig{Enabled: true, Addr: addr, DB: 15})
	require.NoError(t, err)
	require.NoError(t, c.FlushDB(context.Background()).Err())
	t.Cleanup(func() { _ = c.Close() })
	return c
}

type countingDirectory struct {
	*access.MemoryDirectory
	calls atomic.Int32
}

func (d *countingDirectory) Lookup(ctx context.Context, id string) (*access.Cardholder, error) {
	d.calls.Add(1)
	return d.MemoryDirectory.Lookup(ctx, id)
}

func TestNewClient_Disabled(t *testing.T) {
	_, err := NewClient(context.Background(), config.RedisConfig{})
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestOptions(t *testing.T) {
	o := Options(config.RedisConfig{Addr: "127.0.0.1:6379", DB: 2, PoolSize: 7, DialTimeout: time.Second})
	assert.Equal(t, "127.0.0.1:6379", o.Addr)
	assert.Equal(t, 2, o.DB)
	assert.Equal(t, 7, o.PoolSize)
	assert.Equal(t, time.Second, o.DialTimeout)
}

func TestCachedDirectory(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	next := &countingDirectory{MemoryDirectory: access.NewMemoryDirectory(access.Cardholder{CardID: "ECAB2979", Name: "CAN CAKAR"})}
	dir := NewCachedDirectory(next, c.Client, time.Minute, nil)

	t.Run("命中缓存", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			h, err := dir.Lookup(ctx, "ecab2979")
			require.NoError(t, err)
			assert.Equal(t, "CAN CAKAR", h.Name)
		}
		assert.EqualValues(t, 1, next.calls.Load())
	})

	t.Run("未登记卡号也缓存", func(t *testing.T) {
		next.calls.Store(0)
		for i := 0; i < 2; i++ {
			_, err := dir.Lookup(ctx, "DEADBEEF")
			assert.ErrorIs(t, err, access.ErrNotFound)
		}
		assert.EqualValues(t, 1, next.calls.Load())
	})

	t.Run("失效后回源", func(t *testing.T) {
		next.calls.Store(0)
		require.NoError(t, dir.Invalidate(ctx, "ECAB2979"))
		_, err := dir.Lookup(ctx, "ECAB2979")
		require.NoError(t, err)
		assert.EqualValues(t, 1, next.calls.Load())
	})
}

func TestSwipeDeduper(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	d := NewSwipeDeduper(c.Client, 200*time.Millisecond, nil)

	seen, err := d.Seen(ctx, "door1", "ECAB2979")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = d.Seen(ctx, "door1", "ECAB2979")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = d.Seen(ctx, "door2", "ECAB2979")
	require.NoError(t, err)
	assert.False(t, seen, "不同读卡器互不影响")

	time.Sleep(300 * time.Millisecond)
	seen, err = d.Seen(ctx, "door1", "ECAB2979")
	require.NoError(t, err)
	assert.False(t, seen, "窗口过期后重新计数")

	_, err = d.Seen(ctx, "door1", "")
	assert.Error(t, err)
}
