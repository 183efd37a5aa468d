package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/aks-gateway/internal/access"
	"github.com/taoyao-code/aks-gateway/internal/config"
	"github.com/taoyao-code/aks-gateway/internal/metrics"
	"github.com/taoyao-code/aks-gateway/internal/protocol/aks"
	"github.com/taoyao-code/aks-gateway/internal/reader"
	"github.com/taoyao-code/aks-gateway/internal/registry"
	"github.com/taoyao-code/aks-gateway/internal/transport/transporttest"
)

func newTestManager(t *testing.T, names ...string) *Manager {
	t.Helper()
	deps := Deps{
		Decider:  access.NewService(access.NewMemoryDirectory()),
		Registry: registry.New(time.Minute),
		Metrics:  metrics.NewAppMetrics(metrics.NewRegistry()),
	}
	m := newManager(deps)
	for _, name := range names {
		rc := testReaderConfig()
		rc.Name = name
		dev := &device{replies: map[aks.Command]string{aks.CmdLogCount: "3"}}
		w := newWorker(rc, testGatewayConfig(), &transporttest.Fake{Respond: dev.respond}, time.UTC, deps)
		require.NoError(t, m.add(w))
	}
	return m
}

func TestManager(t *testing.T) {
	m := newTestManager(t, "door1", "door2")
	m.Start(context.Background())
	m.Start(context.Background())
	defer m.Stop()

	t.Run("按名称执行任务", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		var n int
		err := m.Do(ctx, "door2", func(ctx context.Context, s *reader.Session, addr byte) error {
			var err error
			n, err = s.LogCount(ctx, addr)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("未知读卡器", func(t *testing.T) {
		err := m.Do(context.Background(), "gate9", func(context.Context, *reader.Session, byte) error { return nil })
		assert.ErrorIs(t, err, ErrUnknownReader)
	})

	t.Run("状态列表保持配置顺序", func(t *testing.T) {
		require.Eventually(t, func() bool { return m.Registry().OnlineCount(time.Now()) == 2 }, time.Second, time.Millisecond)
		list := m.Readers()
		require.Len(t, list, 2)
		assert.Equal(t, "door1", list[0].Name)
		assert.Equal(t, "door2", list[1].Name)
		assert.True(t, list[0].Online)
		assert.Equal(t, "closed", list[0].Breaker.State)

		_, ok := m.Reader("gate9")
		assert.False(t, ok)
	})
}

func TestManager_DuplicateReader(t *testing.T) {
	m := newTestManager(t, "door1")
	w := newWorker(testReaderConfig(), testGatewayConfig(), &transporttest.Fake{}, time.UTC, m.deps)
	assert.Error(t, m.add(w))
}

func TestNewManager(t *testing.T) {
	cfg := &config.Config{
		Gateway: testGatewayConfig(),
		Readers: []config.ReaderConfig{testReaderConfig(), func() config.ReaderConfig {
			rc := testReaderConfig()
			rc.Name = "serial1"
			rc.Transport = config.TransportSerial
			rc.SerialPort = "/dev/ttyUSB0"
			rc.BaudRate = 9600
			return rc
		}()},
	}

	_, err := NewManager(cfg, time.UTC, Deps{})
	assert.Error(t, err, "缺少 Decider")

	m, err := NewManager(cfg, time.UTC, Deps{Decider: access.NewService(access.NewMemoryDirectory())})
	require.NoError(t, err)
	w, ok := m.Worker("serial1")
	require.True(t, ok)
	assert.Equal(t, "serial:///dev/ttyUSB0@9600", w.Endpoint())
	w, _ = m.Worker("door1")
	assert.Equal(t, "tcp://127.0.0.1:1001", w.Endpoint())

	// 未启动时 Stop 无副作用
	m.Stop()
}
