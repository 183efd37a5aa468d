package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/aks-gateway/internal/config"
	"github.com/taoyao-code/aks-gateway/internal/registry"
)

// ErrUnknownReader 未配置的读卡器
var ErrUnknownReader = errors.New("unknown reader")

// ReaderInfo 读卡器运行状态
type ReaderInfo struct {
	registry.State
	QueueDepth int          `json:"queue_depth"`
	Pacer      PacerStats   `json:"pacer"`
	Breaker    BreakerStats `json:"breaker"`
}

// Manager 管理全部读卡器工作协程
type Manager struct {
	workers map[string]*Worker
	order   []string
	reg     *registry.Registry
	deps    Deps
	logger  *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager 按配置为每个读卡器创建工作协程
func NewManager(cfg *config.Config, loc *time.Location, deps Deps) (*Manager, error) {
	if deps.Decider == nil {
		return nil, errors.New("gateway: decider is required")
	}
	if deps.Registry == nil {
		deps.Registry = registry.New(cfg.Gateway.OnlineTimeout)
	}
	m := newManager(deps)
	for _, rc := range cfg.Readers {
		if err := m.add(NewWorker(rc, cfg.Gateway, loc, deps)); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func newManager(deps Deps) *Manager {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		workers: make(map[string]*Worker),
		reg:     deps.Registry,
		deps:    deps,
		logger:  logger,
	}
}

func (m *Manager) add(w *Worker) error {
	if _, dup := m.workers[w.Name()]; dup {
		return fmt.Errorf("gateway: duplicate reader %q", w.Name())
	}
	m.workers[w.Name()] = w
	m.order = append(m.order, w.Name())
	m.reg.Register(w.Name(), w.Endpoint(), w.Address())
	return nil
}

// Start 启动全部工作协程，重复调用无效
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)

	for _, name := range m.order {
		w := m.workers[name]
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			w.Run(ctx)
		}()
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.reportOnline(ctx)
	}()
	m.logger.Info("gateway started", zap.Int("readers", len(m.order)))
}

// Stop 停止并等待全部工作协程退出
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	m.wg.Wait()
	m.deps.Metrics.SetOnline(0)
	m.logger.Info("gateway stopped")
}

// reportOnline 周期刷新在线读卡器数量
func (m *Manager) reportOnline(ctx context.Context) {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.deps.Metrics.SetOnline(m.reg.OnlineCount(time.Now()))
		}
	}
}

// Worker 按名称查找
func (m *Manager) Worker(name string) (*Worker, bool) {
	w, ok := m.workers[name]
	return w, ok
}

// Do 在指定读卡器上以 API 优先级执行任务
func (m *Manager) Do(ctx context.Context, name string, fn Job) error {
	w, ok := m.workers[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownReader, name)
	}
	return w.Do(ctx, fn)
}

// Registry 在线状态表
func (m *Manager) Registry() *registry.Registry { return m.reg }

// Readers 按配置顺序返回全部读卡器状态
func (m *Manager) Readers() []ReaderInfo {
	out := make([]ReaderInfo, 0, len(m.order))
	for _, name := range m.order {
		if info, ok := m.Reader(name); ok {
			out = append(out, info)
		}
	}
	return out
}

// Reader 单个读卡器状态
func (m *Manager) Reader(name string) (ReaderInfo, bool) {
	w, ok := m.workers[name]
	if !ok {
		return ReaderInfo{}, false
	}
	st, _ := m.reg.Get(name, time.Now())
	return ReaderInfo{
		State:      st,
		QueueDepth: w.QueueLen(),
		Pacer:      w.Pacer().Stats(),
		Breaker:    w.Breaker().Stats(),
	}, true
}
