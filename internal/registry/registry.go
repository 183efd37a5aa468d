// Package registry 记录读卡器的连接与最近交互状态
package registry

import (
	"sort"
	"sync"
	"time"
)

// State 读卡器状态快照
type State struct {
	Name       string    `json:"name"`
	Endpoint   string    `json:"endpoint"`
	Address    byte      `json:"address"`
	Connected  bool      `json:"connected"`
	Online     bool      `json:"online"`
	LastSeen   time.Time `json:"last_seen"`
	LastError  string    `json:"last_error,omitempty"`
	Failures   int       `json:"consecutive_failures"`
	Reconnects int       `json:"reconnects"`
	Breaker    string    `json:"breaker,omitempty"`

	// 曾经连接成功过，之后的连接计为重连
	connectedBefore bool
}

// Registry 内存实现：最近一次成功交互在 timeout 内且连接存在即视为在线
type Registry struct {
	mu      sync.RWMutex
	readers map[string]*State
	timeout time.Duration
}

func New(timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Registry{readers: make(map[string]*State), timeout: timeout}
}

// Register 登记读卡器，重复登记将覆盖
func (r *Registry) Register(name, endpoint string, addr byte) {
	r.mu.Lock()
	r.readers[name] = &State{Name: name, Endpoint: endpoint, Address: addr}
	r.mu.Unlock()
}

func (r *Registry) update(name string, fn func(s *State)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.readers[name]; ok {
		fn(s)
	}
}

// OnConnected 连接建立
func (r *Registry) OnConnected(name string, t time.Time) {
	r.update(name, func(s *State) {
		if s.connectedBefore {
			s.Reconnects++
		}
		s.connectedBefore = true
		s.Connected = true
		s.LastSeen = t
		s.LastError = ""
	})
}

// OnDisconnected 连接断开
func (r *Registry) OnDisconnected(name string, err error) {
	r.update(name, func(s *State) {
		s.Connected = false
		if err != nil {
			s.LastError = err.Error()
		}
	})
}

// OnSuccess 一次成功交互
func (r *Registry) OnSuccess(name string, t time.Time) {
	r.update(name, func(s *State) {
		s.LastSeen = t
		s.Failures = 0
		s.LastError = ""
	})
}

// OnFailure 一次失败交互
func (r *Registry) OnFailure(name string, err error) {
	r.update(name, func(s *State) {
		s.Failures++
		if err != nil {
			s.LastError = err.Error()
		}
	})
}

// SetBreaker 记录熔断器状态
func (r *Registry) SetBreaker(name, state string) {
	r.update(name, func(s *State) { s.Breaker = state })
}

func (r *Registry) snapshot(s *State, now time.Time) State {
	out := *s
	out.Online = s.Connected && !s.LastSeen.IsZero() && now.Sub(s.LastSeen) <= r.timeout
	return out
}

// Get 返回读卡器状态
func (r *Registry) Get(name string, now time.Time) (State, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.readers[name]
	if !ok {
		return State{}, false
	}
	return r.snapshot(s, now), true
}

// List 按名称排序返回全部读卡器状态
func (r *Registry) List(now time.Time) []State {
	r.mu.RLock()
	out := make([]State, 0, len(r.readers))
	for _, s := range r.readers {
		out = append(out, r.snapshot(s, now))
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// IsOnline 判断读卡器是否在线
func (r *Registry) IsOnline(name string, now time.Time) bool {
	s, ok := r.Get(name, now)
	return ok && s.Online
}

// OnlineCount 返回在线读卡器数量
func (r *Registry) OnlineCount(now time.Time) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, s := range r.readers {
		if r.snapshot(s, now).Online {
			count++
		}
	}
	return count
}
