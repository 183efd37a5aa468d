package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Readiness 记录各子系统启动是否完成，全部完成前为 Unhealthy
type Readiness struct {
	mu    sync.RWMutex
	parts map[string]bool
}

// NewReadiness 登记需要等待的子系统
func NewReadiness(parts ...string) *Readiness {
	r := &Readiness{parts: make(map[string]bool, len(parts))}
	for _, p := range parts {
		r.parts[p] = false
	}
	return r
}

// Set 标记子系统状态
func (r *Readiness) Set(part string, ready bool) {
	r.mu.Lock()
	r.parts[part] = ready
	r.mu.Unlock()
}

// Ready 全部子系统已就绪
func (r *Readiness) Ready() bool {
	return len(r.pending()) == 0
}

func (r *Readiness) pending() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for p, ok := range r.parts {
		if !ok {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func (r *Readiness) Name() string { return "startup" }

func (r *Readiness) Check(context.Context) CheckResult {
	start := time.Now()
	if pending := r.pending(); len(pending) > 0 {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: "starting",
			Details: map[string]interface{}{"pending": pending},
			Latency: time.Since(start),
		}
	}
	return CheckResult{Status: StatusHealthy, Message: "ok", Latency: time.Since(start)}
}
