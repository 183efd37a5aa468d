package gateway

import (
	"context"
	"sync"
	"time"
)

// Deduper 刷卡去重，窗口内重复出现返回 true
type Deduper interface {
	Seen(ctx context.Context, reader, cardID string) (bool, error)
}

// LocalDeduper 未启用 redis 时的进程内去重
type LocalDeduper struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string]time.Time
	now    func() time.Time
}

func NewLocalDeduper(window time.Duration) *LocalDeduper {
	return &LocalDeduper{window: window, seen: make(map[string]time.Time), now: time.Now}
}

func (d *LocalDeduper) Seen(_ context.Context, reader, cardID string) (bool, error) {
	if d.window <= 0 {
		return false, nil
	}
	key := reader + ":" + cardID
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()
	if at, ok := d.seen[key]; ok && now.Sub(at) < d.window {
		return true, nil
	}
	d.seen[key] = now
	// 顺带清理过期项
	if len(d.seen) > 1024 {
		for k, at := range d.seen {
			if now.Sub(at) >= d.window {
				delete(d.seen, k)
			}
		}
	}
	return false, nil
}
