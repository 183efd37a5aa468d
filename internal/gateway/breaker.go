package gateway

import (
	"errors"
	"sync"
	"time"
)

// BreakerState 重连熔断状态
type BreakerState int

const (
	BreakerClosed   BreakerState = iota // 正常重连
	BreakerOpen                         // 连续失败，暂停重连
	BreakerHalfOpen                     // 冷却结束，允许一次试探
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrBreakerOpen 熔断期内拒绝连接
var ErrBreakerOpen = errors.New("reconnect breaker is open")

// Breaker 保护读卡器重连：连续 threshold 次失败后暂停 cooldown，
// 冷却后放行一次试探，成功即恢复，失败重新计时
type Breaker struct {
	mu         sync.Mutex
	state     BreakerState
	failures  int
	trips     int64
	openedAt  time.Time
	changedAt time.Time
	probing   bool
	threshold int
	cooldown  time.Duration
	now       func() time.Time
	onChange  func(from, to BreakerState)
}

// NewBreaker threshold<=0 取 5，cooldown<=0 取 30s
func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	b := &Breaker{threshold: threshold, cooldown: cooldown, now: time.Now}
	b.changedAt = b.now()
	return b
}

// Call 受熔断保护执行 fn
func (b *Breaker) Call(fn func() error) error {
	if err := b.before(); err != nil {
		return err
	}
	err := fn()
	b.after(err)
	return err
}

func (b *Breaker) before() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		return nil
	case BreakerOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return ErrBreakerOpen
		}
		b.transition(BreakerHalfOpen)
		b.probing = true
		return nil
	default:
		// 半开只允许一个试探
		if b.probing {
			return ErrBreakerOpen
		}
		b.probing = true
		return nil
	}
}

func (b *Breaker) after(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false

	if err == nil {
		b.failures = 0
		b.transition(BreakerClosed)
		return
	}
	b.failures++
	if b.state == BreakerHalfOpen || b.failures >= b.threshold {
		b.openedAt = b.now()
		if b.state != BreakerOpen {
			b.trips++
		}
		b.transition(BreakerOpen)
	}
}

// transition 调用方持有锁
func (b *Breaker) transition(to BreakerState) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	b.changedAt = b.now()
	if b.onChange != nil {
		go b.onChange(from, to)
	}
}

// RetryAfter 距离下一次允许尝试的时间，非熔断状态为 0
func (b *Breaker) RetryAfter() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != BreakerOpen {
		return 0
	}
	if d := b.cooldown - b.now().Sub(b.openedAt); d > 0 {
		return d
	}
	return 0
}

// State 当前状态
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// SetStateChangeCallback 状态变化时异步回调
func (b *Breaker) SetStateChangeCallback(fn func(from, to BreakerState)) {
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

// Reset 手动恢复
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.probing = false
	b.transition(BreakerClosed)
}

// BreakerStats 熔断统计
type BreakerStats struct {
	State           string    `json:"state"`
	Failures        int       `json:"failures"`
	Trips           int64     `json:"trips"`
	LastStateChange time.Time `json:"last_state_change"`
}

func (b *Breaker) Stats() BreakerStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BreakerStats{
		State:           b.state.String(),
		Failures:        b.failures,
		Trips:           b.trips,
		LastStateChange: b.changedAt,
	}
}
