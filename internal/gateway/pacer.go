package gateway

import (
	"context"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// Pacer 限制单个读卡器的命令速率，避免压垮串口设备
type Pacer struct {
	limiter    *rate.Limiter
	ratePerSec int
	burst      int
	allowed    atomic.Int64
	rejected   atomic.Int64
}

// NewPacer ratePerSec<=0 表示不限速
func NewPacer(ratePerSec, burst int) *Pacer {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Inf
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
	}
	return &Pacer{
		limiter:    rate.NewLimiter(limit, burst),
		ratePerSec: ratePerSec,
		burst:      burst,
	}
}

// Wait 阻塞直到可以发送下一条命令
func (p *Pacer) Wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		p.rejected.Add(1)
		return err
	}
	p.allowed.Add(1)
	return nil
}

// Allow 非阻塞检查
func (p *Pacer) Allow() bool {
	if p.limiter.Allow() {
		p.allowed.Add(1)
		return true
	}
	p.rejected.Add(1)
	return false
}

// PacerStats 限速统计
type PacerStats struct {
	RatePerSecond int   `json:"rate_per_second"`
	Burst         int   `json:"burst"`
	AllowedTotal  int64 `json:"allowed_total"`
	RejectedTotal int64 `json:"rejected_total"`
}

func (p *Pacer) Stats() PacerStats {
	return PacerStats{
		RatePerSecond: p.ratePerSec,
		Burst:         p.burst,
		AllowedTotal:  p.allowed.Load(),
		RejectedTotal: p.rejected.Load(),
	}
}
