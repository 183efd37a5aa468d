package health

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolUsage 连接池占用
type PoolUsage struct {
	Total    int32
	Idle     int32
	Acquired int32
	Max      int32
}

// DatabaseChecker 数据库健康检查器
type DatabaseChecker struct {
	ping  func(ctx context.Context) error
	usage func() PoolUsage
}

// NewDatabaseChecker 创建数据库健康检查器
func NewDatabaseChecker(pool *pgxpool.Pool) *DatabaseChecker {
	return &DatabaseChecker{
		ping: pool.Ping,
		usage: func() PoolUsage {
			s := pool.Stat()
			return PoolUsage{Total: s.TotalConns(), Idle: s.IdleConns(), Acquired: s.AcquiredConns(), Max: s.MaxConns()}
		},
	}
}

func (c *DatabaseChecker) Name() string {
	return "database"
}

// Check 探活并按连接池利用率判定：>90% 降级，耗尽不健康
func (c *DatabaseChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	if err := c.ping(ctx); err != nil {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: fmt.Sprintf("ping failed: %v", err),
			Latency: time.Since(start),
		}
	}

	u := c.usage()
	utilization := 0.0
	if u.Max > 0 {
		utilization = float64(u.Acquired) / float64(u.Max)
	}

	status, message := StatusHealthy, "ok"
	switch {
	case utilization >= 1.0:
		status, message = StatusUnhealthy, "connection pool exhausted"
	case utilization > 0.9:
		status, message = StatusDegraded, "connection pool near limit"
	}

	return CheckResult{
		Status:  status,
		Message: message,
		Details: map[string]interface{}{
			"total_conns":    u.Total,
			"idle_conns":     u.Idle,
			"acquired_conns": u.Acquired,
			"max_conns":      u.Max,
			"utilization":    fmt.Sprintf("%.1f%%", utilization*100),
		},
		Latency: time.Since(start),
	}
}
