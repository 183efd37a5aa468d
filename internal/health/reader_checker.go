package health

import (
	"context"
	"time"

	"github.com/taoyao-code/aks-gateway/internal/registry"
)

// ReaderChecker 读卡器在线检查，任一离线为降级
type ReaderChecker struct {
	reg *registry.Registry
	now func() time.Time
}

func NewReaderChecker(reg *registry.Registry) *ReaderChecker {
	return &ReaderChecker{reg: reg, now: time.Now}
}

func (c *ReaderChecker) Name() string { return "readers" }

func (c *ReaderChecker) Check(context.Context) CheckResult {
	start := time.Now()
	states := c.reg.List(c.now())

	offline := []string{}
	for _, s := range states {
		if !s.Online {
			offline = append(offline, s.Name)
		}
	}

	r := CheckResult{
		Status:  StatusHealthy,
		Message: "ok",
		Details: map[string]interface{}{
			"total":   len(states),
			"online":  len(states) - len(offline),
			"offline": offline,
		},
	}
	if len(offline) > 0 {
		r.Status = StatusDegraded
		r.Message = "some readers are offline"
	}
	r.Latency = time.Since(start)
	return r
}
