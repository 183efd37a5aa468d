package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/aks-gateway/internal/registry"
)

// mockChecker 模拟检查器
type mockChecker struct {
	name   string
	status Status
}

func (m *mockChecker) Name() string { return m.name }

func (m *mockChecker) Check(context.Context) CheckResult {
	return CheckResult{Status: m.status, Message: "mock", Latency: time.Millisecond}
}

func TestAggregator(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		checks []Checker
		want   Status
		ready  bool
	}{
		{"全部健康", []Checker{&mockChecker{"db", StatusHealthy}, &mockChecker{"readers", StatusHealthy}}, StatusHealthy, true},
		{"部分降级", []Checker{&mockChecker{"db", StatusHealthy}, &mockChecker{"readers", StatusDegraded}}, StatusDegraded, true},
		{"部分不健康", []Checker{&mockChecker{"db", StatusUnhealthy}, &mockChecker{"readers", StatusDegraded}}, StatusUnhealthy, false},
		{"无检查器", nil, StatusHealthy, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator(tt.checks...)
			assert.Equal(t, tt.want, agg.OverallStatus(ctx))
			assert.Equal(t, tt.ready, agg.Ready(ctx))
		})
	}

	t.Run("动态添加检查器", func(t *testing.T) {
		agg := NewAggregator(&mockChecker{"initial", StatusHealthy})
		agg.AddChecker(&mockChecker{"added", StatusHealthy})
		agg.AddChecker(nil)
		assert.Len(t, agg.CheckAll(ctx), 2)
	})

	t.Run("单个检查超时", func(t *testing.T) {
		agg := NewAggregator(CheckerFunc{N: "slow", Fn: func(ctx context.Context) CheckResult {
			<-ctx.Done()
			return CheckResult{Status: StatusUnhealthy, Message: ctx.Err().Error()}
		}})
		agg.timeout = 10 * time.Millisecond
		r := agg.Report(ctx)
		assert.Equal(t, StatusUnhealthy, r.Status)
		assert.Equal(t, context.DeadlineExceeded.Error(), r.Checks["slow"].Message)
	})

	t.Run("Alive始终返回true", func(t *testing.T) {
		assert.True(t, NewAggregator().Alive())
	})
}

func TestReadiness(t *testing.T) {
	r := NewReadiness("database", "gateway")
	assert.False(t, r.Ready())
	res := r.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, res.Status)
	assert.Equal(t, []string{"database", "gateway"}, res.Details["pending"])

	r.Set("database", true)
	r.Set("gateway", true)
	assert.True(t, r.Ready())
	assert.Equal(t, StatusHealthy, r.Check(context.Background()).Status)
}

func TestDatabaseChecker(t *testing.T) {
	check := func(pingErr error, u PoolUsage) CheckResult {
		c := &DatabaseChecker{
			ping:  func(context.Context) error { return pingErr },
			usage: func() PoolUsage { return u },
		}
		return c.Check(context.Background())
	}

	assert.Equal(t, StatusUnhealthy, check(errors.New("refused"), PoolUsage{}).Status)
	assert.Equal(t, StatusHealthy, check(nil, PoolUsage{Total: 2, Acquired: 1, Max: 10}).Status)
	assert.Equal(t, StatusDegraded, check(nil, PoolUsage{Acquired: 19, Max: 20}).Status)
	r := check(nil, PoolUsage{Acquired: 10, Max: 10})
	assert.Equal(t, StatusUnhealthy, r.Status)
	assert.Equal(t, "100.0%", r.Details["utilization"])
}

type fakeRedis struct {
	err   error
	stats redis.PoolStats
}

func (f *fakeRedis) HealthCheck(context.Context) error { return f.err }
func (f *fakeRedis) Stats() *redis.PoolStats { return &f.stats }

func TestRedisChecker(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, StatusUnhealthy, NewRedisChecker(&fakeRedis{err: errors.New("down")}).Check(ctx).Status)
	assert.Equal(t, StatusHealthy, NewRedisChecker(&fakeRedis{stats: redis.PoolStats{TotalConns: 10, IdleConns: 8}}).Check(ctx).Status)
	assert.Equal(t, StatusDegraded, NewRedisChecker(&fakeRedis{stats: redis.PoolStats{TotalConns: 10, IdleConns: 0}}).Check(ctx).Status)
	assert.Equal(t, StatusDegraded, NewRedisChecker(&fakeRedis{stats: redis.PoolStats{TotalConns: 10, IdleConns: 9, Hits: 1, Misses: 5}}).Check(ctx).Status)
}

func TestReaderChecker(t *testing.T) {
	reg := registry.New(time.Minute)
	reg.Register("door1", "tcp://10.0.0.5:1001", 150)
	reg.Register("door2", "tcp://10.0.0.6:1001", 150)
	now := time.Now()
	reg.OnConnected("door1", now)
	reg.OnConnected("door2", now)

	c := NewReaderChecker(reg)
	assert.Equal(t, StatusHealthy, c.Check(context.Background()).Status)

	reg.OnDisconnected("door2", errors.New("eof"))
	r := c.Check(context.Background())
	assert.Equal(t, StatusDegraded, r.Status)
	assert.Equal(t, []string{"door2"}, r.Details["offline"])
	assert.Equal(t, 1, r.Details["online"])
}

func TestRegisterHTTPRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	get := func(agg *Aggregator, path string) *httptest.ResponseRecorder {
		r := gin.New()
		RegisterHTTPRoutes(r, agg)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		return rr
	}

	t.Run("降级仍返回200", func(t *testing.T) {
		rr := get(NewAggregator(&mockChecker{"readers", StatusDegraded}), "/health")
		require.Equal(t, http.StatusOK, rr.Code)
		var report HealthReport
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
		assert.Equal(t, StatusDegraded, report.Status)
		assert.Contains(t, report.Checks, "readers")
	})

	t.Run("不健康返回503", func(t *testing.T) {
		agg := NewAggregator(&mockChecker{"database", StatusUnhealthy})
		assert.Equal(t, http.StatusServiceUnavailable, get(agg, "/health").Code)
		assert.Equal(t, http.StatusServiceUnavailable, get(agg, "/health/ready").Code)
		assert.Equal(t, http.StatusOK, get(agg, "/health/live").Code)
	})

	t.Run("就绪", func(t *testing.T) {
		rr := get(NewAggregator(&mockChecker{"database", StatusHealthy}), "/health/ready")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"status":"ok","ready":true}`, rr.Body.String())
	})
}
