package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// AppMetrics 自定义业务指标
type AppMetrics struct {
	CommandTotal    *prometheus.CounterVec   // labels: cmd, result=ok|absent|timeout|...
	CommandDuration *prometheus.HistogramVec // labels: cmd
	ReaderOnline    prometheus.Gauge         // 当前在线读卡器数
	AccessDecision  *prometheus.CounterVec   // labels: decision=granted|denied
	OfflineLogTotal prometheus.Counter       // 已上传的离线刷卡记录
	ReconnectTotal  *prometheus.CounterVec   // labels: reader
}

// NewAppMetrics 注册并返回业务指标
func NewAppMetrics(reg prometheus.Registerer) *AppMetrics {
	m := &AppMetrics{
		CommandTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aks_command_total",
			Help: "Reader commands by command and result.",
		}, []string{"cmd", "result"}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aks_command_duration_seconds",
			Help:    "Reader command round-trip latency.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"cmd"}),
		ReaderOnline: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aks_reader_online",
			Help: "Current number of online readers.",
		}),
		AccessDecision: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aks_access_decision_total",
			Help: "Access decisions by outcome.",
		}, []string{"decision"}),
		OfflineLogTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aks_offline_log_total",
			Help: "Offline access logs collected from readers.",
		}),
		ReconnectTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aks_reconnect_total",
			Help: "Reader reconnect attempts.",
		}, []string{"reader"}),
	}
	reg.MustRegister(m.CommandTotal, m.CommandDuration, m.ReaderOnline, m.AccessDecision, m.OfflineLogTotal, m.ReconnectTotal)
	return m
}

// ObserveCommand 记录一次命令交互
func (m *AppMetrics) ObserveCommand(cmd, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.CommandTotal.WithLabelValues(cmd, result).Inc()
	m.CommandDuration.WithLabelValues(cmd).Observe(d.Seconds())
}

// ObserveDecision 记录门禁判定
func (m *AppMetrics) ObserveDecision(granted bool) {
	if m == nil {
		return
	}
	if granted {
		m.AccessDecision.WithLabelValues("granted").Inc()
		return
	}
	m.AccessDecision.WithLabelValues("denied").Inc()
}

// ObserveOfflineLog 记录一条离线刷卡记录
func (m *AppMetrics) ObserveOfflineLog() {
	if m == nil {
		return
	}
	m.OfflineLogTotal.Inc()
}

// ObserveReconnect 记录一次重连成功
func (m *AppMetrics) ObserveReconnect(reader string) {
	if m == nil {
		return
	}
	m.ReconnectTotal.WithLabelValues(reader).Inc()
}

// SetOnline 更新在线读卡器数
func (m *AppMetrics) SetOnline(n int) {
	if m == nil {
		return
	}
	m.ReaderOnline.Set(float64(n))
}
