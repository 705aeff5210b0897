// Package metrics 容量分配与 HTTP 指标（Prometheus）
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pto"

// 槽位调整结果标签
const (
	ResultDebited  = "debited"
	ResultCredited = "credited"
	ResultExceeded = "exceeded"
	ResultForced   = "forced"
	ResultMissing  = "missing"
)

// Metrics 指标集合；所有方法对 nil 接收者安全
type Metrics struct {
	registry *prometheus.Registry

	slotAdjustments    *prometheus.CounterVec
	forcedOverCapacity prometheus.Counter
	listMutations      *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// New 创建独立 Registry 下的指标集合
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		slotAdjustments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_adjustments_total",
			Help:      "容量槽位调整次数（按结果）",
		}, []string{"result"}),
		forcedOverCapacity: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forced_over_capacity_total",
			Help:      "强制超额分配次数",
		}),
		listMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_list_mutations_total",
			Help:      "排班列表写操作次数",
		}, []string{"list", "op"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP 请求数",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP 请求耗时",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(m.slotAdjustments, m.forcedOverCapacity, m.listMutations, m.httpRequests, m.httpDuration)
	return m
}

// Handler /metrics 暴露端点
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SlotAdjusted 记录一次槽位调整
func (m *Metrics) SlotAdjusted(result string) {
	if m == nil {
		return
	}
	m.slotAdjustments.WithLabelValues(result).Inc()
	if result == ResultForced {
		m.forcedOverCapacity.Inc()
	}
}

// ListMutated 记录一次列表写操作（list: entries | soft_slots）
func (m *Metrics) ListMutated(list, op string) {
	if m == nil {
		return
	}
	m.listMutations.WithLabelValues(list, op).Inc()
}

// ObserveHTTP 记录一次 HTTP 请求
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
