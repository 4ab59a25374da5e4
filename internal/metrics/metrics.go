// Package metrics 暴露管道运行指标。
// 使用 Prometheus 计数器统计缓存命中率与上游调用情况，
// 指标通过独立的 registry 注册，由 cmd 层决定是否挂载 HTTP 端点。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 管道指标集合
// 所有计数方法对 nil 接收者安全，便于在禁用指标时直接传 nil。
type Metrics struct {
	// registry 独立的指标注册表，避免污染全局默认注册表
	registry *prometheus.Registry

	// cacheHits 缓存命中计数，按命中层级（memory/file）区分
	cacheHits *prometheus.CounterVec
	// cacheMisses 缓存未命中计数
	cacheMisses prometheus.Counter
	// upstreamRequests 上游请求计数，按来源（transactions/quote）区分
	upstreamRequests *prometheus.CounterVec
	// upstreamErrors 上游请求失败计数，按来源区分
	upstreamErrors *prometheus.CounterVec
}

// New 创建并注册管道指标
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "radar",
			Name:      "cache_hits_total",
			Help:      "Cache hits by tier (memory/file).",
		}, []string{"tier"}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "radar",
			Name:      "cache_misses_total",
			Help:      "Cache misses (expired or absent in both tiers).",
		}),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "radar",
			Name:      "upstream_requests_total",
			Help:      "Upstream fetches by source.",
		}, []string{"source"}),
		upstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "radar",
			Name:      "upstream_errors_total",
			Help:      "Failed upstream fetches by source.",
		}, []string{"source"}),
	}

	m.registry.MustRegister(m.cacheHits, m.cacheMisses, m.upstreamRequests, m.upstreamErrors)
	return m
}

// CacheHit 记录一次缓存命中
// 参数 tier: 命中层级，memory 或 file
func (m *Metrics) CacheHit(tier string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(tier).Inc()
}

// CacheMiss 记录一次缓存未命中
func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

// UpstreamRequest 记录一次上游请求
// 参数 source: 请求来源，如 transactions、quote
func (m *Metrics) UpstreamRequest(source string) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(source).Inc()
}

// UpstreamError 记录一次上游请求失败
// 参数 source: 请求来源
func (m *Metrics) UpstreamError(source string) {
	if m == nil {
		return
	}
	m.upstreamErrors.WithLabelValues(source).Inc()
}

// Handler 返回指标 HTTP 处理器
// 由 cmd 层挂载到 /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
