package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yuqie6/GitQuest/internal/model"
	"github.com/yuqie6/GitQuest/internal/service"
)

// Metrics 同步链路与 HTTP 的 Prometheus 指标，注册在独立 Registry 上
type Metrics struct {
	registry *prometheus.Registry

	syncCycles     *prometheus.CounterVec
	syncDuration   *prometheus.HistogramVec
	cacheFallbacks prometheus.Counter
	xpAwarded      *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

var _ service.SyncObserver = (*Metrics)(nil)

// NewMetrics 创建并注册指标
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		syncCycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gitquest",
				Name:      "sync_cycles_total",
				Help:      "Sync cycles by outcome",
			},
			[]string{"outcome"},
		),
		syncDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gitquest",
				Name:      "sync_cycle_duration_seconds",
				Help:      "Duration of sync cycles",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		cacheFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gitquest",
			Name:      "cache_fallbacks_total",
			Help:      "Fetch failures served from cache",
		}),
		xpAwarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gitquest",
				Name:      "xp_awarded_total",
				Help:      "XP granted by source",
			},
			[]string{"source"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gitquest",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gitquest",
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
	}
	m.registry.MustRegister(
		m.syncCycles,
		m.syncDuration,
		m.cacheFallbacks,
		m.xpAwarded,
		m.httpRequests,
		m.httpDuration,
		prometheus.NewGoCollector(),
	)
	return m
}

// Registry 底层 Registry（测试用）
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveCycle(outcome service.SyncOutcome, d time.Duration) {
	m.syncCycles.WithLabelValues(string(outcome)).Inc()
	m.syncDuration.WithLabelValues(string(outcome)).Observe(d.Seconds())
}

func (m *Metrics) CacheFallback() {
	m.cacheFallbacks.Inc()
}

func (m *Metrics) XPAwarded(source model.XPSource, amount int64) {
	if amount <= 0 {
		return
	}
	m.xpAwarded.WithLabelValues(string(source)).Add(float64(amount))
}

// Handler /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware 记录请求数与耗时；route 使用注册时的模式串，避免 label 爆炸
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(ww.status)).Inc()
		m.httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush SSE 需要透传
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
