package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/recommerce-labs/console/internal/common/config"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry   *prometheus.Registry
	namespace  string
	httpReqCnt *prometheus.CounterVec
	httpDur    *prometheus.HistogramVec
	httpInfl   *prometheus.GaugeVec
	aiReqCnt   *prometheus.CounterVec
	aiReqDur   *prometheus.HistogramVec
	aiFallback prometheus.Counter
}

func New(cfg config.MetricsConfig) *Metrics {
	ns := cfg.Namespace
	r := prometheus.NewRegistry()
	// Register standard process and Go collectors
	r.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.MustRegister(collectors.NewGoCollector())

	httpReqCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "http_requests_total"}, []string{"method", "route", "status"})
	httpDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: ns, Name: "http_request_duration_seconds", Buckets: cfg.Buckets}, []string{"method", "route", "status"})
	httpInfl := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: ns, Name: "http_requests_inflight"}, []string{"route"})
	r.MustRegister(httpReqCnt, httpDur, httpInfl)

	aiReqCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "ai_requests_total"}, []string{"status"})
	aiReqDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: ns, Name: "ai_request_duration_seconds", Buckets: cfg.Buckets}, []string{"status"})
	aiFallback := prometheus.NewCounter(prometheus.CounterOpts{Namespace: ns, Name: "ai_fallback_total"})
	r.MustRegister(aiReqCnt, aiReqDur, aiFallback)

	return &Metrics{
		registry:   r,
		namespace:  ns,
		httpReqCnt: httpReqCnt,
		httpDur:    httpDur,
		httpInfl:   httpInfl,
		aiReqCnt:   aiReqCnt,
		aiReqDur:   aiReqDur,
		aiFallback: aiFallback,
	}
}

// AIReqDone records one completed recommendation call
func (m *Metrics) AIReqDone(status string, since time.Time) {
	m.aiReqCnt.WithLabelValues(status).Inc()
	m.aiReqDur.WithLabelValues(status).Observe(time.Since(since).Seconds())
}

// AIFallback counts recommendation requests served by the static fallback
func (m *Metrics) AIFallback() {
	m.aiFallback.Inc()
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		m.httpInfl.WithLabelValues(route).Inc()
		start := time.Now()
		c.Next()
		status := httpStatus(c.Writer.Status())
		m.httpReqCnt.WithLabelValues(c.Request.Method, route, status).Inc()
		m.httpDur.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		m.httpInfl.WithLabelValues(route).Dec()
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func httpStatus(code int) string { return strconv.Itoa(code) }
