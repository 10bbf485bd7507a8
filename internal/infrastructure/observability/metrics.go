// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"assetsync-service/internal/application"
	"assetsync-service/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Snapshot serving
	SnapshotsServed *prometheus.CounterVec
	StaleNotices    *prometheus.CounterVec
	QuotaDenials    prometheus.Counter

	// Upstream
	UpstreamCalls   *prometheus.CounterVec
	UpstreamLatency *prometheus.HistogramVec

	// Cache writer
	CacheWritesDropped prometheus.Counter
	CacheWriteQueue    prometheus.Gauge

	// HTTP
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

var _ application.Observer = (*Metrics)(nil)

// DefaultMetrics is registered with the default Prometheus registry.
var DefaultMetrics = NewMetrics("")

// NewMetrics creates a new Metrics instance registered with the default registry.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer, namespace)
}

// NewMetricsWith registers the metrics with reg. Tests pass a fresh registry.
func NewMetricsWith(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = "assetsync"
	}
	f := promauto.With(reg)

	return &Metrics{
		SnapshotsServed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "served_total",
			Help:      "Snapshots served by freshness tier and origin",
		}, []string{"tier", "origin"}),
		StaleNotices: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "stale_notices_total",
			Help:      "Results served from stale cache by notice kind",
		}, []string{"kind"}),
		QuotaDenials: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quota",
			Name:      "denials_total",
			Help:      "Refreshes refused because the user's quota was unavailable",
		}),

		UpstreamCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "calls_total",
			Help:      "Upstream endpoint calls by result",
		}, []string{"endpoint", "result"}),
		UpstreamLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "call_latency_seconds",
			Help:      "Upstream call latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"endpoint"}),

		CacheWritesDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "writes_dropped_total",
			Help:      "Cache writes dropped because the write queue was full",
		}),
		CacheWriteQueue: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "write_queue_size",
			Help:      "Cache writes waiting to be persisted",
		}),

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"route", "code"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

func (m *Metrics) SnapshotServed(tier domain.Tier, fromCache bool, notice *domain.Notice) {
	origin := "upstream"
	if fromCache {
		origin = "cache"
	}
	m.SnapshotsServed.WithLabelValues(string(tier), origin).Inc()
	if notice != nil {
		m.StaleNotices.WithLabelValues(string(notice.Kind)).Inc()
	}
}

func (m *Metrics) QuotaDenied() { m.QuotaDenials.Inc() }

func (m *Metrics) UpstreamCall(ep domain.Endpoint, took time.Duration, err error) {
	m.UpstreamCalls.WithLabelValues(string(ep), upstreamResult(err)).Inc()
	m.UpstreamLatency.WithLabelValues(string(ep)).Observe(took.Seconds())
}

func upstreamResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrUpstreamTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}

// RecordHTTPRequest records one served request under its route pattern.
func (m *Metrics) RecordHTTPRequest(route string, code int, took time.Duration) {
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(took.Seconds())
}

// RecordCacheDrop counts a dropped cache write.
func (m *Metrics) RecordCacheDrop() { m.CacheWritesDropped.Inc() }

// SetCacheQueue reports the writer's current backlog.
func (m *Metrics) SetCacheQueue(n int) { m.CacheWriteQueue.Set(float64(n)) }

// Handler returns the HTTP handler for the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor serves the metrics of a specific gatherer.
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
