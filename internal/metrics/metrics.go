// Package metrics exposes Prometheus counters for the HTTP surface and its upstream calls.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so tests can build as many as they like.
type Collector struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	upstreamTotal       *prometheus.CounterVec
	favoriteToggles     *prometheus.CounterVec
	photoLookups        *prometheus.CounterVec
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nutrimind_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nutrimind_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		upstreamTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nutrimind_upstream_requests_total",
				Help: "Requests to the recommendation backend by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		favoriteToggles: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nutrimind_favorite_toggles_total",
				Help: "Favorite toggles by resulting state",
			},
			[]string{"action"},
		),
		photoLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nutrimind_photo_lookups_total",
				Help: "Photo lookups by kind and source",
			},
			[]string{"kind", "source"},
		),
	}
}

// HTTPMiddleware records request counts and latency per route.
func (m *Collector) HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Upstream counts one backend call. outcome is "ok", "transport" or "malformed".
func (m *Collector) Upstream(operation, outcome string) {
	m.upstreamTotal.WithLabelValues(operation, outcome).Inc()
}

// FavoriteToggled counts a toggle that ended favorited or not.
func (m *Collector) FavoriteToggled(favorited bool) {
	action := "removed"
	if favorited {
		action = "added"
	}
	m.favoriteToggles.WithLabelValues(action).Inc()
}

// PhotoLookup counts a resolved photo.
func (m *Collector) PhotoLookup(kind string, fallback bool) {
	source := "unsplash"
	if fallback {
		source = "fallback"
	}
	m.photoLookups.WithLabelValues(kind, source).Inc()
}

// Handler serves the collector's registry.
func (m *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Collector) Registry() *prometheus.Registry {
	return m.registry
}
