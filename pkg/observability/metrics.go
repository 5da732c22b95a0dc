package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Rebuild outcome label values
const (
	RebuildChanged   = "changed"
	RebuildUnchanged = "unchanged"
	RebuildFailed    = "failed"
	RebuildSkipped   = "skipped"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	registry *prometheus.Registry

	// Update scheduler metrics
	Rebuilds        *prometheus.CounterVec
	RebuildDuration prometheus.Histogram
	SnapshotVersion prometheus.Gauge

	// Fan-out metrics
	Subscribers   prometheus.Gauge
	Notifications prometheus.Counter

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewCollector creates a metrics collector with its own registry
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	rebuilds := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_rebuilds_total",
			Help:      "Total number of graph rebuild cycles by outcome",
		},
		[]string{"result"},
	)

	rebuildDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_rebuild_duration_seconds",
			Help:      "Graph rebuild duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	snapshotVersion := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_snapshot_version",
			Help:      "Version number of the currently published snapshot",
		},
	)

	subscribers := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_subscribers",
			Help:      "Number of connected WebSocket subscribers",
		},
	)

	notifications := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "update_notifications_total",
			Help:      "Total number of update notifications broadcast to subscribers",
		},
	)

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	registry.MustRegister(
		rebuilds,
		rebuildDuration,
		snapshotVersion,
		subscribers,
		notifications,
		httpRequests,
		httpDuration,
	)

	return &Collector{
		registry:        registry,
		Rebuilds:        rebuilds,
		RebuildDuration: rebuildDuration,
		SnapshotVersion: snapshotVersion,
		Subscribers:     subscribers,
		Notifications:   notifications,
		HTTPRequests:    httpRequests,
		HTTPDuration:    httpDuration,
	}
}

// ObserveRebuild records the outcome and duration of one rebuild cycle
func (c *Collector) ObserveRebuild(result string, duration time.Duration) {
	c.Rebuilds.WithLabelValues(result).Inc()
	if result != RebuildSkipped {
		c.RebuildDuration.Observe(duration.Seconds())
	}
}

// Handler returns the HTTP handler serving this collector's registry
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
