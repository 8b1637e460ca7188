// Package metrics exposes Prometheus counters describing the feeds served.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the feed service's collectors and the registry they belong
// to.
type Metrics struct {
	FeedRequests    *prometheus.CounterVec
	DatasetsEmitted *prometheus.CounterVec
	FeedFailures    *prometheus.CounterVec
	FeedDuration    *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewMetrics creates the service's collectors in a registry of their own.
func NewMetrics() *Metrics {
	m := &Metrics{
		FeedRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dcat",
				Subsystem: "feed",
				Name:      "requests_total",
				Help:      "Total number of feed requests by version and response status",
			},
			[]string{"version", "status"},
		),
		DatasetsEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dcat",
				Subsystem: "feed",
				Name:      "datasets_total",
				Help:      "Total number of dataset entries written to feeds",
			},
			[]string{"version"},
		),
		FeedFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dcat",
				Subsystem: "feed",
				Name:      "failures_total",
				Help:      "Total number of feeds that failed, by stage (setup or stream)",
			},
			[]string{"version", "stage"},
		),
		FeedDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "dcat",
				Subsystem: "feed",
				Name:      "duration_seconds",
				Help:      "Time taken to stream a feed",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
			},
			[]string{"version"},
		),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(m.FeedRequests, m.DatasetsEmitted, m.FeedFailures, m.FeedDuration)
	return m
}

// records a served feed request
func (m *Metrics) ObserveFeed(version string, status int, datasets int, elapsed time.Duration) {
	m.FeedRequests.WithLabelValues(version, strconv.Itoa(status)).Inc()
	m.DatasetsEmitted.WithLabelValues(version).Add(float64(datasets))
	m.FeedDuration.WithLabelValues(version).Observe(elapsed.Seconds())
}

// records a feed that failed before (stage "setup") or while (stage
// "stream") writing its body
func (m *Metrics) ObserveFailure(version, stage string) {
	m.FeedFailures.WithLabelValues(version, stage).Inc()
}

// the registry holding the service's collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collected metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
