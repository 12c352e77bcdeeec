package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsManager holds the catalog's Prometheus collectors on a private registry.
// All observe methods are safe to call on a nil manager.
type MetricsManager struct {
	Registry *prometheus.Registry

	SearchesTotal      prometheus.Counter
	SearchResults      prometheus.Histogram
	SnapshotLoadsTotal *prometheus.CounterVec
	SnapshotListings   prometheus.Gauge
	FacetCacheTotal    *prometheus.CounterVec
	HTTPErrorsTotal    *prometheus.CounterVec
	HTTPLatency        *prometheus.HistogramVec
}

func NewMetricsManager(namespace string) *MetricsManager {
	registry := prometheus.NewRegistry()

	m := &MetricsManager{
		Registry: registry,
		SearchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Total number of catalog searches.",
		}),
		SearchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of listings returned per search.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 1000},
		}),
		SnapshotLoadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_loads_total",
			Help:      "Snapshot reload attempts by result.",
		}, []string{"source", "result"}),
		SnapshotListings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_listings",
			Help:      "Number of listings in the current snapshot.",
		}),
		FacetCacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "facet_cache_total",
			Help:      "Facet cache lookups by result.",
		}, []string{"result"}),
		HTTPErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "HTTP responses with status >= 400 by route.",
		}, []string{"route", "code"}),
		HTTPLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_latency_seconds",
			Help:      "Latency of HTTP requests by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registry.MustRegister(
		m.SearchesTotal,
		m.SearchResults,
		m.SnapshotLoadsTotal,
		m.SnapshotListings,
		m.FacetCacheTotal,
		m.HTTPErrorsTotal,
		m.HTTPLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *MetricsManager) ObserveSearch(results int) {
	if m == nil {
		return
	}
	m.SearchesTotal.Inc()
	m.SearchResults.Observe(float64(results))
}

func (m *MetricsManager) ObserveSnapshotLoad(source string, listings int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.SnapshotLoadsTotal.WithLabelValues(source, "error").Inc()
		return
	}
	m.SnapshotLoadsTotal.WithLabelValues(source, "ok").Inc()
	m.SnapshotListings.Set(float64(listings))
}

// ObserveFacetCache records "hit", "miss" or "error".
func (m *MetricsManager) ObserveFacetCache(result string) {
	if m == nil {
		return
	}
	m.FacetCacheTotal.WithLabelValues(result).Inc()
}

func (m *MetricsManager) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
	if status >= http.StatusBadRequest {
		m.HTTPErrorsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *MetricsManager) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
