package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	CacheLookups    *prometheus.CounterVec
	ProductsTagged  prometheus.Counter
	TagsInferred    *prometheus.CounterVec
	SnapshotLoads   prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_http_requests_total",
				Help: "HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalog_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_cache_lookups_total",
				Help: "Response cache lookups by result",
			},
			[]string{"result"},
		),
		ProductsTagged: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "catalog_products_tagged_total",
				Help: "Products run through tag enrichment",
			},
		),
		TagsInferred: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_tags_inferred_total",
				Help: "Inferred tags by type",
			},
			[]string{"type"},
		),
		SnapshotLoads: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "catalog_snapshot_loads_total",
				Help: "Catalog snapshot reloads from storage",
			},
		),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestsTotal,
		m.RequestDuration,
		m.CacheLookups,
		m.ProductsTagged,
		m.TagsInferred,
		m.SnapshotLoads,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) CacheHit() {
	if m != nil {
		m.CacheLookups.WithLabelValues("hit").Inc()
	}
}

func (m *Metrics) CacheMiss() {
	if m != nil {
		m.CacheLookups.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) CacheError() {
	if m != nil {
		m.CacheLookups.WithLabelValues("error").Inc()
	}
}

func (m *Metrics) Tagged(inferred map[string]int) {
	if m == nil {
		return
	}
	m.ProductsTagged.Inc()
	for t, n := range inferred {
		m.TagsInferred.WithLabelValues(t).Add(float64(n))
	}
}

func (m *Metrics) SnapshotLoaded() {
	if m != nil {
		m.SnapshotLoads.Inc()
	}
}

func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, route, status).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(seconds)
}
