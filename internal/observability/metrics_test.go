package observability

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics()
	m.CacheHit()
	m.CacheMiss()
	m.CacheMiss()
	m.Tagged(map[string]int{"persona": 2, "feature": 1})
	m.ObserveRequest("GET", "/catalog/products", "200", 0.01)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProductsTagged))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TagsInferred.WithLabelValues("persona")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/catalog/products", "200")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "catalog_cache_lookups_total")
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CacheHit()
		m.CacheMiss()
		m.CacheError()
		m.Tagged(map[string]int{"uso": 1})
		m.SnapshotLoaded()
		m.ObserveRequest("GET", "/", "200", 1)
	})
}
