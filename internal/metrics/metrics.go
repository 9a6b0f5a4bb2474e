// Package metrics provides Prometheus metrics for serving URL resolution.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheLookupsTotal counts serving URL cache reads by result.
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "servingurl",
			Name:      "cache_lookups_total",
			Help:      "Total number of serving URL cache reads",
		},
		[]string{"result"},
	)

	// BackendLookupsTotal counts lookups sent to a backend by outcome.
	BackendLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "servingurl",
			Name:      "backend_lookups_total",
			Help:      "Total number of serving URL backend lookups",
		},
		[]string{"backend", "outcome"},
	)

	// BackendLookupDuration measures backend lookup latency.
	BackendLookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "servingurl",
			Name:      "backend_lookup_duration_seconds",
			Help:      "Duration of serving URL backend lookups in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	// InvalidationsTotal counts serving URL deletions sent to a backend.
	InvalidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "servingurl",
			Name:      "invalidations_total",
			Help:      "Total number of serving URL invalidations",
		},
		[]string{"backend", "status"},
	)

	// LookupRequestsTotal counts requests served by the lookup service.
	LookupRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "servingurl",
			Name:      "lookup_requests_total",
			Help:      "Total number of requests handled by the lookup service",
		},
		[]string{"method", "result"},
	)
)

// RecordCache records a cache read: hit, miss, negative or error.
func RecordCache(result string) {
	CacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordLookup records a backend lookup: found, not_found or error.
func RecordLookup(backend, outcome string, seconds float64) {
	BackendLookupsTotal.WithLabelValues(backend, outcome).Inc()
	BackendLookupDuration.WithLabelValues(backend).Observe(seconds)
}

// RecordInvalidation records a backend delete: ok or error.
func RecordInvalidation(backend, status string) {
	InvalidationsTotal.WithLabelValues(backend, status).Inc()
}

// RecordLookupRequest records a lookup service request.
func RecordLookupRequest(method, result string) {
	LookupRequestsTotal.WithLabelValues(method, result).Inc()
}
