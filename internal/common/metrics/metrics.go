// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recordmap_requests_total",
			Help: "Total number of API requests by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "recordmap_request_duration_seconds",
			Help: "Duration of API request handling in seconds",
		},
		[]string{"endpoint"},
	)

	StoreQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recordmap_store_queries_total",
			Help: "Total number of record store queries by backend and status",
		},
		[]string{"backend", "status"},
	)

	CacheEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recordmap_cache_events_total",
			Help: "Response cache events (hit, miss, fill, error)",
		},
		[]string{"event"},
	)

	MarkersBuilt = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recordmap_markers_built_total",
			Help: "Total number of marker descriptors built",
		},
	)
)
