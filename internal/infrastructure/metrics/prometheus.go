// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "optimalvid"

var (
	// CacheOperationsTotal tracks list cache operations.
	// Labels:
	//   - operation: get, put, invalidate
	//   - status: hit, miss, success, stale, error
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Total number of cache operations",
		},
		[]string{"operation", "status"},
	)

	// DBQueriesTotal tracks database queries.
	// Labels:
	//   - query_type: select, insert, update, delete
	//   - table: users, videos
	DBQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_queries_total",
			Help:      "Total number of database queries",
		},
		[]string{"query_type", "table"},
	)

	// SingleflightRequestsTotal tracks coalescing of concurrent list cache misses.
	// Labels:
	//   - result: initiated (new execution), shared (reused result)
	SingleflightRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "singleflight_requests_total",
			Help:      "Total number of singleflight requests",
		},
		[]string{"result"},
	)

	// DeferredInvalidationsTotal tracks invalidation tasks handed to the queue
	// after an inline invalidation failed.
	// Labels:
	//   - status: published, publish_error, processed, dropped
	DeferredInvalidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deferred_invalidations_total",
			Help:      "Total number of deferred cache invalidations",
		},
		[]string{"status"},
	)

	// HTTPRequestDuration observes request latency.
	// Labels:
	//   - method: HTTP method
	//   - route: chi route pattern
	//   - status: response status code
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Cache operation status constants.
const (
	CacheStatusHit     = "hit"
	CacheStatusMiss    = "miss"
	CacheStatusSuccess = "success"
	CacheStatusStale   = "stale"
	CacheStatusError   = "error"
)

// Cache operation type constants.
const (
	CacheOpGet        = "get"
	CacheOpPut        = "put"
	CacheOpInvalidate = "invalidate"
)

// DB query type constants.
const (
	DBQuerySelect = "select"
	DBQueryInsert = "insert"
	DBQueryUpdate = "update"
	DBQueryDelete = "delete"
)

// Table name constants.
const (
	TableUsers  = "users"
	TableVideos = "videos"
)

// Singleflight result constants.
const (
	SingleflightInitiated = "initiated"
	SingleflightShared    = "shared"
)

// Deferred invalidation status constants.
const (
	DeferredPublished    = "published"
	DeferredPublishError = "publish_error"
	DeferredProcessed    = "processed"
	DeferredDropped      = "dropped"
)

// RecordCacheOp increments CacheOperationsTotal.
func RecordCacheOp(op, status string) {
	CacheOperationsTotal.WithLabelValues(op, status).Inc()
}

// RecordDBQuery increments DBQueriesTotal.
func RecordDBQuery(queryType, table string) {
	DBQueriesTotal.WithLabelValues(queryType, table).Inc()
}
