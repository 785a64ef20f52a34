// Package metrics provides the centralized Prometheus registry
// reference for sgsfetch. All metrics are defined in their respective
// packages (sgs, fetcher, cache, throttle) via promauto to maintain
// modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by sgsfetch.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Client Metrics (pkg/sgs):
//   - sgs_requests_total{endpoint, status} (Counter): Requests by endpoint (observations, metadata) and HTTP status
//   - sgs_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - sgs_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Fetch Metrics (pkg/fetcher):
//   - sgs_fetch_groups_total{outcome} (Counter): Groups by outcome (batch_ok, fallback)
//   - sgs_fetch_codes_total{outcome} (Counter): Individually fetched codes by outcome (ok, failed)
//   - sgs_fetch_metadata_records_total{locale} (Counter): Metadata records collected by locale
//
// Throttle Metrics (pkg/throttle):
//   - sgs_throttle_waits_total (Counter): Delays applied between individual requests
//   - sgs_throttle_wait_seconds (Histogram): Delay durations
//
// Cache Metrics (pkg/cache):
//   - sgs_cache_hits_total (Counter): Metadata cache hits
//   - sgs_cache_misses_total (Counter): Metadata cache misses
//   - sgs_cache_size_bytes (Gauge): Bytes written to the cache
//   - sgs_cache_errors_total{operation} (Counter): Cache operation errors
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   rate(sgs_cache_hits_total[5m]) /
//   (rate(sgs_cache_hits_total[5m]) + rate(sgs_cache_misses_total[5m]))
//
//   # Fallback Rate
//   rate(sgs_fetch_groups_total{outcome="fallback"}[5m]) /
//   rate(sgs_fetch_groups_total[5m])
//
//   # Request Error Rate
//   rate(sgs_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(sgs_request_duration_seconds_bucket[5m]))
