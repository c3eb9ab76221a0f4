// Package metrics provides Prometheus instrumentation for the photo-index
// application.
//
// All metrics are prefixed with "photo_index_" to avoid naming collisions
// with other applications. Metrics are registered with the default registry
// via promauto, so exposing them only requires mounting promhttp.Handler()
// on a metrics endpoint.
//
// The metrics fall into the following categories:
//
//   - HTTP: request counts, durations, and in-flight gauge
//   - Database: query counts, durations, connection and file-size gauges
//   - Filter engine: search and aggregation counters, chain-size histogram
//   - Geocoder: cache hit/miss counters, upstream request and retry counters
//   - Placeholder expansion: request duration and file counter
//   - Indexer: run counters, last-run gauges, file and error counters
//   - Thumbnails: generation and cache-hit counters
//   - Library: total files, tags, and geocode cache entries
//
// To record metrics from other packages, import this package and use the
// exported metric variables:
//
//	metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/search", "200").Inc()
//	metrics.GeocodeCacheHits.Inc()
//
// Library gauges are refreshed periodically by a [Collector] fed from a
// [StatsProvider], typically the database layer.
package metrics
