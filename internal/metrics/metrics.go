package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_index_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_index_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_index_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_index_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_index_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_index_db_transaction_duration_seconds",
			Help:    "Database transaction duration in seconds by outcome",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"outcome"},
	)

	DBRowsAffected = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_index_db_rows_affected",
			Help:    "Rows affected by write operations",
			Buckets: []float64{1, 10, 100, 1000, 10000},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_index_db_connections_open",
			Help: "Number of open database connections",
		},
	)

	DBSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photo_index_db_size_bytes",
			Help: "Database file size in bytes",
		},
		[]string{"file"},
	)
)

// Filter engine metrics
var (
	FilterSearches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_index_filter_searches_total",
			Help: "Total number of filter-chain searches by status",
		},
		[]string{"status"},
	)

	FilterAggregations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_index_filter_aggregations_total",
			Help: "Total number of tag aggregation queries by scope",
		},
		[]string{"scope"},
	)

	FilterChainNodes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_index_filter_chain_nodes",
			Help:    "Number of nodes in evaluated filter chains",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		},
	)
)

// Geocoder metrics
var (
	GeocodeCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_index_geocode_cache_hits_total",
			Help: "Total number of reverse-geocode lookups served from cache",
		},
	)

	GeocodeCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_index_geocode_cache_misses_total",
			Help: "Total number of reverse-geocode lookups not found in cache",
		},
	)

	GeocodeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_index_geocode_requests_total",
			Help: "Total number of upstream reverse-geocode requests by status",
		},
		[]string{"status"},
	)

	GeocodeRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_index_geocode_retries_total",
			Help: "Total number of upstream reverse-geocode retry attempts",
		},
	)
)

// Placeholder expansion metrics
var (
	PlaceholderExpansionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_index_placeholder_expansion_duration_seconds",
			Help:    "Placeholder expansion request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	PlaceholderFilesExpanded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_index_placeholder_files_expanded_total",
			Help: "Total number of files run through placeholder expansion",
		},
	)
)

// Indexer metrics
var (
	IndexerRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_index_indexer_runs_total",
			Help: "Total number of indexer runs",
		},
		[]string{"status"},
	)

	IndexerLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_index_indexer_last_run_timestamp_seconds",
			Help: "Unix timestamp of the last completed indexer run",
		},
	)

	IndexerLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_index_indexer_last_run_duration_seconds",
			Help: "Duration of the last completed indexer run",
		},
	)

	IndexerFilesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_index_indexer_files_processed_total",
			Help: "Total number of files processed by the indexer",
		},
	)

	IndexerErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_index_indexer_errors_total",
			Help: "Total number of errors encountered while indexing",
		},
	)

	IndexerIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_index_indexer_running",
			Help: "Whether an indexer run is currently in progress (1 = running)",
		},
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_index_thumbnail_generations_total",
			Help: "Total number of thumbnail generations by status",
		},
		[]string{"status"},
	)

	ThumbnailCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_index_thumbnail_cache_hits_total",
			Help: "Total number of thumbnail requests served from cache",
		},
	)
)

// Library metrics
var (
	LibraryFilesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_index_library_files_total",
			Help: "Total number of indexed files",
		},
	)

	LibraryTagsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_index_library_tags_total",
			Help: "Total number of tags",
		},
	)

	LibraryGeoCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_index_library_geocache_entries",
			Help: "Total number of cached reverse-geocode results",
		},
	)
)

// Application info
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photo_index_app_info",
			Help: "Application build information",
		},
		[]string{"version", "go_version"},
	)
)
