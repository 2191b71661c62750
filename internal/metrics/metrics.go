// Package metrics defines the Prometheus collectors exported by tagshelf.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagshelf_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tagshelf_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tagshelf_http_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)

// Storage metrics
var (
	StorageOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagshelf_storage_operations_total",
			Help: "Total number of storage operations",
		},
		[]string{"backend", "operation", "status"},
	)

	StorageOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tagshelf_storage_operation_duration_seconds",
			Help:    "Storage operation duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"backend", "operation"},
	)

	StorageBackend = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tagshelf_storage_backend_active",
			Help: "Set to 1 for the storage backend in use",
		},
		[]string{"backend"},
	)
)

// Catalog metrics
var (
	CatalogItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagshelf_catalog_items",
			Help: "Number of media items in the catalog",
		},
	)

	CatalogVocabulary = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagshelf_catalog_vocabulary_tags",
			Help: "Number of free tags in the vocabulary",
		},
	)

	CatalogCategories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagshelf_catalog_categories",
			Help: "Number of structured categories in the schema",
		},
	)

	CascadeItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagshelf_cascade_items_total",
			Help: "Items touched by cascading tag and category operations",
		},
		[]string{"operation", "status"},
	)
)

// Query metrics
var (
	QueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tagshelf_query_duration_seconds",
			Help:    "Query engine evaluation time in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)

	QueryResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tagshelf_query_results",
			Help:    "Number of items returned per query",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)
)

// Media metrics
var (
	ThumbnailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagshelf_thumbnails_total",
			Help: "Thumbnails generated",
		},
		[]string{"status"},
	)

	ThumbnailDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tagshelf_thumbnail_duration_seconds",
			Help:    "Thumbnail generation time in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Backup metrics
var (
	BackupRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagshelf_backup_records_total",
			Help: "Records exported or imported",
		},
		[]string{"direction", "entity"},
	)
)
