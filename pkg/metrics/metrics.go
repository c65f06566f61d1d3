package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheLookups records cache lookups by category and result (hit|miss).
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinemalabs_cache_lookups_total",
			Help: "Total number of TMDB cache lookups",
		},
		[]string{"category", "result"},
	)

	// UpstreamRequests counts TMDB API calls and their outcome (success|error).
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinemalabs_tmdb_requests_total",
			Help: "Total number of upstream TMDB API requests",
		},
		[]string{"result"},
	)

	// SyncRuns counts bulk sync job runs by job name and outcome (completed|failed).
	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinemalabs_sync_runs_total",
			Help: "Total number of bulk sync job runs",
		},
		[]string{"job", "result"},
	)

	// SweptEntries counts cache rows removed by the expiry sweep.
	SweptEntries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinemalabs_cache_swept_entries_total",
			Help: "Total number of expired cache entries removed",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinemalabs_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
