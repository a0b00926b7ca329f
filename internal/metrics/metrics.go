package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FeedCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_cache_hits_total",
		Help: "Feed pages served from the redis cache.",
	})
	FeedCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_cache_misses_total",
		Help: "Feed page requests that missed the cache.",
	})
	FeedFallbackReads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_fallback_reads_total",
		Help: "Feed pages built by the ranked fallback instead of the feed index.",
	})
	FeedEntriesInserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_entries_inserted_total",
		Help: "Feed index rows written by fan-out and backfill.",
	})
	FeedFanoutErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_fanout_errors_total",
		Help: "Fan-out batches or cache sweeps that failed.",
	})
)
