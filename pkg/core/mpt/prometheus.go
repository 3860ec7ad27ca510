package mpt

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics for monitoring service.
var (
	cacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of node cache hits",
			Name:      "cache_hits_total",
			Namespace: "adenium",
			Subsystem: "trie",
		},
	)
	cacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of node cache misses",
			Name:      "cache_misses_total",
			Namespace: "adenium",
			Subsystem: "trie",
		},
	)
	nodesWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of nodes written to the store",
			Name:      "nodes_written_total",
			Namespace: "adenium",
			Subsystem: "trie",
		},
	)
	nodesDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of nodes removed from the store",
			Name:      "nodes_deleted_total",
			Namespace: "adenium",
			Subsystem: "trie",
		},
	)
	rootUpdates = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of committed root changes",
			Name:      "root_updates_total",
			Namespace: "adenium",
			Subsystem: "trie",
		},
	)
)

func init() {
	prometheus.MustRegister(
		cacheHits,
		cacheMisses,
		nodesWritten,
		nodesDeleted,
		rootUpdates,
	)
}

func updateCommitMetrics(written, deleted int) {
	nodesWritten.Add(float64(written))
	nodesDeleted.Add(float64(deleted))
	rootUpdates.Inc()
}
