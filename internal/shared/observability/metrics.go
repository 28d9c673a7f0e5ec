package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scriptls_parsing_seconds",
		Help:    "Time spent parsing a document.",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})

	ReparsesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scriptls_reparses_total",
		Help: "Total number of documents (re)parsed into the parse cache.",
	})

	ScheduleTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scriptls_schedule_total",
		Help: "Schedule requests by outcome (scheduled or unchanged).",
	}, []string{"result"})

	PendingReparses = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scriptls_pending_reparses",
		Help: "Documents waiting for their debounce window to elapse.",
	})

	LatestTimeoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scriptls_latest_timeouts_total",
		Help: "Awaited reparses that timed out and fell back to the cached document.",
	})

	NotificationsDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scriptls_notifications_dropped_total",
		Help: "Notifications not delivered because a subscriber buffer was full.",
	}, []string{"event"})

	MergeCacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scriptls_merge_cache_requests_total",
		Help: "Merge cache lookups by strategy and result (hit or miss).",
	}, []string{"strategy", "result"})

	MergeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scriptls_merge_seconds",
		Help:    "Time spent computing a merged type table.",
		Buckets: prometheus.DefBuckets,
	}, []string{"strategy"})

	GraphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scriptls_workspace_graph_nodes",
		Help: "Documents in the last workspace dependency graph.",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scriptls_workspace_graph_edges",
		Help: "Dependency edges in the last workspace dependency graph.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scriptls_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)
