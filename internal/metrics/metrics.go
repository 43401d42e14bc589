package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sync scheduler metrics
var (
	// RefreshesTotal tracks full conference refreshes by status (success/failure)
	RefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conf_refreshes_total",
			Help: "Total full conference data refreshes by status",
		},
		[]string{"status"},
	)

	// RefreshDuration tracks full refresh latency in seconds
	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "conf_refresh_duration_seconds",
			Help:    "Full refresh duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	// SchedulerCyclesTotal tracks recurring scheduler cycles
	SchedulerCyclesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conf_scheduler_cycles_total",
			Help: "Total recurring scheduler cycles run",
		},
	)

	// SchedulerStepFailuresTotal tracks failed scheduler sub-steps by step name
	SchedulerStepFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conf_scheduler_step_failures_total",
			Help: "Scheduler sub-step failures by step",
		},
		[]string{"step"},
	)

	// FeedFetchesTotal tracks social feed fetches by status
	FeedFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conf_feed_fetches_total",
			Help: "Total social feed fetches by status",
		},
		[]string{"status"},
	)
)

// Mutation coordinator metrics
var (
	// MutationsTotal tracks user mutations by operation and outcome
	MutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conf_mutations_total",
			Help: "User mutations by operation (favorite/vote) and outcome (applied/rolled_back/rejected)",
		},
		[]string{"operation", "outcome"},
	)

	// RollbacksTotal tracks optimistic updates reverted after remote failure
	RollbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conf_rollbacks_total",
			Help: "Optimistic local updates reverted after a failed remote call",
		},
	)

	// NotificationsScheduledTotal tracks reminder notifications scheduled
	NotificationsScheduledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conf_notifications_scheduled_total",
			Help: "Reminder notifications scheduled for favorited sessions",
		},
	)
)

// Observable slot metrics
var (
	// SlotSubscribers tracks current subscriber count per slot
	SlotSubscribers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "conf_slot_subscribers",
			Help: "Current subscriber count per observable slot",
		},
		[]string{"slot"},
	)

	// SlotPersistFailuresTotal tracks failed write-throughs to storage
	SlotPersistFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conf_slot_persist_failures_total",
			Help: "Failed slot write-throughs to persistent storage by slot",
		},
		[]string{"slot"},
	)

	// CardCacheSize tracks number of memoized session cards
	CardCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "conf_card_cache_size",
			Help: "Number of memoized session cards",
		},
	)
)

// Remote API metrics
var (
	// APIRequestsTotal tracks backend API calls by operation and status
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conf_api_requests_total",
			Help: "Backend API requests by operation and status",
		},
		[]string{"operation", "status"},
	)

	// APIRequestDuration tracks backend API latency in seconds
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "conf_api_request_duration_seconds",
			Help:    "Backend API request duration in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	// PictureCacheHitsTotal tracks speaker picture cache hits/misses
	PictureCacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conf_picture_cache_requests_total",
			Help: "Speaker picture loads by cache result (hit/miss)",
		},
		[]string{"result"},
	)
)
