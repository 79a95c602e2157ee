package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline Metrics
var (
	// PostsReceived tracks posts accepted from the source into the input buffer
	PostsReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_posts_received_total",
			Help: "Total posts accepted from the post source",
		},
	)

	// PostsProcessed tracks posts that completed the analysis sequence
	PostsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_posts_processed_total",
			Help: "Total posts that completed sentiment/brand/score/alert analysis",
		},
	)

	// PostsOutput tracks processed posts drained by the egress stage
	PostsOutput = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_posts_output_total",
			Help: "Total processed posts emitted by the egress stage",
		},
	)

	// BatchesProcessed tracks batches by outcome (ok/retried/degraded)
	BatchesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_batches_total",
			Help: "Total batches by outcome (ok/retried/degraded)",
		},
		[]string{"outcome"},
	)

	// InputBufferDepth tracks current input buffer depth
	InputBufferDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pipeline_input_buffer_depth",
			Help: "Current input buffer depth",
		},
	)

	// OutputBufferDepth tracks current output buffer depth
	OutputBufferDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pipeline_output_buffer_depth",
			Help: "Current output buffer depth",
		},
	)

	// ProcessingDuration tracks per-post analysis latency in seconds
	ProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipeline_post_processing_duration_seconds",
			Help:    "Per-post analysis duration in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5},
		},
	)
)

// Sentiment Model Metrics
var (
	// ModelFailures tracks sentiment model failures by model and reason
	ModelFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentiment_model_failures_total",
			Help: "Sentiment model failures by model and reason (error/timeout)",
		},
		[]string{"model", "reason"},
	)

	// EnsembleDegraded tracks analyses where all models failed
	EnsembleDegraded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sentiment_ensemble_degraded_total",
			Help: "Analyses degraded to a neutral judgment because every model failed",
		},
	)
)

// Alert Metrics
var (
	// AlertsFired tracks fired alerts by type and severity
	AlertsFired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_fired_total",
			Help: "Alerts fired by type and severity",
		},
		[]string{"type", "severity"},
	)

	// AlertsSuppressed tracks candidate alerts dropped by deduplication
	AlertsSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alerts_suppressed_total",
			Help: "Candidate alerts dropped as duplicates within the dedup window",
		},
	)

	// AlertsCooled tracks threshold checks skipped during cooldown
	AlertsCooled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alerts_cooldown_skips_total",
			Help: "Threshold checks skipped because the threshold was cooling down",
		},
	)

	// ChannelDispatchFailures tracks notification channel send failures
	ChannelDispatchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_channel_dispatch_failures_total",
			Help: "Notification channel send failures by channel",
		},
		[]string{"channel"},
	)
)

// Store Metrics
var (
	// StoreOpsTotal tracks key-value store operations by operation and status
	StoreOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operations_total",
			Help: "Key-value store operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	// StoreOpDuration tracks key-value store operation latency in seconds
	StoreOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Key-value store operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)
)
