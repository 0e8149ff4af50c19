// Package metrics provides Prometheus metrics for the shell view pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Resolution worker metrics
	resolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shellview_resolutions_total",
			Help: "Resolution attempts by worker and outcome",
		},
		[]string{"worker", "outcome"},
	)

	resolutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shellview_resolution_duration_seconds",
			Help:    "Time spent in provider calls per worker",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"worker"},
	)

	queueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shellview_queue_depth",
			Help: "Tokens waiting per worker queue",
		},
		[]string{"worker"},
	)

	queueCleared = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shellview_queue_cleared_tokens_total",
			Help: "Tokens dropped by queue clears",
		},
		[]string{"worker"},
	)

	enqueueSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shellview_enqueue_skipped_total",
			Help: "Render-path enqueues skipped because the queue was full",
		},
		[]string{"worker"},
	)

	// Store and reconciler metrics
	storeItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shellview_store_items",
			Help: "Items in the current folder",
		},
	)

	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shellview_notifications_total",
			Help: "Change notifications by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	navigationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shellview_navigation_duration_seconds",
			Help:    "Time to enumerate and sort a folder",
			Buckets: prometheus.DefBuckets,
		},
	)

	// File operations
	fileOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shellview_file_operations_total",
			Help: "File operation batches by kind and status",
		},
		[]string{"kind", "status"},
	)

	// Thumbnail disk cache
	thumbCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shellview_thumbnail_cache_lookups_total",
			Help: "Persistent thumbnail cache lookups",
		},
		[]string{"result"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordResolution records one worker resolution.
func RecordResolution(worker, outcome string, duration time.Duration) {
	resolutionsTotal.WithLabelValues(worker, outcome).Inc()
	resolutionDuration.WithLabelValues(worker).Observe(duration.Seconds())
}

// SetQueueDepth records the current length of a worker queue.
func SetQueueDepth(worker string, n int) {
	queueDepth.WithLabelValues(worker).Set(float64(n))
}

// RecordQueueCleared records tokens dropped by a clear.
func RecordQueueCleared(worker string, n int) {
	if n > 0 {
		queueCleared.WithLabelValues(worker).Add(float64(n))
	}
}

// RecordEnqueueSkipped records a render-path enqueue that found the queue full.
func RecordEnqueueSkipped(worker string) {
	enqueueSkipped.WithLabelValues(worker).Inc()
}

// SetStoreItems records the folder item count.
func SetStoreItems(n int) {
	storeItems.Set(float64(n))
}

// RecordNotification records a processed change notification.
func RecordNotification(kind, outcome string) {
	notificationsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordNavigation records how long a navigation took.
func RecordNavigation(duration time.Duration) {
	navigationDuration.Observe(duration.Seconds())
}

// RecordFileOperation records a finished batch.
func RecordFileOperation(kind, status string) {
	fileOpsTotal.WithLabelValues(kind, status).Inc()
}

// RecordThumbnailLookup records a disk cache hit or miss.
func RecordThumbnailLookup(hit bool) {
	if hit {
		thumbCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	thumbCacheLookups.WithLabelValues("miss").Inc()
}
