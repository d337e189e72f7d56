package ingest

import (
	"errors"

	"newsdesk/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Add Prometheus metrics
var (
	fetchAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsdesk_ingest_fetch_attempts_total",
		Help: "The total number of feed fetch attempts",
	})

	fetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsdesk_ingest_fetch_failures_total",
		Help: "The total number of failed feed fetches by failure reason",
	}, []string{"reason"})

	itemsInserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsdesk_ingest_items_inserted_total",
		Help: "The total number of new items written to the archive",
	})

	fetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "newsdesk_ingest_fetch_duration_seconds",
		Help:    "Duration of individual feed fetches",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // Start at 100ms, double each bucket, 10 buckets
	})
)

// failureReason labels a fetch failure for the metrics by its error
// kind.
func failureReason(err error) string {
	switch {
	case errors.Is(err, models.ErrFeedTimeout):
		return "timeout"
	case errors.Is(err, models.ErrFeedUnreachable):
		return "unreachable"
	case errors.Is(err, models.ErrFeedInvalidFormat):
		return "invalid_format"
	default:
		return "other"
	}
}
