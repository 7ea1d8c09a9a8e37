package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(classificationJobsTotal, classificationRetriesTotal, classificationFailuresTotal, classificationJobSeconds)
}

var (
	classificationJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classification_jobs_processed_total",
			Help: "Classification job deliveries that reached a terminal state, labeled by outcome.",
		},
		[]string{"outcome"}, // classified, already_classified, failed
	)

	classificationRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classification_retries_total",
			Help: "Deliveries rescheduled for another attempt, labeled by failure reason.",
		},
		[]string{"reason"},
	)

	classificationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classification_failures_total",
			Help: "Jobs dropped without a classification, labeled by reason and whether the failure was permanent.",
		},
		[]string{"reason", "permanent"},
	)

	classificationJobSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "classification_job_duration_seconds",
			Help:    "Time spent on one delivery, from reservation to ack/retry/fail.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		},
		[]string{"outcome"},
	)
)

func IncClassificationJob(outcome string) {
	classificationJobsTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncClassificationRetry(reason string) {
	classificationRetriesTotal.WithLabelValues(norm(reason)).Inc()
}

func IncClassificationFailure(reason string, permanent bool) {
	classificationFailuresTotal.WithLabelValues(norm(reason), boolLabel(permanent)).Inc()
}

func ObserveJobDuration(outcome string, d time.Duration) {
	classificationJobSeconds.WithLabelValues(norm(outcome)).Observe(d.Seconds())
}
