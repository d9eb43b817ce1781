package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds the Prometheus collectors for studyflash.
type Metrics struct {
	ReviewsTotal        *prometheus.CounterVec
	ReviewWriteFailures *prometheus.CounterVec
	AnswersGradedTotal  *prometheus.CounterVec
	ConflictChecksTotal *prometheus.CounterVec
	AssignmentParses    *prometheus.CounterVec
	ActiveSessions      prometheus.Gauge
	HTTPRequestDuration *prometheus.HistogramVec
}

// Get returns the process-wide metrics, registering them on first use.
//
// Metrics:
//   - studyflash_reviews_total{result} - cards rated, mastered or needs_work
//   - studyflash_review_write_failures_total{stage} - failed review writes (inline, retry, dropped)
//   - studyflash_answers_graded_total{correct} - graded answers
//   - studyflash_conflict_checks_total{outcome} - planner conflict checks
//   - studyflash_assignment_parses_total{status} - free text assignment parses
//   - studyflash_active_sessions - study sessions held in memory
//   - studyflash_http_request_duration_seconds{method,route,status}
func Get() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			ReviewsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "studyflash_reviews_total",
					Help: "Total number of cards rated in study sessions",
				},
				[]string{"result"},
			),
			ReviewWriteFailures: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "studyflash_review_write_failures_total",
					Help: "Total number of review writes that failed",
				},
				[]string{"stage"},
			),
			AnswersGradedTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "studyflash_answers_graded_total",
					Help: "Total number of answers graded",
				},
				[]string{"correct"},
			),
			ConflictChecksTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "studyflash_conflict_checks_total",
					Help: "Total number of planner conflict checks",
				},
				[]string{"outcome"}, // "clear" or "conflict"
			),
			AssignmentParses: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "studyflash_assignment_parses_total",
					Help: "Total number of free text assignment parses",
				},
				[]string{"status"},
			),
			ActiveSessions: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "studyflash_active_sessions",
					Help: "Number of study sessions currently held in memory",
				},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "studyflash_http_request_duration_seconds",
					Help:    "Duration of HTTP requests in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "route", "status"},
			),
		}
	})
	return globalMetrics
}
