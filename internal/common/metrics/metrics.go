// internal/common/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Job outcomes as observed on the job client.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeThrown    = "thrown"
	OutcomeNone      = "none"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed or thrown by worker",
		},
		[]string{"task_type", "outcome"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	ScoresCalculated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crust_scores_calculated_total",
			Help: "Crust scores calculated, by input mode and rating",
		},
		[]string{"mode", "rating"},
	)

	ScoreDistribution = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crust_score_composite",
			Help:    "Distribution of composite crust scores",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		},
		[]string{"mode"},
	)

	RedFlaggedScores = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crust_scores_red_flagged_total",
			Help: "Raw-mode scores forced to zero by at least one red flag",
		},
	)

	ScoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crust_score_errors_total",
			Help: "Scoring requests rejected by input validation, by field",
		},
		[]string{"field"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served, by route and status code",
		},
		[]string{"route", "code"},
	)
)

// RecordJobOutcome updates the job counters and duration for one job.
func RecordJobOutcome(taskType, outcome string, elapsed time.Duration) {
	if outcome == OutcomeCompleted {
		WorkerJobsCompleted.WithLabelValues(taskType).Inc()
	} else {
		WorkerJobsFailed.WithLabelValues(taskType, outcome).Inc()
	}
	WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
}

// RecordScore counts one calculated score.
func RecordScore(mode, rating string, composite float64, redFlagged bool) {
	ScoresCalculated.WithLabelValues(mode, rating).Inc()
	ScoreDistribution.WithLabelValues(mode).Observe(composite)
	if redFlagged {
		RedFlaggedScores.Inc()
	}
}

// RecordScoreError counts one rejected scoring request.
func RecordScoreError(field string) {
	if field == "" {
		field = "unknown"
	}
	ScoreErrors.WithLabelValues(field).Inc()
}
