package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
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
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
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

	EntityDetections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rag_entity_detections_total",
			Help: "Queries by detected low-coverage entity; none when nothing was detected",
		},
		[]string{"entity"},
	)

	QueryEnhancements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rag_query_enhancements_total",
			Help: "Enhanced queries by strategy",
		},
		[]string{"strategy"},
	)

	AnswerQuality = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rag_answer_quality_total",
			Help: "Quality gate results by level and attempt",
		},
		[]string{"level", "attempt"},
	)

	ValidationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rag_validation_outcomes_total",
			Help: "Final answers by validation outcome",
		},
		[]string{"outcome"},
	)

	RelevanceScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rag_relevance_score",
			Help:    "Relevance score of generated answers",
			Buckets: []float64{0, 0.1, 0.3, 0.5, 0.6, 0.7, 0.9, 1},
		},
	)

	BackendCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rag_backend_cache_lookups_total",
			Help: "Backend cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rag_backend_request_duration_seconds",
			Help:    "Duration of backend calls",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"status"},
	)
)

// ObserveJob records one finished job. An empty errorCode counts as success.
func ObserveJob(taskType string, started time.Time, errorCode string) {
	WorkerJobDuration.WithLabelValues(taskType).Observe(time.Since(started).Seconds())
	if errorCode == "" {
		WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		return
	}
	WorkerJobsFailed.WithLabelValues(taskType, errorCode).Inc()
}
