package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	httpRequestsTotal    *prometheus.CounterVec
	httpLatencySeconds   *prometheus.HistogramVec
	httpErrorsTotal      *prometheus.CounterVec
	submissionsTotal     *prometheus.CounterVec
	gradedAnswersTotal   *prometheus.CounterVec
	summaryCacheLookups  *prometheus.CounterVec
	submissionScoreRatio prometheus.Histogram
)

// RegisterMetrics initialises the Prometheus collectors used by the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assessment_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_submissions_total",
			Help: "Submission attempts partitioned by outcome.",
		}, []string{"outcome"})

		gradedAnswersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_graded_answers_total",
			Help: "Answers graded partitioned by question type, verdict and grading source.",
		}, []string{"question_type", "verdict", "source"})

		summaryCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_summary_cache_lookups_total",
			Help: "Summary cache lookups partitioned by result.",
		}, []string{"result"})

		submissionScoreRatio = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "assessment_submission_score_percentage",
			Help:    "Percentage scored at submission time.",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			submissionsTotal,
			gradedAnswersTotal,
			summaryCacheLookups,
			submissionScoreRatio,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// Submissions counts submission attempts by outcome.
func Submissions() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

// GradedAnswers counts graded answers.
func GradedAnswers() *prometheus.CounterVec {
	RegisterMetrics()
	return gradedAnswersTotal
}

// SummaryCacheLookups counts summary cache hits and misses.
func SummaryCacheLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return summaryCacheLookups
}

// SubmissionScores observes the percentage scored at submission time.
func SubmissionScores() prometheus.Histogram {
	RegisterMetrics()
	return submissionScoreRatio
}
