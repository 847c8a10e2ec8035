package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"aquajudge/contexts/contest-judging/contest-engine/domain/entities"
	domainerrors "aquajudge/contexts/contest-judging/contest-engine/domain/errors"
	"aquajudge/contexts/contest-judging/contest-engine/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "aquajudge"

var (
	ContestTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "contest_transitions_total", Help: "Contest status transitions",
	}, []string{"from", "to"})
	ScoresRecorded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "scores_recorded_total", Help: "Judge scores recorded",
	}, []string{"mode"})
	FinalizeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Name: "finalize_duration_seconds", Help: "Contest finalize latency",
		Buckets: prometheus.DefBuckets,
	})
	RankedSubmissions = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Name: "finalize_ranked_submissions", Help: "Ranked submissions per finalized contest",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
	})
	RejectedOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "rejected_operations_total", Help: "Contest operations rejected by kind",
	}, []string{"operation", "kind"})
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests by route and status",
	}, []string{"route", "status"})
	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	jobRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "job_runs_total", Help: "Total background job runs",
	}, []string{"job"})
	jobErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "job_errors_total", Help: "Total background job errors",
	}, []string{"job"})
	jobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Name: "job_duration_seconds", Help: "Background job duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
)

func init() {
	prometheus.MustRegister(
		ContestTransitions,
		ScoresRecorded,
		FinalizeDuration,
		RankedSubmissions,
		RejectedOperations,
		HTTPRequests,
		HTTPDuration,
		jobRuns,
		jobErrors,
		jobDuration,
	)
}

func Handler() http.Handler { return promhttp.Handler() }

// Contest records contest-engine observations on the process registry.
type Contest struct{}

func (Contest) ObserveTransition(from entities.ContestStatus, to entities.ContestStatus) {
	ContestTransitions.WithLabelValues(string(from), string(to)).Inc()
}

func (Contest) ObserveScoreRecorded(mode entities.ScoreMode) {
	ScoresRecorded.WithLabelValues(string(mode)).Inc()
}

func (Contest) ObserveFinalize(duration time.Duration, ranked int) {
	FinalizeDuration.Observe(duration.Seconds())
	RankedSubmissions.Observe(float64(ranked))
}

func (Contest) ObserveRejected(operation string, err error) {
	RejectedOperations.WithLabelValues(operation, ErrorKind(err)).Inc()
}

// ErrorKind names the domain error class of err for metric labels.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, domainerrors.ErrContestNotFound),
		errors.Is(err, domainerrors.ErrSubmissionNotFound),
		errors.Is(err, domainerrors.ErrAssignmentNotFound),
		errors.Is(err, domainerrors.ErrJudgeNotFound):
		return "not_found"
	case errors.Is(err, domainerrors.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domainerrors.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, domainerrors.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, domainerrors.ErrPreconditionFailed):
		return "precondition_failed"
	case errors.Is(err, domainerrors.ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, domainerrors.ErrAlreadyAssigned):
		return "already_assigned"
	case errors.Is(err, domainerrors.ErrNotEligible):
		return "not_eligible"
	case errors.Is(err, domainerrors.ErrDuplicateScore):
		return "duplicate_score"
	case errors.Is(err, domainerrors.ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, domainerrors.ErrNotAuthorized):
		return "not_authorized"
	case errors.Is(err, domainerrors.ErrConstraintViolation):
		return "constraint_violation"
	case errors.Is(err, domainerrors.ErrResultsNotAvailable):
		return "results_not_available"
	default:
		return "internal"
	}
}

// ObserveJob records one run of a background job.
func ObserveJob(name string, started time.Time, err error) {
	if err != nil {
		jobErrors.WithLabelValues(name).Inc()
	}
	jobRuns.WithLabelValues(name).Inc()
	jobDuration.WithLabelValues(name).Observe(time.Since(started).Seconds())
}

// ObserveHTTP records one served request.
func ObserveHTTP(route string, status int, started time.Time) {
	HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(route).Observe(time.Since(started).Seconds())
}

var _ ports.Metrics = Contest{}
