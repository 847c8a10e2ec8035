package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	contestengine "aquajudge/contexts/contest-judging/contest-engine"
	contestdomainerrors "aquajudge/contexts/contest-judging/contest-engine/domain/errors"
	contesthttp "aquajudge/contexts/contest-judging/contest-engine/transport/http"
	"aquajudge/internal/platform/metrics"
	"aquajudge/internal/platform/observability"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "aquajudge/internal/platform/httpserver/docs"
)

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	http     *http.Server
	contests contestengine.Module
	identity Identity
}

func New(
	contests contestengine.Module,
	identity Identity,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		contests: contests,
		identity: identity,
	}
	s.registerRoutes()
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the routed mux, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.Handle("GET /metrics", metrics.Handler())
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.handle("POST /v1/contests", s.handleCreateContest)
	s.handle("GET /v1/contests", s.handleListContests)
	s.handle("GET /v1/contests/{contest_id}", s.handleGetContest)
	s.handle("PATCH /v1/contests/{contest_id}", s.handleUpdateContest)
	s.handle("DELETE /v1/contests/{contest_id}", s.handleDeleteContest)
	s.handle("POST /v1/contests/{contest_id}/publish", s.handlePublishContest)
	s.handle("POST /v1/contests/{contest_id}/close", s.handleCloseRegistration)
	s.handle("POST /v1/contests/{contest_id}/open-judging", s.handleOpenJudging)
	s.handle("POST /v1/contests/{contest_id}/finalize", s.handleFinalizeContest)
	s.handle("POST /v1/contests/{contest_id}/cancel", s.handleCancelContest)

	s.handle("POST /v1/contests/{contest_id}/submissions", s.handleSubmitEntry)
	s.handle("GET /v1/contests/{contest_id}/submissions", s.handleListSubmissions)
	s.handle("GET /v1/submissions/{submission_id}", s.handleGetSubmission)
	s.handle("POST /v1/submissions/{submission_id}/decision", s.handleDecideSubmission)
	s.handle("POST /v1/submissions/{submission_id}/scores", s.handleRecordScore)
	s.handle("GET /v1/submissions/{submission_id}/scores", s.handleScoreBreakdown)

	s.handle("POST /v1/contests/{contest_id}/judges", s.handleInviteJudge)
	s.handle("GET /v1/contests/{contest_id}/judges", s.handleContestAssignments)
	s.handle("GET /v1/contests/{contest_id}/eligible-judges", s.handleEligibleJudges)
	s.handle("DELETE /v1/contests/{contest_id}/judges/{judge_id}", s.handleRemoveJudge)
	s.handle("POST /v1/assignments/{assignment_id}/response", s.handleRespondAssignment)
	s.handle("GET /v1/judges/me/assignments", s.handleJudgeAssignments)
	s.handle("PUT /v1/judges/{judge_id}", s.handleRegisterJudge)

	s.handle("GET /v1/contests/{contest_id}/results", s.handleResults)
	s.handle("GET /v1/contests/{contest_id}/results/export", s.handleExportResults)
	s.handle("GET /v1/criteria/{category}", s.handleCriteria)
}

// handle registers fn under pattern and records request metrics labeled
// with the pattern.
func (s *Server) handle(pattern string, fn http.HandlerFunc) {
	s.mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		fn(rec, r)
		metrics.ObserveHTTP(pattern, rec.status, started)
		if rec.status >= http.StatusInternalServerError {
			s.logger.Error("http request failed",
				"event", "http_request_failed",
				"module", "internal/platform/httpserver",
				"layer", "platform",
				"route", pattern,
				"status", rec.status,
			)
		}
	}))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeContestDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, contestdomainerrors.ErrContestNotFound),
		errors.Is(err, contestdomainerrors.ErrSubmissionNotFound),
		errors.Is(err, contestdomainerrors.ErrAssignmentNotFound),
		errors.Is(err, contestdomainerrors.ErrJudgeNotFound):
		writeContestError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, contestdomainerrors.ErrInvalidInput):
		writeContestError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, contestdomainerrors.ErrNotAuthorized):
		writeContestError(w, http.StatusForbidden, "not_authorized", err.Error())
	case errors.Is(err, contestdomainerrors.ErrInvalidTransition):
		writeContestError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, contestdomainerrors.ErrInvalidState):
		writeContestError(w, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, contestdomainerrors.ErrPreconditionFailed):
		writeContestError(w, http.StatusConflict, "precondition_failed", err.Error())
	case errors.Is(err, contestdomainerrors.ErrQuotaExceeded):
		writeContestError(w, http.StatusConflict, "quota_exceeded", err.Error())
	case errors.Is(err, contestdomainerrors.ErrAlreadyAssigned):
		writeContestError(w, http.StatusConflict, "already_assigned", err.Error())
	case errors.Is(err, contestdomainerrors.ErrDuplicateScore):
		writeContestError(w, http.StatusConflict, "duplicate_score", err.Error())
	case errors.Is(err, contestdomainerrors.ErrResultsNotAvailable):
		writeContestError(w, http.StatusConflict, "results_not_available", err.Error())
	case errors.Is(err, contestdomainerrors.ErrOutOfRange):
		writeContestError(w, http.StatusUnprocessableEntity, "out_of_range", err.Error())
	case errors.Is(err, contestdomainerrors.ErrNotEligible):
		writeContestError(w, http.StatusUnprocessableEntity, "not_eligible", err.Error())
	case errors.Is(err, contestdomainerrors.ErrConstraintViolation):
		writeContestError(w, http.StatusUnprocessableEntity, "constraint_violation", err.Error())
	default:
		observability.CaptureErr(err)
		writeContestError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeContestError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, contesthttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeContestError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return false
	}
	return true
}
