package httpserver

import (
	"net/http"
	"strconv"

	"aquajudge/contexts/contest-judging/contest-engine/application/commands"
	contesthttp "aquajudge/contexts/contest-judging/contest-engine/transport/http"
)

// handleCreateContest godoc
// @Summary Create a draft contest
// @Tags contests
// @Accept json
// @Produce json
// @Param request body contesthttp.CreateContestRequest true "contest"
// @Success 201 {object} contesthttp.ContestResponse
// @Failure 400 {object} contesthttp.ErrorResponse
// @Router /v1/contests [post]
func (s *Server) handleCreateContest(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	var req contesthttp.CreateContestRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.contests.Handler.CreateContestHandler(r.Context(), actor, req)
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListContests(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := s.contests.Handler.ListContestsHandler(r.Context(), query.Get("status"), query.Get("manager_id"))
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetContest(w http.ResponseWriter, r *http.Request) {
	resp, err := s.contests.Handler.GetContestHandler(r.Context(), r.PathValue("contest_id"))
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateContest(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	var req contesthttp.UpdateContestRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.contests.Handler.UpdateContestHandler(r.Context(), actor, r.PathValue("contest_id"), req)
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteContest(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	if err := s.contests.Handler.DeleteContestHandler(r.Context(), actor, r.PathValue("contest_id")); err != nil {
		writeContestDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePublishContest(w http.ResponseWriter, r *http.Request) {
	s.changeStatus(w, r, commands.ContestActionPublish)
}

func (s *Server) handleCloseRegistration(w http.ResponseWriter, r *http.Request) {
	s.changeStatus(w, r, commands.ContestActionCloseRegistration)
}

func (s *Server) handleOpenJudging(w http.ResponseWriter, r *http.Request) {
	s.changeStatus(w, r, commands.ContestActionOpenJudging)
}

// handleCancelContest godoc
// @Summary Cancel a contest
// @Tags contests
// @Accept json
// @Produce json
// @Param contest_id path string true "contest id"
// @Param request body contesthttp.ChangeStatusRequest false "reason"
// @Success 200 {object} contesthttp.ContestResponse
// @Failure 409 {object} contesthttp.ErrorResponse
// @Router /v1/contests/{contest_id}/cancel [post]
func (s *Server) handleCancelContest(w http.ResponseWriter, r *http.Request) {
	s.changeStatus(w, r, commands.ContestActionCancel)
}

func (s *Server) changeStatus(w http.ResponseWriter, r *http.Request, action commands.ContestAction) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	var req contesthttp.ChangeStatusRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.contests.Handler.ChangeStatusHandler(r.Context(), actor, r.PathValue("contest_id"), action, req)
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleFinalizeContest godoc
// @Summary Finalize judging and publish rankings
// @Tags contests
// @Produce json
// @Param contest_id path string true "contest id"
// @Success 200 {object} contesthttp.FinalizeResponse
// @Failure 409 {object} contesthttp.ErrorResponse
// @Router /v1/contests/{contest_id}/finalize [post]
func (s *Server) handleFinalizeContest(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.contests.Handler.FinalizeContestHandler(r.Context(), actor, r.PathValue("contest_id"))
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitEntry(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	var req contesthttp.SubmitEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.contests.Handler.SubmitEntryHandler(r.Context(), actor, r.PathValue("contest_id"), req)
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := s.contests.Handler.ListSubmissionsHandler(
		r.Context(),
		r.PathValue("contest_id"),
		query.Get("status"),
		query.Get("entrant_id"),
	)
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	resp, err := s.contests.Handler.GetSubmissionHandler(r.Context(), r.PathValue("submission_id"))
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDecideSubmission(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	var req contesthttp.DecideSubmissionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.contests.Handler.DecideSubmissionHandler(r.Context(), actor, r.PathValue("submission_id"), req)
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRecordScore godoc
// @Summary Record a judge score
// @Tags scoring
// @Accept json
// @Produce json
// @Param submission_id path string true "submission id"
// @Param request body contesthttp.RecordScoreRequest true "score"
// @Success 201 {object} contesthttp.ScoreResponse
// @Failure 409 {object} contesthttp.ErrorResponse
// @Failure 422 {object} contesthttp.ErrorResponse
// @Router /v1/submissions/{submission_id}/scores [post]
func (s *Server) handleRecordScore(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	var req contesthttp.RecordScoreRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.contests.Handler.RecordScoreHandler(r.Context(), actor, r.PathValue("submission_id"), req)
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleScoreBreakdown(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.contests.Handler.ScoreBreakdownHandler(r.Context(), actor, r.PathValue("submission_id"))
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInviteJudge(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	var req contesthttp.InviteJudgeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.contests.Handler.InviteJudgeHandler(r.Context(), actor, r.PathValue("contest_id"), req)
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleContestAssignments(w http.ResponseWriter, r *http.Request) {
	resp, err := s.contests.Handler.ContestAssignmentsHandler(r.Context(), r.PathValue("contest_id"))
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEligibleJudges(w http.ResponseWriter, r *http.Request) {
	resp, err := s.contests.Handler.EligibleJudgesHandler(r.Context(), r.PathValue("contest_id"))
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRemoveJudge(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	err := s.contests.Handler.RemoveJudgeHandler(r.Context(), actor, r.PathValue("contest_id"), r.PathValue("judge_id"))
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRespondAssignment(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	var req contesthttp.RespondAssignmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.contests.Handler.RespondAssignmentHandler(r.Context(), actor, r.PathValue("assignment_id"), req)
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleJudgeAssignments(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.contests.Handler.JudgeAssignmentsHandler(r.Context(), actor)
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegisterJudge(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	var req contesthttp.RegisterJudgeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.contests.Handler.RegisterJudgeHandler(r.Context(), actor, r.PathValue("judge_id"), req)
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleResults godoc
// @Summary Final rankings of a finalized contest
// @Tags results
// @Produce json
// @Param contest_id path string true "contest id"
// @Success 200 {object} contesthttp.ResultsResponse
// @Failure 409 {object} contesthttp.ErrorResponse
// @Router /v1/contests/{contest_id}/results [get]
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	resp, err := s.contests.Handler.ResultsHandler(r.Context(), r.PathValue("contest_id"))
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExportResults(w http.ResponseWriter, r *http.Request) {
	body, filename, err := s.contests.Handler.ExportResultsHandler(r.Context(), r.PathValue("contest_id"))
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleCriteria(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.contests.Handler.CriteriaHandler(r.Context(), r.PathValue("category")))
}
