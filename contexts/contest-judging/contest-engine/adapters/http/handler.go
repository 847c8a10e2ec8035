package httpadapter

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	exceladapter "aquajudge/contexts/contest-judging/contest-engine/adapters/excel"
	"aquajudge/contexts/contest-judging/contest-engine/application/commands"
	"aquajudge/contexts/contest-judging/contest-engine/application/queries"
	"aquajudge/contexts/contest-judging/contest-engine/domain/entities"
	domainerrors "aquajudge/contexts/contest-judging/contest-engine/domain/errors"
	"aquajudge/contexts/contest-judging/contest-engine/ports"
	httptransport "aquajudge/contexts/contest-judging/contest-engine/transport/http"
)

type Handler struct {
	CreateContest     commands.CreateContestUseCase
	UpdateContest     commands.UpdateContestUseCase
	DeleteContest     commands.DeleteContestUseCase
	ChangeStatus      commands.ChangeStatusUseCase
	FinalizeContest   commands.FinalizeContestUseCase
	SubmitEntry       commands.SubmitEntryUseCase
	DecideSubmission  commands.DecideSubmissionUseCase
	InviteJudge       commands.InviteJudgeUseCase
	RespondAssignment commands.RespondAssignmentUseCase
	RemoveJudge       commands.RemoveJudgeUseCase
	RegisterJudge     commands.RegisterJudgeUseCase
	RecordScore       commands.RecordScoreUseCase
	Queries           queries.ContestQueries
	Results           queries.ResultsUseCase
	Logger            *slog.Logger
}

func (h Handler) CreateContestHandler(
	ctx context.Context,
	actor ports.Actor,
	req httptransport.CreateContestRequest,
) (httptransport.ContestResponse, error) {
	startDate, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return httptransport.ContestResponse{}, err
	}
	endDate, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return httptransport.ContestResponse{}, err
	}
	contest, err := h.CreateContest.Execute(ctx, commands.CreateContestCommand{
		Actor:                actor,
		Name:                 req.Name,
		Category:             entities.ContestCategory(req.Category),
		StartDate:            startDate,
		EndDate:              endDate,
		AllowedSubCategories: req.AllowedSubCategories,
		PrimaryFishType:      req.PrimaryFishType,
	})
	if err != nil {
		return httptransport.ContestResponse{}, err
	}
	return mapContest(contest), nil
}

func (h Handler) UpdateContestHandler(
	ctx context.Context,
	actor ports.Actor,
	contestID string,
	req httptransport.UpdateContestRequest,
) (httptransport.ContestResponse, error) {
	cmd := commands.UpdateContestCommand{
		ContestID:            contestID,
		Actor:                actor,
		Name:                 req.Name,
		AllowedSubCategories: req.AllowedSubCategories,
		PrimaryFishType:      req.PrimaryFishType,
	}
	if req.StartDate != nil {
		startDate, err := parseDate("start_date", *req.StartDate)
		if err != nil {
			return httptransport.ContestResponse{}, err
		}
		cmd.StartDate = &startDate
	}
	if req.EndDate != nil {
		endDate, err := parseDate("end_date", *req.EndDate)
		if err != nil {
			return httptransport.ContestResponse{}, err
		}
		cmd.EndDate = &endDate
	}
	contest, err := h.UpdateContest.Execute(ctx, cmd)
	if err != nil {
		return httptransport.ContestResponse{}, err
	}
	return mapContest(contest), nil
}

func (h Handler) DeleteContestHandler(ctx context.Context, actor ports.Actor, contestID string) error {
	return h.DeleteContest.Execute(ctx, commands.DeleteContestCommand{
		ContestID: contestID,
		Actor:     actor,
	})
}

func (h Handler) ChangeStatusHandler(
	ctx context.Context,
	actor ports.Actor,
	contestID string,
	action commands.ContestAction,
	req httptransport.ChangeStatusRequest,
) (httptransport.ContestResponse, error) {
	contest, err := h.ChangeStatus.Execute(ctx, commands.ChangeStatusCommand{
		ContestID: contestID,
		Actor:     actor,
		Action:    action,
		Reason:    req.Reason,
	})
	if err != nil {
		return httptransport.ContestResponse{}, err
	}
	return mapContest(contest), nil
}

func (h Handler) FinalizeContestHandler(
	ctx context.Context,
	actor ports.Actor,
	contestID string,
) (httptransport.FinalizeResponse, error) {
	result, err := h.FinalizeContest.Execute(ctx, commands.FinalizeContestCommand{
		ContestID: contestID,
		Actor:     actor,
	})
	if err != nil {
		return httptransport.FinalizeResponse{}, err
	}
	unscored := result.Unscored
	if unscored == nil {
		unscored = []string{}
	}
	return httptransport.FinalizeResponse{
		Contest:  mapContest(result.Contest),
		Rankings: mapRankings(result.Rankings),
		Unscored: unscored,
	}, nil
}

func (h Handler) GetContestHandler(ctx context.Context, contestID string) (httptransport.ContestResponse, error) {
	contest, err := h.Queries.GetContest(ctx, contestID)
	if err != nil {
		return httptransport.ContestResponse{}, err
	}
	return mapContest(contest), nil
}

func (h Handler) ListContestsHandler(
	ctx context.Context,
	status string,
	managerID string,
) (httptransport.ListContestsResponse, error) {
	contests, err := h.Queries.ListContests(ctx, ports.ContestFilter{
		Status:    entities.ContestStatus(strings.TrimSpace(status)),
		ManagerID: managerID,
	})
	if err != nil {
		return httptransport.ListContestsResponse{}, err
	}
	items := make([]httptransport.ContestResponse, 0, len(contests))
	for _, contest := range contests {
		items = append(items, mapContest(contest))
	}
	return httptransport.ListContestsResponse{Items: items}, nil
}

func (h Handler) SubmitEntryHandler(
	ctx context.Context,
	actor ports.Actor,
	contestID string,
	req httptransport.SubmitEntryRequest,
) (httptransport.SubmissionResponse, error) {
	submission, err := h.SubmitEntry.Execute(ctx, commands.SubmitEntryCommand{
		ContestID:   contestID,
		Actor:       actor,
		DisplayName: req.DisplayName,
		SubCategory: req.SubCategory,
		MediaRefs:   req.MediaRefs,
	})
	if err != nil {
		return httptransport.SubmissionResponse{}, err
	}
	return mapSubmission(submission), nil
}

func (h Handler) DecideSubmissionHandler(
	ctx context.Context,
	actor ports.Actor,
	submissionID string,
	req httptransport.DecideSubmissionRequest,
) (httptransport.SubmissionResponse, error) {
	submission, err := h.DecideSubmission.Execute(ctx, commands.DecideSubmissionCommand{
		SubmissionID: submissionID,
		Actor:        actor,
		Decision:     entities.SubmissionStatus(strings.TrimSpace(req.Decision)),
		Reason:       req.Reason,
	})
	if err != nil {
		return httptransport.SubmissionResponse{}, err
	}
	return mapSubmission(submission), nil
}

func (h Handler) GetSubmissionHandler(ctx context.Context, submissionID string) (httptransport.SubmissionResponse, error) {
	submission, err := h.Queries.GetSubmission(ctx, submissionID)
	if err != nil {
		return httptransport.SubmissionResponse{}, err
	}
	return mapSubmission(submission), nil
}

func (h Handler) ListSubmissionsHandler(
	ctx context.Context,
	contestID string,
	status string,
	entrantID string,
) (httptransport.ListSubmissionsResponse, error) {
	submissions, err := h.Queries.ListSubmissions(ctx, ports.SubmissionFilter{
		ContestID: contestID,
		EntrantID: entrantID,
		Status:    entities.SubmissionStatus(strings.TrimSpace(status)),
	})
	if err != nil {
		return httptransport.ListSubmissionsResponse{}, err
	}
	items := make([]httptransport.SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		items = append(items, mapSubmission(submission))
	}
	return httptransport.ListSubmissionsResponse{Items: items}, nil
}

func (h Handler) InviteJudgeHandler(
	ctx context.Context,
	actor ports.Actor,
	contestID string,
	req httptransport.InviteJudgeRequest,
) (httptransport.AssignmentResponse, error) {
	assignment, err := h.InviteJudge.Execute(ctx, commands.InviteJudgeCommand{
		ContestID: contestID,
		JudgeID:   req.JudgeID,
		Actor:     actor,
	})
	if err != nil {
		return httptransport.AssignmentResponse{}, err
	}
	return mapAssignment(assignment), nil
}

func (h Handler) RespondAssignmentHandler(
	ctx context.Context,
	actor ports.Actor,
	assignmentID string,
	req httptransport.RespondAssignmentRequest,
) (httptransport.AssignmentResponse, error) {
	assignment, err := h.RespondAssignment.Execute(ctx, commands.RespondAssignmentCommand{
		AssignmentID: assignmentID,
		Actor:        actor,
		Decision:     entities.AssignmentStatus(strings.TrimSpace(req.Decision)),
	})
	if err != nil {
		return httptransport.AssignmentResponse{}, err
	}
	return mapAssignment(assignment), nil
}

func (h Handler) RemoveJudgeHandler(ctx context.Context, actor ports.Actor, contestID string, judgeID string) error {
	return h.RemoveJudge.Execute(ctx, commands.RemoveJudgeCommand{
		ContestID: contestID,
		JudgeID:   judgeID,
		Actor:     actor,
	})
}

func (h Handler) ContestAssignmentsHandler(ctx context.Context, contestID string) (httptransport.ListAssignmentsResponse, error) {
	assignments, err := h.Queries.ListContestAssignments(ctx, contestID)
	if err != nil {
		return httptransport.ListAssignmentsResponse{}, err
	}
	return httptransport.ListAssignmentsResponse{Items: mapAssignments(assignments)}, nil
}

func (h Handler) JudgeAssignmentsHandler(ctx context.Context, actor ports.Actor) (httptransport.ListAssignmentsResponse, error) {
	if actor.Role != ports.ActorRoleExpert {
		return httptransport.ListAssignmentsResponse{}, fmt.Errorf("%w: only experts hold assignments", domainerrors.ErrNotAuthorized)
	}
	assignments, err := h.Queries.ListJudgeAssignments(ctx, actor.UserID)
	if err != nil {
		return httptransport.ListAssignmentsResponse{}, err
	}
	return httptransport.ListAssignmentsResponse{Items: mapAssignments(assignments)}, nil
}

func (h Handler) EligibleJudgesHandler(ctx context.Context, contestID string) (httptransport.ListJudgesResponse, error) {
	profiles, err := h.Queries.EligibleJudges(ctx, contestID)
	if err != nil {
		return httptransport.ListJudgesResponse{}, err
	}
	items := make([]httptransport.JudgeProfileResponse, 0, len(profiles))
	for _, profile := range profiles {
		items = append(items, mapJudgeProfile(profile))
	}
	return httptransport.ListJudgesResponse{Items: items}, nil
}

func (h Handler) RegisterJudgeHandler(
	ctx context.Context,
	actor ports.Actor,
	judgeID string,
	req httptransport.RegisterJudgeRequest,
) (httptransport.JudgeProfileResponse, error) {
	profile, err := h.RegisterJudge.Execute(ctx, commands.RegisterJudgeCommand{
		Actor:          actor,
		JudgeID:        judgeID,
		DisplayName:    req.DisplayName,
		Specialties:    req.Specialties,
		TelegramChatID: req.TelegramChatID,
	})
	if err != nil {
		return httptransport.JudgeProfileResponse{}, err
	}
	return mapJudgeProfile(profile), nil
}

func (h Handler) RecordScoreHandler(
	ctx context.Context,
	actor ports.Actor,
	submissionID string,
	req httptransport.RecordScoreRequest,
) (httptransport.ScoreResponse, error) {
	score, err := h.RecordScore.Execute(ctx, commands.RecordScoreCommand{
		SubmissionID: submissionID,
		Actor:        actor,
		Mode:         entities.ScoreMode(strings.TrimSpace(req.Mode)),
		Criteria:     req.Criteria,
		Total:        req.Total,
	})
	if err != nil {
		return httptransport.ScoreResponse{}, err
	}
	return mapScore(score), nil
}

func (h Handler) ScoreBreakdownHandler(
	ctx context.Context,
	actor ports.Actor,
	submissionID string,
) (httptransport.ScoreBreakdownResponse, error) {
	breakdown, err := h.Results.Breakdown(ctx, actor, submissionID)
	if err != nil {
		return httptransport.ScoreBreakdownResponse{}, err
	}
	scores := make([]httptransport.ScoreResponse, 0, len(breakdown.Scores))
	for _, score := range breakdown.Scores {
		scores = append(scores, mapScore(score))
	}
	return httptransport.ScoreBreakdownResponse{
		Submission: mapSubmission(breakdown.Submission),
		Scores:     scores,
	}, nil
}

func (h Handler) ResultsHandler(ctx context.Context, contestID string) (httptransport.ResultsResponse, error) {
	results, err := h.Results.Results(ctx, contestID)
	if err != nil {
		return httptransport.ResultsResponse{}, err
	}
	return httptransport.ResultsResponse{
		ContestID:   results.Contest.ContestID,
		ContestName: results.Contest.Name,
		FinalizedAt: formatOptionalTime(results.Contest.FinalizedAt),
		Rankings:    mapRankings(results.Rankings),
	}, nil
}

// ExportResultsHandler renders the results workbook and returns its bytes
// together with a download file name.
func (h Handler) ExportResultsHandler(ctx context.Context, contestID string) ([]byte, string, error) {
	results, err := h.Results.Results(ctx, contestID)
	if err != nil {
		return nil, "", err
	}
	var buf bytes.Buffer
	if err := exceladapter.WriteResults(&buf, results.Contest, results.Rankings); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), exceladapter.ResultsFilename(results.Contest), nil
}

func (h Handler) CriteriaHandler(ctx context.Context, category string) httptransport.CriteriaResponse {
	schema := h.Queries.Criteria(ctx, category)
	items := make([]httptransport.CriterionResponse, 0, len(schema.Criteria))
	for _, criterion := range schema.Criteria {
		items = append(items, httptransport.CriterionResponse{
			Name: criterion.Name,
			Max:  criterion.Max.String(),
		})
	}
	return httptransport.CriteriaResponse{
		Category: schema.Category,
		MaxTotal: schema.MaxTotal().String(),
		Criteria: items,
	}
}

func parseDate(field string, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", domainerrors.ErrInvalidInput, field)
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed.UTC(), nil
	}
	parsed, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be RFC3339 or YYYY-MM-DD", domainerrors.ErrInvalidInput, field)
	}
	return parsed.UTC(), nil
}

func mapContest(contest entities.Contest) httptransport.ContestResponse {
	subCategories := contest.AllowedSubCategories
	if subCategories == nil {
		subCategories = []string{}
	}
	return httptransport.ContestResponse{
		ContestID:            contest.ContestID,
		Name:                 contest.Name,
		Category:             string(contest.Category),
		Status:               string(contest.Status),
		StartDate:            formatTime(contest.StartDate),
		EndDate:              formatTime(contest.EndDate),
		AllowedSubCategories: subCategories,
		PrimaryFishType:      contest.PrimaryFishType,
		JudgeQuota:           contest.EffectiveJudgeQuota(),
		ManagerID:            contest.ManagerID,
		CancelReason:         contest.CancelReason,
		CreatedAt:            formatTime(contest.CreatedAt),
		UpdatedAt:            formatTime(contest.UpdatedAt),
		PublishedAt:          formatOptionalTime(contest.PublishedAt),
		FinalizedAt:          formatOptionalTime(contest.FinalizedAt),
		CancelledAt:          formatOptionalTime(contest.CancelledAt),
	}
}

func mapSubmission(submission entities.Submission) httptransport.SubmissionResponse {
	media := submission.MediaRefs
	if media == nil {
		media = []string{}
	}
	response := httptransport.SubmissionResponse{
		SubmissionID:    submission.SubmissionID,
		ContestID:       submission.ContestID,
		EntrantID:       submission.EntrantID,
		DisplayName:     submission.DisplayName,
		SubCategory:     submission.SubCategory,
		MediaRefs:       media,
		Status:          string(submission.Status),
		RejectionReason: submission.RejectionReason,
		DecidedBy:       submission.DecidedBy,
		SubmittedAt:     formatTime(submission.SubmittedAt),
		DecidedAt:       formatOptionalTime(submission.DecidedAt),
	}
	if submission.FinalScore != nil {
		value := submission.FinalScore.StringFixed(entities.FinalScorePlaces)
		response.FinalScore = &value
	}
	return response
}

func mapAssignment(assignment entities.JudgeAssignment) httptransport.AssignmentResponse {
	return httptransport.AssignmentResponse{
		AssignmentID: assignment.AssignmentID,
		ContestID:    assignment.ContestID,
		JudgeID:      assignment.JudgeID,
		InvitedBy:    assignment.InvitedBy,
		Status:       string(assignment.Status),
		InvitedAt:    formatTime(assignment.InvitedAt),
		RespondedAt:  formatOptionalTime(assignment.RespondedAt),
	}
}

func mapAssignments(assignments []entities.JudgeAssignment) []httptransport.AssignmentResponse {
	items := make([]httptransport.AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		items = append(items, mapAssignment(assignment))
	}
	return items
}

func mapJudgeProfile(profile entities.JudgeProfile) httptransport.JudgeProfileResponse {
	specialties := profile.Specialties
	if specialties == nil {
		specialties = []string{}
	}
	return httptransport.JudgeProfileResponse{
		JudgeID:        profile.JudgeID,
		DisplayName:    profile.DisplayName,
		Specialties:    specialties,
		TelegramLinked: profile.TelegramChatID != 0,
	}
}

func mapScore(score entities.Score) httptransport.ScoreResponse {
	response := httptransport.ScoreResponse{
		ScoreID:      score.ScoreID,
		SubmissionID: score.SubmissionID,
		JudgeID:      score.JudgeID,
		Mode:         string(score.Mode),
		Total:        score.Total.String(),
		RecordedAt:   formatTime(score.RecordedAt),
	}
	if len(score.Criteria) > 0 {
		response.Criteria = make(map[string]string, len(score.Criteria))
		for name, value := range score.Criteria {
			response.Criteria[name] = value.String()
		}
	}
	return response
}

func mapRankings(rankings []entities.RankedSubmission) []httptransport.RankedSubmissionResponse {
	items := make([]httptransport.RankedSubmissionResponse, 0, len(rankings))
	for _, ranked := range rankings {
		items = append(items, httptransport.RankedSubmissionResponse{
			Rank:         ranked.Rank,
			SubmissionID: ranked.SubmissionID,
			EntrantID:    ranked.EntrantID,
			DisplayName:  ranked.DisplayName,
			SubCategory:  ranked.SubCategory,
			FinalScore:   ranked.FinalScore.StringFixed(entities.FinalScorePlaces),
			ScoreCount:   ranked.ScoreCount,
		})
	}
	return items
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}

func formatOptionalTime(value *time.Time) string {
	if value == nil {
		return ""
	}
	return formatTime(*value)
}
