package queries

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"aquajudge/contexts/contest-judging/contest-engine/domain/entities"
	domainerrors "aquajudge/contexts/contest-judging/contest-engine/domain/errors"
	"aquajudge/contexts/contest-judging/contest-engine/ports"
)

type ContestQueries struct {
	Contests ports.ContestReader
	Judges   ports.JudgeDirectory
}

func (q ContestQueries) GetContest(ctx context.Context, contestID string) (entities.Contest, error) {
	return q.Contests.GetContest(ctx, strings.TrimSpace(contestID))
}

func (q ContestQueries) ListContests(ctx context.Context, filter ports.ContestFilter) ([]entities.Contest, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown contest status %q", domainerrors.ErrInvalidInput, filter.Status)
	}
	filter.ManagerID = strings.TrimSpace(filter.ManagerID)
	return q.Contests.ListContests(ctx, filter)
}

func (q ContestQueries) GetSubmission(ctx context.Context, submissionID string) (entities.Submission, error) {
	return q.Contests.GetSubmission(ctx, strings.TrimSpace(submissionID))
}

func (q ContestQueries) ListSubmissions(ctx context.Context, filter ports.SubmissionFilter) ([]entities.Submission, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown submission status %q", domainerrors.ErrInvalidInput, filter.Status)
	}
	filter.ContestID = strings.TrimSpace(filter.ContestID)
	filter.EntrantID = strings.TrimSpace(filter.EntrantID)
	if filter.ContestID != "" {
		if _, err := q.Contests.GetContest(ctx, filter.ContestID); err != nil {
			return nil, err
		}
	}
	return q.Contests.ListSubmissions(ctx, filter)
}

func (q ContestQueries) ListContestAssignments(ctx context.Context, contestID string) ([]entities.JudgeAssignment, error) {
	contestID = strings.TrimSpace(contestID)
	if _, err := q.Contests.GetContest(ctx, contestID); err != nil {
		return nil, err
	}
	return q.Contests.ListAssignmentsByContest(ctx, contestID)
}

func (q ContestQueries) ListJudgeAssignments(ctx context.Context, judgeID string) ([]entities.JudgeAssignment, error) {
	return q.Contests.ListAssignmentsByJudge(ctx, strings.TrimSpace(judgeID))
}

// EligibleJudges lists roster judges whose specialties match the contest and
// who hold no pending or accepted assignment for it. The listing is advisory;
// invite re-checks eligibility.
func (q ContestQueries) EligibleJudges(ctx context.Context, contestID string) ([]entities.JudgeProfile, error) {
	contest, err := q.Contests.GetContest(ctx, strings.TrimSpace(contestID))
	if err != nil {
		return nil, err
	}
	assignments, err := q.Contests.ListAssignmentsByContest(ctx, contest.ContestID)
	if err != nil {
		return nil, err
	}
	busy := make(map[string]struct{}, len(assignments))
	for _, assignment := range assignments {
		if assignment.Status.IsActive() {
			busy[assignment.JudgeID] = struct{}{}
		}
	}
	profiles, err := q.Judges.ListJudgeProfiles(ctx)
	if err != nil {
		return nil, err
	}

	eligible := make([]entities.JudgeProfile, 0, len(profiles))
	for _, profile := range profiles {
		if _, assigned := busy[profile.JudgeID]; assigned {
			continue
		}
		if profile.EligibleFor(contest) {
			eligible = append(eligible, profile)
		}
	}
	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].JudgeID < eligible[j].JudgeID
	})
	return eligible, nil
}

func (q ContestQueries) Criteria(_ context.Context, category string) entities.CriteriaSchema {
	return entities.CriteriaFor(category)
}
