package queries

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	application "aquajudge/contexts/contest-judging/contest-engine/application"
	"aquajudge/contexts/contest-judging/contest-engine/domain/entities"
	domainerrors "aquajudge/contexts/contest-judging/contest-engine/domain/errors"
	"aquajudge/contexts/contest-judging/contest-engine/ports"
)

type ContestResults struct {
	Contest  entities.Contest
	Rankings []entities.RankedSubmission
}

type ResultsUseCase struct {
	Contests ports.ContestReader
	Cache    ports.ResultsCache
	Logger   *slog.Logger
}

// Results returns the ranking of a finalized contest. Earlier statuses have no
// results so that no score leaks before announcement.
func (uc ResultsUseCase) Results(ctx context.Context, contestID string) (ContestResults, error) {
	logger := application.ResolveLogger(uc.Logger)
	contest, err := uc.Contests.GetContest(ctx, strings.TrimSpace(contestID))
	if err != nil {
		return ContestResults{}, err
	}
	if contest.Status != entities.ContestStatusFinalized {
		return ContestResults{}, fmt.Errorf("%w: contest %s is %s",
			domainerrors.ErrResultsNotAvailable, contest.ContestID, contest.Status)
	}

	if uc.Cache != nil {
		cached, ok, err := uc.Cache.GetResults(ctx, contest.ContestID)
		if err != nil {
			logger.Warn("results cache read failed",
				"event", "contest_results_cache_read_failed",
				"module", "contest-judging/contest-engine",
				"layer", "application",
				"contest_id", contest.ContestID,
				"error", err.Error(),
			)
		} else if ok {
			return ContestResults{Contest: contest, Rankings: cached}, nil
		}
	}

	submissions, err := uc.Contests.ListSubmissions(ctx, ports.SubmissionFilter{ContestID: contest.ContestID})
	if err != nil {
		return ContestResults{}, err
	}
	scores, err := uc.Contests.ListScoresByContest(ctx, contest.ContestID)
	if err != nil {
		return ContestResults{}, err
	}
	rankings := entities.RankSubmissions(submissions, entities.CountScores(scores))

	if uc.Cache != nil {
		if err := uc.Cache.PutResults(ctx, contest.ContestID, rankings); err != nil {
			logger.Warn("results cache write failed",
				"event", "contest_results_cache_write_failed",
				"module", "contest-judging/contest-engine",
				"layer", "application",
				"contest_id", contest.ContestID,
				"error", err.Error(),
			)
		}
	}
	return ContestResults{Contest: contest, Rankings: rankings}, nil
}

type ScoreBreakdown struct {
	Submission entities.Submission
	Scores     []entities.Score
}

// Breakdown returns raw per-judge scores for audit. Managers see them at any
// time, everyone sees them once the contest is finalized, and before that an
// expert sees only their own scores.
func (uc ResultsUseCase) Breakdown(ctx context.Context, actor ports.Actor, submissionID string) (ScoreBreakdown, error) {
	submission, err := uc.Contests.GetSubmission(ctx, strings.TrimSpace(submissionID))
	if err != nil {
		return ScoreBreakdown{}, err
	}
	contest, err := uc.Contests.GetContest(ctx, submission.ContestID)
	if err != nil {
		return ScoreBreakdown{}, err
	}
	scores, err := uc.Contests.ListScoresBySubmission(ctx, submission.SubmissionID)
	if err != nil {
		return ScoreBreakdown{}, err
	}

	switch {
	case actor.Role == ports.ActorRoleManager, contest.Status == entities.ContestStatusFinalized:
	case actor.Role == ports.ActorRoleExpert:
		own := make([]entities.Score, 0, 1)
		for _, score := range scores {
			if score.JudgeID == actor.UserID {
				own = append(own, score)
			}
		}
		scores = own
	default:
		return ScoreBreakdown{}, fmt.Errorf("%w: scores of contest %s are not announced",
			domainerrors.ErrNotAuthorized, contest.ContestID)
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].RecordedAt.Equal(scores[j].RecordedAt) {
			return scores[i].JudgeID < scores[j].JudgeID
		}
		return scores[i].RecordedAt.Before(scores[j].RecordedAt)
	})
	return ScoreBreakdown{Submission: submission, Scores: scores}, nil
}
