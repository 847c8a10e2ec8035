package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "aquajudge/contexts/contest-judging/contest-engine/application"
	"aquajudge/contexts/contest-judging/contest-engine/domain/entities"
	domainerrors "aquajudge/contexts/contest-judging/contest-engine/domain/errors"
	"aquajudge/contexts/contest-judging/contest-engine/ports"
)

type FinalizeContestCommand struct {
	ContestID string
	Actor     ports.Actor
}

type FinalizeContestResult struct {
	Contest  entities.Contest
	Rankings []entities.RankedSubmission
	Unscored []string
}

type FinalizeContestUseCase struct {
	Contests ports.ContestRepository
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Metrics  ports.Metrics
	Logger   *slog.Logger
}

// Execute aggregates every recorded score and closes the contest in one
// contest scope. Scores recorded concurrently either commit before the
// snapshot or observe the finalized status.
func (uc FinalizeContestUseCase) Execute(ctx context.Context, cmd FinalizeContestCommand) (result FinalizeContestResult, err error) {
	defer func() { application.ObserveOutcome(uc.Metrics, "finalize", err) }()
	logger := application.ResolveLogger(uc.Logger)
	if err := requireRole(cmd.Actor, ports.ActorRoleManager); err != nil {
		return FinalizeContestResult{}, err
	}
	contestID := strings.TrimSpace(cmd.ContestID)
	if contestID == "" {
		return FinalizeContestResult{}, domainerrors.ErrInvalidInput
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return FinalizeContestResult{}, err
	}
	started := time.Now()
	now := uc.Clock.Now().UTC()

	err = uc.Contests.WithinContest(ctx, contestID, func(ctx context.Context, scope ports.ContestScope) error {
		current, err := scope.Contest(ctx)
		if err != nil {
			return err
		}
		if !entities.CanTransition(current.Status, entities.ContestStatusFinalized) {
			return fmt.Errorf("%w: contest %s %s -> %s", domainerrors.ErrInvalidTransition,
				contestID, current.Status, entities.ContestStatusFinalized)
		}

		submissions, err := scope.ListSubmissions(ctx)
		if err != nil {
			return err
		}
		scores, err := scope.ListScores(ctx)
		if err != nil {
			return err
		}
		for _, score := range scores {
			if !entities.TotalInRange(score.Total) {
				return fmt.Errorf("%w: score %s on submission %s has total %s",
					domainerrors.ErrConstraintViolation, score.ScoreID, score.SubmissionID, score.Total.String())
			}
		}

		aggregates := entities.AggregateScores(submissions, scores)
		var unscored []string
		for i, submission := range submissions {
			if !submission.IsApproved() {
				continue
			}
			aggregate := aggregates[submission.SubmissionID]
			if aggregate.FinalScore == nil {
				unscored = append(unscored, submission.SubmissionID)
				continue
			}
			submission.FinalScore = aggregate.FinalScore
			submission.UpdatedAt = now
			if err := scope.UpdateSubmission(ctx, submission); err != nil {
				return err
			}
			submissions[i] = submission
		}
		rankings := entities.RankSubmissions(submissions, entities.CountScores(scores))

		current.Status = entities.ContestStatusFinalized
		current.FinalizedAt = &now
		current.UpdatedAt = now
		if err := scope.UpdateContest(ctx, current); err != nil {
			return err
		}

		podium := make([]map[string]any, 0, 3)
		for _, ranked := range rankings {
			if ranked.Rank > 3 {
				break
			}
			podium = append(podium, map[string]any{
				"rank":          ranked.Rank,
				"submission_id": ranked.SubmissionID,
				"entrant_id":    ranked.EntrantID,
				"display_name":  ranked.DisplayName,
				"final_score":   ranked.FinalScore.StringFixed(entities.FinalScorePlaces),
			})
		}
		envelope, err := newContestEnvelope(eventID, ports.TopicContestFinalized, contestID, now, map[string]any{
			"contest_id":     contestID,
			"contest_name":   current.Name,
			"ranked_count":   len(rankings),
			"unscored_count": len(unscored),
			"podium":         podium,
			"finalized_at":   formatTime(now),
		})
		if err != nil {
			return err
		}
		if err := scope.AppendOutbox(ctx, envelope); err != nil {
			return err
		}

		result = FinalizeContestResult{
			Contest:  current,
			Rankings: rankings,
			Unscored: unscored,
		}
		return nil
	})
	if err != nil {
		logger.Warn("contest finalize rejected",
			"event", "contest_finalize_rejected",
			"module", "contest-judging/contest-engine",
			"layer", "application",
			"contest_id", contestID,
			"error", err.Error(),
		)
		return FinalizeContestResult{}, err
	}

	metrics := application.ResolveMetrics(uc.Metrics)
	metrics.ObserveTransition(entities.ContestStatusJudging, entities.ContestStatusFinalized)
	metrics.ObserveFinalize(time.Since(started), len(result.Rankings))
	logger.Info("contest finalized",
		"event", "contest_finalized",
		"module", "contest-judging/contest-engine",
		"layer", "application",
		"contest_id", contestID,
		"ranked_count", len(result.Rankings),
		"unscored_count", len(result.Unscored),
	)
	return result, nil
}
