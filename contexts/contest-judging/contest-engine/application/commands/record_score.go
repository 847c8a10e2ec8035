package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	application "aquajudge/contexts/contest-judging/contest-engine/application"
	"aquajudge/contexts/contest-judging/contest-engine/domain/entities"
	domainerrors "aquajudge/contexts/contest-judging/contest-engine/domain/errors"
	"aquajudge/contexts/contest-judging/contest-engine/ports"

	"github.com/shopspring/decimal"
)

// RecordScoreCommand carries either a detailed criteria breakdown or, in
// quick mode, a single total. An empty Mode is inferred from the payload.
type RecordScoreCommand struct {
	SubmissionID string
	Actor        ports.Actor
	Mode         entities.ScoreMode
	Criteria     map[string]decimal.Decimal
	Total        *decimal.Decimal
}

type RecordScoreUseCase struct {
	Contests ports.ContestRepository
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Metrics  ports.Metrics
	Logger   *slog.Logger
}

func (uc RecordScoreUseCase) Execute(ctx context.Context, cmd RecordScoreCommand) (score entities.Score, err error) {
	defer func() { application.ObserveOutcome(uc.Metrics, "record_score", err) }()
	logger := application.ResolveLogger(uc.Logger)
	if err := requireRole(cmd.Actor, ports.ActorRoleExpert); err != nil {
		return entities.Score{}, err
	}
	mode, err := resolveScoreMode(cmd)
	if err != nil {
		return entities.Score{}, err
	}
	judgeID := strings.TrimSpace(cmd.Actor.UserID)
	submissionID := strings.TrimSpace(cmd.SubmissionID)
	existing, err := uc.Contests.GetSubmission(ctx, submissionID)
	if err != nil {
		return entities.Score{}, err
	}
	scoreID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Score{}, err
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Score{}, err
	}
	now := uc.Clock.Now().UTC()

	err = uc.Contests.WithinContest(ctx, existing.ContestID, func(ctx context.Context, scope ports.ContestScope) error {
		contest, err := scope.Contest(ctx)
		if err != nil {
			return err
		}
		if contest.Status != entities.ContestStatusJudging {
			return fmt.Errorf("%w: contest %s is %s, scoring requires judging",
				domainerrors.ErrInvalidState, contest.ContestID, contest.Status)
		}
		assignments, err := scope.ListAssignments(ctx)
		if err != nil {
			return err
		}
		if _, accepted := findAssignment(assignments, func(item entities.JudgeAssignment) bool {
			return item.JudgeID == judgeID && item.Status == entities.AssignmentStatusAccepted
		}); !accepted {
			return fmt.Errorf("%w: judge %s holds no accepted assignment in contest %s",
				domainerrors.ErrNotAuthorized, judgeID, contest.ContestID)
		}
		submission, err := scope.GetSubmission(ctx, submissionID)
		if err != nil {
			return err
		}
		if !submission.IsApproved() {
			return fmt.Errorf("%w: submission %s is %s, only approved submissions are scored",
				domainerrors.ErrInvalidState, submissionID, submission.Status)
		}
		scores, err := scope.ListScores(ctx)
		if err != nil {
			return err
		}
		for _, recorded := range scores {
			if recorded.SubmissionID == submissionID && recorded.JudgeID == judgeID {
				return fmt.Errorf("%w: submission %s judge %s", domainerrors.ErrDuplicateScore, submissionID, judgeID)
			}
		}

		created := entities.Score{
			ScoreID:      scoreID,
			SubmissionID: submissionID,
			ContestID:    contest.ContestID,
			JudgeID:      judgeID,
			Mode:         mode,
			RecordedAt:   now,
		}
		switch mode {
		case entities.ScoreModeDetailed:
			schema := entities.CriteriaFor(criteriaCategory(contest, submission))
			total, err := schema.Evaluate(cmd.Criteria)
			if err != nil {
				return err
			}
			created.Criteria = copyCriteria(cmd.Criteria)
			created.Total = total
		case entities.ScoreModeQuick:
			if !entities.HasScorePrecision(*cmd.Total) {
				return fmt.Errorf("%w: total %s has more than %d decimal places",
					domainerrors.ErrInvalidInput, cmd.Total.String(), entities.ScorePlaces)
			}
			if !entities.TotalInRange(*cmd.Total) {
				return fmt.Errorf("%w: total %s must lie in [0, %s]",
					domainerrors.ErrOutOfRange, cmd.Total.String(), entities.MaxScoreTotal.String())
			}
			created.Total = *cmd.Total
		}

		if err := scope.CreateScore(ctx, created); err != nil {
			return err
		}
		// Score values stay out of the event until results are announced.
		envelope, err := newContestEnvelope(eventID, ports.TopicScoreRecorded, contest.ContestID, now, map[string]any{
			"score_id":      created.ScoreID,
			"submission_id": submissionID,
			"contest_id":    contest.ContestID,
			"judge_id":      judgeID,
			"mode":          string(mode),
		})
		if err != nil {
			return err
		}
		if err := scope.AppendOutbox(ctx, envelope); err != nil {
			return err
		}
		score = created
		return nil
	})
	if err != nil {
		return entities.Score{}, err
	}

	application.ResolveMetrics(uc.Metrics).ObserveScoreRecorded(score.Mode)
	logger.Info("score recorded",
		"event", "contest_score_recorded",
		"module", "contest-judging/contest-engine",
		"layer", "application",
		"contest_id", score.ContestID,
		"submission_id", score.SubmissionID,
		"judge_id", score.JudgeID,
		"mode", string(score.Mode),
	)
	return score, nil
}

func resolveScoreMode(cmd RecordScoreCommand) (entities.ScoreMode, error) {
	mode := cmd.Mode
	if mode == "" {
		if cmd.Total != nil && len(cmd.Criteria) == 0 {
			mode = entities.ScoreModeQuick
		} else {
			mode = entities.ScoreModeDetailed
		}
	}
	switch mode {
	case entities.ScoreModeDetailed:
		if len(cmd.Criteria) == 0 {
			return "", fmt.Errorf("%w: detailed scores need criteria", domainerrors.ErrInvalidInput)
		}
	case entities.ScoreModeQuick:
		if cmd.Total == nil || len(cmd.Criteria) > 0 {
			return "", fmt.Errorf("%w: quick scores carry only a total", domainerrors.ErrInvalidInput)
		}
	default:
		return "", fmt.Errorf("%w: unknown score mode %q", domainerrors.ErrInvalidInput, mode)
	}
	return mode, nil
}

func copyCriteria(values map[string]decimal.Decimal) map[string]decimal.Decimal {
	copied := make(map[string]decimal.Decimal, len(values))
	for name, value := range values {
		copied[name] = value
	}
	return copied
}

// criteriaCategory picks the schema key: the entry's declared fish type,
// else the contest's primary fish type.
func criteriaCategory(contest entities.Contest, submission entities.Submission) string {
	if submission.SubCategory != "" {
		return submission.SubCategory
	}
	return contest.PrimaryFishType
}
