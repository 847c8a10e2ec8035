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
)

type ContestAction string

const (
	ContestActionPublish           ContestAction = "publish"
	ContestActionCloseRegistration ContestAction = "close_registration"
	ContestActionOpenJudging       ContestAction = "open_judging"
	ContestActionCancel            ContestAction = "cancel"
)

type ChangeStatusCommand struct {
	ContestID string
	Actor     ports.Actor
	Action    ContestAction
	Reason    string
}

// ChangeStatusUseCase drives every lifecycle edge except finalize, which
// lives in FinalizeContestUseCase because it also writes final scores.
type ChangeStatusUseCase struct {
	Contests ports.ContestRepository
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Metrics  ports.Metrics
	Logger   *slog.Logger
}

func actionTarget(action ContestAction) (entities.ContestStatus, string, bool) {
	switch action {
	case ContestActionPublish:
		return entities.ContestStatusOngoing, ports.TopicContestPublished, true
	case ContestActionCloseRegistration:
		return entities.ContestStatusClosed, ports.TopicContestRegistrationClosed, true
	case ContestActionOpenJudging:
		return entities.ContestStatusJudging, ports.TopicContestJudgingOpened, true
	case ContestActionCancel:
		return entities.ContestStatusCancelled, ports.TopicContestCancelled, true
	default:
		return "", "", false
	}
}

func (uc ChangeStatusUseCase) Execute(ctx context.Context, cmd ChangeStatusCommand) (contest entities.Contest, err error) {
	defer func() { application.ObserveOutcome(uc.Metrics, string(cmd.Action), err) }()
	logger := application.ResolveLogger(uc.Logger)
	if err := requireRole(cmd.Actor, ports.ActorRoleManager); err != nil {
		return entities.Contest{}, err
	}
	target, topic, ok := actionTarget(cmd.Action)
	if !ok {
		return entities.Contest{}, fmt.Errorf("%w: unknown contest action %q", domainerrors.ErrInvalidInput, cmd.Action)
	}
	contestID := strings.TrimSpace(cmd.ContestID)
	if contestID == "" {
		return entities.Contest{}, domainerrors.ErrInvalidInput
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Contest{}, err
	}
	now := uc.Clock.Now().UTC()

	var from entities.ContestStatus
	err = uc.Contests.WithinContest(ctx, contestID, func(ctx context.Context, scope ports.ContestScope) error {
		current, err := scope.Contest(ctx)
		if err != nil {
			return err
		}
		from = current.Status
		if !entities.CanTransition(current.Status, target) {
			return fmt.Errorf("%w: contest %s %s -> %s",
				domainerrors.ErrInvalidTransition, contestID, current.Status, target)
		}

		data := map[string]any{
			"contest_id":   contestID,
			"contest_name": current.Name,
			"from_status":  string(from),
			"to_status":    string(target),
		}
		switch target {
		case entities.ContestStatusOngoing:
			current.PublishedAt = &now
		case entities.ContestStatusClosed:
			submissions, err := scope.ListSubmissions(ctx)
			if err != nil {
				return err
			}
			approved := entities.CountApproved(submissions)
			if approved == 0 {
				return fmt.Errorf("%w: contest %s has no approved submissions",
					domainerrors.ErrPreconditionFailed, contestID)
			}
			data["approved_submissions"] = approved
		case entities.ContestStatusJudging:
			assignments, err := scope.ListAssignments(ctx)
			if err != nil {
				return err
			}
			accepted := entities.CountAcceptedAssignments(assignments)
			if accepted == 0 {
				return fmt.Errorf("%w: contest %s has no accepted judges",
					domainerrors.ErrPreconditionFailed, contestID)
			}
			data["accepted_judges"] = accepted
		case entities.ContestStatusCancelled:
			current.CancelledAt = &now
			current.CancelReason = strings.TrimSpace(cmd.Reason)
			data["reason"] = current.CancelReason
		}

		current.Status = target
		current.UpdatedAt = now
		if err := scope.UpdateContest(ctx, current); err != nil {
			return err
		}
		envelope, err := newContestEnvelope(eventID, topic, contestID, now, data)
		if err != nil {
			return err
		}
		if err := scope.AppendOutbox(ctx, envelope); err != nil {
			return err
		}
		contest = current
		return nil
	})
	if err != nil {
		return entities.Contest{}, err
	}

	application.ResolveMetrics(uc.Metrics).ObserveTransition(from, target)
	logger.Info("contest state changed",
		"event", "contest_state_changed",
		"module", "contest-judging/contest-engine",
		"layer", "application",
		"contest_id", contestID,
		"actor_id", cmd.Actor.UserID,
		"from_status", string(from),
		"to_status", string(target),
	)
	return contest, nil
}
