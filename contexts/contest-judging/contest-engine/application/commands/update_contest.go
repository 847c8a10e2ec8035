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

// UpdateContestCommand carries optional draft changes; nil fields are kept.
type UpdateContestCommand struct {
	ContestID            string
	Actor                ports.Actor
	Name                 *string
	StartDate            *time.Time
	EndDate              *time.Time
	AllowedSubCategories *[]string
	PrimaryFishType      *string
}

type UpdateContestUseCase struct {
	Contests ports.ContestRepository
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Metrics  ports.Metrics
	Logger   *slog.Logger
}

func (uc UpdateContestUseCase) Execute(ctx context.Context, cmd UpdateContestCommand) (contest entities.Contest, err error) {
	defer func() { application.ObserveOutcome(uc.Metrics, "update_contest", err) }()
	logger := application.ResolveLogger(uc.Logger)
	if err := requireRole(cmd.Actor, ports.ActorRoleManager); err != nil {
		return entities.Contest{}, err
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

	err = uc.Contests.WithinContest(ctx, contestID, func(ctx context.Context, scope ports.ContestScope) error {
		current, err := scope.Contest(ctx)
		if err != nil {
			return err
		}
		if !current.IsEditable() {
			return fmt.Errorf("%w: contest %s is %s, only drafts can be edited",
				domainerrors.ErrInvalidState, contestID, current.Status)
		}
		if cmd.Name != nil {
			current.Name = strings.TrimSpace(*cmd.Name)
		}
		if cmd.StartDate != nil {
			current.StartDate = cmd.StartDate.UTC()
		}
		if cmd.EndDate != nil {
			current.EndDate = cmd.EndDate.UTC()
		}
		if cmd.AllowedSubCategories != nil {
			current.AllowedSubCategories = entities.NormalizeTags(*cmd.AllowedSubCategories)
		}
		if cmd.PrimaryFishType != nil {
			current.PrimaryFishType = entities.NormalizeTag(*cmd.PrimaryFishType)
		}
		if !current.ValidateBasics() {
			return fmt.Errorf("%w: contest needs a name and an ordered date range", domainerrors.ErrInvalidInput)
		}
		current.UpdatedAt = now
		if err := scope.UpdateContest(ctx, current); err != nil {
			return err
		}
		envelope, err := newContestEnvelope(eventID, ports.TopicContestUpdated, contestID, now, map[string]any{
			"contest_id": contestID,
			"name":       current.Name,
		})
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

	logger.Info("contest draft updated",
		"event", "contest_updated",
		"module", "contest-judging/contest-engine",
		"layer", "application",
		"contest_id", contestID,
	)
	return contest, nil
}

type DeleteContestCommand struct {
	ContestID string
	Actor     ports.Actor
}

type DeleteContestUseCase struct {
	Contests ports.ContestRepository
	Metrics  ports.Metrics
	Logger   *slog.Logger
}

func (uc DeleteContestUseCase) Execute(ctx context.Context, cmd DeleteContestCommand) (err error) {
	defer func() { application.ObserveOutcome(uc.Metrics, "delete_contest", err) }()
	logger := application.ResolveLogger(uc.Logger)
	if err := requireRole(cmd.Actor, ports.ActorRoleManager); err != nil {
		return err
	}
	contestID := strings.TrimSpace(cmd.ContestID)
	if contestID == "" {
		return domainerrors.ErrInvalidInput
	}

	err = uc.Contests.WithinContest(ctx, contestID, func(ctx context.Context, scope ports.ContestScope) error {
		current, err := scope.Contest(ctx)
		if err != nil {
			return err
		}
		if current.Status != entities.ContestStatusDraft {
			return fmt.Errorf("%w: contest %s is %s, only drafts can be deleted",
				domainerrors.ErrInvalidState, contestID, current.Status)
		}
		return scope.DeleteContest(ctx)
	})
	if err != nil {
		return err
	}

	logger.Info("contest draft deleted",
		"event", "contest_deleted",
		"module", "contest-judging/contest-engine",
		"layer", "application",
		"contest_id", contestID,
		"actor_id", cmd.Actor.UserID,
	)
	return nil
}
