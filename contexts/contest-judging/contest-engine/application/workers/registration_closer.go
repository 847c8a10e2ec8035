package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	application "aquajudge/contexts/contest-judging/contest-engine/application"
	"aquajudge/contexts/contest-judging/contest-engine/application/commands"
	"aquajudge/contexts/contest-judging/contest-engine/domain/entities"
	domainerrors "aquajudge/contexts/contest-judging/contest-engine/domain/errors"
	"aquajudge/contexts/contest-judging/contest-engine/ports"
)

// SystemActor is the identity used by scheduled lifecycle jobs.
var SystemActor = ports.Actor{UserID: "system:registration-closer", Role: ports.ActorRoleManager}

// RegistrationCloser closes registration of ongoing contests whose end date
// has passed. Contests without an approved submission stay ongoing until a
// manager decides or cancels.
type RegistrationCloser struct {
	Contests  ports.ContestReader
	Lifecycle commands.ChangeStatusUseCase
	Clock     ports.Clock
	Logger    *slog.Logger
}

func (j RegistrationCloser) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(j.Logger)
	now := time.Now().UTC()
	if j.Clock != nil {
		now = j.Clock.Now().UTC()
	}

	ongoing, err := j.Contests.ListContests(ctx, ports.ContestFilter{Status: entities.ContestStatusOngoing})
	if err != nil {
		logger.Error("registration close sweep failed",
			"event", "contest_registration_close_sweep_failed",
			"module", "contest-judging/contest-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	closed := 0
	for _, contest := range ongoing {
		if contest.EndDate.IsZero() || contest.EndDate.After(now) {
			continue
		}
		_, err := j.Lifecycle.Execute(ctx, commands.ChangeStatusCommand{
			ContestID: contest.ContestID,
			Actor:     SystemActor,
			Action:    commands.ContestActionCloseRegistration,
		})
		switch {
		case err == nil:
			closed++
		case errors.Is(err, domainerrors.ErrPreconditionFailed), errors.Is(err, domainerrors.ErrInvalidTransition):
			logger.Info("registration close skipped",
				"event", "contest_registration_close_skipped",
				"module", "contest-judging/contest-engine",
				"layer", "worker",
				"contest_id", contest.ContestID,
				"reason", err.Error(),
			)
		default:
			logger.Error("registration close failed",
				"event", "contest_registration_close_failed",
				"module", "contest-judging/contest-engine",
				"layer", "worker",
				"contest_id", contest.ContestID,
				"error", err.Error(),
			)
			return err
		}
	}
	if closed > 0 {
		logger.Info("registration close sweep completed",
			"event", "contest_registration_close_completed",
			"module", "contest-judging/contest-engine",
			"layer", "worker",
			"closed_count", closed,
		)
	}
	return nil
}
