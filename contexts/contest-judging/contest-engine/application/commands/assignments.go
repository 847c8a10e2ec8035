package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	application "aquajudge/contexts/contest-judging/contest-engine/application"
	"aquajudge/contexts/contest-judging/contest-engine/domain/entities"
	domainerrors "aquajudge/contexts/contest-judging/contest-engine/domain/errors"
	"aquajudge/contexts/contest-judging/contest-engine/ports"
)

type InviteJudgeCommand struct {
	ContestID string
	JudgeID   string
	Actor     ports.Actor
}

type InviteJudgeUseCase struct {
	Contests ports.ContestRepository
	Judges   ports.JudgeDirectory
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Metrics  ports.Metrics
	Logger   *slog.Logger
}

// Execute invites a judge. Active-assignment counting and the write happen
// inside one contest scope, so concurrent invites cannot overshoot the quota.
// A judge who declined earlier is re-invited on the same record.
func (uc InviteJudgeUseCase) Execute(ctx context.Context, cmd InviteJudgeCommand) (assignment entities.JudgeAssignment, err error) {
	defer func() { application.ObserveOutcome(uc.Metrics, "invite", err) }()
	logger := application.ResolveLogger(uc.Logger)
	if err := requireRole(cmd.Actor, ports.ActorRoleManager); err != nil {
		return entities.JudgeAssignment{}, err
	}
	contestID := strings.TrimSpace(cmd.ContestID)
	judgeID := strings.TrimSpace(cmd.JudgeID)
	if contestID == "" || judgeID == "" {
		return entities.JudgeAssignment{}, fmt.Errorf("%w: contest id and judge id are required", domainerrors.ErrInvalidInput)
	}

	profile, err := uc.Judges.GetJudgeProfile(ctx, judgeID)
	hasProfile := err == nil
	if err != nil && !errors.Is(err, domainerrors.ErrJudgeNotFound) {
		return entities.JudgeAssignment{}, err
	}
	assignmentID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.JudgeAssignment{}, err
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.JudgeAssignment{}, err
	}
	now := uc.Clock.Now().UTC()

	err = uc.Contests.WithinContest(ctx, contestID, func(ctx context.Context, scope ports.ContestScope) error {
		contest, err := scope.Contest(ctx)
		if err != nil {
			return err
		}
		if contest.IsTerminal() {
			return fmt.Errorf("%w: contest %s is %s", domainerrors.ErrInvalidState, contestID, contest.Status)
		}
		assignments, err := scope.ListAssignments(ctx)
		if err != nil {
			return err
		}

		var previous *entities.JudgeAssignment
		for i := range assignments {
			if assignments[i].JudgeID != judgeID {
				continue
			}
			if assignments[i].Status != entities.AssignmentStatusDeclined {
				return fmt.Errorf("%w: judge %s is %s in contest %s",
					domainerrors.ErrAlreadyAssigned, judgeID, assignments[i].Status, contestID)
			}
			previous = &assignments[i]
		}
		if active := entities.CountActiveAssignments(assignments); active >= contest.EffectiveJudgeQuota() {
			return fmt.Errorf("%w: contest %s already has %d of %d judges",
				domainerrors.ErrQuotaExceeded, contestID, active, contest.EffectiveJudgeQuota())
		}
		if len(contest.EligibilityTags()) > 0 && (!hasProfile || !profile.EligibleFor(contest)) {
			return fmt.Errorf("%w: judge %s for contest %s (%s)",
				domainerrors.ErrNotEligible, judgeID, contestID, strings.Join(contest.EligibilityTags(), ","))
		}

		next := entities.JudgeAssignment{
			AssignmentID: assignmentID,
			ContestID:    contestID,
			JudgeID:      judgeID,
			InvitedBy:    strings.TrimSpace(cmd.Actor.UserID),
			Status:       entities.AssignmentStatusPending,
			InvitedAt:    now,
			UpdatedAt:    now,
		}
		if previous != nil {
			next.AssignmentID = previous.AssignmentID
			if err := scope.UpdateAssignment(ctx, next); err != nil {
				return err
			}
		} else if err := scope.CreateAssignment(ctx, next); err != nil {
			return err
		}

		envelope, err := newContestEnvelope(eventID, ports.TopicJudgeInvited, contestID, now, map[string]any{
			"assignment_id": next.AssignmentID,
			"contest_id":    contestID,
			"contest_name":  contest.Name,
			"judge_id":      judgeID,
			"reinvited":     previous != nil,
		})
		if err != nil {
			return err
		}
		if err := scope.AppendOutbox(ctx, envelope); err != nil {
			return err
		}
		assignment = next
		return nil
	})
	if err != nil {
		return entities.JudgeAssignment{}, err
	}

	logger.Info("judge invited",
		"event", "contest_judge_invited",
		"module", "contest-judging/contest-engine",
		"layer", "application",
		"contest_id", contestID,
		"judge_id", judgeID,
		"assignment_id", assignment.AssignmentID,
	)
	return assignment, nil
}

type RespondAssignmentCommand struct {
	AssignmentID string
	Actor        ports.Actor
	Decision     entities.AssignmentStatus
}

type RespondAssignmentUseCase struct {
	Contests ports.ContestRepository
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Metrics  ports.Metrics
	Logger   *slog.Logger
}

func (uc RespondAssignmentUseCase) Execute(ctx context.Context, cmd RespondAssignmentCommand) (assignment entities.JudgeAssignment, err error) {
	defer func() { application.ObserveOutcome(uc.Metrics, "respond", err) }()
	logger := application.ResolveLogger(uc.Logger)
	if err := requireRole(cmd.Actor, ports.ActorRoleExpert); err != nil {
		return entities.JudgeAssignment{}, err
	}
	if cmd.Decision != entities.AssignmentStatusAccepted && cmd.Decision != entities.AssignmentStatusDeclined {
		return entities.JudgeAssignment{}, fmt.Errorf("%w: decision must be accepted or declined", domainerrors.ErrInvalidInput)
	}
	assignmentID := strings.TrimSpace(cmd.AssignmentID)
	existing, err := uc.Contests.GetAssignment(ctx, assignmentID)
	if err != nil {
		return entities.JudgeAssignment{}, err
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.JudgeAssignment{}, err
	}
	now := uc.Clock.Now().UTC()

	err = uc.Contests.WithinContest(ctx, existing.ContestID, func(ctx context.Context, scope ports.ContestScope) error {
		contest, err := scope.Contest(ctx)
		if err != nil {
			return err
		}
		assignments, err := scope.ListAssignments(ctx)
		if err != nil {
			return err
		}
		current, found := findAssignment(assignments, func(item entities.JudgeAssignment) bool {
			return item.AssignmentID == assignmentID
		})
		if !found {
			return fmt.Errorf("%w: %s", domainerrors.ErrAssignmentNotFound, assignmentID)
		}
		if current.JudgeID != strings.TrimSpace(cmd.Actor.UserID) {
			return fmt.Errorf("%w: assignment %s belongs to another judge", domainerrors.ErrNotAuthorized, assignmentID)
		}
		if contest.IsTerminal() {
			return fmt.Errorf("%w: contest %s is %s", domainerrors.ErrInvalidState, contest.ContestID, contest.Status)
		}
		if !entities.CanRespond(current.Status, cmd.Decision) {
			return fmt.Errorf("%w: assignment %s %s -> %s",
				domainerrors.ErrInvalidTransition, assignmentID, current.Status, cmd.Decision)
		}

		current.Status = cmd.Decision
		current.RespondedAt = &now
		current.UpdatedAt = now
		if err := scope.UpdateAssignment(ctx, current); err != nil {
			return err
		}
		envelope, err := newContestEnvelope(eventID, ports.TopicJudgeResponded, contest.ContestID, now, map[string]any{
			"assignment_id": current.AssignmentID,
			"contest_id":    contest.ContestID,
			"contest_name":  contest.Name,
			"judge_id":      current.JudgeID,
			"decision":      string(current.Status),
		})
		if err != nil {
			return err
		}
		if err := scope.AppendOutbox(ctx, envelope); err != nil {
			return err
		}
		assignment = current
		return nil
	})
	if err != nil {
		return entities.JudgeAssignment{}, err
	}

	logger.Info("judge responded to invitation",
		"event", "contest_judge_responded",
		"module", "contest-judging/contest-engine",
		"layer", "application",
		"contest_id", assignment.ContestID,
		"assignment_id", assignment.AssignmentID,
		"decision", string(assignment.Status),
	)
	return assignment, nil
}

type RemoveJudgeCommand struct {
	ContestID string
	JudgeID   string
	Actor     ports.Actor
}

type RemoveJudgeUseCase struct {
	Contests ports.ContestRepository
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Metrics  ports.Metrics
	Logger   *slog.Logger
}

func (uc RemoveJudgeUseCase) Execute(ctx context.Context, cmd RemoveJudgeCommand) (err error) {
	defer func() { application.ObserveOutcome(uc.Metrics, "remove_judge", err) }()
	logger := application.ResolveLogger(uc.Logger)
	if err := requireRole(cmd.Actor, ports.ActorRoleManager); err != nil {
		return err
	}
	contestID := strings.TrimSpace(cmd.ContestID)
	judgeID := strings.TrimSpace(cmd.JudgeID)
	if contestID == "" || judgeID == "" {
		return fmt.Errorf("%w: contest id and judge id are required", domainerrors.ErrInvalidInput)
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	now := uc.Clock.Now().UTC()

	err = uc.Contests.WithinContest(ctx, contestID, func(ctx context.Context, scope ports.ContestScope) error {
		contest, err := scope.Contest(ctx)
		if err != nil {
			return err
		}
		if contest.AssignmentsLocked() {
			return fmt.Errorf("%w: contest %s is %s, judges can no longer be removed",
				domainerrors.ErrInvalidState, contestID, contest.Status)
		}
		assignments, err := scope.ListAssignments(ctx)
		if err != nil {
			return err
		}
		current, found := findAssignment(assignments, func(item entities.JudgeAssignment) bool {
			return item.JudgeID == judgeID
		})
		if !found {
			return fmt.Errorf("%w: judge %s in contest %s", domainerrors.ErrAssignmentNotFound, judgeID, contestID)
		}
		if err := scope.DeleteAssignment(ctx, current.AssignmentID); err != nil {
			return err
		}
		envelope, err := newContestEnvelope(eventID, ports.TopicJudgeRemoved, contestID, now, map[string]any{
			"assignment_id": current.AssignmentID,
			"contest_id":    contestID,
			"judge_id":      judgeID,
		})
		if err != nil {
			return err
		}
		return scope.AppendOutbox(ctx, envelope)
	})
	if err != nil {
		return err
	}

	logger.Info("judge removed from contest",
		"event", "contest_judge_removed",
		"module", "contest-judging/contest-engine",
		"layer", "application",
		"contest_id", contestID,
		"judge_id", judgeID,
	)
	return nil
}

type RegisterJudgeCommand struct {
	Actor          ports.Actor
	JudgeID        string
	DisplayName    string
	Specialties    []string
	TelegramChatID int64
}

type RegisterJudgeUseCase struct {
	Judges ports.JudgeDirectory
	Clock  ports.Clock
	Logger *slog.Logger
}

// Execute upserts a judge profile. Managers maintain the roster; an expert may
// maintain only their own profile.
func (uc RegisterJudgeUseCase) Execute(ctx context.Context, cmd RegisterJudgeCommand) (entities.JudgeProfile, error) {
	logger := application.ResolveLogger(uc.Logger)
	judgeID := strings.TrimSpace(cmd.JudgeID)
	if judgeID == "" {
		return entities.JudgeProfile{}, fmt.Errorf("%w: judge id is required", domainerrors.ErrInvalidInput)
	}
	selfService := cmd.Actor.Role == ports.ActorRoleExpert && strings.TrimSpace(cmd.Actor.UserID) == judgeID
	if !selfService {
		if err := requireRole(cmd.Actor, ports.ActorRoleManager); err != nil {
			return entities.JudgeProfile{}, err
		}
	}

	profile := entities.JudgeProfile{
		JudgeID:        judgeID,
		DisplayName:    strings.TrimSpace(cmd.DisplayName),
		Specialties:    entities.NormalizeTags(cmd.Specialties),
		TelegramChatID: cmd.TelegramChatID,
		UpdatedAt:      uc.Clock.Now().UTC(),
	}
	if err := uc.Judges.UpsertJudgeProfile(ctx, profile); err != nil {
		return entities.JudgeProfile{}, err
	}

	logger.Info("judge profile registered",
		"event", "contest_judge_profile_registered",
		"module", "contest-judging/contest-engine",
		"layer", "application",
		"judge_id", judgeID,
		"specialty_count", len(profile.Specialties),
	)
	return profile, nil
}

func findAssignment(
	assignments []entities.JudgeAssignment,
	match func(entities.JudgeAssignment) bool,
) (entities.JudgeAssignment, bool) {
	for _, item := range assignments {
		if match(item) {
			return item, true
		}
	}
	return entities.JudgeAssignment{}, false
}
