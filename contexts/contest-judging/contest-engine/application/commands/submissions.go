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

const maxDisplayNameLength = 200

type SubmitEntryCommand struct {
	ContestID   string
	Actor       ports.Actor
	DisplayName string
	SubCategory string
	MediaRefs   []string
}

type SubmitEntryUseCase struct {
	Contests ports.ContestRepository
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Metrics  ports.Metrics
	Logger   *slog.Logger
}

func (uc SubmitEntryUseCase) Execute(ctx context.Context, cmd SubmitEntryCommand) (submission entities.Submission, err error) {
	defer func() { application.ObserveOutcome(uc.Metrics, "submit", err) }()
	logger := application.ResolveLogger(uc.Logger)
	if err := requireRole(cmd.Actor, ports.ActorRoleEntrant); err != nil {
		return entities.Submission{}, err
	}
	contestID := strings.TrimSpace(cmd.ContestID)
	displayName := strings.TrimSpace(cmd.DisplayName)
	if contestID == "" || displayName == "" || len(displayName) > maxDisplayNameLength {
		return entities.Submission{}, fmt.Errorf("%w: contest id and display name are required", domainerrors.ErrInvalidInput)
	}
	mediaRefs := make([]string, 0, len(cmd.MediaRefs))
	for _, ref := range cmd.MediaRefs {
		if trimmed := strings.TrimSpace(ref); trimmed != "" {
			mediaRefs = append(mediaRefs, trimmed)
		}
	}

	submissionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Submission{}, err
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Submission{}, err
	}
	now := uc.Clock.Now().UTC()

	err = uc.Contests.WithinContest(ctx, contestID, func(ctx context.Context, scope ports.ContestScope) error {
		contest, err := scope.Contest(ctx)
		if err != nil {
			return err
		}
		if contest.Status != entities.ContestStatusOngoing {
			return fmt.Errorf("%w: contest %s is %s, submissions require ongoing",
				domainerrors.ErrInvalidState, contestID, contest.Status)
		}
		subCategory := entities.NormalizeTag(cmd.SubCategory)
		if !contest.AcceptsSubCategory(subCategory) {
			return fmt.Errorf("%w: sub-category %q is not allowed in contest %s",
				domainerrors.ErrInvalidInput, subCategory, contestID)
		}

		created := entities.Submission{
			SubmissionID: submissionID,
			ContestID:    contestID,
			EntrantID:    strings.TrimSpace(cmd.Actor.UserID),
			DisplayName:  displayName,
			SubCategory:  subCategory,
			MediaRefs:    mediaRefs,
			Status:       entities.SubmissionStatusPending,
			SubmittedAt:  now,
			UpdatedAt:    now,
		}
		if err := scope.CreateSubmission(ctx, created); err != nil {
			return err
		}
		envelope, err := newContestEnvelope(eventID, ports.TopicSubmissionCreated, contestID, now, map[string]any{
			"submission_id": created.SubmissionID,
			"contest_id":    contestID,
			"entrant_id":    created.EntrantID,
			"display_name":  created.DisplayName,
			"sub_category":  created.SubCategory,
		})
		if err != nil {
			return err
		}
		if err := scope.AppendOutbox(ctx, envelope); err != nil {
			return err
		}
		submission = created
		return nil
	})
	if err != nil {
		return entities.Submission{}, err
	}

	logger.Info("submission created",
		"event", "contest_submission_created",
		"module", "contest-judging/contest-engine",
		"layer", "application",
		"contest_id", contestID,
		"submission_id", submission.SubmissionID,
		"entrant_id", submission.EntrantID,
	)
	return submission, nil
}

type DecideSubmissionCommand struct {
	SubmissionID string
	Actor        ports.Actor
	Decision     entities.SubmissionStatus
	Reason       string
}

type DecideSubmissionUseCase struct {
	Contests ports.ContestRepository
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Metrics  ports.Metrics
	Logger   *slog.Logger
}

func (uc DecideSubmissionUseCase) Execute(ctx context.Context, cmd DecideSubmissionCommand) (submission entities.Submission, err error) {
	defer func() { application.ObserveOutcome(uc.Metrics, "decide", err) }()
	logger := application.ResolveLogger(uc.Logger)
	if err := requireRole(cmd.Actor, ports.ActorRoleManager); err != nil {
		return entities.Submission{}, err
	}
	if cmd.Decision != entities.SubmissionStatusApproved && cmd.Decision != entities.SubmissionStatusRejected {
		return entities.Submission{}, fmt.Errorf("%w: decision must be approved or rejected", domainerrors.ErrInvalidInput)
	}
	reason := strings.TrimSpace(cmd.Reason)
	if cmd.Decision == entities.SubmissionStatusRejected && reason == "" {
		return entities.Submission{}, fmt.Errorf("%w: rejection reason is required", domainerrors.ErrInvalidInput)
	}
	if cmd.Decision == entities.SubmissionStatusApproved {
		reason = ""
	}

	submissionID := strings.TrimSpace(cmd.SubmissionID)
	existing, err := uc.Contests.GetSubmission(ctx, submissionID)
	if err != nil {
		return entities.Submission{}, err
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Submission{}, err
	}
	now := uc.Clock.Now().UTC()

	err = uc.Contests.WithinContest(ctx, existing.ContestID, func(ctx context.Context, scope ports.ContestScope) error {
		contest, err := scope.Contest(ctx)
		if err != nil {
			return err
		}
		if contest.Status != entities.ContestStatusOngoing && contest.Status != entities.ContestStatusClosed {
			return fmt.Errorf("%w: contest %s is %s, decisions require ongoing or closed",
				domainerrors.ErrInvalidState, contest.ContestID, contest.Status)
		}
		current, err := scope.GetSubmission(ctx, submissionID)
		if err != nil {
			return err
		}
		if !entities.CanDecide(current.Status, cmd.Decision) {
			return fmt.Errorf("%w: submission %s %s -> %s",
				domainerrors.ErrInvalidTransition, submissionID, current.Status, cmd.Decision)
		}

		current.Status = cmd.Decision
		current.RejectionReason = reason
		current.DecidedBy = strings.TrimSpace(cmd.Actor.UserID)
		current.DecidedAt = &now
		current.UpdatedAt = now
		if err := scope.UpdateSubmission(ctx, current); err != nil {
			return err
		}
		envelope, err := newContestEnvelope(eventID, ports.TopicSubmissionDecided, contest.ContestID, now, map[string]any{
			"submission_id": current.SubmissionID,
			"contest_id":    contest.ContestID,
			"contest_name":  contest.Name,
			"entrant_id":    current.EntrantID,
			"display_name":  current.DisplayName,
			"decision":      string(current.Status),
			"reason":        current.RejectionReason,
		})
		if err != nil {
			return err
		}
		if err := scope.AppendOutbox(ctx, envelope); err != nil {
			return err
		}
		submission = current
		return nil
	})
	if err != nil {
		return entities.Submission{}, err
	}

	logger.Info("submission decided",
		"event", "contest_submission_decided",
		"module", "contest-judging/contest-engine",
		"layer", "application",
		"contest_id", submission.ContestID,
		"submission_id", submission.SubmissionID,
		"decision", string(submission.Status),
	)
	return submission, nil
}
