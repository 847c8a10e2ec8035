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

type CreateContestCommand struct {
	Actor                ports.Actor
	Name                 string
	Category             entities.ContestCategory
	StartDate            time.Time
	EndDate              time.Time
	AllowedSubCategories []string
	PrimaryFishType      string
}

type CreateContestUseCase struct {
	Contests ports.ContestRepository
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Metrics  ports.Metrics
	Logger   *slog.Logger
}

func (uc CreateContestUseCase) Execute(ctx context.Context, cmd CreateContestCommand) (contest entities.Contest, err error) {
	defer func() { application.ObserveOutcome(uc.Metrics, "create_contest", err) }()
	logger := application.ResolveLogger(uc.Logger)
	if err := requireRole(cmd.Actor, ports.ActorRoleManager); err != nil {
		return entities.Contest{}, err
	}

	category := cmd.Category
	if category == "" {
		category = entities.ContestCategoryContest
	}
	now := uc.Clock.Now().UTC()
	contestID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Contest{}, err
	}
	contest = entities.Contest{
		ContestID:            contestID,
		Name:                 strings.TrimSpace(cmd.Name),
		Category:             category,
		Status:               entities.ContestStatusDraft,
		StartDate:            cmd.StartDate.UTC(),
		EndDate:              cmd.EndDate.UTC(),
		AllowedSubCategories: entities.NormalizeTags(cmd.AllowedSubCategories),
		PrimaryFishType:      entities.NormalizeTag(cmd.PrimaryFishType),
		JudgeQuota:           entities.JudgeQuota,
		ManagerID:            strings.TrimSpace(cmd.Actor.UserID),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if !contest.ValidateBasics() {
		return entities.Contest{}, fmt.Errorf("%w: contest needs a name, category %q and an ordered date range",
			domainerrors.ErrInvalidInput, entities.ContestCategoryContest)
	}

	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Contest{}, err
	}
	envelope, err := newContestEnvelope(eventID, ports.TopicContestCreated, contest.ContestID, now, map[string]any{
		"contest_id": contest.ContestID,
		"name":       contest.Name,
		"manager_id": contest.ManagerID,
		"start_date": formatTime(contest.StartDate),
		"end_date":   formatTime(contest.EndDate),
	})
	if err != nil {
		return entities.Contest{}, err
	}
	if err := uc.Contests.CreateContest(ctx, contest, envelope); err != nil {
		return entities.Contest{}, err
	}

	logger.Info("contest created",
		"event", "contest_created",
		"module", "contest-judging/contest-engine",
		"layer", "application",
		"contest_id", contest.ContestID,
		"manager_id", contest.ManagerID,
	)
	return contest, nil
}
