//go:build integration

package postgresadapter_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	contestengine "aquajudge/contexts/contest-judging/contest-engine"
	postgresadapter "aquajudge/contexts/contest-judging/contest-engine/adapters/postgres"
	"aquajudge/contexts/contest-judging/contest-engine/application/commands"
	"aquajudge/contexts/contest-judging/contest-engine/domain/entities"
	domainerrors "aquajudge/contexts/contest-judging/contest-engine/domain/errors"
	"aquajudge/contexts/contest-judging/contest-engine/ports"
	"aquajudge/internal/testutil/testdb"

	"github.com/shopspring/decimal"
)

var (
	manager = ports.Actor{UserID: "manager-1", Role: ports.ActorRoleManager}
	entrant = ports.Actor{UserID: "entrant-1", Role: ports.ActorRoleEntrant}
)

func TestRepositoryContestLifecycle(t *testing.T) {
	ctx := context.Background()
	handle, err := testdb.Start(ctx)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	defer handle.Close()

	repo := postgresadapter.NewRepository(handle.Postgres.DB, nil)
	module := contestengine.NewModule(contestengine.Dependencies{
		Contests: repo,
		Judges:   repo,
		Clock:    postgresadapter.SystemClock{},
		IDGen:    postgresadapter.UUIDGenerator{},
	})
	h := module.Handler

	contest, err := h.CreateContest.Execute(ctx, commands.CreateContestCommand{
		Actor:     manager,
		Name:      "Winter Guppy Cup",
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create contest: %v", err)
	}
	if _, err := h.ChangeStatus.Execute(ctx, commands.ChangeStatusCommand{
		ContestID: contest.ContestID, Actor: manager, Action: commands.ContestActionPublish,
	}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	submission, err := h.SubmitEntry.Execute(ctx, commands.SubmitEntryCommand{
		ContestID: contest.ContestID, Actor: entrant, DisplayName: "Red Cobra",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := h.DecideSubmission.Execute(ctx, commands.DecideSubmissionCommand{
		SubmissionID: submission.SubmissionID, Actor: manager, Decision: entities.SubmissionStatusApproved,
	}); err != nil {
		t.Fatalf("approve: %v", err)
	}

	judges := []string{"judge-1", "judge-2", "judge-3", "judge-4"}
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		accepted  []entities.JudgeAssignment
		quotaHits int
	)
	for _, judgeID := range judges {
		wg.Add(1)
		go func(judgeID string) {
			defer wg.Done()
			assignment, err := h.InviteJudge.Execute(ctx, commands.InviteJudgeCommand{
				ContestID: contest.ContestID, JudgeID: judgeID, Actor: manager,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted = append(accepted, assignment)
			case errors.Is(err, domainerrors.ErrQuotaExceeded):
				quotaHits++
			default:
				t.Errorf("invite %s: %v", judgeID, err)
			}
		}(judgeID)
	}
	wg.Wait()
	if len(accepted) != entities.JudgeQuota || quotaHits != 1 {
		t.Fatalf("expected %d invites and 1 quota rejection, got %d and %d", entities.JudgeQuota, len(accepted), quotaHits)
	}

	for _, assignment := range accepted[:2] {
		if _, err := h.RespondAssignment.Execute(ctx, commands.RespondAssignmentCommand{
			AssignmentID: assignment.AssignmentID,
			Actor:        ports.Actor{UserID: assignment.JudgeID, Role: ports.ActorRoleExpert},
			Decision:     entities.AssignmentStatusAccepted,
		}); err != nil {
			t.Fatalf("accept %s: %v", assignment.JudgeID, err)
		}
	}
	for _, action := range []commands.ContestAction{commands.ContestActionCloseRegistration, commands.ContestActionOpenJudging} {
		if _, err := h.ChangeStatus.Execute(ctx, commands.ChangeStatusCommand{
			ContestID: contest.ContestID, Actor: manager, Action: action,
		}); err != nil {
			t.Fatalf("%s: %v", action, err)
		}
	}

	totals := []string{"80", "90"}
	for i, assignment := range accepted[:2] {
		total := decimal.RequireFromString(totals[i])
		if _, err := h.RecordScore.Execute(ctx, commands.RecordScoreCommand{
			SubmissionID: submission.SubmissionID,
			Actor:        ports.Actor{UserID: assignment.JudgeID, Role: ports.ActorRoleExpert},
			Mode:         entities.ScoreModeQuick,
			Total:        &total,
		}); err != nil {
			t.Fatalf("score by %s: %v", assignment.JudgeID, err)
		}
	}
	again := decimal.NewFromInt(10)
	_, err = h.RecordScore.Execute(ctx, commands.RecordScoreCommand{
		SubmissionID: submission.SubmissionID,
		Actor:        ports.Actor{UserID: accepted[0].JudgeID, Role: ports.ActorRoleExpert},
		Mode:         entities.ScoreModeQuick,
		Total:        &again,
	})
	if !errors.Is(err, domainerrors.ErrDuplicateScore) {
		t.Fatalf("expected duplicate score, got %v", err)
	}

	result, err := h.FinalizeContest.Execute(ctx, commands.FinalizeContestCommand{ContestID: contest.ContestID, Actor: manager})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if len(result.Rankings) != 1 || result.Rankings[0].FinalScore.StringFixed(2) != "85.00" {
		t.Fatalf("unexpected rankings: %+v", result.Rankings)
	}

	scores, err := repo.ListScoresBySubmission(ctx, submission.SubmissionID)
	if err != nil {
		t.Fatalf("reload scores: %v", err)
	}
	if len(scores) != 2 || scores[0].Criteria != nil || scores[1].Criteria != nil {
		t.Fatalf("expected two quick scores without criteria, got %+v", scores)
	}

	stored, err := repo.GetSubmission(ctx, submission.SubmissionID)
	if err != nil {
		t.Fatalf("reload submission: %v", err)
	}
	if stored.FinalScore == nil || stored.FinalScore.StringFixed(2) != "85.00" {
		t.Fatalf("final score not persisted: %+v", stored.FinalScore)
	}

	pending, err := repo.ListPendingOutbox(ctx, 100)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	if len(pending) == 0 || pending[0].EventType != ports.TopicContestCreated {
		t.Fatalf("expected outbox to start with contest.created, got %+v", pending)
	}
	if pending[len(pending)-1].EventType != ports.TopicContestFinalized {
		t.Fatalf("expected outbox to end with contest.finalized, got %s", pending[len(pending)-1].EventType)
	}
}

func TestRepositoryReserveEventReclaimsExpiredRows(t *testing.T) {
	ctx := context.Background()
	handle, err := testdb.Start(ctx)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	defer handle.Close()

	repo := postgresadapter.NewRepository(handle.Postgres.DB, nil)
	past := time.Now().UTC().Add(-time.Minute)
	future := time.Now().UTC().Add(time.Hour)

	seen, err := repo.ReserveEvent(ctx, "evt-expired", "hash-a", past)
	if err != nil || seen {
		t.Fatalf("first reserve: seen=%v err=%v", seen, err)
	}
	seen, err = repo.ReserveEvent(ctx, "evt-expired", "hash-b", future)
	if err != nil || seen {
		t.Fatalf("expected expired reservation to be reclaimed, seen=%v err=%v", seen, err)
	}
	seen, err = repo.ReserveEvent(ctx, "evt-expired", "hash-b", future)
	if err != nil || !seen {
		t.Fatalf("expected live reservation to report seen, seen=%v err=%v", seen, err)
	}
	if _, err := repo.ReserveEvent(ctx, "evt-expired", "hash-c", future); !errors.Is(err, domainerrors.ErrConstraintViolation) {
		t.Fatalf("expected payload mismatch on live reservation, got %v", err)
	}
}
