package memory

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"aquajudge/contexts/contest-judging/contest-engine/domain/entities"
	domainerrors "aquajudge/contexts/contest-judging/contest-engine/domain/errors"
	"aquajudge/contexts/contest-judging/contest-engine/ports"

	"github.com/shopspring/decimal"
)

func seedContest(id string, status entities.ContestStatus) entities.Contest {
	return entities.Contest{
		ContestID:  id,
		Name:       "Seeded " + id,
		Category:   entities.ContestCategoryContest,
		Status:     status,
		StartDate:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		JudgeQuota: entities.JudgeQuota,
		ManagerID:  "manager-1",
	}
}

func envelope(eventID string, contestID string, data string) ports.EventEnvelope {
	return ports.EventEnvelope{
		EventID:      eventID,
		EventType:    ports.TopicContestUpdated,
		OccurredAt:   time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		PartitionKey: contestID,
		Data:         json.RawMessage(data),
	}
}

func TestWithinContestDiscardsChangesOnError(t *testing.T) {
	store := NewStore([]entities.Contest{seedContest("c1", entities.ContestStatusOngoing)})
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithinContest(ctx, "c1", func(ctx context.Context, scope ports.ContestScope) error {
		if err := scope.CreateSubmission(ctx, entities.Submission{
			SubmissionID: "s1",
			ContestID:    "c1",
			EntrantID:    "entrant-1",
			DisplayName:  "Entry",
			Status:       entities.SubmissionStatusPending,
		}); err != nil {
			return err
		}
		if err := scope.AppendOutbox(ctx, envelope("e1", "c1", `{}`)); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if _, err := store.GetSubmission(ctx, "s1"); !errors.Is(err, domainerrors.ErrSubmissionNotFound) {
		t.Fatalf("expected staged submission to be discarded, got %v", err)
	}
	pending, err := store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no outbox rows, got %d", len(pending))
	}
}

func TestWithinContestUnknownContest(t *testing.T) {
	store := NewStore(nil)
	err := store.WithinContest(context.Background(), "missing", func(context.Context, ports.ContestScope) error {
		t.Fatal("callback must not run for an unknown contest")
		return nil
	})
	if !errors.Is(err, domainerrors.ErrContestNotFound) {
		t.Fatalf("expected contest not found, got %v", err)
	}
}

func TestScopeIsUnusableAfterCommit(t *testing.T) {
	store := NewStore([]entities.Contest{seedContest("c1", entities.ContestStatusDraft)})
	var leaked ports.ContestScope
	if err := store.WithinContest(context.Background(), "c1", func(_ context.Context, scope ports.ContestScope) error {
		leaked = scope
		return nil
	}); err != nil {
		t.Fatalf("within contest failed: %v", err)
	}
	if _, err := leaked.Contest(context.Background()); !errors.Is(err, domainerrors.ErrConstraintViolation) {
		t.Fatalf("expected constraint violation on committed scope, got %v", err)
	}
}

func TestWithinContestHonoursContextWhileWaiting(t *testing.T) {
	store := NewStore([]entities.Contest{seedContest("c1", entities.ContestStatusDraft)})
	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- store.WithinContest(context.Background(), "c1", func(context.Context, ports.ContestScope) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := store.WithinContest(ctx, "c1", func(context.Context, ports.ContestScope) error {
		t.Fatal("callback must not run while the contest is locked")
		return nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("holder failed: %v", err)
	}
}

func TestScopeGuardsAssignments(t *testing.T) {
	store := NewStore([]entities.Contest{seedContest("c1", entities.ContestStatusOngoing)})
	ctx := context.Background()

	err := store.WithinContest(ctx, "c1", func(ctx context.Context, scope ports.ContestScope) error {
		for _, judgeID := range []string{"j1", "j2", "j3"} {
			if err := scope.CreateAssignment(ctx, entities.JudgeAssignment{
				AssignmentID: "a-" + judgeID,
				ContestID:    "c1",
				JudgeID:      judgeID,
				Status:       entities.AssignmentStatusPending,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seeding assignments failed: %v", err)
	}

	cases := []struct {
		name       string
		assignment entities.JudgeAssignment
		want       error
	}{
		{
			name:       "quota",
			assignment: entities.JudgeAssignment{AssignmentID: "a-j4", ContestID: "c1", JudgeID: "j4", Status: entities.AssignmentStatusPending},
			want:       domainerrors.ErrQuotaExceeded,
		},
		{
			name:       "same judge twice",
			assignment: entities.JudgeAssignment{AssignmentID: "a-dup", ContestID: "c1", JudgeID: "j1", Status: entities.AssignmentStatusDeclined},
			want:       domainerrors.ErrAlreadyAssigned,
		},
		{
			name:       "foreign contest",
			assignment: entities.JudgeAssignment{AssignmentID: "a-x", ContestID: "c2", JudgeID: "j9", Status: entities.AssignmentStatusDeclined},
			want:       domainerrors.ErrConstraintViolation,
		},
		{
			name:       "reused id",
			assignment: entities.JudgeAssignment{AssignmentID: "a-j1", ContestID: "c1", JudgeID: "j9", Status: entities.AssignmentStatusPending},
			want:       domainerrors.ErrConstraintViolation,
		},
	}
	for _, tc := range cases {
		err := store.WithinContest(ctx, "c1", func(ctx context.Context, scope ports.ContestScope) error {
			return scope.CreateAssignment(ctx, tc.assignment)
		})
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	assignments, err := store.ListAssignmentsByContest(ctx, "c1")
	if err != nil {
		t.Fatalf("list assignments failed: %v", err)
	}
	if len(assignments) != 3 {
		t.Fatalf("expected 3 assignments, got %d", len(assignments))
	}
}

func TestScopeGuardsScores(t *testing.T) {
	store := NewStore([]entities.Contest{seedContest("c1", entities.ContestStatusOngoing)})
	ctx := context.Background()

	mustWithin := func(fn func(ctx context.Context, scope ports.ContestScope) error) {
		t.Helper()
		if err := store.WithinContest(ctx, "c1", fn); err != nil {
			t.Fatalf("within contest failed: %v", err)
		}
	}
	mustWithin(func(ctx context.Context, scope ports.ContestScope) error {
		if err := scope.CreateSubmission(ctx, entities.Submission{
			SubmissionID: "s1", ContestID: "c1", EntrantID: "entrant-1", DisplayName: "Entry",
			Status: entities.SubmissionStatusPending,
		}); err != nil {
			return err
		}
		if err := scope.CreateAssignment(ctx, entities.JudgeAssignment{
			AssignmentID: "a1", ContestID: "c1", JudgeID: "j1", Status: entities.AssignmentStatusAccepted,
		}); err != nil {
			return err
		}
		submission, err := scope.GetSubmission(ctx, "s1")
		if err != nil {
			return err
		}
		submission.Status = entities.SubmissionStatusApproved
		return scope.UpdateSubmission(ctx, submission)
	})

	score := entities.Score{
		ScoreID:      "score-1",
		SubmissionID: "s1",
		ContestID:    "c1",
		JudgeID:      "j1",
		Mode:         entities.ScoreModeQuick,
		Total:        decimal.RequireFromString("70"),
	}
	createScore := func(score entities.Score) error {
		return store.WithinContest(ctx, "c1", func(ctx context.Context, scope ports.ContestScope) error {
			return scope.CreateScore(ctx, score)
		})
	}
	if err := createScore(score); !errors.Is(err, domainerrors.ErrConstraintViolation) {
		t.Fatalf("expected constraint violation before judging, got %v", err)
	}

	mustWithin(func(ctx context.Context, scope ports.ContestScope) error {
		contest, err := scope.Contest(ctx)
		if err != nil {
			return err
		}
		contest.Status = entities.ContestStatusClosed
		if err := scope.UpdateContest(ctx, contest); err != nil {
			return err
		}
		contest.Status = entities.ContestStatusJudging
		return scope.UpdateContest(ctx, contest)
	})

	if err := createScore(score); err != nil {
		t.Fatalf("create score failed: %v", err)
	}
	duplicate := score
	duplicate.ScoreID = "score-2"
	if err := createScore(duplicate); !errors.Is(err, domainerrors.ErrDuplicateScore) {
		t.Fatalf("expected duplicate score, got %v", err)
	}
	outsider := score
	outsider.ScoreID = "score-3"
	outsider.JudgeID = "j2"
	if err := createScore(outsider); !errors.Is(err, domainerrors.ErrConstraintViolation) {
		t.Fatalf("expected constraint violation for unassigned judge, got %v", err)
	}

	scores, err := store.ListScoresBySubmission(ctx, "s1")
	if err != nil {
		t.Fatalf("list scores failed: %v", err)
	}
	if len(scores) != 1 || !scores[0].Total.Equal(decimal.NewFromInt(70)) {
		t.Fatalf("unexpected scores %+v", scores)
	}
}

func TestScopeRejectsIllegalContestWrites(t *testing.T) {
	store := NewStore([]entities.Contest{
		seedContest("draft", entities.ContestStatusDraft),
		seedContest("done", entities.ContestStatusFinalized),
	})
	ctx := context.Background()

	err := store.WithinContest(ctx, "draft", func(ctx context.Context, scope ports.ContestScope) error {
		contest, err := scope.Contest(ctx)
		if err != nil {
			return err
		}
		contest.Status = entities.ContestStatusJudging
		return scope.UpdateContest(ctx, contest)
	})
	if !errors.Is(err, domainerrors.ErrConstraintViolation) {
		t.Fatalf("expected constraint violation for draft -> judging, got %v", err)
	}

	err = store.WithinContest(ctx, "done", func(ctx context.Context, scope ports.ContestScope) error {
		contest, err := scope.Contest(ctx)
		if err != nil {
			return err
		}
		contest.Name = "Rewritten"
		return scope.UpdateContest(ctx, contest)
	})
	if !errors.Is(err, domainerrors.ErrConstraintViolation) {
		t.Fatalf("expected constraint violation for finalized contest, got %v", err)
	}

	err = store.WithinContest(ctx, "done", func(ctx context.Context, scope ports.ContestScope) error {
		return scope.DeleteContest(ctx)
	})
	if !errors.Is(err, domainerrors.ErrConstraintViolation) {
		t.Fatalf("expected constraint violation deleting a finalized contest, got %v", err)
	}
}

func TestOutboxOrderingAndPublishing(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	for _, id := range []string{"c1", "c2", "c3"} {
		contest := seedContest(id, entities.ContestStatusDraft)
		if err := store.CreateContest(ctx, contest, envelope("evt-"+id, id, `{"n":1}`)); err != nil {
			t.Fatalf("create %s failed: %v", id, err)
		}
	}
	if err := store.CreateContest(ctx, seedContest("c1", entities.ContestStatusDraft), envelope("evt-x", "c1", `{}`)); !errors.Is(err, domainerrors.ErrConstraintViolation) {
		t.Fatalf("expected constraint violation for duplicate contest, got %v", err)
	}

	pending, err := store.ListPendingOutbox(ctx, 2)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(pending) != 2 || pending[0].OutboxID != "evt-c1" || pending[1].OutboxID != "evt-c2" {
		t.Fatalf("expected first two events in insertion order, got %+v", pending)
	}
	if err := store.MarkOutboxPublished(ctx, "evt-c1", time.Now()); err != nil {
		t.Fatalf("mark published failed: %v", err)
	}
	pending, err = store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(pending) != 2 || pending[0].OutboxID != "evt-c2" {
		t.Fatalf("expected published row to be skipped, got %+v", pending)
	}
	if err := store.MarkOutboxPublished(ctx, "missing", time.Now()); !errors.Is(err, domainerrors.ErrConstraintViolation) {
		t.Fatalf("expected constraint violation for unknown row, got %v", err)
	}

	err = store.WithinContest(ctx, "c2", func(ctx context.Context, scope ports.ContestScope) error {
		return scope.AppendOutbox(ctx, envelope("evt-c2", "c2", `{"n":2}`))
	})
	if !errors.Is(err, domainerrors.ErrConstraintViolation) {
		t.Fatalf("expected constraint violation for reused event id, got %v", err)
	}
}

func TestReserveEvent(t *testing.T) {
	store := NewStore(nil)
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	store.SetNow(func() time.Time { return now })
	ctx := context.Background()

	seen, err := store.ReserveEvent(ctx, "evt-1", "hash-a", now.Add(time.Hour))
	if err != nil || seen {
		t.Fatalf("first reserve: seen=%v err=%v", seen, err)
	}
	seen, err = store.ReserveEvent(ctx, "evt-1", "hash-a", now.Add(time.Hour))
	if err != nil || !seen {
		t.Fatalf("replay: seen=%v err=%v", seen, err)
	}
	if _, err := store.ReserveEvent(ctx, "evt-1", "hash-b", now.Add(time.Hour)); !errors.Is(err, domainerrors.ErrConstraintViolation) {
		t.Fatalf("expected constraint violation for changed payload, got %v", err)
	}

	now = now.Add(2 * time.Hour)
	seen, err = store.ReserveEvent(ctx, "evt-1", "hash-b", now.Add(time.Hour))
	if err != nil || seen {
		t.Fatalf("reserve after expiry: seen=%v err=%v", seen, err)
	}
}

func TestJudgeProfiles(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	if err := store.UpsertJudgeProfile(ctx, entities.JudgeProfile{JudgeID: " "}); !errors.Is(err, domainerrors.ErrConstraintViolation) {
		t.Fatalf("expected constraint violation for empty id, got %v", err)
	}
	for _, id := range []string{"zed", "amy"} {
		if err := store.UpsertJudgeProfile(ctx, entities.JudgeProfile{JudgeID: id, Specialties: []string{"koi"}}); err != nil {
			t.Fatalf("upsert %s failed: %v", id, err)
		}
	}
	profiles, err := store.ListJudgeProfiles(ctx)
	if err != nil {
		t.Fatalf("list profiles failed: %v", err)
	}
	if len(profiles) != 2 || profiles[0].JudgeID != "amy" {
		t.Fatalf("expected profiles sorted by id, got %+v", profiles)
	}
	if _, err := store.GetJudgeProfile(ctx, "nobody"); !errors.Is(err, domainerrors.ErrJudgeNotFound) {
		t.Fatalf("expected judge not found, got %v", err)
	}
}
