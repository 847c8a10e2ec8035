package queries_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	contestengine "aquajudge/contexts/contest-judging/contest-engine"
	"aquajudge/contexts/contest-judging/contest-engine/adapters/memory"
	"aquajudge/contexts/contest-judging/contest-engine/application/commands"
	"aquajudge/contexts/contest-judging/contest-engine/domain/entities"
	domainerrors "aquajudge/contexts/contest-judging/contest-engine/domain/errors"
	"aquajudge/contexts/contest-judging/contest-engine/ports"

	"github.com/shopspring/decimal"
)

var (
	manager = ports.Actor{UserID: "manager-1", Role: ports.ActorRoleManager}
	entrant = ports.Actor{UserID: "entrant-1", Role: ports.ActorRoleEntrant}
)

type countingCache struct {
	mu    sync.Mutex
	rows  map[string][]entities.RankedSubmission
	gets  int
	puts  int
	fault error
}

func (c *countingCache) GetResults(_ context.Context, contestID string) ([]entities.RankedSubmission, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.fault != nil {
		return nil, false, c.fault
	}
	rows, ok := c.rows[contestID]
	return rows, ok, nil
}

func (c *countingCache) PutResults(_ context.Context, contestID string, results []entities.RankedSubmission) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts++
	if c.rows == nil {
		c.rows = make(map[string][]entities.RankedSubmission)
	}
	c.rows[contestID] = results
	return nil
}

type scenario struct {
	module     contestengine.Module
	contestID  string
	submission string
}

// scoredContest drives a contest to judging with two accepted judges who both
// scored the only entry.
func scoredContest(t *testing.T, cache ports.ResultsCache) scenario {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore(nil)
	module := contestengine.NewModule(contestengine.Dependencies{
		Contests: store,
		Judges:   store,
		Cache:    cache,
		Clock:    store,
		IDGen:    store,
	})
	h := module.Handler

	contest, err := h.CreateContest.Execute(ctx, commands.CreateContestCommand{
		Actor:     manager,
		Name:      "Goldfish Cup",
		StartDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	change := func(action commands.ContestAction) {
		t.Helper()
		if _, err := h.ChangeStatus.Execute(ctx, commands.ChangeStatusCommand{ContestID: contest.ContestID, Actor: manager, Action: action}); err != nil {
			t.Fatalf("%s failed: %v", action, err)
		}
	}
	change(commands.ContestActionPublish)
	submission, err := h.SubmitEntry.Execute(ctx, commands.SubmitEntryCommand{ContestID: contest.ContestID, Actor: entrant, DisplayName: "Ryukin"})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := h.DecideSubmission.Execute(ctx, commands.DecideSubmissionCommand{
		SubmissionID: submission.SubmissionID, Actor: manager, Decision: entities.SubmissionStatusApproved,
	}); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	for _, judgeID := range []string{"judge-1", "judge-2"} {
		assignment, err := h.InviteJudge.Execute(ctx, commands.InviteJudgeCommand{ContestID: contest.ContestID, JudgeID: judgeID, Actor: manager})
		if err != nil {
			t.Fatalf("invite failed: %v", err)
		}
		if _, err := h.RespondAssignment.Execute(ctx, commands.RespondAssignmentCommand{
			AssignmentID: assignment.AssignmentID,
			Actor:        ports.Actor{UserID: judgeID, Role: ports.ActorRoleExpert},
			Decision:     entities.AssignmentStatusAccepted,
		}); err != nil {
			t.Fatalf("accept failed: %v", err)
		}
	}
	change(commands.ContestActionCloseRegistration)
	change(commands.ContestActionOpenJudging)
	for judgeID, total := range map[string]string{"judge-1": "70.25", "judge-2": "80"} {
		value := decimal.RequireFromString(total)
		if _, err := h.RecordScore.Execute(ctx, commands.RecordScoreCommand{
			SubmissionID: submission.SubmissionID,
			Actor:        ports.Actor{UserID: judgeID, Role: ports.ActorRoleExpert},
			Mode:         entities.ScoreModeQuick,
			Total:        &value,
		}); err != nil {
			t.Fatalf("score failed: %v", err)
		}
	}
	return scenario{module: module, contestID: contest.ContestID, submission: submission.SubmissionID}
}

func TestBreakdownVisibility(t *testing.T) {
	s := scoredContest(t, nil)
	ctx := context.Background()
	results := s.module.Handler.Results

	all, err := results.Breakdown(ctx, manager, s.submission)
	if err != nil || len(all.Scores) != 2 {
		t.Fatalf("manager breakdown: scores=%d err=%v", len(all.Scores), err)
	}
	own, err := results.Breakdown(ctx, ports.Actor{UserID: "judge-2", Role: ports.ActorRoleExpert}, s.submission)
	if err != nil {
		t.Fatalf("judge breakdown failed: %v", err)
	}
	if len(own.Scores) != 1 || own.Scores[0].JudgeID != "judge-2" {
		t.Fatalf("expected only the judge's own score, got %+v", own.Scores)
	}
	if _, err := results.Breakdown(ctx, entrant, s.submission); !errors.Is(err, domainerrors.ErrNotAuthorized) {
		t.Fatalf("expected not authorized before announcement, got %v", err)
	}

	if _, err := s.module.Handler.FinalizeContest.Execute(ctx, commands.FinalizeContestCommand{ContestID: s.contestID, Actor: manager}); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	public, err := results.Breakdown(ctx, entrant, s.submission)
	if err != nil || len(public.Scores) != 2 {
		t.Fatalf("entrant breakdown after finalize: scores=%d err=%v", len(public.Scores), err)
	}
	if public.Submission.FinalScore == nil || public.Submission.FinalScore.StringFixed(2) != "75.13" {
		t.Fatalf("expected final score 75.13, got %v", public.Submission.FinalScore)
	}
}

func TestResultsAreCachedAfterFinalize(t *testing.T) {
	cache := &countingCache{}
	s := scoredContest(t, cache)
	ctx := context.Background()
	results := s.module.Handler.Results

	if _, err := results.Results(ctx, s.contestID); !errors.Is(err, domainerrors.ErrResultsNotAvailable) {
		t.Fatalf("expected results not available, got %v", err)
	}
	if cache.gets != 0 {
		t.Fatalf("expected no cache lookups before finalize, got %d", cache.gets)
	}

	if _, err := s.module.Handler.FinalizeContest.Execute(ctx, commands.FinalizeContestCommand{ContestID: s.contestID, Actor: manager}); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	first, err := results.Results(ctx, s.contestID)
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}
	second, err := results.Results(ctx, s.contestID)
	if err != nil {
		t.Fatalf("cached results failed: %v", err)
	}
	if cache.puts != 1 || cache.gets != 2 {
		t.Fatalf("expected one fill and two lookups, got puts=%d gets=%d", cache.puts, cache.gets)
	}
	if len(first.Rankings) != 1 || len(second.Rankings) != 1 || first.Rankings[0].Rank != 1 ||
		!first.Rankings[0].FinalScore.Equal(second.Rankings[0].FinalScore) {
		t.Fatalf("unexpected rankings %+v / %+v", first.Rankings, second.Rankings)
	}

	cache.fault = errors.New("redis down")
	fallback, err := results.Results(ctx, s.contestID)
	if err != nil {
		t.Fatalf("results with a failing cache failed: %v", err)
	}
	if len(fallback.Rankings) != 1 {
		t.Fatalf("expected rankings from the store, got %+v", fallback.Rankings)
	}
}

func TestEligibleJudgesFollowContestTags(t *testing.T) {
	module := contestengine.NewInMemoryModule(nil, nil)
	ctx := context.Background()
	h := module.Handler

	contest, err := h.CreateContest.Execute(ctx, commands.CreateContestCommand{
		Actor:                manager,
		Name:                 "Discus Open",
		StartDate:            time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
		EndDate:              time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC),
		AllowedSubCategories: []string{"Discus"},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	for judgeID, specialties := range map[string][]string{
		"judge-discus": {"discus", "angelfish"},
		"judge-koi":    {"koi"},
	} {
		if _, err := h.RegisterJudge.Execute(ctx, commands.RegisterJudgeCommand{
			Actor: manager, JudgeID: judgeID, DisplayName: judgeID, Specialties: specialties,
		}); err != nil {
			t.Fatalf("register failed: %v", err)
		}
	}

	eligible, err := h.Queries.EligibleJudges(ctx, contest.ContestID)
	if err != nil {
		t.Fatalf("eligible judges failed: %v", err)
	}
	if len(eligible) != 1 || eligible[0].JudgeID != "judge-discus" {
		t.Fatalf("expected only the discus judge, got %+v", eligible)
	}

	if _, err := h.RegisterJudge.Execute(ctx, commands.RegisterJudgeCommand{
		Actor: ports.Actor{UserID: "judge-koi", Role: ports.ActorRoleExpert}, JudgeID: "judge-discus",
	}); !errors.Is(err, domainerrors.ErrNotAuthorized) {
		t.Fatalf("expected experts to edit only their own profile, got %v", err)
	}
}
