package entities

import (
	"testing"
	"time"
)

func TestCanTransitionCoversEveryStatusPair(t *testing.T) {
	allowed := map[[2]ContestStatus]bool{
		{ContestStatusDraft, ContestStatusOngoing}:     true,
		{ContestStatusDraft, ContestStatusCancelled}:   true,
		{ContestStatusOngoing, ContestStatusClosed}:    true,
		{ContestStatusOngoing, ContestStatusCancelled}: true,
		{ContestStatusClosed, ContestStatusJudging}:    true,
		{ContestStatusClosed, ContestStatusCancelled}:  true,
		{ContestStatusJudging, ContestStatusFinalized}: true,
		{ContestStatusJudging, ContestStatusCancelled}: true,
	}
	checked := 0
	for _, from := range AllContestStatuses() {
		for _, to := range AllContestStatuses() {
			checked++
			want := allowed[[2]ContestStatus{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
	if checked != 36 {
		t.Fatalf("expected 36 pairs, checked %d", checked)
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	for _, terminal := range []ContestStatus{ContestStatusFinalized, ContestStatusCancelled} {
		if !terminal.IsTerminal() {
			t.Fatalf("expected %s to be terminal", terminal)
		}
		for _, to := range AllContestStatuses() {
			if CanTransition(terminal, to) {
				t.Fatalf("terminal %s must not move to %s", terminal, to)
			}
		}
	}
}

func TestValidateBasics(t *testing.T) {
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	valid := Contest{Name: "Koi Open", Category: ContestCategoryContest, StartDate: start, EndDate: start.AddDate(0, 0, 14)}
	if !valid.ValidateBasics() {
		t.Fatal("expected valid contest")
	}

	reversed := valid
	reversed.EndDate = start.AddDate(0, 0, -1)
	if reversed.ValidateBasics() {
		t.Fatal("expected end before start to be rejected")
	}

	news := valid
	news.Category = ContestCategoryGeneralNews
	if news.ValidateBasics() {
		t.Fatal("expected news category to be rejected")
	}

	unnamed := valid
	unnamed.Name = "   "
	if unnamed.ValidateBasics() {
		t.Fatal("expected blank name to be rejected")
	}
}

func TestEligibilityTagsAndSubCategories(t *testing.T) {
	contest := Contest{PrimaryFishType: " Betta ", AllowedSubCategories: []string{"halfmoon", "BETTA", "plakat"}}
	tags := contest.EligibilityTags()
	if len(tags) != 3 || tags[0] != "betta" {
		t.Fatalf("unexpected eligibility tags %v", tags)
	}
	if !contest.AcceptsSubCategory("Plakat") {
		t.Fatal("expected plakat to be accepted")
	}
	if contest.AcceptsSubCategory("guppy") {
		t.Fatal("expected guppy to be rejected")
	}
	if !(Contest{}).AcceptsSubCategory("anything") {
		t.Fatal("expected unrestricted contest to accept any sub-category")
	}

	judge := JudgeProfile{Specialties: []string{"plakat"}}
	if !judge.EligibleFor(contest) {
		t.Fatal("expected plakat specialist to be eligible")
	}
	if (JudgeProfile{Specialties: []string{"koi"}}).EligibleFor(contest) {
		t.Fatal("expected koi specialist to be ineligible")
	}
}

func TestDecisionAndResponseEdges(t *testing.T) {
	if !CanDecide(SubmissionStatusPending, SubmissionStatusApproved) || !CanDecide(SubmissionStatusPending, SubmissionStatusRejected) {
		t.Fatal("pending submissions must accept both decisions")
	}
	if CanDecide(SubmissionStatusApproved, SubmissionStatusRejected) || CanDecide(SubmissionStatusRejected, SubmissionStatusApproved) {
		t.Fatal("decisions are final")
	}
	if !CanRespond(AssignmentStatusPending, AssignmentStatusAccepted) || CanRespond(AssignmentStatusDeclined, AssignmentStatusAccepted) {
		t.Fatal("only pending invitations can be answered")
	}
	if AssignmentStatusDeclined.IsActive() {
		t.Fatal("declined assignments do not count against the quota")
	}
}
