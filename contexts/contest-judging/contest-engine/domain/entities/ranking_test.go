package entities

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestMeanScoreRoundsHalfUp(t *testing.T) {
	cases := []struct {
		totals []string
		want   string
	}{
		{[]string{"80", "90"}, "85.00"},
		{[]string{"80"}, "80.00"},
		{[]string{"85.125"}, "85.13"},
		{[]string{"70", "80", "81"}, "77.00"},
		{[]string{"90", "90.25"}, "90.13"},
	}
	for _, tc := range cases {
		totals := make([]decimal.Decimal, 0, len(tc.totals))
		for _, value := range tc.totals {
			totals = append(totals, dec(value))
		}
		got, ok := MeanScore(totals)
		if !ok {
			t.Fatalf("expected a mean for %v", tc.totals)
		}
		if got.StringFixed(FinalScorePlaces) != tc.want {
			t.Fatalf("MeanScore(%v) = %s, want %s", tc.totals, got.StringFixed(FinalScorePlaces), tc.want)
		}
	}
	if _, ok := MeanScore(nil); ok {
		t.Fatal("expected no mean for empty totals")
	}
}

func TestAggregateScoresSkipsUnapprovedAndUnscored(t *testing.T) {
	submissions := []Submission{
		{SubmissionID: "s1", Status: SubmissionStatusApproved},
		{SubmissionID: "s2", Status: SubmissionStatusApproved},
		{SubmissionID: "s3", Status: SubmissionStatusRejected},
	}
	scores := []Score{
		{SubmissionID: "s1", JudgeID: "j1", Total: dec("80")},
		{SubmissionID: "s1", JudgeID: "j2", Total: dec("90")},
		{SubmissionID: "s3", JudgeID: "j1", Total: dec("99")},
	}
	aggregates := AggregateScores(submissions, scores)

	if got := aggregates["s1"]; got.FinalScore == nil || got.FinalScore.StringFixed(2) != "85.00" || got.ScoreCount != 2 {
		t.Fatalf("unexpected s1 aggregate %+v", got)
	}
	if got := aggregates["s2"]; got.FinalScore != nil {
		t.Fatalf("expected unscored s2 to have no final score, got %s", got.FinalScore)
	}
	if got := aggregates["s3"]; got.FinalScore != nil {
		t.Fatalf("expected rejected s3 to have no final score, got %s", got.FinalScore)
	}
}

func TestRankSubmissionsBreaksTiesBySubmissionTime(t *testing.T) {
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	score := func(value string) *decimal.Decimal {
		d := dec(value)
		return &d
	}
	submissions := []Submission{
		{SubmissionID: "late", Status: SubmissionStatusApproved, FinalScore: score("88.50"), SubmittedAt: base.Add(2 * time.Hour)},
		{SubmissionID: "top", Status: SubmissionStatusApproved, FinalScore: score("91.00"), SubmittedAt: base.Add(3 * time.Hour)},
		{SubmissionID: "early", Status: SubmissionStatusApproved, FinalScore: score("88.50"), SubmittedAt: base},
		{SubmissionID: "unscored", Status: SubmissionStatusApproved, SubmittedAt: base},
		{SubmissionID: "rejected", Status: SubmissionStatusRejected, FinalScore: score("99.00"), SubmittedAt: base},
	}
	ranked := RankSubmissions(submissions, map[string]int{"top": 2})

	want := []string{"top", "early", "late"}
	if len(ranked) != len(want) {
		t.Fatalf("expected %d ranked submissions, got %d", len(want), len(ranked))
	}
	for i, id := range want {
		if ranked[i].SubmissionID != id || ranked[i].Rank != i+1 {
			t.Fatalf("position %d: got %s rank %d, want %s rank %d", i, ranked[i].SubmissionID, ranked[i].Rank, id, i+1)
		}
	}
	if ranked[0].ScoreCount != 2 {
		t.Fatalf("expected score count 2, got %d", ranked[0].ScoreCount)
	}
}
