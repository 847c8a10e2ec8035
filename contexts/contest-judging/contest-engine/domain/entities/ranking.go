package entities

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// FinalScorePlaces is the number of decimal places kept in a final score.
const FinalScorePlaces = 2

type RankedSubmission struct {
	Rank         int
	SubmissionID string
	EntrantID    string
	DisplayName  string
	SubCategory  string
	FinalScore   decimal.Decimal
	ScoreCount   int
	SubmittedAt  time.Time
}

type SubmissionAggregate struct {
	SubmissionID string
	FinalScore   *decimal.Decimal
	ScoreCount   int
}

// MeanScore returns the arithmetic mean of totals rounded half-up to two
// places. ok is false when totals is empty.
func MeanScore(totals []decimal.Decimal) (decimal.Decimal, bool) {
	if len(totals) == 0 {
		return decimal.Zero, false
	}
	sum := decimal.Zero
	for _, total := range totals {
		sum = sum.Add(total)
	}
	return sum.DivRound(decimal.NewFromInt(int64(len(totals))), FinalScorePlaces), true
}

// AggregateScores computes the final score of every approved submission.
// Pending, rejected and unscored submissions get a nil FinalScore.
func AggregateScores(submissions []Submission, scores []Score) map[string]SubmissionAggregate {
	totals := make(map[string][]decimal.Decimal, len(submissions))
	for _, score := range scores {
		totals[score.SubmissionID] = append(totals[score.SubmissionID], score.Total)
	}

	result := make(map[string]SubmissionAggregate, len(submissions))
	for _, submission := range submissions {
		aggregate := SubmissionAggregate{SubmissionID: submission.SubmissionID}
		if submission.IsApproved() {
			submissionTotals := totals[submission.SubmissionID]
			aggregate.ScoreCount = len(submissionTotals)
			if mean, ok := MeanScore(submissionTotals); ok {
				aggregate.FinalScore = &mean
			}
		}
		result[submission.SubmissionID] = aggregate
	}
	return result
}

// RankSubmissions orders approved submissions that carry a final score by
// score descending. Equal scores rank the earlier submission first; the
// submission id settles identical timestamps.
func RankSubmissions(submissions []Submission, scoreCounts map[string]int) []RankedSubmission {
	ranked := make([]RankedSubmission, 0, len(submissions))
	for _, submission := range submissions {
		if !submission.IsApproved() || submission.FinalScore == nil {
			continue
		}
		ranked = append(ranked, RankedSubmission{
			SubmissionID: submission.SubmissionID,
			EntrantID:    submission.EntrantID,
			DisplayName:  submission.DisplayName,
			SubCategory:  submission.SubCategory,
			FinalScore:   *submission.FinalScore,
			ScoreCount:   scoreCounts[submission.SubmissionID],
			SubmittedAt:  submission.SubmittedAt,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if cmp := ranked[i].FinalScore.Cmp(ranked[j].FinalScore); cmp != 0 {
			return cmp > 0
		}
		if !ranked[i].SubmittedAt.Equal(ranked[j].SubmittedAt) {
			return ranked[i].SubmittedAt.Before(ranked[j].SubmittedAt)
		}
		return ranked[i].SubmissionID < ranked[j].SubmissionID
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

func CountScores(scores []Score) map[string]int {
	counts := make(map[string]int)
	for _, score := range scores {
		counts[score.SubmissionID]++
	}
	return counts
}
