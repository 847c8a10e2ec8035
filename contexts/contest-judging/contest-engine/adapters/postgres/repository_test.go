package postgresadapter

import (
	"testing"
	"time"

	"aquajudge/contexts/contest-judging/contest-engine/domain/entities"

	"github.com/shopspring/decimal"
)

func TestScoreModelStoresEmptyCriteriaObject(t *testing.T) {
	row, err := scoreModelFromEntity(entities.Score{
		ScoreID:      "s1",
		SubmissionID: "sub-1",
		ContestID:    "c1",
		JudgeID:      "judge-1",
		Mode:         entities.ScoreModeQuick,
		Total:        decimal.RequireFromString("80.5"),
		RecordedAt:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("encode score: %v", err)
	}
	value, err := row.Criteria.Value()
	if err != nil {
		t.Fatalf("criteria value: %v", err)
	}
	if value != "{}" {
		t.Fatalf("expected criteria column {}, got %#v", value)
	}

	score, err := row.toEntity()
	if err != nil {
		t.Fatalf("decode score: %v", err)
	}
	if score.Criteria != nil {
		t.Fatalf("expected quick score to decode without criteria, got %+v", score.Criteria)
	}
}

func TestScoreModelRoundTripsCriteria(t *testing.T) {
	row, err := scoreModelFromEntity(entities.Score{
		ScoreID:  "s2",
		Mode:     entities.ScoreModeDetailed,
		Criteria: map[string]decimal.Decimal{"color": decimal.RequireFromString("12.5")},
		Total:    decimal.RequireFromString("12.5"),
	})
	if err != nil {
		t.Fatalf("encode score: %v", err)
	}
	score, err := row.toEntity()
	if err != nil {
		t.Fatalf("decode score: %v", err)
	}
	if got := score.Criteria["color"]; len(score.Criteria) != 1 || !got.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("unexpected criteria %+v", score.Criteria)
	}
}
