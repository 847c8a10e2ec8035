package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

type ScoreMode string

const (
	ScoreModeDetailed ScoreMode = "detailed"
	ScoreModeQuick    ScoreMode = "quick"
)

// MaxScoreTotal bounds every score total and every final score.
var MaxScoreTotal = decimal.NewFromInt(100)

type Score struct {
	ScoreID      string
	SubmissionID string
	ContestID    string
	JudgeID      string
	Mode         ScoreMode
	Criteria     map[string]decimal.Decimal
	Total        decimal.Decimal
	RecordedAt   time.Time
}

func (m ScoreMode) Valid() bool {
	return m == ScoreModeDetailed || m == ScoreModeQuick
}

// ScorePlaces is the precision accepted for a quick total or a criterion.
const ScorePlaces = 2

// HasScorePrecision reports whether value needs at most ScorePlaces decimals.
func HasScorePrecision(value decimal.Decimal) bool {
	return value.Equal(value.Truncate(ScorePlaces))
}

// TotalInRange reports whether value lies in [0, 100].
func TotalInRange(value decimal.Decimal) bool {
	return !value.IsNegative() && value.LessThanOrEqual(MaxScoreTotal)
}
