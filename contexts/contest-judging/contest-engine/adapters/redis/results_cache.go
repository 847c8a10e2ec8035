package redisadapter

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"aquajudge/contexts/contest-judging/contest-engine/domain/entities"
	"aquajudge/contexts/contest-judging/contest-engine/ports"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const keyPrefix = "contest-engine:results:"

// ResultsCache keeps rankings of finalized contests. Finalized results never
// change, so entries only expire to bound memory.
type ResultsCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewResultsCache(client redis.Cmdable, ttl time.Duration) *ResultsCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ResultsCache{client: client, ttl: ttl}
}

type cachedRanking struct {
	Rank         int             `json:"rank"`
	SubmissionID string          `json:"submission_id"`
	EntrantID    string          `json:"entrant_id"`
	DisplayName  string          `json:"display_name"`
	SubCategory  string          `json:"sub_category,omitempty"`
	FinalScore   decimal.Decimal `json:"final_score"`
	ScoreCount   int             `json:"score_count"`
	SubmittedAt  time.Time       `json:"submitted_at"`
}

func (c *ResultsCache) GetResults(ctx context.Context, contestID string) ([]entities.RankedSubmission, bool, error) {
	raw, err := c.client.Get(ctx, cacheKey(contestID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var rows []cachedRanking
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, false, err
	}
	items := make([]entities.RankedSubmission, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.RankedSubmission{
			Rank:         row.Rank,
			SubmissionID: row.SubmissionID,
			EntrantID:    row.EntrantID,
			DisplayName:  row.DisplayName,
			SubCategory:  row.SubCategory,
			FinalScore:   row.FinalScore,
			ScoreCount:   row.ScoreCount,
			SubmittedAt:  row.SubmittedAt.UTC(),
		})
	}
	return items, true, nil
}

func (c *ResultsCache) PutResults(ctx context.Context, contestID string, results []entities.RankedSubmission) error {
	rows := make([]cachedRanking, 0, len(results))
	for _, item := range results {
		rows = append(rows, cachedRanking{
			Rank:         item.Rank,
			SubmissionID: item.SubmissionID,
			EntrantID:    item.EntrantID,
			DisplayName:  item.DisplayName,
			SubCategory:  item.SubCategory,
			FinalScore:   item.FinalScore,
			ScoreCount:   item.ScoreCount,
			SubmittedAt:  item.SubmittedAt.UTC(),
		})
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(contestID), raw, c.ttl).Err()
}

func cacheKey(contestID string) string {
	return keyPrefix + strings.TrimSpace(contestID)
}

var _ ports.ResultsCache = (*ResultsCache)(nil)
