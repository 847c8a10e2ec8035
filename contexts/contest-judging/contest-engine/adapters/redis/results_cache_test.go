package redisadapter

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"aquajudge/contexts/contest-judging/contest-engine/domain/entities"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		t.Skip("REDIS_ADDR is not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis at %s is unreachable: %v", addr, err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestResultsCacheRoundTrip(t *testing.T) {
	client := newTestClient(t)
	cache := NewResultsCache(client, time.Minute)
	ctx := context.Background()
	contestID := "test-" + uuid.NewString()
	t.Cleanup(func() { _ = client.Del(context.Background(), cacheKey(contestID)).Err() })

	if _, ok, err := cache.GetResults(ctx, contestID); err != nil || ok {
		t.Fatalf("expected a miss, got ok=%v err=%v", ok, err)
	}

	submittedAt := time.Date(2026, 6, 3, 9, 30, 0, 0, time.UTC)
	want := []entities.RankedSubmission{
		{Rank: 1, SubmissionID: "s1", EntrantID: "e1", DisplayName: "Halfmoon", SubCategory: "betta",
			FinalScore: decimal.RequireFromString("85.13"), ScoreCount: 3, SubmittedAt: submittedAt},
		{Rank: 2, SubmissionID: "s2", EntrantID: "e2", DisplayName: "Plakat",
			FinalScore: decimal.RequireFromString("80.00"), ScoreCount: 1, SubmittedAt: submittedAt.Add(time.Hour)},
	}
	if err := cache.PutResults(ctx, contestID, want); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	got, ok, err := cache.GetResults(ctx, contestID)
	if err != nil || !ok {
		t.Fatalf("expected a hit, got ok=%v err=%v", ok, err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].SubmissionID != want[i].SubmissionID || !got[i].FinalScore.Equal(want[i].FinalScore) ||
			!got[i].SubmittedAt.Equal(want[i].SubmittedAt) || got[i].Rank != want[i].Rank {
			t.Fatalf("row %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}

	ttl, err := client.TTL(ctx, cacheKey(contestID)).Result()
	if err != nil {
		t.Fatalf("ttl failed: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Fatalf("expected ttl within one minute, got %s", ttl)
	}
}

func TestNewResultsCacheDefaultsTTL(t *testing.T) {
	cache := NewResultsCache(nil, 0)
	if cache.ttl != 24*time.Hour {
		t.Fatalf("expected default ttl of 24h, got %s", cache.ttl)
	}
	if got := cacheKey("  c1 "); got != keyPrefix+"c1" {
		t.Fatalf("unexpected cache key %q", got)
	}
}
