package exceladapter

import (
	"bytes"
	"testing"
	"time"

	"aquajudge/contexts/contest-judging/contest-engine/domain/entities"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func TestWriteResultsWorkbook(t *testing.T) {
	finalizedAt := time.Date(2026, 7, 21, 18, 0, 0, 0, time.UTC)
	contest := entities.Contest{
		ContestID:            "c1",
		Name:                 "Betta Nationals",
		PrimaryFishType:      "betta",
		AllowedSubCategories: []string{"halfmoon", "plakat"},
		StartDate:            time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:              time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC),
		FinalizedAt:          &finalizedAt,
	}
	rankings := []entities.RankedSubmission{
		{Rank: 1, SubmissionID: "s1", EntrantID: "e1", DisplayName: "Blue Moon", SubCategory: "halfmoon",
			FinalScore: decimal.RequireFromString("85.13"), ScoreCount: 3,
			SubmittedAt: time.Date(2026, 7, 2, 8, 0, 0, 0, time.UTC)},
		{Rank: 2, SubmissionID: "s2", EntrantID: "e2", DisplayName: "Red Dragon", SubCategory: "plakat",
			FinalScore: decimal.RequireFromString("80"), ScoreCount: 2,
			SubmittedAt: time.Date(2026, 7, 3, 8, 0, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	if err := WriteResults(&buf, contest, rankings); err != nil {
		t.Fatalf("write results failed: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("open workbook failed: %v", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(resultsSheet)
	if err != nil {
		t.Fatalf("read results sheet failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Rank" || rows[0][4] != "Final score" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	if rows[1][1] != "Blue Moon" || rows[1][4] != "85.13" {
		t.Fatalf("unexpected first row %v", rows[1])
	}
	if rows[2][4] != "80.00" {
		t.Fatalf("expected two-place score formatting, got %q", rows[2][4])
	}

	name, err := f.GetCellValue(contestSheet, "B1")
	if err != nil {
		t.Fatalf("read contest sheet failed: %v", err)
	}
	if name != "Betta Nationals" {
		t.Fatalf("expected contest name, got %q", name)
	}
	finalized, err := f.GetCellValue(contestSheet, "B8")
	if err != nil {
		t.Fatalf("read contest sheet failed: %v", err)
	}
	if finalized != finalizedAt.Format(time.RFC3339) {
		t.Fatalf("expected finalized timestamp, got %q", finalized)
	}
}

func TestResultsFilename(t *testing.T) {
	cases := map[string]entities.Contest{
		"Results - Spring Betta Show.xlsx": {ContestID: "c1", Name: "Spring  Betta Show"},
		"Results - c2.xlsx":                {ContestID: "c2", Name: "   "},
		"Results - Koi_Goldfish.xlsx":      {ContestID: "c3", Name: "Koi/Goldfish"},
	}
	for want, contest := range cases {
		if got := ResultsFilename(contest); got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
}
