package exceladapter

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"aquajudge/contexts/contest-judging/contest-engine/domain/entities"

	"github.com/xuri/excelize/v2"
)

const (
	resultsSheet = "Results"
	contestSheet = "Contest"
)

var resultsHeader = []string{"Rank", "Entry", "Entrant", "Sub-category", "Final score", "Judges", "Submitted at"}

// WriteResults renders the ranking of a finalized contest as an XLSX
// workbook: one sheet with the ranking and one with contest details.
func WriteResults(w io.Writer, contest entities.Contest, rankings []entities.RankedSubmission) error {
	f, err := BuildResultsWorkbook(contest, rankings)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return f.Write(w)
}

func BuildResultsWorkbook(contest entities.Contest, rankings []entities.RankedSubmission) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(contestSheet); err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}

	for col, title := range resultsHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellStr(resultsSheet, cell, title); err != nil {
			return nil, fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	scoreStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: ptr("0.00")})
	if err != nil {
		return nil, fmt.Errorf("score style: %w", err)
	}
	for i, ranked := range rankings {
		row := i + 2
		values := []any{
			ranked.Rank,
			ranked.DisplayName,
			ranked.EntrantID,
			ranked.SubCategory,
			ranked.FinalScore.Round(entities.FinalScorePlaces).InexactFloat64(),
			ranked.ScoreCount,
			ranked.SubmittedAt.UTC().Format(time.RFC3339),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(resultsSheet, cell, value); err != nil {
				return nil, fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
		scoreCell, _ := excelize.CoordinatesToCellName(5, row)
		_ = f.SetCellStyle(resultsSheet, scoreCell, scoreCell, scoreStyle)
	}
	if err := applyHeaderFormatting(f, resultsSheet, len(resultsHeader)); err != nil {
		return nil, err
	}

	details := [][2]string{
		{"Contest", contest.Name},
		{"Contest ID", contest.ContestID},
		{"Primary fish type", contest.PrimaryFishType},
		{"Sub-categories", strings.Join(contest.AllowedSubCategories, ", ")},
		{"Start date", contest.StartDate.UTC().Format(time.RFC3339)},
		{"End date", contest.EndDate.UTC().Format(time.RFC3339)},
		{"Ranked entries", fmt.Sprintf("%d", len(rankings))},
	}
	if contest.FinalizedAt != nil {
		details = append(details, [2]string{"Finalized at", contest.FinalizedAt.UTC().Format(time.RFC3339)})
	}
	for i, pair := range details {
		if err := f.SetCellStr(contestSheet, fmt.Sprintf("A%d", i+1), pair[0]); err != nil {
			return nil, err
		}
		if err := f.SetCellStr(contestSheet, fmt.Sprintf("B%d", i+1), pair[1]); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(contestSheet, "A", "A", 20)
	_ = f.SetColWidth(contestSheet, "B", "B", 48)
	f.SetActiveSheet(0)
	return f, nil
}

// applyHeaderFormatting makes row 1 bold, puts an auto-filter on it and sizes
// columns by content length.
func applyHeaderFormatting(f *excelize.File, sheet string, cols int) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return err
	}
	if len(rows) == 0 || cols == 0 {
		return nil
	}
	last, _ := excelize.ColumnNumberToName(cols)
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(sheet, "A1", last+"1", style)
	}
	_ = f.AutoFilter(sheet, "A1:"+last+"1", nil)

	widths := make([]float64, cols)
	for c := range widths {
		widths[c] = 10
	}
	for rIdx, row := range rows {
		for cIdx := 0; cIdx < cols && cIdx < len(row); cIdx++ {
			w := float64(len([]rune(row[cIdx]))) * 1.1
			if rIdx == 0 {
				w += 1.5
			}
			if w > 60 {
				w = 60
			}
			if w > widths[cIdx] {
				widths[cIdx] = w
			}
		}
	}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheet, col, col, w)
	}
	return nil
}

var invalidFileRe = regexp.MustCompile(`[\\/:*?"<>|]+`)

// ResultsFilename builds a download name such as "Results - Spring Betta Show.xlsx".
func ResultsFilename(contest entities.Contest) string {
	name := strings.Join(strings.Fields(contest.Name), " ")
	if name == "" {
		name = contest.ContestID
	}
	return invalidFileRe.ReplaceAllString("Results - "+name+".xlsx", "_")
}

func ptr[T any](v T) *T { return &v }
