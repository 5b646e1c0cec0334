package review

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Review"

// WriteXLSX renders a formatted review as a spreadsheet, one row per
// question.
func WriteXLSX(review *AttemptReview, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	headers := []any{"Section", "Question", "Your Answer", "Correct Answer", "Verdict", "Score", "Points", "Explanation"}
	if err := f.SetSheetRow(exportSheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	row := 2
	for _, sec := range review.Sections {
		for _, q := range sec.Questions {
			verdict := ""
			if q.Verdict != VerdictUngraded {
				verdict = string(q.Verdict)
			}
			correct := ""
			if q.HasCorrectAnswer {
				correct = q.CorrectAnswer
			}
			score := ""
			if q.Score != nil {
				score = fmt.Sprintf("%g", *q.Score)
			}

			cells := []any{sec.Title, q.Prompt, q.LearnerAnswer, correct, verdict, score, q.Points, q.Explanation}
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return fmt.Errorf("failed to compute cell name: %w", err)
			}
			if err := f.SetSheetRow(exportSheet, cell, &cells); err != nil {
				return fmt.Errorf("failed to write review row: %w", err)
			}
			row++
		}
	}

	summaryCell, err := excelize.CoordinatesToCellName(1, row+1)
	if err != nil {
		return fmt.Errorf("failed to compute summary cell: %w", err)
	}
	summary := []any{fmt.Sprintf("%s: total %g / %g", review.Title, review.TotalScore, review.MaxScore)}
	if err := f.SetSheetRow(exportSheet, summaryCell, &summary); err != nil {
		return fmt.Errorf("failed to write summary row: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
