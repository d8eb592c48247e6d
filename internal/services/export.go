package services

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"recruitai/interview-orchestrator/internal/models"
)

// ExportService renders completed submissions as an Excel workbook for
// recruiter review.
type ExportService interface {
	ExportSubmissions(subs []models.Submission) ([]byte, error)
}

type exportService struct{}

func NewExportService() ExportService {
	return &exportService{}
}

// ExportSubmissions implements ExportService.
func (e *exportService) ExportSubmissions(subs []models.Submission) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Submissions"
	f.SetSheetName("Sheet1", sheet)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	headers := []string{"Candidate", "Role", "Language", "Average Score", "Role Fit", "Cost (USD)", "Status", "Completed At"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}
	endCell, _ := excelize.CoordinatesToCellName(len(headers), 1)
	f.SetCellStyle(sheet, "A1", endCell, headerStyle)

	f.SetColWidth(sheet, "A", "A", 28)
	f.SetColWidth(sheet, "B", "C", 20)
	f.SetColWidth(sheet, "H", "H", 22)

	for i, sub := range subs {
		row := i + 2
		values := []interface{}{
			sub.FullName,
			sub.Role,
			sub.Language,
			sub.AverageScore,
			sub.RoleFitScore,
			sub.TotalCostUSD,
			string(sub.Status),
			sub.UpdatedAt.Format("2006-01-02 15:04"),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	return buf.Bytes(), nil
}
