package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/campushq/claimflow/internal/application/service"
	"github.com/campushq/claimflow/internal/domain/entity"
)

// statusOrder fixes the row order of status sections in exported workbooks.
var statusOrder = []entity.ClaimStatus{
	entity.ClaimPending,
	entity.ClaimApproved,
	entity.ClaimRejected,
	entity.ClaimPaid,
}

// ExcelExporter renders claim summaries as xlsx workbooks
type ExcelExporter struct {
	exportDir string
	sheetName string
	logger    *zap.Logger
}

// NewExcelExporter creates a new Excel exporter
func NewExcelExporter(exportDir, sheetName string, logger *zap.Logger) *ExcelExporter {
	return &ExcelExporter{
		exportDir: exportDir,
		sheetName: sheetName,
		logger:    logger,
	}
}

// Generate builds an in-memory workbook from the summary. The caller owns
// the returned file and must Close it.
func (e *ExcelExporter) Generate(summary *service.Summary) (*excelize.File, error) {
	f := excelize.NewFile()

	sheet := e.sheetName
	index, err := f.NewSheet(sheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if sheet != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to drop default sheet: %w", err)
		}
	}

	e.setCell(f, sheet, "A1", "Claim Summary")
	e.setCell(f, sheet, "B1", summary.GeneratedAt.Format("2006-01-02 15:04:05"))

	row := 3
	e.setCell(f, sheet, fmt.Sprintf("A%d", row), "Status")
	e.setCell(f, sheet, fmt.Sprintf("B%d", row), "Count")
	e.setCell(f, sheet, fmt.Sprintf("C%d", row), "Total Amount")
	row++

	for _, status := range statusOrder {
		e.setCell(f, sheet, fmt.Sprintf("A%d", row), string(status))
		e.setCell(f, sheet, fmt.Sprintf("B%d", row), fmt.Sprintf("%d", summary.CountByStatus[status]))
		total := summary.TotalsByStatus[status]
		e.setCell(f, sheet, fmt.Sprintf("C%d", row), total.StringFixed(2))
		row++
	}

	row++
	e.setCell(f, sheet, fmt.Sprintf("A%d", row), "Category")
	e.setCell(f, sheet, fmt.Sprintf("B%d", row), "Count")
	e.setCell(f, sheet, fmt.Sprintf("C%d", row), "Total Amount")
	row++

	categories := make([]entity.Category, 0, len(summary.ByCategory))
	for category := range summary.ByCategory {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	for _, category := range categories {
		stats := summary.ByCategory[category]
		e.setCell(f, sheet, fmt.Sprintf("A%d", row), string(category))
		e.setCell(f, sheet, fmt.Sprintf("B%d", row), fmt.Sprintf("%d", stats.Count))
		e.setCell(f, sheet, fmt.Sprintf("C%d", row), stats.Sum.StringFixed(2))
		row++
	}

	return f, nil
}

// Save writes the summary workbook to the export directory and returns
// the path of the written file.
func (e *ExcelExporter) Save(summary *service.Summary) (string, error) {
	f, err := e.Generate(summary)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := os.MkdirAll(e.exportDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	filename := fmt.Sprintf("summary_%s.xlsx", summary.GeneratedAt.Format("20060102_150405"))
	outputPath := filepath.Join(e.exportDir, filename)

	if err := f.SaveAs(outputPath); err != nil {
		return "", fmt.Errorf("failed to save Excel file: %w", err)
	}

	e.logger.Info("Summary exported",
		zap.String("output_path", outputPath))

	return outputPath, nil
}

// setCell sets a cell value in the Excel file
func (e *ExcelExporter) setCell(f *excelize.File, sheet, cell, value string) {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		e.logger.Warn("Failed to set cell value",
			zap.String("sheet", sheet),
			zap.String("cell", cell),
			zap.Error(err))
	}
}
