package report

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campushq/claimflow/internal/application/port"
	"github.com/campushq/claimflow/internal/application/service"
	"github.com/campushq/claimflow/internal/domain/entity"
)

func sampleSummary(t *testing.T) *service.Summary {
	t.Helper()
	sum := func(s string) decimal.Decimal {
		d, err := decimal.NewFromString(s)
		require.NoError(t, err)
		return d
	}
	return &service.Summary{
		TotalsByStatus: map[entity.ClaimStatus]decimal.Decimal{
			entity.ClaimPending:  sum("120.50"),
			entity.ClaimApproved: sum("3200.00"),
		},
		CountByStatus: map[entity.ClaimStatus]int{
			entity.ClaimPending:  3,
			entity.ClaimApproved: 2,
		},
		ByCategory: map[entity.Category]port.CategoryStats{
			entity.CategoryTravel: {Count: 4, Sum: sum("3100.00")},
			entity.CategoryOther:  {Count: 1, Sum: sum("220.50")},
		},
		GeneratedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func TestGenerate(t *testing.T) {
	exporter := NewExcelExporter(t.TempDir(), "Summary", zap.NewNop())

	f, err := exporter.Generate(sampleSummary(t))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary"}, f.GetSheetList())

	title, err := f.GetCellValue("Summary", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Claim Summary", title)

	pending, err := f.GetCellValue("Summary", "A4")
	require.NoError(t, err)
	assert.Equal(t, "PENDING", pending)

	pendingTotal, err := f.GetCellValue("Summary", "C4")
	require.NoError(t, err)
	assert.Equal(t, "120.50", pendingTotal)

	// statuses with no claims still get a row with zero totals
	rejectedCount, err := f.GetCellValue("Summary", "B6")
	require.NoError(t, err)
	assert.Equal(t, "0", rejectedCount)
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExcelExporter(dir, "Summary", zap.NewNop())

	path, err := exporter.Save(sampleSummary(t))
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	assert.Equal(t, "summary_20260314_093000.xlsx", filepath.Base(path))
	assert.FileExists(t, path)
}
