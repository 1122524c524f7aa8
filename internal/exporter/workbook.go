package exporter

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"orderpulse/internal/dataprocessing"
	"orderpulse/internal/errors"
	"orderpulse/pkg/contracts/domain"
)

// Workbook sheet names
const (
	SheetMetrics          = "Metrics"
	SheetRevenueByCountry = "Revenue by Country"
	SheetMonthlyRevenue   = "Monthly Revenue"
	SheetMissingness      = "Missingness"
)

// WorkbookWriter exports the summary as an .xlsx workbook
type WorkbookWriter struct {
	logger *slog.Logger
}

// NewWorkbookWriter creates a workbook writer
func NewWorkbookWriter(logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{logger: logger}
}

// Write replaces path with a workbook holding the headline metrics, the
// revenue breakdowns and the missingness report.
func (w *WorkbookWriter) Write(path string, summary *domain.Summary, missing []dataprocessing.MissingEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetMetrics); err != nil {
		return errors.NewStorageError("failed to name metrics sheet", err)
	}
	for _, sheet := range []string{SheetRevenueByCountry, SheetMonthlyRevenue, SheetMissingness} {
		if _, err := f.NewSheet(sheet); err != nil {
			return errors.NewStorageError("failed to add sheet "+sheet, err)
		}
	}

	writeRows(f, SheetMetrics, []string{"Metric", "Value"}, metricRows(summary))

	byCountry := make([][]any, len(summary.RevenueByCountry))
	for i, r := range summary.RevenueByCountry {
		byCountry[i] = []any{r.Country, r.Orders, r.Revenue}
	}
	writeRows(f, SheetRevenueByCountry, []string{"Country", "Orders", "Revenue"}, byCountry)

	monthly := make([][]any, len(summary.MonthlyRevenue))
	for i, m := range summary.MonthlyRevenue {
		monthly[i] = []any{m.Month, m.Orders, m.Revenue}
	}
	writeRows(f, SheetMonthlyRevenue, []string{"Month", "Orders", "Revenue"}, monthly)

	miss := make([][]any, len(missing))
	for i, m := range missing {
		miss[i] = []any{m.Column, m.Missing, m.Proportion}
	}
	writeRows(f, SheetMissingness, []string{"Column", "Missing", "Proportion"}, miss)

	_ = f.SetColWidth(SheetMetrics, "A", "A", 28)
	_ = f.SetColWidth(SheetMetrics, "B", "B", 22)
	_ = f.SetColWidth(SheetRevenueByCountry, "A", "C", 16)
	_ = f.SetColWidth(SheetMonthlyRevenue, "A", "C", 14)
	_ = f.SetColWidth(SheetMissingness, "A", "C", 18)

	if idx, err := f.GetSheetIndex(SheetMetrics); err == nil {
		f.SetActiveSheet(idx)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewStorageError("failed to create directory for "+path, err)
	}
	if err := f.SaveAs(path); err != nil {
		return errors.NewStorageError("failed to save workbook "+path, err)
	}

	w.logger.Info("Workbook written",
		slog.String("path", path),
		slog.Int("countries", len(summary.RevenueByCountry)),
		slog.Int("months", len(summary.MonthlyRevenue)))
	return nil
}

func writeRows(f *excelize.File, sheet string, headers []string, rows [][]any) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
}

// metricRows flattens the headline figures; unavailable figures read "N/A"
func metricRows(s *domain.Summary) [][]any {
	na := func(p *float64) any {
		if p == nil {
			return "N/A"
		}
		return *p
	}

	rows := [][]any{
		{"Rows", s.Rows},
		{"Source", s.Source},
		{"Revenue", na(s.Revenue)},
		{"AOV (mean)", na(s.AOVMean)},
		{"AOV (median)", na(s.AOVMedian)},
	}
	if s.TopCountry != nil {
		rows = append(rows, []any{"Top country", s.TopCountry.Country}, []any{"Top country share (%)", s.TopCountry.SharePct})
	}
	if s.Growth != nil {
		rows = append(rows, []any{"Growth (%) " + s.Growth.FromMonth + " to " + s.Growth.ToMonth, na(s.Growth.Pct)})
	}
	if s.Refunds != nil {
		rows = append(rows, []any{"Refund rate (%)", s.Refunds.RatePct})
	}
	rows = append(rows, []any{"Missing created_at (%)", na(s.MissingCreatedAtPct)})
	if s.DuplicateOrderIDs != nil {
		rows = append(rows, []any{"Duplicate order_id rows", *s.DuplicateOrderIDs})
	}
	if s.TimeWindow != nil {
		rows = append(rows, []any{"Time window (UTC)", s.TimeWindow.Start + " to " + s.TimeWindow.End})
	}
	return rows
}
