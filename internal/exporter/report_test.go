package exporter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderpulse/pkg/contracts/domain"
)

func f64(v float64) *float64 { return &v }
func intp(v int) *int        { return &v }

func sampleSummary() *domain.Summary {
	return &domain.Summary{
		Source:     "analytics_table.parquet (joined, analysis-ready)",
		Rows:       3,
		TimeWindow: &domain.TimeWindow{Start: "2024-01-05", End: "2024-02-05"},
		Revenue:    f64(250),
		AOVMean:    f64(125),
		AOVMedian:  f64(125),
		TopCountry: &domain.CountryShare{Country: "US", Revenue: 250, SharePct: 100},
		RevenueByCountry: []domain.CountryRevenue{
			{Country: "US", Orders: 2, Revenue: 250},
			{Country: "DE", Orders: 0, Revenue: 0},
		},
		MonthlyRevenue: []domain.MonthRevenue{
			{Month: "2024-01", Orders: 1, Revenue: 100},
			{Month: "2024-02", Orders: 1, Revenue: 150},
		},
		Growth:              &domain.Growth{FromMonth: "2024-01", ToMonth: "2024-02", FromRevenue: 100, ToRevenue: 150, Pct: f64(50)},
		Refunds:             &domain.RefundStats{Refunds: 1, Total: 3, RatePct: 100.0 / 3},
		JoinCoverage:        &domain.JoinCoverage{FromMeta: true, Rate: 1},
		MissingCreatedAtPct: f64(0),
		DuplicateOrderIDs:   intp(0),
		Outliers:            &domain.OutlierStats{LowQuantile: 0.01, HighQuantile: 0.99, Lower: 100.5, Upper: 1499.5, AboveUpper: 1, IQRFlagged: intp(0)},
	}
}

func TestReportRenderer_Render(t *testing.T) {
	text, err := NewReportRenderer(nil).Render(ReportInput{
		Summary:       sampleSummary(),
		RunMetaPath:   "data/processed/_run_meta.json",
		AnalyticsPath: "data/processed/analytics_table.parquet",
	})
	require.NoError(t, err)

	for _, want := range []string{
		"# Summary of Findings and Caveats",
		"_Source used: **analytics_table.parquet (joined, analysis-ready)**_",
		"US accounts for 100.0% of total revenue with $250.00",
		"Monthly revenue changed by +50.0% from 2024-01 to 2024-02",
		"Average order value (AOV) is $125.00, with median $125.00",
		"Overall refund rate is 33.3% (1/3)",
		"**Time window**: 2024-01-05 → 2024-02-05 (UTC)",
		"No duplicate order_id rows detected",
		"country_match_rate = 1.00",
		"1 rows above the 99th percentile amount ($1,499.50) flagged as outliers",
		"Winsorized amount caps values at p01=$100.50 and p99=$1,499.50 for cleaner charts",
		"## Next Questions",
		"`data/processed/_run_meta.json`",
		"### Outliers\n- 1 rows above",
	} {
		assert.Contains(t, text, want)
	}
	assert.NotContains(t, text, "<no value>")
}

func TestReportRenderer_Lines(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *domain.Summary)
		meta   *domain.RunMeta
		want   []string
	}{
		{
			name: "zero earlier month falls back to absolute values",
			mutate: func(s *domain.Summary) {
				s.Growth = &domain.Growth{FromMonth: "2024-01", ToMonth: "2024-02", FromRevenue: 0, ToRevenue: 80}
			},
			want: []string{"Monthly revenue moved from $0.00 in 2024-01 to $80.00 in 2024-02"},
		},
		{
			name: "refund spread wins over overall rate",
			mutate: func(s *domain.Summary) {
				s.RefundSpread = &domain.RefundSpread{High: "DE", Low: "US", HighPct: 50, LowPct: 0, DiffPP: 50}
			},
			want: []string{"Refund rate differs by 50.0 percentage points between DE and US"},
		},
		{
			name: "duplicates and computed coverage",
			mutate: func(s *domain.Summary) {
				s.DuplicateOrderIDs = intp(2)
				s.JoinCoverage = &domain.JoinCoverage{Pct: 75}
			},
			want: []string{"Found 2 duplicate order_id rows", "75.0% country non-null after join"},
		},
		{
			name: "missing created_at from metadata",
			mutate: func(s *domain.Summary) {
				s.MissingCreatedAtPct = nil
			},
			meta: &domain.RunMeta{MissingTimestamps: map[string]int{domain.MissingTimestampKey: 4}},
			want: []string{"analytics.created_at_missing = 4"},
		},
		{
			name: "everything missing renders N/A",
			mutate: func(s *domain.Summary) {
				*s = domain.Summary{Source: "orders"}
			},
			want: []string{
				"**Finding 1 (quantified)**: N/A",
				"**Finding 2 (quantified)**: N/A",
				"Average order value (AOV) is N/A, with median N/A",
				"**Finding 4 (quantified)**: N/A",
				"**Time window**: N/A",
				"### Duplicates\n- N/A",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sampleSummary()
			tt.mutate(s)
			text, err := NewReportRenderer(nil).Render(ReportInput{Summary: s, Meta: tt.meta})
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, text, want)
			}
			assert.NotContains(t, text, "inf%")
		})
	}
}

func TestWriteReportAndMetrics(t *testing.T) {
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "reports", "summary.md")
	metricsPath := filepath.Join(dir, "reports", "summary_metrics.json")

	require.NoError(t, NewReportRenderer(nil).WriteReport(reportPath, ReportInput{
		Summary: sampleSummary(),
		Meta:    &domain.RunMeta{Paths: map[string]string{"analytics": "custom/analytics.parquet"}},
	}))
	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "`custom/analytics.parquet`"))

	require.NoError(t, WriteMetricsJSON(metricsPath, sampleSummary()))
	raw, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	var decoded domain.Summary
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, 250.0, *decoded.Revenue)
	assert.Equal(t, "US", decoded.TopCountry.Country)
}
