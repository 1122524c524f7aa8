package operations_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderpulse/internal/config"
	apperrors "orderpulse/internal/errors"
	"orderpulse/internal/infrastructure"
	"orderpulse/internal/operations"
	"orderpulse/internal/shared/testutil"
	"orderpulse/internal/storage"
	"orderpulse/pkg/contracts/domain"
)

type pipeline struct {
	cfg       *config.Config
	paths     *config.Paths
	providers *infrastructure.OTelProviders
	manager   *operations.Manager
}

func newPipeline(t *testing.T, root string, mutate func(cfg *config.Config)) *pipeline {
	t.Helper()

	cfg := config.Default()
	cfg.Paths.BaseDir = root
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	paths, err := config.NewPaths(cfg)
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirectories())

	logger, _ := testutil.NewTestLogger(t)

	otelCfg := infrastructure.DefaultOTelConfig()
	otelCfg.EnableMetrics = true
	providers, err := infrastructure.InitializeOTel(otelCfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = providers.Shutdown(context.Background()) })

	tracer, err := operations.NewOperationTracer(providers)
	require.NoError(t, err)

	registry := operations.NewRegistry()
	require.NoError(t, operations.RegisterPipelineSteps(registry, operations.StepDeps{
		Config:  cfg,
		Paths:   paths,
		Logger:  logger,
		Metrics: tracer.Metrics(),
	}))

	return &pipeline{
		cfg:       cfg,
		paths:     paths,
		providers: providers,
		manager:   operations.NewManager(registry, nil, tracer, logger),
	}
}

func (p *pipeline) run(t *testing.T, step string) (*operations.OperationResponse, error) {
	t.Helper()
	return p.manager.Execute(context.Background(), operations.OperationRequest{ID: "run-test", Step: step})
}

func readText(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestPipelineEndToEnd(t *testing.T) {
	root := testutil.WriteRawInputs(t, t.TempDir())
	p := newPipeline(t, root, nil)

	resp, err := p.run(t, operations.StepAll)
	require.NoError(t, err)
	assert.Equal(t, operations.OperationStatusCompleted, resp.Status)
	for _, id := range []string{operations.StepIDClean, operations.StepIDAnalytics, operations.StepIDSummary} {
		assert.Equal(t, operations.StepStatusCompleted, resp.Steps[id].GetStatus(), id)
	}

	t.Run("clean outputs", func(t *testing.T) {
		orders, err := storage.ReadParquet[domain.CleanOrder](p.paths.OrdersClean)
		require.NoError(t, err)
		require.Len(t, orders, 6)
		assert.Nil(t, orders[2].Amount)
		assert.True(t, orders[2].AmountIsNA)
		require.NotNil(t, orders[0].StatusClean)
		assert.Equal(t, "paid", *orders[0].StatusClean)
		require.NotNil(t, orders[1].StatusClean)
		assert.Equal(t, "refund", *orders[1].StatusClean)

		users, err := storage.ReadParquet[domain.User](p.paths.UsersClean)
		require.NoError(t, err)
		assert.Len(t, users, 3)

		missing := readText(t, p.paths.Missingness)
		assert.True(t, strings.HasPrefix(missing, "column,n_missing,p_missing\n"))
	})

	t.Run("analytics table", func(t *testing.T) {
		rows, err := storage.ReadParquet[domain.AnalyticsRow](p.paths.AnalyticsTable)
		require.NoError(t, err)
		require.Len(t, rows, 6)

		require.NotNil(t, rows[0].Weekday)
		assert.Equal(t, int64(4), *rows[0].Weekday)
		require.NotNil(t, rows[0].Country)
		assert.Equal(t, "US", *rows[0].Country)
		assert.Nil(t, rows[3].CreatedAt)
		assert.Nil(t, rows[4].Country)
	})

	t.Run("run metadata", func(t *testing.T) {
		meta, err := storage.NewRunMetaStore(p.paths.RunMeta).Load()
		require.NoError(t, err)

		assert.Equal(t, "run-test", meta.RunID)
		assert.Equal(t, 6, meta.RowCounts.OrdersRaw)
		assert.Equal(t, 3, meta.RowCounts.UsersRaw)
		require.NotNil(t, meta.RowCounts.AnalyticsTable)
		assert.Equal(t, 6, *meta.RowCounts.AnalyticsTable)
		assert.Equal(t, 1, meta.Coerced["amount"])
		assert.Equal(t, 1, meta.Duplicates["orders.order_id"])
		assert.Equal(t, 1, meta.Missing["orders"]["created_at"])
		assert.Equal(t, 1, meta.MissingTimestamps[domain.MissingTimestampKey])

		require.NotNil(t, meta.Join)
		assert.True(t, meta.Join.Performed)
		assert.Equal(t, "user_id", meta.Join.Key)
		assert.Equal(t, 5, meta.Join.MatchedRows)
		require.NotNil(t, meta.JoinMatchRate)
		assert.InDelta(t, 5.0/6.0, meta.JoinMatchRate.KeyMatchRate, 1e-9)
		assert.InDelta(t, 5.0/6.0, meta.JoinMatchRate.CountryMatchRate, 1e-9)

		require.NotNil(t, meta.Outliers)
		assert.Equal(t, "amount", meta.Outliers.Column)
		assert.Equal(t, filepath.ToSlash(filepath.Join("data", "processed", "analytics_table.parquet")), meta.Paths["analytics"])
	})

	t.Run("summary artifacts", func(t *testing.T) {
		report := readText(t, p.paths.SummaryReport)
		assert.Contains(t, report, "# Summary of Findings and Caveats")
		assert.Contains(t, report, "US accounts for 94.6% of total revenue")
		assert.Contains(t, report, "Monthly revenue changed by -90.0% from 2024-01 to 2024-02")
		assert.Contains(t, report, "Found 1 duplicate order_id rows")
		assert.Contains(t, report, "country_match_rate = 0.83")

		revenue := readText(t, p.paths.RevenueByCountry)
		assert.Equal(t, "country,order_count,total_revenue\nUS,4,350.00\n", revenue)

		assert.FileExists(t, p.paths.SummaryMetrics)
		assert.FileExists(t, p.paths.SummaryWorkbook)

		summary, ok := resp.Steps[operations.StepIDSummary].Metadata["source"]
		require.True(t, ok)
		assert.Equal(t, operations.SourceAnalytics, summary)
	})

	t.Run("metrics textfile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pipeline.prom")
		require.NoError(t, p.providers.WriteMetricsTextfile(path))
		assert.Contains(t, readText(t, path), "pipeline_stage_runs")
	})
}

func TestPipelineRefundExcludedFromRevenue(t *testing.T) {
	root := t.TempDir()
	testutil.WriteCSV(t, root, filepath.Join("data", "raw", "orders.csv"), testutil.OrdersHeader, []string{
		"A,U1,100,1,2024-01-05,paid",
		"B,U1,50,1,2024-02-10,refunded",
	})
	testutil.WriteCSV(t, root, filepath.Join("data", "raw", "users.csv"), testutil.UsersHeader, []string{
		"U1,US,2023-12-01",
	})
	p := newPipeline(t, root, nil)

	_, err := p.run(t, operations.StepAll)
	require.NoError(t, err)

	var summary domain.Summary
	require.NoError(t, json.Unmarshal([]byte(readText(t, p.paths.SummaryMetrics)), &summary))
	require.NotNil(t, summary.Revenue)
	assert.InDelta(t, 100.0, *summary.Revenue, 1e-9)
	require.NotNil(t, summary.Refunds)
	assert.InDelta(t, 50.0, summary.Refunds.RatePct, 1e-9)

	report := readText(t, p.paths.SummaryReport)
	assert.Contains(t, report, "US accounts for 100.0% of total revenue")
	assert.Contains(t, report, "Overall refund rate is 50.0% (1/2)")
	assert.Equal(t, "country,order_count,total_revenue\nUS,1,100.00\n", readText(t, p.paths.RevenueByCountry))
}

func TestPipelineSummaryFallsBackToCleanedTables(t *testing.T) {
	root := testutil.WriteRawInputs(t, t.TempDir())
	p := newPipeline(t, root, nil)

	_, err := p.run(t, operations.StepAll)
	require.NoError(t, err)
	require.NoError(t, os.Remove(p.paths.AnalyticsTable))

	resp, err := p.run(t, operations.StepIDSummary)
	require.NoError(t, err)
	assert.Equal(t, operations.SourceMerged, resp.Steps[operations.StepIDSummary].Metadata["source"])
	assert.Contains(t, readText(t, p.paths.SummaryReport), operations.SourceMerged)
}

func TestPipelineSummaryWithoutInputs(t *testing.T) {
	p := newPipeline(t, t.TempDir(), nil)

	resp, err := p.run(t, operations.StepIDSummary)
	require.Error(t, err)
	assert.Equal(t, operations.ErrorTypeValidation, operations.GetErrorType(err))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	assert.Equal(t, operations.StepStatusFailed, resp.Steps[operations.StepIDSummary].GetStatus())
}

func TestPipelineWithoutJoinKey(t *testing.T) {
	root := testutil.WriteRawInputs(t, t.TempDir())
	p := newPipeline(t, root, func(cfg *config.Config) {
		cfg.Join.KeyCandidates = []string{"customer_id"}
	})

	_, err := p.run(t, operations.StepAll)
	require.NoError(t, err)

	meta, err := storage.NewRunMetaStore(p.paths.RunMeta).Load()
	require.NoError(t, err)
	require.NotNil(t, meta.Join)
	assert.False(t, meta.Join.Performed)
	assert.Nil(t, meta.JoinMatchRate)

	rows, err := storage.ReadParquet[domain.AnalyticsRow](p.paths.AnalyticsTable)
	require.NoError(t, err)
	require.Len(t, rows, 6)
	for _, row := range rows {
		assert.Nil(t, row.Country)
	}
}

func TestPipelineFailures(t *testing.T) {
	tests := []struct {
		name     string
		orders   []string
		header   string
		users    []string
		skipRaw  bool
		wantType apperrors.ErrorType
		failedAt string
	}{
		{
			name:     "missing required column",
			header:   "order_id,user_id,amount,quantity,created_at",
			orders:   []string{"o1,u1,10,1,2024-01-01"},
			users:    testutil.SampleUsers,
			wantType: apperrors.ErrTypeSchema,
			failedAt: operations.StepIDClean,
		},
		{
			name:     "header only orders",
			header:   testutil.OrdersHeader,
			orders:   nil,
			users:    testutil.SampleUsers,
			wantType: apperrors.ErrTypeEmpty,
			failedAt: operations.StepIDClean,
		},
		{
			name:     "duplicate users break many to one",
			header:   testutil.OrdersHeader,
			orders:   testutil.SampleOrders,
			users:    append([]string{"u1,CA,2023-01-01"}, testutil.SampleUsers...),
			wantType: apperrors.ErrTypeCardinality,
			failedAt: operations.StepIDAnalytics,
		},
		{
			name:     "raw inputs absent",
			skipRaw:  true,
			wantType: apperrors.ErrTypeNotFound,
			failedAt: operations.StepIDClean,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			if !tt.skipRaw {
				testutil.WriteCSV(t, root, filepath.Join("data", "raw", "orders.csv"), tt.header, tt.orders)
				testutil.WriteCSV(t, root, filepath.Join("data", "raw", "users.csv"), testutil.UsersHeader, tt.users)
			}
			p := newPipeline(t, root, nil)

			resp, err := p.run(t, operations.StepAll)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, tt.wantType), "got %v", err)
			assert.Equal(t, operations.OperationStatusFailed, resp.Status)
			assert.Equal(t, operations.StepStatusFailed, resp.Steps[tt.failedAt].GetStatus())
			assert.Equal(t, operations.StepStatusSkipped, resp.Steps[operations.StepIDSummary].GetStatus())
		})
	}
}

func TestPipelineWarehouse(t *testing.T) {
	root := testutil.WriteRawInputs(t, t.TempDir())
	p := newPipeline(t, root, func(cfg *config.Config) {
		cfg.Warehouse.Enabled = true
	})

	_, err := p.run(t, operations.StepAll)
	require.NoError(t, err)

	ctx := context.Background()
	wh, err := storage.OpenWarehouse(ctx, p.paths.WarehouseDB, nil)
	require.NoError(t, err)
	defer wh.Close()

	n, err := wh.Count(ctx, "analytics_table")
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	byCountry, err := wh.RevenueByCountry(ctx)
	require.NoError(t, err)
	require.Len(t, byCountry, 1)
	assert.Equal(t, "US", byCountry[0].Country)
	assert.InDelta(t, 350.0, byCountry[0].Revenue, 1e-9)

	meta, err := storage.NewRunMetaStore(p.paths.RunMeta).Load()
	require.NoError(t, err)
	assert.NotEmpty(t, meta.Paths["warehouse"])
}

func TestAnalyticsCreatesRunMetaWhenAbsent(t *testing.T) {
	root := testutil.WriteRawInputs(t, t.TempDir())
	p := newPipeline(t, root, nil)

	_, err := p.run(t, operations.StepIDClean)
	require.NoError(t, err)
	require.NoError(t, os.Remove(p.paths.RunMeta))

	_, err = p.run(t, operations.StepIDAnalytics)
	require.NoError(t, err)

	meta, err := storage.NewRunMetaStore(p.paths.RunMeta).Load()
	require.NoError(t, err)
	require.NotNil(t, meta.RowCounts.AnalyticsTable)
	assert.Equal(t, 6, *meta.RowCounts.AnalyticsTable)
	require.NotNil(t, meta.Join)
	assert.True(t, meta.Join.Performed)
}

func TestPipelineStepDeclarations(t *testing.T) {
	p := newPipeline(t, t.TempDir(), nil)
	steps := p.manager.GetRegistry().List()
	require.Len(t, steps, 3)

	clean := steps[0]
	assert.Equal(t, operations.StepIDClean, clean.ID())
	for _, in := range clean.RequiredInputs() {
		assert.False(t, in.Optional, in.Name)
	}

	summary := steps[2]
	for _, in := range summary.RequiredInputs() {
		assert.True(t, in.Optional, in.Name)
	}
	names := make([]string, 0)
	for _, out := range summary.ProducedOutputs() {
		names = append(names, out.Name)
	}
	assert.ElementsMatch(t, []string{"report", "metrics", "revenue_by_country", "workbook"}, names)
}
