package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeOTel_Disabled(t *testing.T) {
	providers, err := InitializeOTel(nil, nil)
	require.NoError(t, err)

	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Meter)

	metrics, err := CreatePipelineMetrics(providers.Meter)
	require.NoError(t, err)
	RecordStageMetrics(context.Background(), metrics, "clean", time.Second, nil)

	// no registry, nothing written
	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, providers.WriteMetricsTextfile(path))
	assert.NoFileExists(t, path)

	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTel_MetricsTextfile(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.EnableMetrics = true

	providers, err := InitializeOTel(cfg, nil)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := CreatePipelineMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	RecordStageMetrics(ctx, metrics, "clean", 250*time.Millisecond, nil)
	RecordStageMetrics(ctx, metrics, "analytics", time.Second, errors.New("boom"))
	RecordRows(ctx, metrics, "clean", "orders_clean", 42)
	RecordCoerced(ctx, metrics, "amount", 3)
	RecordDuplicates(ctx, metrics, "order_id", 1)

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, providers.WriteMetricsTextfile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "pipeline_stage_runs")
	assert.Contains(t, text, "pipeline_stage_duration")
	assert.Contains(t, text, "pipeline_rows_processed")
	assert.Contains(t, text, `table="orders_clean"`)
	assert.Contains(t, text, `column="amount"`)
}

func TestInitializeOTel_Tracing(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultOTelConfig()
	cfg.EnableTracing = true
	cfg.TraceWriter = &buf

	providers, err := InitializeOTel(cfg, nil)
	require.NoError(t, err)

	_, span := providers.Tracer.Start(context.Background(), "stage.clean")
	span.End()

	require.NoError(t, providers.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "stage.clean")
}

func TestRecordHelpers_NilMetrics(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordStageMetrics(ctx, nil, "clean", time.Second, nil)
		RecordRows(ctx, nil, "clean", "orders", 1)
		RecordCoerced(ctx, nil, "amount", 1)
		RecordDuplicates(ctx, nil, "order_id", 1)
		RecordError(ctx, errors.New("no span"))
	})
}
