package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderpulse/internal/config"
	apperrors "orderpulse/internal/errors"
	"orderpulse/internal/infrastructure"
	"orderpulse/internal/operations"
	"orderpulse/internal/shared/testutil"
)

func newTestApplication(t *testing.T, root string, mutate func(cfg *config.Config)) *Application {
	t.Helper()
	infrastructure.ResetLoggerForTesting()
	t.Cleanup(infrastructure.ResetLoggerForTesting)

	cfg := config.Default()
	cfg.Logging.Output = "console"
	cfg.Logging.Level = "error"
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	a, err := NewApplication(Options{Config: cfg, BaseDir: root})
	require.NoError(t, err)
	return a
}

func TestNewApplicationWiresPipeline(t *testing.T) {
	root := t.TempDir()
	a := newTestApplication(t, root, nil)
	defer a.Stop(context.Background())

	assert.Equal(t, []string{"clean", "analytics", "summary"}, a.Registry.ListIDs())
	assert.DirExists(t, filepath.Join(root, "data", "processed"))
	assert.DirExists(t, filepath.Join(root, "reports"))
	assert.NotNil(t, a.OTelProviders.Registry)
}

func TestApplicationRunAndStop(t *testing.T) {
	root := testutil.WriteRawInputs(t, t.TempDir())
	a := newTestApplication(t, root, nil)

	resp, err := a.Run(context.Background(), operations.StepAll)
	require.NoError(t, err)
	assert.Equal(t, operations.OperationStatusCompleted, resp.Status)

	require.NoError(t, a.Stop(context.Background()))

	assert.FileExists(t, a.Paths.SummaryReport)
	metrics, err := os.ReadFile(a.Paths.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "pipeline_rows_processed")
}

func TestApplicationRunFailure(t *testing.T) {
	a := newTestApplication(t, t.TempDir(), nil)
	defer a.Stop(context.Background())

	resp, err := a.Run(context.Background(), operations.StepIDClean)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	assert.Equal(t, operations.OperationStatusFailed, resp.Status)
}

func TestApplicationTraceFile(t *testing.T) {
	root := testutil.WriteRawInputs(t, t.TempDir())
	a := newTestApplication(t, root, func(cfg *config.Config) {
		cfg.Telemetry.TracingEnabled = true
	})

	_, err := a.Run(context.Background(), operations.StepIDClean)
	require.NoError(t, err)
	require.NoError(t, a.Stop(context.Background()))

	data, err := os.ReadFile(a.Paths.TraceFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "operation.step.clean")
}

func TestNewApplicationBadConfigFile(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "orderpulse.yaml", "join:\n  validate: sideways\n")

	_, err := NewApplication(Options{ConfigFile: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}
