package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"orderpulse/internal/infrastructure"
	"orderpulse/internal/shared/testutil"
)

func TestRunFlags(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{name: "version", args: []string{"-version"}, wantCode: 0, wantStdout: "orderpulse v"},
		{name: "unknown step", args: []string{"-step", "scrape"}, wantCode: 2, wantStderr: `unknown step "scrape"`},
		{name: "bad flag", args: []string{"-nope"}, wantCode: 2, wantStderr: "flag provided but not defined"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tt.args, &stdout, &stderr)

			assert.Equal(t, tt.wantCode, code)
			assert.Contains(t, stdout.String(), tt.wantStdout)
			assert.Contains(t, stderr.String(), tt.wantStderr)
		})
	}
}

func TestRunPipeline(t *testing.T) {
	infrastructure.ResetLoggerForTesting()
	t.Cleanup(infrastructure.ResetLoggerForTesting)
	t.Setenv("ORDERPULSE_LOGGING_OUTPUT", "console")

	root := testutil.WriteRawInputs(t, t.TempDir())
	config := testutil.WriteFile(t, root, "orderpulse.yaml", "logging:\n  level: error\n")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", config, "-root", root}, &stdout, &stderr)

	assert.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "completed")
	assert.Contains(t, stdout.String(), "summary")
	assert.FileExists(t, filepath.Join(root, "reports", "summary.md"))
}

func TestRunPipelineMissingInputs(t *testing.T) {
	infrastructure.ResetLoggerForTesting()
	t.Cleanup(infrastructure.ResetLoggerForTesting)
	t.Setenv("ORDERPULSE_LOGGING_OUTPUT", "console")

	root := t.TempDir()
	config := testutil.WriteFile(t, root, "orderpulse.yaml", "logging:\n  level: error\n")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", config, "-root", root, "-step", "clean"}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "NOT_FOUND")
}
