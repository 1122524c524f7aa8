// Package shared holds helpers used across the orderpulse packages.
//
// The testutil subpackage provides a buffered slog handler with log
// assertions and raw CSV fixture writers for pipeline tests:
//
//	logger, handler := testutil.NewTestLogger(t)
//	root := testutil.WriteRawInputs(t, t.TempDir())
//	...
//	testutil.AssertLogContains(t, handler, slog.LevelInfo, "stage completed")
package shared
