// Package operations runs the orders pipeline as a sequence of steps.
//
// Core Components:
//
// Manager: runs the requested steps in registration order against one
// OperationState. Each step gets its own tracing span, timeout and stage
// metrics. The first failure stops the run and the remaining steps are
// marked skipped.
//
// Step: a unit of work with declared file inputs and outputs. Missing
// non-optional inputs fail the step with a NOT_FOUND error before it runs.
//
// Registry: keeps steps by ID in registration order.
//
// Pipeline steps:
//
//   - CleanStep ("clean"): raw orders/users to orders_clean.parquet,
//     users.parquet, the missingness CSV and _run_meta.json
//   - AnalyticsStep ("analytics"): timestamp parsing, calendar parts, safe
//     left join, outlier columns; writes analytics_table.parquet and
//     enriches the run metadata
//   - SummaryStep ("summary"): headline metrics, markdown report, metrics
//     JSON, revenue CSV and xlsx workbook
//
// Every step reads its inputs from disk, so any step can be run on its own.
//
// Example usage:
//
//	registry := operations.NewRegistry()
//	if err := operations.RegisterPipelineSteps(registry, deps); err != nil {
//		return err
//	}
//	manager := operations.NewManager(registry, nil, tracer, logger)
//	resp, err := manager.Execute(ctx, operations.OperationRequest{Step: operations.StepAll})
package operations
