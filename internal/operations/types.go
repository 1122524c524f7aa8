package operations

import (
	"time"
)

// Pipeline step identifiers
const (
	StepIDClean     = "clean"
	StepIDAnalytics = "analytics"
	StepIDSummary   = "summary"

	// StepAll selects every registered step
	StepAll = "all"
)

// Pipeline step names
const (
	StepNameClean     = "Ingest & Clean"
	StepNameAnalytics = "Join & Enrich"
	StepNameSummary   = "Summarize"
)

// Context keys for values steps publish on the operation state
const (
	ContextKeyRowCounts = "row_counts"
	ContextKeyJoinKey   = "join_key"
	ContextKeySummary   = "summary"
)

// Default timeouts
const (
	DefaultStepTimeout = 10 * time.Minute
)

// OperationRequest represents a request to run the pipeline
type OperationRequest struct {
	// ID becomes the run id; empty generates one
	ID string `json:"id"`
	// Step is a step ID, StepAll or empty for every step
	Step string `json:"step,omitempty"`
}

// OperationResponse represents the outcome of a pipeline run
type OperationResponse struct {
	ID       string                `json:"id"`
	Status   OperationStatusValue  `json:"status"`
	Duration time.Duration         `json:"duration"`
	Steps    map[string]*StepState `json:"steps"`
	Error    string                `json:"error,omitempty"`
}
