package operations

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"orderpulse/internal/infrastructure"
	"orderpulse/internal/validation"
)

// Manager runs registered steps in order against one operation state
type Manager struct {
	registry  *Registry
	config    *Config
	tracer    *OperationTracer
	validator *validation.FileValidator
	logger    *slog.Logger
}

// NewManager creates a manager. Nil arguments get defaults: an empty
// registry, NewConfig, a no-op tracer and slog.Default().
func NewManager(registry *Registry, config *Config, tracer *OperationTracer, logger *slog.Logger) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if config == nil {
		config = NewConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer, _ = NewOperationTracer(nil)
	}

	return &Manager{
		registry:  registry,
		config:    config,
		tracer:    tracer,
		validator: validation.NewFileValidator(logger),
		logger:    infrastructure.WithComponent(logger, "operations"),
	}
}

// RegisterStep registers a Step with the manager
func (m *Manager) RegisterStep(step Step) error {
	return m.registry.Register(step)
}

// GetRegistry returns the registry for accessing registered steps
func (m *Manager) GetRegistry() *Registry {
	return m.registry
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *Config {
	return m.config
}

// Execute runs the requested steps sequentially. The first failure stops the
// run unless ContinueOnError is set; the remaining steps are marked skipped.
// The response is returned even when err is non-nil.
func (m *Manager) Execute(ctx context.Context, req OperationRequest) (*OperationResponse, error) {
	if req.ID == "" {
		req.ID = infrastructure.GenerateRunID()
	}
	ctx = infrastructure.WithTraceID(ctx, req.ID)

	state := NewOperationState(req.ID)

	steps, err := m.registry.Select(req.Step)
	if err == nil && len(steps) == 0 {
		err = NewFatalError("no steps registered", nil)
	}
	if err != nil {
		m.logOperationError(ctx, req.ID, err)
		state.Fail(err)
		return m.createResponse(state), err
	}

	for _, step := range steps {
		state.SetStep(step.ID(), NewStepState(step.ID(), step.Name()))
	}

	ctx, span := m.tracer.TraceOperationExecution(ctx, req.ID, req)
	defer span.End()

	m.logOperationStart(ctx, req.ID, req, len(steps))
	state.Start()

	err = m.executeSequential(ctx, state, steps)

	switch {
	case err == nil:
		state.Complete()
	case GetErrorType(err) == ErrorTypeCancellation:
		state.Cancel(err)
	default:
		state.Fail(err)
	}

	m.tracer.RecordOperationCompletion(span, state.GetStatus(), state.Duration())
	m.logOperationComplete(ctx, req.ID, state.Duration(), string(state.GetStatus()))

	return m.createResponse(state), err
}

// executeSequential executes steps one by one
func (m *Manager) executeSequential(ctx context.Context, state *OperationState, steps []Step) error {
	var firstErr error
	failedStep := ""

	for i, step := range steps {
		stepState := state.GetStep(step.ID())

		if firstErr != nil && !m.config.ContinueOnError {
			stepState.Skip(fmt.Sprintf("previous step %s did not complete", failedStep))
			m.logger.InfoContext(ctx, "step_skipped",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()),
				slog.String("failed_step", failedStep))
			continue
		}

		if ctx.Err() != nil {
			err := NewCancellationError(step.ID())
			stepState.Fail(err)
			m.logger.WarnContext(ctx, "operation_cancelled",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()))
			if firstErr == nil {
				firstErr, failedStep = err, step.ID()
			}
			continue
		}

		m.logger.InfoContext(ctx, "executing_step",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("step_number", i+1),
			slog.Int("total_steps", len(steps)))

		if err := m.executeStep(ctx, state, step); err != nil {
			m.logStepError(ctx, state.ID, step.ID(), err)
			if firstErr == nil {
				firstErr, failedStep = err, step.ID()
			}
		}
	}

	return firstErr
}

// executeStep checks inputs, validates and runs a single Step inside its own span
func (m *Manager) executeStep(ctx context.Context, state *OperationState, step Step) error {
	stepState := state.GetStep(step.ID())
	if stepState == nil {
		return NewFatalError("step state not found", nil)
	}

	if err := m.checkInputs(step); err != nil {
		wrapped := WrapError(err, step.ID())
		stepState.Fail(wrapped)
		return wrapped
	}

	if err := step.Validate(state); err != nil {
		verr := NewValidationError(step.ID(), "step validation failed")
		verr.Cause = err
		stepState.Fail(verr)
		return verr
	}

	timeout := m.config.GetStepTimeout(step.ID())
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stepCtx, span := m.tracer.TraceStepExecution(stepCtx, state.ID, step.ID())
	defer span.End()

	m.logStepStart(stepCtx, state.ID, step.ID())
	stepState.Start()

	start := time.Now()
	err := step.Execute(stepCtx, state)
	duration := time.Since(start)

	if err == nil && stderrors.Is(stepCtx.Err(), context.DeadlineExceeded) {
		err = NewTimeoutError(step.ID(), timeout.String())
	}

	m.tracer.RecordStepCompletion(stepCtx, span, step.ID(), duration, err)

	if err != nil {
		wrapped := WrapError(err, step.ID())
		stepState.Fail(wrapped)
		return wrapped
	}

	stepState.Complete()
	m.logStepComplete(stepCtx, state.ID, step.ID(), duration)
	return nil
}

// checkInputs verifies that every non-optional input file exists
func (m *Manager) checkInputs(step Step) error {
	for _, req := range step.RequiredInputs() {
		if req.Optional {
			continue
		}
		if err := m.validator.ValidateFile(req.Path); err != nil {
			return err
		}
	}
	return nil
}

// createResponse creates an operation response from state
func (m *Manager) createResponse(state *OperationState) *OperationResponse {
	resp := &OperationResponse{
		ID:       state.ID,
		Status:   state.GetStatus(),
		Duration: state.Duration(),
		Steps:    state.Steps,
	}

	if state.Error != nil {
		resp.Error = state.Error.Error()
	}

	return resp
}
