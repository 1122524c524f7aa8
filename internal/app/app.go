package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"orderpulse/internal/config"
	"orderpulse/internal/files"
	"orderpulse/internal/infrastructure"
	"orderpulse/internal/operations"
	"orderpulse/pkg/contracts"
)

// ShutdownTimeout bounds flushing telemetry on Stop
const ShutdownTimeout = 10 * time.Second

// Options select the configuration for NewApplication
type Options struct {
	// ConfigFile is a YAML file; empty searches the default locations
	ConfigFile string
	// BaseDir overrides paths.base_dir when set
	BaseDir string
	// Config skips loading when non-nil
	Config *config.Config
}

// Application wires configuration, logging, telemetry and the step
// manager for one pipeline process.
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Registry      *operations.Registry
	Manager       *operations.Manager

	traceFile io.Closer
}

// NewApplication creates a new application instance with dependency injection
func NewApplication(opts Options) (*Application, error) {
	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.Load(opts.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
	}
	if opts.BaseDir != "" {
		cfg.Paths.BaseDir = opts.BaseDir
	}

	paths, err := config.NewPaths(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	discovery := files.NewDiscovery(paths.BaseDir)
	ordersRaw, ordersMoved := discovery.ResolveInput(paths.OrdersRaw)
	usersRaw, usersMoved := discovery.ResolveInput(paths.UsersRaw)
	paths.OrdersRaw, paths.UsersRaw = ordersRaw, usersRaw

	logCfg := cfg.Logging
	if logCfg.FilePath != "" && !filepath.IsAbs(logCfg.FilePath) {
		logCfg.FilePath = filepath.Join(paths.BaseDir, logCfg.FilePath)
	}
	logger, err := infrastructure.InitializeLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.String("artifact_format", contracts.ArtifactFormatVersion))
	paths.LogPathResolution(logger)
	if ordersMoved || usersMoved {
		logger.Info("Raw inputs resolved by extension",
			slog.String("orders", paths.Relative(paths.OrdersRaw)),
			slog.String("users", paths.Relative(paths.UsersRaw)))
	}

	a := &Application{
		Config: cfg,
		Paths:  paths,
		Logger: logger,
	}

	otelCfg := &infrastructure.OTelConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: contracts.Version,
		Environment:    cfg.Telemetry.Environment,
		EnableTracing:  cfg.Telemetry.TracingEnabled,
		EnableMetrics:  cfg.Telemetry.MetricsEnabled,
		SampleRatio:    1.0,
	}
	if cfg.Telemetry.TracingEnabled && paths.TraceFile != "" {
		if err := os.MkdirAll(filepath.Dir(paths.TraceFile), 0755); err != nil {
			return nil, fmt.Errorf("failed to create trace directory: %w", err)
		}
		f, err := os.OpenFile(paths.TraceFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open trace file: %w", err)
		}
		otelCfg.TraceWriter = f
		a.traceFile = f
	}

	providers, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		a.closeTraceFile()
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	a.OTelProviders = providers

	tracer, err := operations.NewOperationTracer(providers)
	if err != nil {
		a.closeTraceFile()
		return nil, fmt.Errorf("failed to initialize operation tracer: %w", err)
	}

	a.Registry = operations.NewRegistry()
	err = operations.RegisterPipelineSteps(a.Registry, operations.StepDeps{
		Config:  cfg,
		Paths:   paths,
		Logger:  logger,
		Metrics: tracer.Metrics(),
	})
	if err != nil {
		a.closeTraceFile()
		return nil, fmt.Errorf("failed to register pipeline steps: %w", err)
	}

	a.Manager = operations.NewManager(a.Registry, operations.NewConfig(), tracer, logger)
	return a, nil
}

// Run executes step ("clean", "analytics", "summary" or "all")
func (a *Application) Run(ctx context.Context, step string) (*operations.OperationResponse, error) {
	resp, err := a.Manager.Execute(ctx, operations.OperationRequest{Step: step})
	if err != nil {
		infrastructure.WithError(a.Logger, err).ErrorContext(ctx, "Pipeline run failed",
			slog.String("step", step))
		return resp, err
	}

	a.Logger.InfoContext(ctx, "Pipeline run completed",
		slog.String("run_id", resp.ID),
		slog.String("step", step),
		slog.Duration("duration", resp.Duration))
	return resp, nil
}

// Stop writes the metrics textfile and flushes telemetry. It is safe to
// call after a failed Run.
func (a *Application) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, ShutdownTimeout)
	defer cancel()

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if a.OTelProviders != nil {
		if a.Config.Telemetry.MetricsEnabled {
			if err := a.OTelProviders.WriteMetricsTextfile(a.Paths.MetricsFile); err != nil {
				a.Logger.ErrorContext(ctx, "Error writing metrics textfile", slog.String("error", err.Error()))
				keep(err)
			}
		}
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
			keep(err)
		}
	}
	keep(a.closeTraceFile())

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	keep(infrastructure.CloseLogFile())
	return firstErr
}

func (a *Application) closeTraceFile() error {
	if a.traceFile == nil {
		return nil
	}
	err := a.traceFile.Close()
	a.traceFile = nil
	return err
}
