package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains every file system location used by a pipeline run.
// This is the single source of truth for artifact names.
type Paths struct {
	BaseDir      string
	RawDir       string
	ProcessedDir string
	ReportsDir   string
	LogsDir      string

	// Raw inputs
	OrdersRaw string
	UsersRaw  string

	// Processed artifacts
	OrdersClean    string
	UsersClean     string
	AnalyticsTable string
	RunMeta        string

	// Reports
	SummaryReport    string
	SummaryMetrics   string
	SummaryWorkbook  string
	Missingness      string
	RevenueByCountry string

	// Optional sinks
	WarehouseDB string
	MetricsFile string
	TraceFile   string
}

// NewPaths resolves all paths for cfg. An empty BaseDir means the working directory.
func NewPaths(cfg *Config) (*Paths, error) {
	base := cfg.Paths.BaseDir
	if base == "" {
		base = "."
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	rawDir := resolve(cfg.Paths.RawDir)
	processedDir := resolve(cfg.Paths.ProcessedDir)
	reportsDir := resolve(cfg.Paths.ReportsDir)

	return &Paths{
		BaseDir:      base,
		RawDir:       rawDir,
		ProcessedDir: processedDir,
		ReportsDir:   reportsDir,
		LogsDir:      resolve(cfg.Paths.LogsDir),

		OrdersRaw: filepath.Join(rawDir, cfg.Paths.OrdersFile),
		UsersRaw:  filepath.Join(rawDir, cfg.Paths.UsersFile),

		OrdersClean:    filepath.Join(processedDir, OrdersCleanFile),
		UsersClean:     filepath.Join(processedDir, UsersCleanFile),
		AnalyticsTable: filepath.Join(processedDir, AnalyticsTableFile),
		RunMeta:        filepath.Join(processedDir, RunMetaFile),

		SummaryReport:    filepath.Join(reportsDir, SummaryReportFile),
		SummaryMetrics:   filepath.Join(reportsDir, SummaryMetricsFile),
		SummaryWorkbook:  filepath.Join(reportsDir, SummaryWorkbookFile),
		Missingness:      filepath.Join(reportsDir, MissingnessFile),
		RevenueByCountry: filepath.Join(reportsDir, RevenueByCountryFile),

		WarehouseDB: resolve(cfg.Warehouse.Path),
		MetricsFile: resolve(cfg.Telemetry.MetricsFile),
		TraceFile:   resolve(cfg.Telemetry.TraceFile),
	}, nil
}

// EnsureDirectories creates the output directories if they don't exist.
// The raw directory is an input and is never created.
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.ProcessedDir,
		p.ReportsDir,
		p.LogsDir,
	}

	logger := slog.Default()
	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
		logger.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs the resolved layout at debug level
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Debug("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("raw", p.RawDir),
			slog.String("processed", p.ProcessedDir),
			slog.String("reports", p.ReportsDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("inputs",
			slog.String("orders", p.OrdersRaw),
			slog.String("users", p.UsersRaw),
			slog.Bool("orders_exists", FileExists(p.OrdersRaw)),
			slog.Bool("users_exists", FileExists(p.UsersRaw)),
		),
		slog.Group("artifacts",
			slog.String("orders_clean", p.OrdersClean),
			slog.String("users_clean", p.UsersClean),
			slog.String("analytics_table", p.AnalyticsTable),
			slog.String("run_meta", p.RunMeta),
		))
}

// Relative returns path relative to the base directory when possible
func (p *Paths) Relative(path string) string {
	rel, err := filepath.Rel(p.BaseDir, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
