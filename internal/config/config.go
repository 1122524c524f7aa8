package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete pipeline configuration
type Config struct {
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Cleaning  CleaningConfig  `yaml:"cleaning" envconfig:"CLEANING"`
	Join      JoinConfig      `yaml:"join" envconfig:"JOIN"`
	Outliers  OutlierConfig   `yaml:"outliers" envconfig:"OUTLIERS"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Warehouse WarehouseConfig `yaml:"warehouse" envconfig:"WAREHOUSE"`
}

// PathsConfig contains file system locations, relative to BaseDir unless absolute
type PathsConfig struct {
	BaseDir      string `yaml:"base_dir" envconfig:"BASE_DIR"`
	RawDir       string `yaml:"raw_dir" envconfig:"RAW_DIR" validate:"required"`
	ProcessedDir string `yaml:"processed_dir" envconfig:"PROCESSED_DIR" validate:"required"`
	ReportsDir   string `yaml:"reports_dir" envconfig:"REPORTS_DIR" validate:"required"`
	LogsDir      string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
	OrdersFile   string `yaml:"orders_file" envconfig:"ORDERS_FILE" validate:"required"`
	UsersFile    string `yaml:"users_file" envconfig:"USERS_FILE" validate:"required"`
}

// CleaningConfig controls ingestion and stage-one cleaning
type CleaningConfig struct {
	NAMarkers     []string          `yaml:"na_markers" envconfig:"NA_MARKERS"`
	StatusMapping map[string]string `yaml:"status_mapping" envconfig:"STATUS_MAPPING" validate:"required,min=1"`
}

// JoinConfig controls the orders to users join
type JoinConfig struct {
	KeyCandidates []string `yaml:"key_candidates" envconfig:"KEY_CANDIDATES" validate:"required,min=1,dive,required"`
	RightSuffix   string   `yaml:"right_suffix" envconfig:"RIGHT_SUFFIX" validate:"required"`
	Validate      string   `yaml:"validate" envconfig:"VALIDATE" validate:"oneof=many_to_one one_to_one"`
}

// OutlierConfig contains the IQR multiplier and winsorization quantiles
type OutlierConfig struct {
	IQRK       float64 `yaml:"iqr_k" envconfig:"IQR_K" validate:"gt=0"`
	WinsorLow  float64 `yaml:"winsor_low" envconfig:"WINSOR_LOW" validate:"gte=0,lt=1,ltfield=WinsorHigh"`
	WinsorHigh float64 `yaml:"winsor_high" envconfig:"WINSOR_HIGH" validate:"gt=0,lte=1"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// TelemetryConfig contains tracing and metrics configuration
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	Environment    string `yaml:"environment" envconfig:"ENVIRONMENT"`
	TracingEnabled bool   `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED"`
	TraceFile      string `yaml:"trace_file" envconfig:"TRACE_FILE"`
	MetricsEnabled bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
	MetricsFile    string `yaml:"metrics_file" envconfig:"METRICS_FILE" validate:"required_if=MetricsEnabled true"`
}

// WarehouseConfig controls the optional SQL export of the analytics table.
// Driver "sqlite" writes to Path; "postgres" connects with DSN.
type WarehouseConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"ENABLED"`
	Driver  string `yaml:"driver" envconfig:"DRIVER" validate:"omitempty,oneof=sqlite postgres"`
	Path    string `yaml:"path" envconfig:"PATH" validate:"required_if=Enabled true Driver sqlite"`
	DSN     string `yaml:"dsn" envconfig:"DSN" validate:"required_if=Enabled true Driver postgres"`
}

// Load builds the configuration from defaults, an optional YAML file and
// ORDERPULSE_* environment variables, in increasing order of precedence.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays YAML values onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// getConfigFilePath returns the first config file found in the usual locations
func getConfigFilePath() string {
	locations := []string{
		"orderpulse.yaml",
		"configs/orderpulse.yaml",
		"../configs/orderpulse.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Validate checks struct rules and normalizes the status mapping.
// Every mapping target must be a fixed point of the mapping so that
// normalizing an already normalized status is a no-op.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}

	normalized := make(map[string]string, len(c.Cleaning.StatusMapping))
	for k, v := range c.Cleaning.StatusMapping {
		key := strings.ToLower(strings.TrimSpace(k))
		if key == "" {
			return fmt.Errorf("status mapping contains an empty key")
		}
		normalized[key] = strings.ToLower(strings.TrimSpace(v))
	}
	for k, v := range normalized {
		if target, ok := normalized[v]; ok && target != v {
			return fmt.Errorf("status mapping %q -> %q is not stable: %q maps to %q", k, v, v, target)
		}
	}
	c.Cleaning.StatusMapping = normalized

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}

	return nil
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			RawDir:       DefaultRawDir,
			ProcessedDir: DefaultProcessedDir,
			ReportsDir:   DefaultReportsDir,
			LogsDir:      DefaultLogsDir,
			OrdersFile:   DefaultOrdersFile,
			UsersFile:    DefaultUsersFile,
		},
		Cleaning: CleaningConfig{
			NAMarkers:     DefaultNAMarkers(),
			StatusMapping: DefaultStatusMapping(),
		},
		Join: JoinConfig{
			KeyCandidates: DefaultJoinKeyCandidates(),
			RightSuffix:   DefaultRightSuffix,
			Validate:      "many_to_one",
		},
		Outliers: OutlierConfig{
			IQRK:       1.5,
			WinsorLow:  0.01,
			WinsorHigh: 0.99,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    AppName,
			Environment:    "development",
			TracingEnabled: false,
			TraceFile:      "logs/traces.json",
			MetricsEnabled: true,
			MetricsFile:    "reports/pipeline_metrics.prom",
		},
		Warehouse: WarehouseConfig{
			Enabled: false,
			Driver:  "sqlite",
			Path:    "data/processed/analytics.sqlite",
		},
	}
}
