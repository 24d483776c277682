// Package config loads and validates agent configuration.
package config

import (
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full agent configuration.
type Config struct {
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Detection  DetectionConfig  `yaml:"anomaly_detection"`
	Checks     ChecksConfig     `yaml:"checks"`
	Resolution ResolutionConfig `yaml:"automated_resolution"`
	Journal    JournalConfig    `yaml:"journal"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// MonitoringConfig controls sampling.
type MonitoringConfig struct {
	// IntervalSeconds is the delay between cycles. Default: 60.
	IntervalSeconds int `yaml:"interval"`

	// Metrics is the set of metrics to sample. Default: cpu, memory, network.
	Metrics []string `yaml:"metrics"`

	// Thresholds maps metric names to static violation thresholds.
	Thresholds map[string]float64 `yaml:"thresholds"`
}

// DetectionConfig controls the statistical detector.
type DetectionConfig struct {
	// WindowSize is the number of samples retained per metric. Default: 60.
	WindowSize int `yaml:"window_size"`

	// Sensitivity is the z-score boundary in standard deviations. Default: 1.5.
	Sensitivity float64 `yaml:"sensitivity"`
}

// ChecksConfig selects which detection passes run each cycle.
// Both default to enabled.
type ChecksConfig struct {
	Static      *bool `yaml:"static"`
	Statistical *bool `yaml:"statistical"`
}

// StaticEnabled reports whether the static threshold pass runs.
func (c ChecksConfig) StaticEnabled() bool {
	return c.Static == nil || *c.Static
}

// StatisticalEnabled reports whether the statistical pass runs.
func (c ChecksConfig) StatisticalEnabled() bool {
	return c.Statistical == nil || *c.Statistical
}

// ResolutionConfig controls automated remediation.
type ResolutionConfig struct {
	// Enabled turns remediation dispatch on. Default: false.
	Enabled bool `yaml:"enabled"`

	// DryRun logs remediation actions instead of executing them. Default: true.
	DryRun *bool `yaml:"dry_run"`

	// CPUKillThreshold is the per-process CPU percent above which processes
	// are terminated during cpu remediation. Default: 50.
	CPUKillThreshold float64 `yaml:"cpu_kill_threshold"`
}

// DryRunEnabled reports whether remediation runs in dry-run mode.
func (c ResolutionConfig) DryRunEnabled() bool {
	return c.DryRun == nil || *c.DryRun
}

// JournalConfig controls the anomaly journal.
type JournalConfig struct {
	// Path is the JSONL output file. Empty disables the journal.
	Path string `yaml:"path"`

	// QueueSize bounds the in-memory record queue. Default: 1000.
	QueueSize int `yaml:"queue_size"`

	// RetentionHours is the TTL for rotated journal files. Default: 168.
	RetentionHours int `yaml:"retention_hours"`
}

// TelemetryConfig controls OpenTelemetry export.
type TelemetryConfig struct {
	// Enabled turns OTel export on. Default: false.
	Enabled bool `yaml:"enabled"`

	// Exporter is one of none, stdout, otlp-grpc, otlp-http. Default: none.
	Exporter string `yaml:"exporter"`

	// Endpoint is the OTLP endpoint, e.g. "localhost:4317".
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS for OTLP connections.
	Insecure bool `yaml:"insecure"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error. Default: info.
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Monitoring: MonitoringConfig{
			IntervalSeconds: 60,
			Metrics:         []string{"cpu", "memory", "network"},
			Thresholds: map[string]float64{
				"cpu":     80.0,
				"memory":  85.0,
				"network": 70.0,
			},
		},
		Detection: DetectionConfig{
			WindowSize:  60,
			Sensitivity: 1.5,
		},
		Journal: JournalConfig{
			QueueSize:      1000,
			RetentionHours: 168,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// WithDefaults returns a copy of the config with zero values replaced by
// defaults. Partial config files stay valid.
func (c Config) WithDefaults() Config {
	defaults := Default()
	result := c

	if result.Monitoring.IntervalSeconds <= 0 {
		result.Monitoring.IntervalSeconds = defaults.Monitoring.IntervalSeconds
	}
	if len(result.Monitoring.Metrics) == 0 {
		result.Monitoring.Metrics = defaults.Monitoring.Metrics
	}
	if len(result.Monitoring.Thresholds) == 0 {
		result.Monitoring.Thresholds = defaults.Monitoring.Thresholds
	}
	if result.Detection.WindowSize <= 0 {
		result.Detection.WindowSize = defaults.Detection.WindowSize
	}
	if result.Detection.Sensitivity <= 0 {
		result.Detection.Sensitivity = defaults.Detection.Sensitivity
	}
	if result.Resolution.CPUKillThreshold <= 0 {
		result.Resolution.CPUKillThreshold = 50.0
	}
	if result.Journal.QueueSize <= 0 {
		result.Journal.QueueSize = defaults.Journal.QueueSize
	}
	if result.Journal.RetentionHours <= 0 {
		result.Journal.RetentionHours = defaults.Journal.RetentionHours
	}
	if result.Logging.Level == "" {
		result.Logging.Level = defaults.Logging.Level
	}
	return result
}

// Interval returns the cycle interval as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Monitoring.IntervalSeconds) * time.Second
}

// Load reads a YAML config file and applies defaults. Config problems never
// stop the agent: a missing, unreadable, or malformed file logs a warning and
// yields the defaults. logger may be nil, in which case slog.Default is used.
func Load(path string, logger *slog.Logger) *Config {
	if logger == nil {
		logger = slog.Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("config file not found, using defaults", "path", path)
		} else {
			logger.Warn("config file unreadable, using defaults", "path", path, "error", err.Error())
		}
		return Default()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logger.Warn("config file malformed, using defaults", "path", path, "error", err.Error())
		return Default()
	}

	full := cfg.WithDefaults()
	return &full
}
