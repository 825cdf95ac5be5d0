// Package core contains the business logic of the subtask manager: path
// classification, the subtask inventory and its queries, command
// rendering, and configuration loading.
package core

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/viper"
	"github.com/valter-silva-au/subtask-manager/internal/params"
	"github.com/valter-silva-au/subtask-manager/pkg/models"
)

// ConfigFileName is the name of the YAML configuration file looked up in
// the base directory.
const ConfigFileName = ".stmconfig"

// ConfigurationManager loads and validates the .stmconfig file.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
	ValidateConfig(cfg *models.GlobalConfig) error
	// ResolveRoot returns the absolute-or-base-relative subtask root. An
	// explicit override wins over the configured root.
	ResolveRoot(cfg *models.GlobalConfig, override string) string
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading YAML configuration files.
type viperConfigManager struct {
	// basePath is the directory where .stmconfig resides.
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// configuration relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultGlobalConfig returns a GlobalConfig populated with defaults.
func DefaultGlobalConfig() *models.GlobalConfig {
	return &models.GlobalConfig{
		Root:          "subtasks",
		OutputFormat:  models.OutputTable,
		IncludeCommon: true,
		Observability: models.ObservabilityConfig{
			Enabled:  true,
			EventLog: ".stm_events.jsonl",
			Alerts: models.AlertConfig{
				FailureStreak:   1,
				StaleHours:      24 * 7,
				SlowBuildMillis: 5000,
			},
		},
	}
}

// LoadGlobalConfig reads .stmconfig from the base path. Environment
// variables prefixed with STM_ override file values (e.g. STM_ROOT). If the
// file does not exist, defaults are returned.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	cfg := DefaultGlobalConfig()

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)
	v.SetEnvPrefix("STM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("root", cfg.Root)
	v.SetDefault("output.format", string(cfg.OutputFormat))
	v.SetDefault("query.include_common", cfg.IncludeCommon)
	v.SetDefault("loader.max_bytes", cfg.Loader.MaxBytes)
	v.SetDefault("render.styles", []string{})
	v.SetDefault("scan.exclude", []string{})
	v.SetDefault("observability.enabled", cfg.Observability.Enabled)
	v.SetDefault("observability.event_log", cfg.Observability.EventLog)
	v.SetDefault("observability.alerts.failure_streak", cfg.Observability.Alerts.FailureStreak)
	v.SetDefault("observability.alerts.stale_hours", cfg.Observability.Alerts.StaleHours)
	v.SetDefault("observability.alerts.slow_build_ms", cfg.Observability.Alerts.SlowBuildMillis)
	v.SetDefault("observability.slack_webhook", "")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
		}
	}

	cfg.Root = v.GetString("root")
	cfg.OutputFormat = models.OutputFormat(v.GetString("output.format"))
	cfg.IncludeCommon = v.GetBool("query.include_common")
	cfg.Loader.MaxBytes = v.GetInt64("loader.max_bytes")
	cfg.Scan.Exclude = v.GetStringSlice("scan.exclude")
	cfg.Observability.Enabled = v.GetBool("observability.enabled")
	cfg.Observability.EventLog = v.GetString("observability.event_log")
	cfg.Observability.Alerts.FailureStreak = v.GetInt("observability.alerts.failure_streak")
	cfg.Observability.Alerts.StaleHours = v.GetInt("observability.alerts.stale_hours")
	cfg.Observability.Alerts.SlowBuildMillis = v.GetInt64("observability.alerts.slow_build_ms")
	cfg.Observability.SlackWebhook = v.GetString("observability.slack_webhook")

	cfg.RenderStyles = nil
	for _, s := range v.GetStringSlice("render.styles") {
		cfg.RenderStyles = append(cfg.RenderStyles, models.ParamStyle(s))
	}

	return cfg, nil
}

func (cm *viperConfigManager) ResolveRoot(cfg *models.GlobalConfig, override string) string {
	root := cfg.Root
	if override != "" {
		root = override
	}
	if root == "" {
		root = DefaultGlobalConfig().Root
	}
	if filepath.IsAbs(root) {
		return filepath.Clean(root)
	}
	return filepath.Join(cm.basePath, root)
}

var validOutputFormats = map[models.OutputFormat]bool{
	models.OutputTable: true,
	models.OutputYAML:  true,
	models.OutputJSON:  true,
}

// ValidateConfig checks the configuration for invalid values and reports
// every problem in a single error.
func (cm *viperConfigManager) ValidateConfig(cfg *models.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if strings.TrimSpace(cfg.Root) == "" {
		errs = append(errs, "root must not be empty")
	}

	if !validOutputFormats[cfg.OutputFormat] {
		errs = append(errs, fmt.Sprintf(
			"output.format %q is invalid, must be one of: table, yaml, json",
			cfg.OutputFormat,
		))
	}

	if cfg.Loader.MaxBytes < 0 {
		errs = append(errs, fmt.Sprintf("loader.max_bytes must be non-negative, got %d", cfg.Loader.MaxBytes))
	}

	for _, s := range cfg.RenderStyles {
		if !params.ValidStyle(s) {
			errs = append(errs, fmt.Sprintf("render.styles entry %q is not a known placeholder style", s))
		}
	}

	for _, pattern := range cfg.Scan.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			errs = append(errs, fmt.Sprintf("scan.exclude pattern %q is invalid", pattern))
		}
	}

	if cfg.Observability.Enabled && cfg.Observability.EventLog == "" {
		errs = append(errs, "observability.event_log must be set when observability is enabled")
	}

	a := cfg.Observability.Alerts
	if a.FailureStreak < 0 || a.StaleHours < 0 || a.SlowBuildMillis < 0 {
		errs = append(errs, "observability.alerts thresholds must be non-negative")
	}

	if hook := cfg.Observability.SlackWebhook; hook != "" && !strings.HasPrefix(hook, "https://") {
		errs = append(errs, fmt.Sprintf("observability.slack_webhook %q must be an https URL", hook))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
