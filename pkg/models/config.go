package models

// OutputFormat selects how CLI results are printed.
type OutputFormat string

const (
	OutputTable OutputFormat = "table"
	OutputYAML  OutputFormat = "yaml"
	OutputJSON  OutputFormat = "json"
)

// ScanConfig controls file discovery under the inventory root.
type ScanConfig struct {
	Exclude []string `yaml:"exclude,omitempty" mapstructure:"exclude"`
}

// LoaderConfig controls how discovered files are loaded.
type LoaderConfig struct {
	// MaxBytes caps the size of a loaded file. Zero disables the limit.
	MaxBytes int64 `yaml:"max_bytes" mapstructure:"max_bytes"`
}

// AlertConfig holds the inventory health alert thresholds. Zero disables a
// check.
type AlertConfig struct {
	FailureStreak   int   `yaml:"failure_streak" mapstructure:"failure_streak"`
	StaleHours      int   `yaml:"stale_hours" mapstructure:"stale_hours"`
	SlowBuildMillis int64 `yaml:"slow_build_ms" mapstructure:"slow_build_ms"`
}

// ObservabilityConfig controls the JSONL event log and alerting.
type ObservabilityConfig struct {
	Enabled      bool        `yaml:"enabled" mapstructure:"enabled"`
	EventLog     string      `yaml:"event_log" mapstructure:"event_log"`
	Alerts       AlertConfig `yaml:"alerts" mapstructure:"alerts"`
	SlackWebhook string      `yaml:"slack_webhook,omitempty" mapstructure:"slack_webhook"`
}

// GlobalConfig holds settings read from .stmconfig via Viper.
type GlobalConfig struct {
	Root          string              `yaml:"root" mapstructure:"root"`
	OutputFormat  OutputFormat        `yaml:"output_format" mapstructure:"output_format"`
	IncludeCommon bool                `yaml:"include_common" mapstructure:"include_common"`
	RenderStyles  []ParamStyle        `yaml:"render_styles,omitempty" mapstructure:"render_styles"`
	Scan          ScanConfig          `yaml:"scan" mapstructure:"scan"`
	Loader        LoaderConfig        `yaml:"loader" mapstructure:"loader"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
}
