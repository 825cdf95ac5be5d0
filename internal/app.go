// Package internal provides the App struct that wires the components of the
// subtask manager together and initializes the CLI layer.
package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/valter-silva-au/subtask-manager/internal/cli"
	"github.com/valter-silva-au/subtask-manager/internal/core"
	"github.com/valter-silva-au/subtask-manager/internal/observability"
	"github.com/valter-silva-au/subtask-manager/internal/storage"
	"github.com/valter-silva-au/subtask-manager/pkg/models"
	"github.com/valter-silva-au/subtask-manager/pkg/taxonomy"
)

// App holds all service dependencies for the subtask manager.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.GlobalConfig

	// Storage layer
	Scanner *storage.FileScanner
	Loader  *storage.FileLoader

	// Observability
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
}

// NewApp creates and wires all components. basePath is the directory that
// holds .stmconfig and the event log; relative inventory roots resolve
// against it.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadGlobalConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg

	// --- Storage layer ---
	app.Scanner = storage.NewFileScanner(taxonomy.KnownExtensions(), cfg.Scan.Exclude...)
	app.Loader = storage.NewFileLoader(cfg.Loader.MaxBytes)

	// --- Observability ---
	if cfg.Observability.Enabled {
		eventLogPath := cfg.Observability.EventLog
		if !filepath.IsAbs(eventLogPath) {
			eventLogPath = filepath.Join(basePath, eventLogPath)
		}
		app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
		if err != nil {
			// Non-fatal: run without observability if the log can't be opened.
			app.EventLog = nil
		}
	}
	if app.EventLog != nil {
		app.AlertEngine = observability.NewAlertEngine(app.EventLog, alertThresholds(cfg.Observability.Alerts))
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}
	if cfg.Observability.SlackWebhook != "" {
		app.Notifier = observability.NewSlackNotifier(cfg.Observability.SlackWebhook)
	}

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Config = cfg
	cli.ConfigMgr = app.ConfigMgr
	cli.InventoryBuilder = app.BuildInventory

	cli.EventLog = app.EventLog
	cli.AlertEngine = app.AlertEngine
	cli.MetricsCalc = app.MetricsCalc
	cli.Notifier = app.Notifier

	return app, nil
}

// BuildInventory scans root and returns its inventory. Every attempt is
// recorded in the event log when observability is enabled.
func (a *App) BuildInventory(root string) (core.SubtaskManager, error) {
	var events core.EventLogger
	if a.EventLog != nil {
		events = &eventLogAdapter{log: a.EventLog}
	}
	return core.NewSubtaskManager(root, a.Scanner, a.Loader, events)
}

// Close releases resources held by the App, such as the event log file handle.
// It is safe to call Close on an App whose EventLog is nil.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// alertThresholds maps configured thresholds onto the alert engine's.
func alertThresholds(cfg models.AlertConfig) observability.AlertThresholds {
	return observability.AlertThresholds{
		FailureStreak:   cfg.FailureStreak,
		StaleHours:      cfg.StaleHours,
		SlowBuildMillis: cfg.SlowBuildMillis,
	}
}

// ResolveBasePath determines the directory holding .stmconfig. It checks
// the STM_HOME env var, then walks up from the current directory, and
// finally falls back to the current directory.
func ResolveBasePath() string {
	if home := os.Getenv("STM_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	cwd := dir
	for {
		if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return cwd
}

// --- Adapters ---

// eventLogAdapter adapts observability.EventLog to core.EventLogger.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	return a.log.Write(observability.Event{
		Time:    time.Now().UTC(),
		Level:   observability.LevelFor(eventType),
		Type:    eventType,
		Message: eventType,
		Data:    data,
	})
}
