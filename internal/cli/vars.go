package cli

import (
	"fmt"

	"github.com/valter-silva-au/subtask-manager/internal/core"
	"github.com/valter-silva-au/subtask-manager/internal/observability"
	"github.com/valter-silva-au/subtask-manager/pkg/models"
)

// Configuration, set during app initialization in app.go.
var (
	BasePath  string
	Config    *models.GlobalConfig
	ConfigMgr core.ConfigurationManager
)

// RootOverride is bound to the --root persistent flag.
var RootOverride string

// InventoryBuilder builds the inventory for an absolute root directory.
// Set during app initialization in app.go.
var InventoryBuilder func(root string) (core.SubtaskManager, error)

// Observability service instances, set during app initialization in app.go.
var (
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
)

// resolveRoot returns the absolute inventory root for this invocation.
func resolveRoot() string {
	if ConfigMgr == nil || Config == nil {
		return RootOverride
	}
	return ConfigMgr.ResolveRoot(Config, RootOverride)
}

// loadInventory builds the inventory under the resolved root.
func loadInventory() (core.SubtaskManager, error) {
	if InventoryBuilder == nil {
		return nil, fmt.Errorf("inventory builder not initialized")
	}
	root := resolveRoot()
	if root == "" {
		return nil, fmt.Errorf("no inventory root configured (use --root)")
	}
	return InventoryBuilder(root)
}

// renderStyles returns the configured default placeholder styles.
func renderStyles() []models.ParamStyle {
	if Config == nil {
		return nil
	}
	return Config.RenderStyles
}

// includeCommonDefault reports the configured include_common default.
func includeCommonDefault() bool {
	if Config == nil {
		return true
	}
	return Config.IncludeCommon
}
