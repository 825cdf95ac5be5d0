package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/valter-silva-au/subtask-manager/internal/core"
	"github.com/valter-silva-au/subtask-manager/internal/storage"
	"github.com/valter-silva-au/subtask-manager/pkg/taxonomy"
)

// pipelineTree is laid out under <base>/subtasks, the default root.
var pipelineTree = map[string]string{
	"bootstrap.sql":                      "create schema if not exists {schema};",
	"00_setup/init.sh":                   "echo $ENV",
	"01_extract/pg/customers/orders.sql": "select * from {schema}.orders where day = '${day}'",
	"01_extract/pg/products/orders.sql":  "select * from {schema}.product_orders",
	"03_load/ch/customers/merge.sql":     "insert into {schema}.customers select * from staging",
}

// setupCLI writes files under a fresh default root and points the CLI
// globals at it. Everything is restored when the test ends.
func setupCLI(t *testing.T, files map[string]string) string {
	t.Helper()
	base := t.TempDir()
	root := filepath.Join(base, "subtasks")
	writeTree(t, root, files)

	origBase, origCfg, origMgr, origBuilder := BasePath, Config, ConfigMgr, InventoryBuilder
	t.Cleanup(func() {
		BasePath, Config, ConfigMgr, InventoryBuilder = origBase, origCfg, origMgr, origBuilder
		resetFlags(rootCmd)
	})

	BasePath = base
	Config = core.DefaultGlobalConfig()
	ConfigMgr = core.NewConfigurationManager(base)
	InventoryBuilder = func(r string) (core.SubtaskManager, error) {
		return core.NewSubtaskManager(r,
			storage.NewFileScanner(taxonomy.KnownExtensions()),
			storage.NewFileLoader(0),
			nil)
	}
	return root
}

// writeTree creates dir and the slash-separated files below it.
func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("creating %s: %v", dir, err)
	}
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("creating dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", rel, err)
		}
	}
}

// runCLI executes the root command with args and captures its output.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := Execute()
	return stdout.String(), stderr.String(), err
}

// resetFlags restores every flag to its default so that executions within
// one test binary do not leak state into each other.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
