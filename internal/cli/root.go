package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "stm",
	Short: "Subtask Manager - inventory of ETL pipeline subtasks",
	Long: `Subtask Manager (stm) scans a directory tree of pipeline files, classifies
each file by stage, source system, entity and task type from its location,
and lets you query the resulting inventory.

A file lives at <root>/[stage]/[system]/[entity]/<name>.<ext>. Any of the
three folder levels may be omitted; files directly under the root are
common subtasks.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "stm %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&RootOverride, "root", "", "Inventory root directory (overrides the configured root)")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "", "Output format: table, yaml or json (defaults to output.format)")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
