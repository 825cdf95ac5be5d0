package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	stmmcp "github.com/valter-silva-au/subtask-manager/internal/mcp"
	"github.com/valter-silva-au/subtask-manager/pkg/models"
)

var metricsSince string

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display inventory build metrics",
	Long: `Display aggregated metrics derived from the event log.

Metrics include build and failure counts, builds per root, the latest
subtask count and build durations.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if MetricsCalc == nil {
			return fmt.Errorf("metrics calculator not initialized (observability may be disabled)")
		}

		format, err := outputFormat()
		if err != nil {
			return err
		}

		sinceTime, err := parseSinceDuration(metricsSince)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		metrics, err := MetricsCalc.Calculate(sinceTime)
		if err != nil {
			return fmt.Errorf("calculating metrics: %w", err)
		}

		out := cmd.OutOrStdout()
		if format != models.OutputTable {
			return writeStructured(out, format, metrics)
		}

		fmt.Fprintf(out, "Metrics (since %s)\n\n", sinceTime.Format("2006-01-02"))
		fmt.Fprintf(out, "  %-24s %d\n", "Events recorded:", metrics.EventCount)
		fmt.Fprintf(out, "  %-24s %d\n", "Builds:", metrics.Builds)
		fmt.Fprintf(out, "  %-24s %d\n", "Build failures:", metrics.BuildFailures)
		fmt.Fprintf(out, "  %-24s %d\n", "Last subtask count:", metrics.LastSubtasks)
		fmt.Fprintf(out, "  %-24s %.1f\n", "Avg build (ms):", metrics.AvgBuildMillis)
		fmt.Fprintf(out, "  %-24s %d\n", "Max build (ms):", metrics.MaxBuildMillis)
		if metrics.LastBuildFailed {
			fmt.Fprintf(out, "  %-24s %s\n", "Last build failed:", metrics.LastError)
		}

		printCounts(out, "Builds by root", metrics.BuildsByRoot)

		if metrics.OldestEvent != nil {
			fmt.Fprintf(out, "\n  %-24s %s\n", "Oldest event:", metrics.OldestEvent.Format(time.RFC3339))
		}
		if metrics.NewestEvent != nil {
			fmt.Fprintf(out, "  %-24s %s\n", "Newest event:", metrics.NewestEvent.Format(time.RFC3339))
		}

		return nil
	},
}

// parseSinceDuration parses a window like "7d" or "24h" into the instant
// that far in the past. An empty window means seven days.
func parseSinceDuration(s string) (time.Time, error) {
	now := time.Now().UTC()
	s = strings.TrimSpace(s)
	if s == "" {
		return now.AddDate(0, 0, -7), nil
	}
	return stmmcp.ParseSince(s, now)
}

func init() {
	metricsCmd.Flags().StringVar(&metricsSince, "since", "7d", "Time window for metrics (e.g. 7d, 30d, 24h)")
	rootCmd.AddCommand(metricsCmd)
}
