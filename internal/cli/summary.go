package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/subtask-manager/pkg/models"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Count subtasks by stage, system, task type and entity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat()
		if err != nil {
			return err
		}

		inv, err := loadInventory()
		if err != nil {
			return err
		}
		sum := inv.Summarize()

		out := cmd.OutOrStdout()
		if format != models.OutputTable {
			return writeStructured(out, format, sum)
		}

		fmt.Fprintf(out, "Inventory %s\n\n", inv.BasePath())
		fmt.Fprintf(out, "  %-24s %d\n", "Subtasks:", sum.Total)
		fmt.Fprintf(out, "  %-24s %d\n", "Common:", sum.Common)
		printCounts(out, "By stage", sum.ByStage)
		printCounts(out, "By system", sum.BySystem)
		printCounts(out, "By task type", sum.ByTaskType)
		printCounts(out, "By entity", sum.ByEntity)
		return nil
	},
}

func printCounts(w io.Writer, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(w, "\n  %s:\n", title)
	for _, k := range sortedKeys(counts) {
		fmt.Fprintf(w, "    %-20s %d\n", k+":", counts[k])
	}
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}
