package cli

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/subtask-manager/internal/core"
	"github.com/valter-silva-au/subtask-manager/pkg/models"
)

var (
	listStage      string
	listEntity     string
	listSystem     string
	listType       string
	listOnlyCommon bool
	listNoCommon   bool
	listCommon     bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List subtasks matching a filter",
	Long: `List the subtasks of the inventory that match every given filter.

--stage and --type accept a display label (LOAD, SQL) or an alias/extension
(l, sql). --system is resolved strictly: an unknown alias is an error.
Common subtasks (files directly under the root) are appended to the result
unless --no-common is given or query.include_common is false.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat()
		if err != nil {
			return err
		}

		inv, err := loadInventory()
		if err != nil {
			return err
		}

		filter := models.TaskFilter{
			Stage:      strings.TrimSpace(listStage),
			Entity:     listEntity,
			SystemType: strings.TrimSpace(listSystem),
			TaskType:   strings.TrimSpace(listType),
		}
		if listOnlyCommon {
			filter.IsCommon = models.Ptr(true)
		}
		include := includeCommonDefault()
		if cmd.Flags().Changed("common") {
			include = listCommon
		}
		if listNoCommon {
			include = false
		}
		filter.IncludeCommon = models.Ptr(include)

		tasks, err := inv.GetTasks(filter)
		if err != nil {
			return fmt.Errorf("querying subtasks: %w", err)
		}

		out := cmd.OutOrStdout()
		keys := stemKeys(tasks)
		if format != models.OutputTable {
			entries := make([]keyedSubtask, len(tasks))
			for i, t := range tasks {
				entries[i] = keyedSubtask{Key: keys[t], Subtask: *t}
			}
			return writeStructured(out, format, entries)
		}

		if len(tasks) == 0 {
			fmt.Fprintln(out, "No subtasks found.")
			return nil
		}

		rows := make([][]string, 0, len(tasks))
		for _, t := range tasks {
			rows = append(rows, []string{
				keys[t],
				stageCell(t),
				systemCell(t),
				orDash(t.EntityName()),
				taskTypeCell(t),
				relativeTo(inv.BasePath(), t.Path),
			})
		}
		writeTable(out, []string{"KEY", "STAGE", "SYSTEM", "ENTITY", "TYPE", "PATH"}, rows)
		fmt.Fprintf(out, "\n%d subtask(s)\n", len(tasks))
		return nil
	},
}

// keyedSubtask is a subtask tagged with its stem key for structured output.
type keyedSubtask struct {
	Key            string `yaml:"key" json:"key"`
	models.Subtask `yaml:",inline"`
}

// stemKeys maps every task to its key from core.KeyByStem.
func stemKeys(tasks []*models.Subtask) map[*models.Subtask]string {
	keyed := core.KeyByStem(tasks)
	keys := make(map[*models.Subtask]string, len(keyed))
	for k, t := range keyed {
		keys[t] = k
	}
	return keys
}

// relativeTo shortens path to be relative to root when possible.
func relativeTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// sortedKeys returns the keys of m in ascending order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	listCmd.Flags().StringVar(&listStage, "stage", "", "Filter by stage label or alias (e.g. LOAD, l)")
	listCmd.Flags().StringVar(&listEntity, "entity", "", "Filter by entity (exact match)")
	listCmd.Flags().StringVar(&listSystem, "system", "", "Filter by system type alias (e.g. pg, mssql)")
	listCmd.Flags().StringVar(&listType, "type", "", "Filter by task type label or extension (e.g. SQL, py)")
	listCmd.Flags().BoolVar(&listOnlyCommon, "only-common", false, "Only match common subtasks")
	listCmd.Flags().BoolVar(&listCommon, "common", true, "Append common subtasks to the result")
	listCmd.Flags().BoolVar(&listNoCommon, "no-common", false, "Do not append common subtasks")
	rootCmd.AddCommand(listCmd)
}
