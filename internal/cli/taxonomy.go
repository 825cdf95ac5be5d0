package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/subtask-manager/pkg/models"
	"github.com/valter-silva-au/subtask-manager/pkg/taxonomy"
)

var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy [kind]",
	Short: "List stages, system types and task types",
	Long: `List the recognized classification vocabulary with ids and aliases.

kind is one of stage, system_type or task_type; without it every kind is
listed.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: taxonomy.Kinds(),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat()
		if err != nil {
			return err
		}

		kind := ""
		if len(args) == 1 {
			kind = args[0]
		}
		descriptors, err := taxonomy.Catalog(kind)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if format != models.OutputTable {
			return writeStructured(out, format, descriptors)
		}

		rows := make([][]string, 0, len(descriptors))
		for _, d := range descriptors {
			names := d.Aliases
			if d.Kind == taxonomy.KindTaskType {
				names = d.Extensions
			}
			rows = append(rows, []string{
				d.Kind, fmt.Sprintf("%d", d.ID), d.Label, d.CanonicalName, orDash(strings.Join(names, ", ")),
			})
		}
		writeTable(out, []string{"KIND", "ID", "LABEL", "CANONICAL", "ALIASES/EXTENSIONS"}, rows)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(taxonomyCmd)
}
