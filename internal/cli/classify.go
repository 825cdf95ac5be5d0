package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/subtask-manager/internal/core"
	"github.com/valter-silva-au/subtask-manager/pkg/models"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <path>...",
	Short: "Classify paths without building the inventory",
	Long: `Show how each path would be classified. Relative paths are taken
relative to the inventory root; the files do not need to exist.

Exits with an error if any path cannot be classified.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat()
		if err != nil {
			return err
		}

		root := resolveRoot()
		if root == "" {
			return fmt.Errorf("no inventory root configured (use --root)")
		}

		var (
			classified []*models.Subtask
			failures   []string
		)
		for _, arg := range args {
			path := arg
			if !filepath.IsAbs(path) {
				path = filepath.Join(root, path)
			}
			sub, err := core.Classify(root, path)
			if err != nil {
				failures = append(failures, err.Error())
				continue
			}
			classified = append(classified, sub)
		}

		out := cmd.OutOrStdout()
		if format != models.OutputTable {
			if err := writeStructured(out, format, classified); err != nil {
				return err
			}
		} else if len(classified) > 0 {
			rows := make([][]string, 0, len(classified))
			for _, s := range classified {
				common := ""
				if s.IsCommon {
					common = "yes"
				}
				rows = append(rows, []string{
					stageCell(s), systemCell(s), orDash(s.EntityName()), taskTypeCell(s), orDash(common), relativeTo(root, s.Path),
				})
			}
			writeTable(out, []string{"STAGE", "SYSTEM", "ENTITY", "TYPE", "COMMON", "PATH"}, rows)
		}

		if len(failures) > 0 {
			for _, f := range failures {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", f)
			}
			return fmt.Errorf("%d of %d path(s) could not be classified", len(failures), len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}
