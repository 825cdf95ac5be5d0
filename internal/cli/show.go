package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/subtask-manager/internal/core"
	"github.com/valter-silva-au/subtask-manager/internal/params"
	"github.com/valter-silva-au/subtask-manager/pkg/models"
)

var (
	showEntity      string
	showParams      []string
	showStyles      []string
	showCommandOnly bool
)

var showCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show one subtask and render its command",
	Long: `Look up a subtask by name (file name without extension) and print its
classification and command.

When the same name exists for several entities, --entity picks one;
otherwise the first match in inventory order is shown. Placeholders in the
command are filled from --param name=value pairs for the placeholder styles
given with --style (defaults to render.styles, then every style).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat()
		if err != nil {
			return err
		}

		values, err := parseParamValues(showParams)
		if err != nil {
			return err
		}
		styles, err := parseStyles(showStyles)
		if err != nil {
			return err
		}
		if len(styles) == 0 {
			styles = renderStyles()
		}

		inv, err := loadInventory()
		if err != nil {
			return err
		}

		task, err := inv.GetTask(args[0], showEntity)
		if err != nil {
			return err
		}
		rendered := core.RenderSubtask(task, values, styles)

		out := cmd.OutOrStdout()
		if showCommandOnly {
			fmt.Fprint(out, rendered.Command)
			if !strings.HasSuffix(rendered.Command, "\n") {
				fmt.Fprintln(out)
			}
			return nil
		}
		if format != models.OutputTable {
			return writeStructured(out, format, rendered)
		}
		printSubtask(out, inv.BasePath(), rendered)
		return nil
	},
}

func printSubtask(w io.Writer, root string, r models.RenderedSubtask) {
	fmt.Fprintf(w, "  %-12s %s\n", "Name:", r.Name)
	fmt.Fprintf(w, "  %-12s %s\n", "ID:", r.ID)
	fmt.Fprintf(w, "  %-12s %s\n", "Path:", relativeTo(root, r.Path))
	fmt.Fprintf(w, "  %-12s %s\n", "Stage:", stageCell(&r.Subtask))
	fmt.Fprintf(w, "  %-12s %s\n", "System:", systemCell(&r.Subtask))
	fmt.Fprintf(w, "  %-12s %s\n", "Entity:", orDash(r.EntityName()))
	fmt.Fprintf(w, "  %-12s %s\n", "Type:", taskTypeCell(&r.Subtask))
	fmt.Fprintf(w, "  %-12s %t\n", "Common:", r.IsCommon)
	if len(r.Unresolved) > 0 {
		fmt.Fprintf(w, "  %-12s %s\n", "Unresolved:", strings.Join(r.Unresolved, ", "))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, r.Command)
}

// parseParamValues turns name=value pairs into a value map.
func parseParamValues(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --param %q (expected name=value)", pair)
		}
		values[name] = value
	}
	return values, nil
}

func parseStyles(names []string) ([]models.ParamStyle, error) {
	var styles []models.ParamStyle
	for _, n := range names {
		s, err := params.ParseStyle(n)
		if err != nil {
			return nil, err
		}
		styles = append(styles, s)
	}
	return styles, nil
}

func init() {
	showCmd.Flags().StringVar(&showEntity, "entity", "", "Entity to disambiguate subtasks sharing a name")
	showCmd.Flags().StringArrayVarP(&showParams, "param", "p", nil, "Parameter value as name=value (repeatable)")
	showCmd.Flags().StringSliceVar(&showStyles, "style", nil, "Placeholder styles to render (e.g. curly, dollar_brace, double_curly)")
	showCmd.Flags().BoolVar(&showCommandOnly, "command-only", false, "Print only the rendered command")
	rootCmd.AddCommand(showCmd)
}
