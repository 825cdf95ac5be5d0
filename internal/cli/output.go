package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/subtask-manager/pkg/models"
)

// outputFlag is bound to the --output persistent flag.
var outputFlag string

// outputFormat resolves the effective output format: the flag wins over
// the configured default, which falls back to table.
func outputFormat() (models.OutputFormat, error) {
	format := strings.ToLower(strings.TrimSpace(outputFlag))
	if format == "" && Config != nil {
		format = string(Config.OutputFormat)
	}
	switch models.OutputFormat(format) {
	case "", models.OutputTable:
		return models.OutputTable, nil
	case models.OutputYAML, models.OutputJSON:
		return models.OutputFormat(format), nil
	}
	return "", fmt.Errorf("unsupported output format %q (use table, yaml or json)", format)
}

// writeStructured encodes v as YAML or JSON.
func writeStructured(w io.Writer, format models.OutputFormat, v any) error {
	switch format {
	case models.OutputJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("formatting as JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case models.OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("formatting as YAML: %w", err)
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported structured format %q", format)
}

// writeTable prints rows as left-aligned, space-padded columns under a
// header and a dashed rule.
func writeTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	rule := make([]string, len(headers))
	for i, h := range headers {
		rule[i] = strings.Repeat("-", len(h))
	}

	printRow := func(cells []string) {
		var b strings.Builder
		b.WriteString(" ")
		for i, cell := range cells {
			if i == len(cells)-1 {
				b.WriteString(" " + cell)
				continue
			}
			fmt.Fprintf(&b, " %-*s", widths[i], cell)
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}

	printRow(headers)
	printRow(rule)
	for _, row := range rows {
		printRow(row)
	}
}

// orDash renders an empty cell as "-".
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func stageCell(s *models.Subtask) string {
	if s.Stage == nil {
		return "-"
	}
	return s.Stage.String()
}

func systemCell(s *models.Subtask) string {
	if s.SystemType == nil {
		return "-"
	}
	return s.SystemType.String()
}

func taskTypeCell(s *models.Subtask) string {
	if s.TaskType == nil {
		return "-"
	}
	return s.TaskType.String()
}
