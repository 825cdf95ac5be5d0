package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/valter-silva-au/subtask-manager/pkg/models"
)

// =============================================================================
// Generators
// =============================================================================

type configValues struct {
	Root          string
	Format        models.OutputFormat
	IncludeCommon bool
	Styles        []models.ParamStyle
	MaxBytes      int64
	StaleHours    int
}

func genConfigValues(t *rapid.T) configValues {
	return configValues{
		Root:          rapid.StringMatching(`[a-z]{1,10}(/[a-z]{1,10}){0,2}`).Draw(t, "root"),
		Format:        rapid.SampledFrom([]models.OutputFormat{models.OutputTable, models.OutputYAML, models.OutputJSON}).Draw(t, "format"),
		IncludeCommon: rapid.Bool().Draw(t, "includeCommon"),
		Styles: rapid.SliceOfDistinct(
			rapid.SampledFrom([]models.ParamStyle{models.ParamCurly, models.ParamDollar, models.ParamDollarBrace, models.ParamAngle}),
			func(s models.ParamStyle) models.ParamStyle { return s },
		).Draw(t, "styles"),
		MaxBytes:   rapid.Int64Range(0, 1<<20).Draw(t, "maxBytes"),
		StaleHours: rapid.IntRange(0, 1000).Draw(t, "staleHours"),
	}
}

func (v configValues) yaml() string {
	var b strings.Builder
	fmt.Fprintf(&b, "root: %q\n", v.Root)
	fmt.Fprintf(&b, "output:\n  format: %s\n", v.Format)
	fmt.Fprintf(&b, "query:\n  include_common: %t\n", v.IncludeCommon)
	fmt.Fprintf(&b, "loader:\n  max_bytes: %d\n", v.MaxBytes)
	b.WriteString("render:\n  styles: [")
	for i, s := range v.Styles {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(string(s))
	}
	b.WriteString("]\n")
	fmt.Fprintf(&b, "observability:\n  alerts:\n    stale_hours: %d\n", v.StaleHours)
	return b.String()
}

// =============================================================================
// Properties
// =============================================================================

// Any config file built from valid values loads back unchanged and passes
// validation.
func TestProperty_ValidConfigLoadsAndValidates(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := genConfigValues(t)

		dir, err := os.MkdirTemp("", "stm-config-*")
		if err != nil {
			t.Fatalf("creating temp dir: %v", err)
		}
		defer os.RemoveAll(dir)
		if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(v.yaml()), 0o644); err != nil {
			t.Fatalf("writing config: %v", err)
		}

		cm := NewConfigurationManager(dir)
		cfg, err := cm.LoadGlobalConfig()
		if err != nil {
			t.Fatalf("LoadGlobalConfig() error = %v\n%s", err, v.yaml())
		}
		if err := cm.ValidateConfig(cfg); err != nil {
			t.Fatalf("ValidateConfig() error = %v\n%s", err, v.yaml())
		}

		if cfg.Root != v.Root || cfg.OutputFormat != v.Format || cfg.IncludeCommon != v.IncludeCommon {
			t.Fatalf("scalar mismatch: got %+v, want %+v", cfg, v)
		}
		if cfg.Loader.MaxBytes != v.MaxBytes || cfg.Observability.Alerts.StaleHours != v.StaleHours {
			t.Fatalf("nested mismatch: got loader=%+v alerts=%+v", cfg.Loader, cfg.Observability.Alerts)
		}
		if len(cfg.RenderStyles) != len(v.Styles) {
			t.Fatalf("RenderStyles = %v, want %v", cfg.RenderStyles, v.Styles)
		}
		for i := range v.Styles {
			if cfg.RenderStyles[i] != v.Styles[i] {
				t.Fatalf("RenderStyles = %v, want %v", cfg.RenderStyles, v.Styles)
			}
		}
		if got, want := cm.ResolveRoot(cfg, ""), filepath.Join(dir, v.Root); got != want {
			t.Fatalf("ResolveRoot() = %q, want %q", got, want)
		}
	})
}
