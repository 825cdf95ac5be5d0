// Package params detects and substitutes parameter placeholders in subtask
// commands. Seven placeholder styles are recognized; see models.ParamStyle.
package params

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/valter-silva-au/subtask-manager/pkg/models"
)

type placeholder struct {
	pattern *regexp.Regexp
	// skip reports whether a match at [start,end) is part of a longer
	// delimiter and must be left alone.
	skip func(content string, start, end int) bool
}

var placeholders = map[models.ParamStyle]placeholder{
	models.ParamDoubleCurly: {
		pattern: regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_.]*)\s*\}\}`),
	},
	models.ParamCurly: {
		pattern: regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_.]*)\}`),
		skip: func(content string, start, end int) bool {
			if start > 0 && (content[start-1] == '{' || content[start-1] == '$') {
				return true
			}
			return end < len(content) && content[end] == '}'
		},
	},
	models.ParamDollarBrace: {
		pattern: regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_.]*)\}`),
	},
	models.ParamDollar: {
		pattern: regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`),
	},
	models.ParamDoubleUnderscore: {
		pattern: regexp.MustCompile(`__([A-Za-z0-9]+(?:_[A-Za-z0-9]+)*)__`),
	},
	models.ParamPercent: {
		pattern: regexp.MustCompile(`%([A-Za-z_][A-Za-z0-9_.]*)%`),
	},
	models.ParamAngle: {
		pattern: regexp.MustCompile(`<([A-Za-z_][A-Za-z0-9_.]*)>`),
	},
}

// ValidStyle reports whether s names a known placeholder style.
func ValidStyle(s models.ParamStyle) bool {
	_, ok := placeholders[s]
	return ok
}

// ParseStyle converts a style name such as "dollar_brace" into a ParamStyle.
func ParseStyle(name string) (models.ParamStyle, error) {
	s := models.ParamStyle(strings.ToLower(strings.TrimSpace(name)))
	if !ValidStyle(s) {
		return "", fmt.Errorf("unknown placeholder style %q", name)
	}
	return s, nil
}

// ordered returns the requested styles in substitution order. An empty
// request selects every style.
func ordered(styles []models.ParamStyle) []models.ParamStyle {
	if len(styles) == 0 {
		return models.AllParamStyles()
	}
	want := make(map[models.ParamStyle]bool, len(styles))
	for _, s := range styles {
		want[s] = true
	}
	var out []models.ParamStyle
	for _, s := range models.AllParamStyles() {
		if want[s] {
			out = append(out, s)
		}
	}
	return out
}

// lookup finds a value by exact name, then by its lowercase form so that
// __USER__ picks up a "user" parameter.
func lookup(values map[string]string, name string) (string, bool) {
	if v, ok := values[name]; ok {
		return v, true
	}
	v, ok := values[strings.ToLower(name)]
	return v, ok
}

// Detect returns the unique placeholders present in content, grouped by
// style in substitution order and sorted by name within a style.
func Detect(content string) []models.Param {
	var found []models.Param
	for _, style := range models.AllParamStyles() {
		ph := placeholders[style]
		seen := make(map[string]bool)
		var names []string
		for _, m := range ph.pattern.FindAllStringSubmatchIndex(content, -1) {
			if ph.skip != nil && ph.skip(content, m[0], m[1]) {
				continue
			}
			name := content[m[2]:m[3]]
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
		sort.Strings(names)
		for _, n := range names {
			found = append(found, models.Param{Name: n, Style: style})
		}
	}
	return found
}

// Render substitutes values into content for the requested styles and
// returns the result together with the sorted names of placeholders that
// had no value.
func Render(content string, values map[string]string, styles []models.ParamStyle) (string, []string) {
	missing := make(map[string]bool)
	for _, style := range ordered(styles) {
		ph := placeholders[style]
		content = replace(content, ph, values, missing)
	}

	unresolved := make([]string, 0, len(missing))
	for name := range missing {
		unresolved = append(unresolved, name)
	}
	sort.Strings(unresolved)
	return content, unresolved
}

func replace(content string, ph placeholder, values map[string]string, missing map[string]bool) string {
	matches := ph.pattern.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return content
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		if ph.skip != nil && ph.skip(content, m[0], m[1]) {
			continue
		}
		name := content[m[2]:m[3]]
		v, ok := lookup(values, name)
		if !ok {
			missing[name] = true
			continue
		}
		b.WriteString(content[last:m[0]])
		b.WriteString(v)
		last = m[1]
	}
	b.WriteString(content[last:])
	return b.String()
}
