package taxonomy

import (
	"fmt"
	"strings"
)

// TaskType is the script kind of a subtask, derived from its file
// extension only.
type TaskType int

const (
	Sql TaskType = iota
	Shell
	Powershell
	Python
	Graphql
	Json
	Yaml
	Unknown
)

var taskTypeExtensions = [...][]string{
	Sql:        {"sql", "psql", "tsql", "plpgsql"},
	Shell:      {"sh"},
	Powershell: {"ps1"},
	Python:     {"py"},
	Graphql:    {"graphql", "gql"},
	Json:       {"json", "jsonl"},
	Yaml:       {"yaml", "yml"},
	Unknown:    nil,
}

var taskTypeLabels = [...]string{
	Sql:        "SQL",
	Shell:      "SHELL",
	Powershell: "POWERSHELL",
	Python:     "PYTHON",
	Graphql:    "GRAPHQL",
	Json:       "JSON",
	Yaml:       "YAML",
	Unknown:    "UNKNOWN",
}

var extensionIndex = func() map[string]TaskType {
	index := make(map[string]TaskType)
	for i, exts := range taskTypeExtensions {
		for _, ext := range exts {
			index[ext] = TaskType(i)
		}
	}
	return index
}()

// TaskTypes returns every task type in id order, Unknown last.
func TaskTypes() []TaskType {
	out := make([]TaskType, len(taskTypeExtensions))
	for i := range taskTypeExtensions {
		out[i] = TaskType(i)
	}
	return out
}

func (t TaskType) valid() bool {
	return t >= 0 && int(t) < len(taskTypeExtensions)
}

// ID returns the numeric id of the task type.
func (t TaskType) ID() int {
	if !t.valid() {
		return int(Unknown)
	}
	return int(t)
}

// Extensions returns a copy of the lowercase extensions (without the dot)
// that map to this task type.
func (t TaskType) Extensions() []string {
	if !t.valid() {
		return nil
	}
	return copyAliases(taskTypeExtensions[t])
}

// String returns the display label, e.g. "SQL".
func (t TaskType) String() string {
	if !t.valid() {
		return taskTypeLabels[Unknown]
	}
	return taskTypeLabels[t]
}

// MarshalText encodes the task type as its display label.
func (t TaskType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText accepts a display label or an extension.
func (t *TaskType) UnmarshalText(text []byte) error {
	parsed, err := ParseTaskType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TaskTypeFromExtension maps a file extension to its task type. A leading
// dot is ignored and matching is case-insensitive. Unrecognized extensions
// yield Unknown.
func TaskTypeFromExtension(ext string) TaskType {
	if t, ok := extensionIndex[fold(strings.TrimPrefix(ext, "."))]; ok {
		return t
	}
	return Unknown
}

// KnownExtensions lists every recognized extension in task type order.
func KnownExtensions() []string {
	var exts []string
	for _, group := range taskTypeExtensions {
		exts = append(exts, group...)
	}
	return exts
}

// ParseTaskType accepts a display label ("SQL") or an extension ("py",
// ".yml"). Neither Unknown nor unrecognized tokens are accepted.
func ParseTaskType(token string) (TaskType, error) {
	for i, label := range taskTypeLabels {
		if TaskType(i) != Unknown && strings.EqualFold(token, label) {
			return TaskType(i), nil
		}
	}
	if t := TaskTypeFromExtension(token); t != Unknown {
		return t, nil
	}
	return Unknown, fmt.Errorf("parsing task type: %w", &AliasError{Kind: "task type", Token: token})
}
