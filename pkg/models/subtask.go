package models

import "github.com/valter-silva-au/subtask-manager/pkg/taxonomy"

// Subtask is one classified unit of pipeline work backed by a single file
// under an inventory root. Path is its identity key within the root.
type Subtask struct {
	ID         string               `yaml:"id" json:"id"`
	Name       string               `yaml:"name" json:"name"`
	Path       string               `yaml:"path" json:"path"`
	Stage      *taxonomy.Stage      `yaml:"stage,omitempty" json:"stage,omitempty"`
	SystemType *taxonomy.SystemType `yaml:"system_type,omitempty" json:"system_type,omitempty"`
	Entity     *string              `yaml:"entity,omitempty" json:"entity,omitempty"`
	TaskType   *taxonomy.TaskType   `yaml:"task_type,omitempty" json:"task_type,omitempty"`
	IsCommon   bool                 `yaml:"is_common" json:"is_common"`
	Command    string               `yaml:"command,omitempty" json:"command,omitempty"`
	Params     []Param              `yaml:"params,omitempty" json:"params,omitempty"`
}

// Clone returns a deep copy so that callers holding the copy cannot mutate
// the original through its optional fields.
func (s *Subtask) Clone() *Subtask {
	if s == nil {
		return nil
	}
	c := *s
	if s.Stage != nil {
		c.Stage = Ptr(*s.Stage)
	}
	if s.SystemType != nil {
		c.SystemType = Ptr(*s.SystemType)
	}
	if s.Entity != nil {
		c.Entity = Ptr(*s.Entity)
	}
	if s.TaskType != nil {
		c.TaskType = Ptr(*s.TaskType)
	}
	if s.Params != nil {
		c.Params = append([]Param(nil), s.Params...)
	}
	return &c
}

// EntityName returns the entity label or "" when the subtask has none.
func (s *Subtask) EntityName() string {
	if s.Entity == nil {
		return ""
	}
	return *s.Entity
}

// Ptr returns a pointer to a copy of v.
func Ptr[T any](v T) *T {
	return &v
}

// TaskFilter selects subtasks from an inventory. Empty string fields and
// nil pointers impose no constraint; every provided field must match.
//
// Stage accepts a display label ("LOAD") or a stage alias. SystemType is
// resolved through the strict alias resolver, so an unrecognized token
// fails the query instead of matching nothing. TaskType accepts a display
// label ("SQL") or an extension. IncludeCommon defaults to true when nil.
type TaskFilter struct {
	Stage         string
	Entity        string
	SystemType    string
	TaskType      string
	IsCommon      *bool
	IncludeCommon *bool
}

// IncludesCommon reports whether common subtasks are appended to results.
func (f TaskFilter) IncludesCommon() bool {
	return f.IncludeCommon == nil || *f.IncludeCommon
}
