package core

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/valter-silva-au/subtask-manager/pkg/models"
	"github.com/valter-silva-au/subtask-manager/pkg/taxonomy"
)

// FileDiscoverer lists candidate subtask files under a root. Results must
// be deterministic for a given tree.
type FileDiscoverer interface {
	ScanFiles(root string) ([]string, error)
}

// TaskLoader enriches a classified subtask, e.g. with its file content,
// without changing its classification.
type TaskLoader interface {
	Load(subtask *models.Subtask) (*models.Subtask, error)
}

// EventLogger is the subset of the observability event log that core
// services need. Defining it here avoids importing the observability package.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}

// SubtaskManager is the read-only inventory of classified subtasks found
// under one root.
type SubtaskManager interface {
	BasePath() string
	Subtasks() []*models.Subtask
	GetTasks(filter models.TaskFilter) ([]*models.Subtask, error)
	GetTask(name, entity string) (*models.Subtask, error)
	Summarize() Summary
}

type subtaskManager struct {
	basePath string
	subtasks []*models.Subtask
}

// NewSubtaskManager builds the inventory for rootPath: it discovers every
// file with a known extension, classifies it and passes it through the
// loader. The first classification or load failure aborts the build.
// loader and events may be nil.
func NewSubtaskManager(rootPath string, scanner FileDiscoverer, loader TaskLoader, events EventLogger) (SubtaskManager, error) {
	if scanner == nil {
		return nil, fmt.Errorf("building inventory: file scanner is nil")
	}

	start := time.Now()
	subtasks, err := buildSubtasks(rootPath, scanner, loader)
	if err != nil {
		logEvent(events, "inventory.build_failed", map[string]any{
			"root":  rootPath,
			"error": err.Error(),
		})
		return nil, fmt.Errorf("building inventory for %s: %w", rootPath, err)
	}

	logEvent(events, "inventory.built", map[string]any{
		"root":        rootPath,
		"count":       len(subtasks),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return &subtaskManager{basePath: rootPath, subtasks: subtasks}, nil
}

func buildSubtasks(rootPath string, scanner FileDiscoverer, loader TaskLoader) ([]*models.Subtask, error) {
	files, err := scanner.ScanFiles(rootPath)
	if err != nil {
		return nil, fmt.Errorf("scanning files: %w", err)
	}

	subtasks := make([]*models.Subtask, 0, len(files))
	for _, f := range files {
		sub, err := Classify(rootPath, f)
		if err != nil {
			return nil, err
		}
		if loader != nil {
			loaded, err := loader.Load(sub)
			if err != nil {
				return nil, fmt.Errorf("loading %s: %w", f, err)
			}
			sub = loaded
		}
		subtasks = append(subtasks, sub)
	}
	return subtasks, nil
}

// logEvent writes to the event logger when one is configured. Logging
// failures never affect the inventory.
func logEvent(events EventLogger, eventType string, data map[string]any) {
	if events == nil {
		return
	}
	_ = events.LogEvent(eventType, data)
}

func (m *subtaskManager) BasePath() string {
	return m.basePath
}

func (m *subtaskManager) Subtasks() []*models.Subtask {
	out := make([]*models.Subtask, len(m.subtasks))
	for i, s := range m.subtasks {
		out[i] = s.Clone()
	}
	return out
}

// GetTasks returns the subtasks matching every provided filter field, in
// inventory order. When the filter includes common subtasks, every common
// subtask not already selected is appended afterwards, whether or not it
// matches the other criteria.
func (m *subtaskManager) GetTasks(filter models.TaskFilter) ([]*models.Subtask, error) {
	match, err := compileFilter(filter)
	if err != nil {
		return nil, fmt.Errorf("filtering tasks: %w", err)
	}

	result := make([]*models.Subtask, 0)
	selected := make(map[string]bool)
	for _, s := range m.subtasks {
		if match(s) {
			result = append(result, s.Clone())
			selected[s.Path] = true
		}
	}

	if filter.IncludesCommon() {
		for _, s := range m.subtasks {
			if s.IsCommon && !selected[s.Path] {
				result = append(result, s.Clone())
				selected[s.Path] = true
			}
		}
	}

	return result, nil
}

// GetTask returns the first subtask in inventory order named name. A
// non-empty entity must match exactly, which excludes entity-less subtasks.
func (m *subtaskManager) GetTask(name, entity string) (*models.Subtask, error) {
	for _, s := range m.subtasks {
		if s.Name != name {
			continue
		}
		if entity != "" && (s.Entity == nil || *s.Entity != entity) {
			continue
		}
		return s.Clone(), nil
	}
	if entity != "" {
		return nil, fmt.Errorf("task with name '%s' and entity '%s' not found: %w", name, entity, ErrNotFound)
	}
	return nil, fmt.Errorf("task with name '%s' not found: %w", name, ErrNotFound)
}

type predicate func(*models.Subtask) bool

func matchNothing(*models.Subtask) bool { return false }

// compileFilter composes a predicate from the provided filter fields only.
func compileFilter(f models.TaskFilter) (predicate, error) {
	var preds []predicate

	if f.Stage != "" {
		stage, err := taxonomy.ParseStageLabel(f.Stage)
		if err != nil {
			preds = append(preds, matchNothing)
		} else {
			preds = append(preds, func(s *models.Subtask) bool {
				return s.Stage != nil && *s.Stage == stage
			})
		}
	}

	if f.Entity != "" {
		entity := f.Entity
		preds = append(preds, func(s *models.Subtask) bool {
			return s.Entity != nil && *s.Entity == entity
		})
	}

	if f.SystemType != "" {
		st, err := taxonomy.SystemTypeFromAlias(f.SystemType)
		if err != nil {
			return nil, err
		}
		preds = append(preds, func(s *models.Subtask) bool {
			return s.SystemType != nil && *s.SystemType == st
		})
	}

	if f.TaskType != "" {
		tt, err := taxonomy.ParseTaskType(f.TaskType)
		if err != nil {
			preds = append(preds, matchNothing)
		} else {
			preds = append(preds, func(s *models.Subtask) bool {
				return s.TaskType != nil && *s.TaskType == tt
			})
		}
	}

	if f.IsCommon != nil {
		want := *f.IsCommon
		preds = append(preds, func(s *models.Subtask) bool {
			return s.IsCommon == want
		})
	}

	return func(s *models.Subtask) bool {
		for _, p := range preds {
			if !p(s) {
				return false
			}
		}
		return true
	}, nil
}

// KeyByStem indexes tasks by the stem of their file name. Later tasks with
// a stem already taken get a "#<n>" suffix so that none are dropped.
func KeyByStem(tasks []*models.Subtask) map[string]*models.Subtask {
	result := make(map[string]*models.Subtask, len(tasks))
	counts := make(map[string]int)
	for _, s := range tasks {
		base := filepath.Base(s.Path)
		key := strings.TrimSuffix(base, filepath.Ext(base))
		if _, taken := result[key]; !taken {
			result[key] = s
			counts[key] = 1
			continue
		}
		for {
			counts[key]++
			candidate := fmt.Sprintf("%s#%d", key, counts[key])
			if _, taken := result[candidate]; !taken {
				result[candidate] = s
				break
			}
		}
	}
	return result
}
