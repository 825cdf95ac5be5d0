package core

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/valter-silva-au/subtask-manager/pkg/models"
	"github.com/valter-silva-au/subtask-manager/pkg/taxonomy"
)

// maxSegments is the deepest nesting allowed below the root:
// stage/system/entity.
const maxSegments = 3

// subtaskNamespace seeds the UUIDv5 identifiers of subtasks.
var subtaskNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/valter-silva-au/subtask-manager/subtask"))

// SubtaskID returns the deterministic identifier of a subtask located at
// relPath below its root. Separators are normalized so that the id is the
// same on every platform.
func SubtaskID(relPath string) string {
	return uuid.NewSHA1(subtaskNamespace, []byte(filepath.ToSlash(relPath))).String()
}

// Classify derives stage, system type, entity and task type for filePath
// from the folder segments between rootPath and the file.
//
// The first segment naming a stage claims the stage; later segments are
// not re-checked for stage. Every remaining segment naming a system type
// claims the system type, the last one winning. At most one segment may be
// left over and it becomes the entity. Files directly under the root are
// common.
func Classify(rootPath, filePath string) (*models.Subtask, error) {
	root := filepath.Clean(rootPath)
	file := filepath.Clean(filePath)

	segments, err := segmentsBetween(root, file)
	if err != nil {
		return nil, fmt.Errorf("classifying %s: %w", filePath, err)
	}

	rel, _ := filepath.Rel(root, file)
	sub := &models.Subtask{
		ID:   SubtaskID(rel),
		Name: stem(file),
		Path: filePath,
	}

	if len(segments) == 0 {
		sub.IsCommon = true
	}
	if len(segments) > maxSegments {
		return nil, fmt.Errorf("classifying %s: %d nested folders: %w", filePath, len(segments), ErrMalformedStructure)
	}

	consumed := make([]bool, len(segments))

	for i, seg := range segments {
		if stage := taxonomy.ResolveStage(seg); stage != taxonomy.Other {
			sub.Stage = models.Ptr(stage)
			consumed[i] = true
			break
		}
	}

	for i, seg := range segments {
		if consumed[i] {
			continue
		}
		if st := taxonomy.ResolveSystemType(seg); st != taxonomy.OtherSystem {
			sub.SystemType = models.Ptr(st)
			consumed[i] = true
		}
	}

	var leftover []string
	for i, seg := range segments {
		if !consumed[i] {
			leftover = append(leftover, seg)
		}
	}
	if len(leftover) > 1 {
		return nil, fmt.Errorf("classifying %s: ambiguous entity among %s: %w",
			filePath, strings.Join(leftover, ", "), ErrMalformedStructure)
	}
	if len(leftover) == 1 {
		sub.Entity = models.Ptr(leftover[0])
	}

	ext := strings.TrimPrefix(filepath.Ext(file), ".")
	taskType := taxonomy.TaskTypeFromExtension(ext)
	if taskType == taxonomy.Unknown {
		return nil, fmt.Errorf("classifying %s: extension %q: %w", filePath, ext, ErrUnknownTaskType)
	}
	sub.TaskType = models.Ptr(taskType)

	return sub, nil
}

// segmentsBetween returns the directory names strictly between root and
// the parent directory of file.
func segmentsBetween(root, file string) ([]string, error) {
	rel, err := filepath.Rel(root, filepath.Dir(file))
	if err != nil {
		return nil, fmt.Errorf("resolving path relative to %s: %w", root, ErrMalformedStructure)
	}
	if rel == "." {
		return nil, nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("path is outside %s: %w", root, ErrMalformedStructure)
	}
	return strings.Split(rel, string(filepath.Separator)), nil
}

// stem returns the base name of path without its final extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
