package storage

import (
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/valter-silva-au/subtask-manager/internal/params"
	"github.com/valter-silva-au/subtask-manager/pkg/models"
)

// FileLoader reads a subtask's file into its Command and records the
// placeholders found in it.
type FileLoader struct {
	// MaxBytes caps the file size. Zero means unlimited.
	MaxBytes int64
}

// NewFileLoader creates a FileLoader with the given size limit.
func NewFileLoader(maxBytes int64) *FileLoader {
	return &FileLoader{MaxBytes: maxBytes}
}

// Load returns a copy of subtask with Command and Params populated.
// Classification fields are copied unchanged.
func (l *FileLoader) Load(subtask *models.Subtask) (*models.Subtask, error) {
	if subtask == nil {
		return nil, fmt.Errorf("loading subtask: subtask is nil")
	}

	if l.MaxBytes > 0 {
		info, err := os.Stat(subtask.Path)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", subtask.Path, err)
		}
		if info.Size() > l.MaxBytes {
			return nil, fmt.Errorf("loading %s: file is %d bytes, limit is %d", subtask.Path, info.Size(), l.MaxBytes)
		}
	}

	data, err := os.ReadFile(subtask.Path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", subtask.Path, err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("loading %s: content is not valid UTF-8", subtask.Path)
	}

	loaded := subtask.Clone()
	loaded.Command = string(data)
	loaded.Params = params.Detect(loaded.Command)
	return loaded, nil
}
