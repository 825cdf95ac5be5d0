// Package storage provides the filesystem collaborators of the subtask
// inventory: discovery of candidate files and loading of their content.
package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FileScanner finds files under a root whose extension is in a fixed set.
type FileScanner struct {
	extensions map[string]struct{}
	exclude    []string
}

// NewFileScanner creates a scanner for the given extensions. Extensions are
// matched case-insensitively and may be given with or without a leading
// dot. Paths matching any exclude glob (doublestar syntax, relative to the
// root, slash-separated) are skipped.
func NewFileScanner(extensions []string, exclude ...string) *FileScanner {
	exts := make(map[string]struct{}, len(extensions))
	for _, e := range extensions {
		exts[normalizeExtension(e)] = struct{}{}
	}
	return &FileScanner{extensions: exts, exclude: exclude}
}

func normalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// Extensions returns the normalized extension set in sorted order.
func (s *FileScanner) Extensions() []string {
	out := make([]string, 0, len(s.extensions))
	for e := range s.extensions {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// ScanFiles walks root recursively and returns every regular file with a
// matching extension. The result is sorted so that repeated scans of an
// unchanged tree yield the same order.
func (s *FileScanner) ScanFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scanning %s: not a directory", root)
	}

	var found []string
	err = doublestar.GlobWalk(os.DirFS(root), "**", func(path string, d fs.DirEntry) error {
		if d.IsDir() {
			return nil
		}
		if s.excluded(path) {
			return nil
		}
		ext := normalizeExtension(filepath.Ext(path))
		if _, ok := s.extensions[ext]; !ok {
			return nil
		}
		found = append(found, filepath.Join(root, filepath.FromSlash(path)))
		return nil
	}, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	sort.Strings(found)
	return found, nil
}

func (s *FileScanner) excluded(path string) bool {
	for _, pattern := range s.exclude {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
	}
	return false
}
