package enumerate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// ErrDirectoryNotFound is returned when the input root does not exist or
// is not a directory.
var ErrDirectoryNotFound = errors.New("input directory not found")

// Enumerator walks a directory tree and collects files with accepted
// extensions.
type Enumerator struct {
	logger *logrus.Logger
	exts   map[string]struct{}
}

// New returns a new Enumerator accepting the given extensions
// (case-insensitive, with or without leading dot).
func New(extensions []string, logger *logrus.Logger) *Enumerator {
	exts := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[ext] = struct{}{}
	}
	return &Enumerator{logger: logger, exts: exts}
}

// Enumerate recursively collects all accepted files under root and
// returns their absolute paths in lexicographic walk order. The sequence
// is finite and produced once per call.
func (e *Enumerator) Enumerate(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, root)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrDirectoryNotFound, root)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", root, err)
	}

	var files []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			e.logger.Warnf("Error accessing path %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if _, ok := e.exts[ext]; ok {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", absRoot, err)
	}

	return files, nil
}

// Accepts reports whether the enumerator accepts the given file path.
func (e *Enumerator) Accepts(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	_, ok := e.exts[ext]
	return ok
}
