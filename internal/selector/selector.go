package selector

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// skipDirs are never descended into, independent of user ignore patterns.
var skipDirs = []string{".git", "__pycache__", ".venv", "venv", "node_modules"}

// Selector walks a root directory and yields the ordered set of Python
// source files to analyze.
type Selector struct {
	root    string
	ignored []string
}

// File is one selected source file.
type File struct {
	AbsPath string
	RelPath string // slash-separated, relative to the root
}

// New creates a Selector for root. ignore patterns are matched as
// case-sensitive substrings against each file's relative slash path.
func New(root string, ignore []string) *Selector {
	return &Selector{root: root, ignored: ignore}
}

// Select returns all candidate files sorted lexicographically by relative
// path, so downstream output is reproducible across runs on an unchanged
// tree. A missing or non-directory root is a configuration error.
func (s *Selector) Select() ([]File, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		return nil, fmt.Errorf("root directory %s: %w", s.root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", s.root)
	}

	var files []File
	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d == nil {
				return err
			}
			// An unreadable subtree drops out of the selection; the rest of
			// the walk proceeds.
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			for _, skip := range skipDirs {
				if d.Name() == skip {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if !strings.HasSuffix(d.Name(), ".py") {
			return nil
		}
		// Package markers carry no module content worth a graph node.
		if strings.Contains(d.Name(), "__init__") {
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if s.isIgnored(rel) {
			return nil
		}

		files = append(files, File{AbsPath: path, RelPath: rel})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", s.root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

func (s *Selector) isIgnored(relPath string) bool {
	for _, pattern := range s.ignored {
		if pattern != "" && strings.Contains(relPath, pattern) {
			return true
		}
	}
	return false
}
