// Package copyresolver resolves textual-include (COPY) references to
// absolute file paths across a search-path list (spec.md §4.1).
package copyresolver

import (
	"os"
	"path/filepath"
	"strings"
)

// Resolver resolves a copybook name to an absolute path. It is pure and
// side-effect-free beyond the filesystem stat calls it makes, and is
// borrowed (not owned) by the preprocessor that holds it (spec.md §5).
type Resolver struct {
	StartDir   string
	SearchDirs []string
	Extensions []string
	Verbose    bool
}

// New builds a Resolver. extensions may include "" to mean "no
// extension"; they are tried in order, and matched case-insensitively
// against whatever is actually on disk.
func New(startDir string, searchDirs, extensions []string, verbose bool) *Resolver {
	return &Resolver{
		StartDir:   startDir,
		SearchDirs: searchDirs,
		Extensions: extensions,
		Verbose:    verbose,
	}
}

// Resolve returns the absolute path to name, or ok==false if no
// directory/extension combination matches. The starting directory is
// always checked first, then SearchDirs in order; within a directory,
// extensions are tried in the order given.
func (r *Resolver) Resolve(name string) (path string, ok bool) {
	dirs := make([]string, 0, len(r.SearchDirs)+1)
	if r.StartDir != "" {
		dirs = append(dirs, r.StartDir)
	}
	dirs = append(dirs, r.SearchDirs...)

	exts := r.Extensions
	if len(exts) == 0 {
		exts = []string{""}
	}

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		byLowerName := make(map[string]string, len(entries))
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			byLowerName[strings.ToLower(e.Name())] = e.Name()
		}

		for _, ext := range exts {
			candidate := name
			if ext != "" {
				candidate = name + "." + strings.TrimPrefix(ext, ".")
			}
			if real, found := byLowerName[strings.ToLower(candidate)]; found {
				p := filepath.Join(dir, real)
				if abs, err := filepath.Abs(p); err == nil {
					p = abs
				}
				return p, true
			}
		}
	}
	return "", false
}
