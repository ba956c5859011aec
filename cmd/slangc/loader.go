package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// fsLoader fetches preset/shader/include text from disk, trying each root in
// order. It records every path that resolved successfully so --watch mode
// can set up fsnotify watches without asking the caller to track that
// itself.
type fsLoader struct {
	roots []string

	mu      sync.Mutex
	visited map[string]bool
}

func newFSLoader(presetDir string, includeRoots []string) *fsLoader {
	roots := append([]string{presetDir}, includeRoots...)
	return &fsLoader{roots: roots, visited: make(map[string]bool)}
}

func (l *fsLoader) Load(path string) (string, error) {
	if filepath.IsAbs(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("slangc: loading %q: %w", path, err)
		}
		l.markVisited(path)
		return string(data), nil
	}

	var lastErr error
	for _, root := range l.roots {
		full := filepath.Join(root, path)
		data, err := os.ReadFile(full)
		if err != nil {
			lastErr = err
			continue
		}
		l.markVisited(full)
		return string(data), nil
	}
	return "", fmt.Errorf("slangc: loading %q: %w", path, lastErr)
}

func (l *fsLoader) markVisited(full string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.visited[full] = true
}

// VisitedDirs returns the distinct directories of every file loaded so far,
// the set --watch mode hands to fsnotify.
func (l *fsLoader) VisitedDirs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	seen := make(map[string]bool)
	var dirs []string
	for path := range l.visited {
		dir := filepath.Dir(path)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs
}
