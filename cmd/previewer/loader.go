package main

import (
	"fmt"
	"os"
	"path/filepath"
)

// fsLoader fetches preset/shader/include text from disk relative to the
// preset's own directory, same shape as slangc's loader — this harness has
// no need for slangc's watch-mode directory tracking, so it stays a plain
// single-root reader.
type fsLoader struct {
	root string
}

func newFSLoader(presetDir string) *fsLoader {
	return &fsLoader{root: presetDir}
}

func (l *fsLoader) Load(path string) (string, error) {
	full := path
	if !filepath.IsAbs(path) {
		full = filepath.Join(l.root, path)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("previewer: loading %q: %w", path, err)
	}
	return string(data), nil
}
