// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package decrypt

import (
	"fmt"
	"os"
	"path/filepath"

	kerrors "github.com/kmorita/pdf-decrypt/internal/errors"
)

// candidatePattern selects input files. Matching is case-sensitive.
const candidatePattern = "*.pdf"

// CheckInputDir verifies that dir exists and is a directory.
func CheckInputDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", kerrors.ErrInputDirNotFound, dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", kerrors.ErrInputDirNotFound, dir)
	}
	return nil
}

// Discover returns the paths of candidate PDFs directly inside dir, sorted
// by file name. Subdirectories are not searched, and entries that are (or
// link to) directories are skipped.
func Discover(dir string) ([]string, error) {
	if err := CheckInputDir(dir); err != nil {
		return nil, err
	}

	// os.ReadDir returns entries sorted by name.
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		name := entry.Name()
		if ok, _ := filepath.Match(candidatePattern, name); !ok {
			continue
		}
		path := filepath.Join(dir, name)
		if entry.IsDir() {
			continue
		}
		if entry.Type()&os.ModeSymlink != 0 {
			info, err := os.Stat(path)
			if err == nil && info.IsDir() {
				continue
			}
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// EnsureOutputDir creates dir and any missing parents. An existing
// directory is not an error.
func EnsureOutputDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory %s: %w", dir, err)
	}
	return nil
}
