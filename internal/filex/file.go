// Package filex holds the temporary-file plumbing used for uploads: files
// are staged on local disk, handed to the media store, then removed.
package filex

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// EnsureDir creates dir (relative paths resolve against the working
// directory) and returns its absolute path.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dir, err)
	}

	if err := os.MkdirAll(abs, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}

	return abs, nil
}

// SaveTemp copies r into a new file in dir, keeping ext as the suffix, and
// returns the file path. A partially written file is removed on error.
func SaveTemp(dir, ext string, r io.Reader) (string, error) {
	f, err := os.CreateTemp(dir, "upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create temp: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		RemoveQuietly(f.Name())
		return "", fmt.Errorf("write temp: %w", err)
	}
	if err := f.Close(); err != nil {
		RemoveQuietly(f.Name())
		return "", fmt.Errorf("close temp: %w", err)
	}

	return f.Name(), nil
}

// RemoveQuietly deletes path, ignoring a file that is already gone. It
// reports whether something was actually removed.
func RemoveQuietly(path string) bool {
	if path == "" {
		return false
	}
	return os.Remove(path) == nil
}
