// Package fileio implements the scoped file discovery and input/output path
// resolution shared by every dsv-scripts command.
package fileio

import (
	"fmt"
	"os"
	"path/filepath"
)

// NotDirError reports a path that exists but is a regular file where a
// directory was expected.
type NotDirError struct {
	Path string
}

func (e *NotDirError) Error() string {
	return fmt.Sprintf("expected a directory, but found a file: %s", e.Path)
}

// NotFoundError reports a path that does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("the requested path does not exist: %s", e.Path)
}

// SameDirError reports an input/output directory pair that resolved to the
// same location without the force override.
type SameDirError struct {
	Dir string
}

func (e *SameDirError) Error() string {
	return fmt.Sprintf("input and output directories are the same: %s (use -f to bypass this check)", e.Dir)
}

// ResolveDir resolves raw to an absolute, symlink-normalized directory path.
// An empty raw path means the current directory. When createIfMissing is set,
// a missing directory is created together with any missing parents; otherwise
// a missing directory is an error. The returned path always exists and is a
// directory.
func ResolveDir(raw string, createIfMissing bool) (string, error) {
	if raw == "" {
		raw = "."
	}
	abs, err := filepath.Abs(raw)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(abs)
	switch {
	case err == nil && !info.IsDir():
		return "", &NotDirError{Path: abs}
	case err == nil:
		// Exists and is a directory.
	case os.IsNotExist(err):
		if !createIfMissing {
			return "", &NotFoundError{Path: abs}
		}
		if err := os.MkdirAll(abs, 0755); err != nil {
			return "", fmt.Errorf("creating directory %q: %w", abs, err)
		}
	default:
		return "", err
	}

	// Normalize symlinks so equivalent spellings of the same directory
	// compare equal in the same-directory check.
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	return resolved, nil
}

// ResolveInputOutput resolves the input and output scope directories, creating
// them when force is set. Identical resolved paths are rejected unless force
// is set, since processing a directory onto itself would overwrite the source
// files.
func ResolveInputOutput(inputRaw, outputRaw string, force bool) (string, string, error) {
	in, err := ResolveDir(inputRaw, force)
	if err != nil {
		return "", "", err
	}
	out, err := ResolveDir(outputRaw, force)
	if err != nil {
		return "", "", err
	}
	if in == out && !force {
		return "", "", &SameDirError{Dir: in}
	}
	return in, out, nil
}
