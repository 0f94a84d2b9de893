// Package artifactstore manages exported artifacts on the local filesystem:
// stable renames, digests and the export manifest.
package artifactstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Rename moves src to <dir of src>/<base><ext>, keeping the extension of src.
// An existing target is only replaced when overwrite is set; otherwise
// ErrTargetExists is returned and src is left untouched.
func Rename(src, base string, overwrite bool) (string, error) {
	if base == "" || base == "." || base == ".." || strings.ContainsAny(base, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, base)
	}
	if _, err := os.Stat(src); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrMissingSource, src, err)
	}

	dst := filepath.Join(filepath.Dir(src), base+filepath.Ext(src))
	if dst == filepath.Clean(src) {
		return dst, nil
	}

	if !overwrite {
		if err := moveNoReplace(src, dst); err != nil {
			return "", err
		}
		return dst, nil
	}

	if err := os.Rename(src, dst); err != nil {
		return "", fmt.Errorf("rename %s: %w", src, err)
	}
	return dst, nil
}

// moveNoReplace hard-links src to dst, which fails if dst exists, then drops
// src. Filesystems without hard links fall back to a stat check and rename.
func moveNoReplace(src, dst string) error {
	err := os.Link(src, dst)
	switch {
	case err == nil:
		if err := os.Remove(src); err != nil {
			return fmt.Errorf("rename %s: remove source: %w", src, err)
		}
		return nil
	case errors.Is(err, fs.ErrExist):
		return fmt.Errorf("%w: %s", ErrTargetExists, dst)
	}

	if _, statErr := os.Lstat(dst); statErr == nil {
		return fmt.Errorf("%w: %s", ErrTargetExists, dst)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("rename %s: %w", src, err)
	}
	return nil
}
