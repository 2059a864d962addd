package fsutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Copy copies the contents of srcFile to dstFile, creating the destination's
// parent directory when needed. The destination is written in full before the
// function returns; it is not fsynced.
func Copy(srcFile, dstFile string) error {
	src, err := os.Open(srcFile)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", srcFile, err)
	}
	defer src.Close()

	if err := EnsureFileDir(dstFile); err != nil {
		return fmt.Errorf("failed to create destination directory for %s: %w", dstFile, err)
	}

	dst, err := os.Create(dstFile)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", dstFile, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(dstFile)
		return fmt.Errorf("failed to copy %s to %s: %w", srcFile, dstFile, err)
	}

	if err := dst.Close(); err != nil {
		return fmt.Errorf("failed to close destination file %s: %w", dstFile, err)
	}
	return nil
}

// ReplaceFile atomically moves src over dst, removing a pre-existing dst
// first. src and dst must live on the same filesystem.
func ReplaceFile(src, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		if err := os.Remove(dst); err != nil {
			return fmt.Errorf("failed to remove old file %s: %w", dst, err)
		}
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("failed to rename %s to %s: %w", src, dst, err)
	}
	return nil
}

// SafeJoin joins path elements under baseDir and ensures the result does not
// escape it.
func SafeJoin(baseDir string, elems ...string) (string, error) {
	path := filepath.Join(append([]string{baseDir}, elems...)...)
	cleanPath := filepath.Clean(path)

	relPath, err := filepath.Rel(baseDir, cleanPath)
	if err != nil || relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return "", errors.New("invalid path: path traversal detected")
	}
	return cleanPath, nil
}
