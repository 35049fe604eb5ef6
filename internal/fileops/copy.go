// file: internal/fileops/copy.go
// version: 1.2.0
// guid: 8f7e6d5c-4b3a-2918-7f6e-5d4c3b2a1908

package fileops

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrTargetExists is returned when a copy target already exists. Imports
// never overwrite library files; callers skip and report instead.
var ErrTargetExists = errors.New("target already exists")

// CopyFile copies src to dst, creating parent directories. Fails with
// ErrTargetExists if dst is already present.
func CopyFile(src, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("%w: %s", ErrTargetExists, dst)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create target directory: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat source: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create target: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("failed to copy data: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("failed to close target: %w", err)
	}

	// Preserve the source modification time, like cp -p / shutil.copy2.
	_ = os.Chtimes(dst, info.ModTime(), info.ModTime())
	return nil
}

// CopyFileVerified copies src to dst and verifies the copy by SHA256.
// A checksum mismatch removes the partial target and returns an error.
func CopyFileVerified(src, dst string) error {
	srcHash, err := Fingerprint(src)
	if err != nil {
		return fmt.Errorf("failed to hash source: %w", err)
	}
	if err := CopyFile(src, dst); err != nil {
		return err
	}
	dstHash, err := Fingerprint(dst)
	if err != nil {
		os.Remove(dst)
		return fmt.Errorf("failed to hash target: %w", err)
	}
	if srcHash != dstHash {
		os.Remove(dst)
		return fmt.Errorf("checksum mismatch copying %s", src)
	}
	return nil
}

// CopyTree recursively copies the directory src into dst. Existing files
// under dst are skipped and reported in the returned slice rather than
// overwritten. The copy is verified per file when verify is true.
func CopyTree(src, dst string, verify bool) (skipped []string, err error) {
	err = filepath.Walk(src, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if info.IsDir() {
			return os.MkdirAll(target, 0755)
		}

		copyFn := CopyFile
		if verify {
			copyFn = CopyFileVerified
		}
		if err := copyFn(path, target); err != nil {
			if errors.Is(err, ErrTargetExists) {
				skipped = append(skipped, rel)
				return nil
			}
			return err
		}
		return nil
	})
	return skipped, err
}
