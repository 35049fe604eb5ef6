// file: internal/server/validators.go
// version: 1.0.0
// guid: 8a1b4c7d-0e3f-4a6b-9c2d-5e8f1a4b7c0d

package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// resolveUnderRoot cleans path, resolves it relative to root when it is not
// absolute, and rejects anything that escapes root. Returns the absolute
// path on success.
func resolveUnderRoot(root, path string) (string, error) {
	if root == "" {
		return "", fmt.Errorf("root directory not configured")
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}

	p := path
	if !filepath.IsAbs(p) {
		p = filepath.Join(absRoot, p)
	}
	p = filepath.Clean(p)

	rel, err := filepath.Rel(absRoot, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes %s: %s", absRoot, path)
	}
	return p, nil
}

// requireDir resolves path under root and verifies it is an existing
// directory.
func requireDir(root, path string) (string, error) {
	abs, err := resolveUnderRoot(root, path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("not accessible: %s", path)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", path)
	}
	return abs, nil
}
