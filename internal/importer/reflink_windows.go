// file: internal/importer/reflink_windows.go
// version: 1.0.0
// guid: 4a5b6c7d-8e9f-0a1b-2c3d-4e5f6a7b8c9d

//go:build windows

package importer

import (
	"fmt"
)

// reflinkFile is unsupported on Windows; auto mode falls back to hardlink
// or copy.
func reflinkFile(sourcePath, targetPath string) error {
	return fmt.Errorf("reflink not supported on Windows")
}
