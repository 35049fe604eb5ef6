// file: internal/importer/reflink_unix.go
// version: 1.0.0
// guid: 3f4a5b6c-7d8e-9f0a-1b2c-3d4e5f6a7b8c

//go:build darwin || linux

package importer

import (
	"fmt"
	"os"
	"syscall"
)

// reflinkFile creates a CoW clone on filesystems that support it (btrfs,
// XFS, APFS). Callers fall back to hardlink or copy on error.
func reflinkFile(sourcePath, targetPath string) error {
	srcFile, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer srcFile.Close()

	dstFile, err := os.OpenFile(targetPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dstFile.Close()

	const FICLONE = 0x40049409
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, dstFile.Fd(), FICLONE, srcFile.Fd())
	if errno != 0 {
		os.Remove(targetPath)
		return fmt.Errorf("reflink not supported on this filesystem (errno: %v)", errno)
	}
	return nil
}
