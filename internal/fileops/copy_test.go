// file: internal/fileops/copy_test.go
// version: 1.1.0
// guid: 9a8b7c6d-5e4f-3a2b-1c0d-9e8f7a6b5c4d

package fileops

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp3")
	dst := filepath.Join(dir, "out", "dst.mp3")
	writeFile(t, src, "audio data")

	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "audio data" {
		t.Errorf("copied content = %q", data)
	}
}

func TestCopyFileRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp3")
	dst := filepath.Join(dir, "dst.mp3")
	writeFile(t, src, "new")
	writeFile(t, dst, "existing")

	err := CopyFile(src, dst)
	if !errors.Is(err, ErrTargetExists) {
		t.Fatalf("expected ErrTargetExists, got %v", err)
	}
	data, _ := os.ReadFile(dst)
	if string(data) != "existing" {
		t.Error("existing target was modified")
	}
}

func TestCopyFileVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.m4b")
	dst := filepath.Join(dir, "dst.m4b")
	writeFile(t, src, "chapter one")

	if err := CopyFileVerified(src, dst); err != nil {
		t.Fatalf("CopyFileVerified: %v", err)
	}
	srcHash, _ := Fingerprint(src)
	dstHash, _ := Fingerprint(dst)
	if srcHash != dstHash {
		t.Error("hashes differ after verified copy")
	}
}

func TestCopyTreeSkipsExisting(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "book")
	dst := filepath.Join(dir, "library", "book")
	writeFile(t, filepath.Join(src, "01.mp3"), "one")
	writeFile(t, filepath.Join(src, "02.mp3"), "two")
	writeFile(t, filepath.Join(src, "sub", "03.mp3"), "three")
	writeFile(t, filepath.Join(dst, "01.mp3"), "already here")

	skipped, err := CopyTree(src, dst, true)
	if err != nil {
		t.Fatalf("CopyTree: %v", err)
	}
	if len(skipped) != 1 || skipped[0] != "01.mp3" {
		t.Errorf("skipped = %v, want [01.mp3]", skipped)
	}
	data, _ := os.ReadFile(filepath.Join(dst, "01.mp3"))
	if string(data) != "already here" {
		t.Error("existing file was overwritten")
	}
	if _, err := os.Stat(filepath.Join(dst, "sub", "03.mp3")); err != nil {
		t.Errorf("nested file not copied: %v", err)
	}
}

func TestFingerprint(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	writeFile(t, path, "hello")

	h1, err := Fingerprint(path)
	if err != nil {
		t.Fatal(err)
	}
	h2, _ := Fingerprint(path)
	if h1 != h2 {
		t.Error("hash not deterministic")
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64", len(h1))
	}
}
