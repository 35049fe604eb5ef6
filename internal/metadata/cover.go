// file: internal/metadata/cover.go
// version: 1.1.0
// guid: 4efaa7b8-e29a-47f3-84f7-39b46bfc9a01

package metadata

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// coverFetchTimeout bounds a single cover download.
const coverFetchTimeout = 30 * time.Second

// maxCoverBytes caps how much image data a download will accept.
const maxCoverBytes = 10 * 1024 * 1024

// DownloadCoverArt fetches coverURL and saves it as cover.{ext} inside
// bookDir, next to the audio files where players look for artwork.
// A cover already present in bookDir is kept and returned as is. Only
// image/* responses are accepted.
func DownloadCoverArt(coverURL string, bookDir string) (string, error) {
	if coverURL == "" {
		return "", fmt.Errorf("empty cover URL")
	}
	if existing := ExistingCover(bookDir); existing != "" {
		return existing, nil
	}

	client := &http.Client{Timeout: coverFetchTimeout}
	resp, err := client.Get(coverURL)
	if err != nil {
		return "", fmt.Errorf("failed to download cover: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cover download returned status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("unexpected content type: %s", contentType)
	}

	destPath := filepath.Join(bookDir, "cover"+extensionFromContentType(contentType))
	f, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create cover file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, io.LimitReader(resp.Body, maxCoverBytes)); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("failed to write cover file: %w", err)
	}
	return destPath, nil
}

// ExistingCover returns the path of a cover image already present in
// bookDir, or an empty string when there is none.
func ExistingCover(bookDir string) string {
	matches, _ := filepath.Glob(filepath.Join(bookDir, "cover.*"))
	for _, m := range matches {
		switch strings.ToLower(filepath.Ext(m)) {
		case ".jpg", ".jpeg", ".png", ".webp", ".gif":
			return m
		}
	}
	return ""
}

func extensionFromContentType(ct string) string {
	ct = strings.ToLower(ct)
	switch {
	case strings.Contains(ct, "png"):
		return ".png"
	case strings.Contains(ct, "gif"):
		return ".gif"
	case strings.Contains(ct, "webp"):
		return ".webp"
	default:
		return ".jpg"
	}
}
