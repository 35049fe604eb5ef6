// file: internal/tagger/tagger.go
// version: 2.0.0
// guid: 6c7d8e9f-0a1b-2c3d-4e5f-6a7b8c9d0e1f

package tagger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidybooks/tidybooks/internal/config"
	"github.com/tidybooks/tidybooks/internal/database"
	"github.com/tidybooks/tidybooks/internal/metadata"
	"github.com/tidybooks/tidybooks/internal/models"
)

// Tagger writes metadata tags and cover art onto imported library files and
// flips the Tagged flag on the matching history entry.
type Tagger struct {
	store database.Store
}

// New creates a tagger.
func New(store database.Store) *Tagger {
	return &Tagger{store: store}
}

// Result reports what one tagging pass did.
type Result struct {
	Tagged    int      `json:"tagged"`
	Embedded  int      `json:"embedded"`
	Failed    []string `json:"failed,omitempty"`
	CoverPath string   `json:"cover_path,omitempty"`
}

// TagLibraryPath writes the given metadata onto every audio file directly
// under libraryPath. When the metadata carries a cover URL the image is
// downloaded next to the audio and embedded where tooling allows.
func (t *Tagger) TagLibraryPath(ctx context.Context, libraryPath string, book metadata.BookMetadata) (*Result, error) {
	info, err := os.Stat(libraryPath)
	if err != nil {
		return nil, fmt.Errorf("library path unavailable: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", libraryPath)
	}

	files, err := audioFilesIn(libraryPath)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no audio files under %s", libraryPath)
	}

	result := &Result{}

	if book.CoverURL != "" {
		coverPath, err := metadata.DownloadCoverArt(book.CoverURL, libraryPath)
		if err != nil {
			fmt.Printf("Warning: cover download failed: %v\n", err)
		} else {
			result.CoverPath = coverPath
		}
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := metadata.WriteMetadata(f, book); err != nil {
			if errors.Is(err, metadata.ErrTaglibUnavailable) {
				return result, err
			}
			result.Failed = append(result.Failed, fmt.Sprintf("%s: %v", filepath.Base(f), err))
			continue
		}
		result.Tagged++

		if result.CoverPath != "" {
			if err := EmbedCoverArt(f, result.CoverPath); err != nil {
				fmt.Printf("Warning: cover embed failed for %s: %v\n", filepath.Base(f), err)
			} else {
				result.Embedded++
			}
		}
	}

	t.markTagged(libraryPath, result.CoverPath)
	return result, nil
}

// markTagged updates the history entry for libraryPath, when one exists.
func (t *Tagger) markTagged(libraryPath, coverPath string) {
	if t.store == nil {
		return
	}
	entries, err := t.store.ListHistory(-1, 0)
	if err != nil {
		return
	}
	for i := range entries {
		if entries[i].LibraryPath != libraryPath {
			continue
		}
		entries[i].Tagged = true
		if coverPath != "" {
			entries[i].CoverPath = coverPath
		}
		if _, err := t.store.CreateHistoryEntry(&entries[i]); err != nil {
			fmt.Printf("Warning: could not update history entry: %v\n", err)
		}
		return
	}
}

// TagHistoryEntry tags the library copy recorded by a history entry.
func (t *Tagger) TagHistoryEntry(ctx context.Context, entry *models.HistoryEntry, book metadata.BookMetadata) (*Result, error) {
	if entry == nil || entry.LibraryPath == "" {
		return nil, fmt.Errorf("history entry has no library path")
	}
	return t.TagLibraryPath(ctx, entry.LibraryPath, book)
}

// audioFilesIn lists supported audio files directly under dir.
func audioFilesIn(dir string) ([]string, error) {
	children, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, child := range children {
		if child.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(child.Name()))
		if config.AppConfig.IsSupportedExtension(ext) {
			files = append(files, filepath.Join(dir, child.Name()))
		}
	}
	return files, nil
}
