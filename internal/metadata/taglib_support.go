// file: internal/metadata/taglib_support.go
// version: 1.1.0
// guid: 3b4c5d6e-7f8a-9b0c-1d2e-3f4a5b6c7d8f

//go:build taglib
// +build taglib

// TagLib native writer support (optional via build tag 'taglib'). Default build without tag excludes this file.

package metadata

import (
	"fmt"
	"os"
	"path/filepath"

	taglib "go.senan.xyz/taglib"

	"github.com/tidybooks/tidybooks/internal/fileops"
)

// taglibAvailable indicates native taglib path compiled in
var taglibAvailable = true

// writeMetadataWithTaglib performs native metadata writing using TagLib.
func writeMetadataWithTaglib(filePath string, book BookMetadata) error {
	backupPath := filePath + ".backup"
	if err := fileops.CopyFile(filePath, backupPath); err != nil {
		return fmt.Errorf("taglib backup failed: %w", err)
	}
	defer func() { _ = os.Remove(backupPath) }()

	abs, _ := filepath.Abs(filePath)

	tags := make(map[string][]string)
	if book.Title != "" {
		tags[taglib.Title] = []string{book.Title}
	}
	if book.Author != "" {
		tags[taglib.Artist] = []string{book.Author}
		tags[taglib.AlbumArtist] = []string{book.Author}
	}
	if book.Series != "" {
		album := book.Series
		if book.SeriesPosition > 0 {
			album = fmt.Sprintf("%s, Book %d", book.Series, book.SeriesPosition)
		}
		tags[taglib.Album] = []string{album}
	} else if book.Title != "" {
		tags[taglib.Album] = []string{book.Title}
	}
	if book.Narrator != "" {
		tags["NARRATOR"] = []string{book.Narrator}
		tags[taglib.Composer] = []string{book.Narrator}
	}
	if book.PublishYear > 0 {
		tags[taglib.Date] = []string{fmt.Sprintf("%d", book.PublishYear)}
	}
	if book.Publisher != "" {
		tags["PUBLISHER"] = []string{book.Publisher}
	}
	if book.ISBN != "" {
		tags["ISBN"] = []string{book.ISBN}
	}
	if book.Language != "" {
		tags["LANGUAGE"] = []string{book.Language}
	}
	if book.Description != "" {
		tags[taglib.Comment] = []string{book.Description}
	}

	if len(tags) == 0 {
		return fmt.Errorf("no writable metadata supplied")
	}

	if err := taglib.WriteTags(abs, tags, 0); err != nil {
		if restoreErr := os.Rename(backupPath, filePath); restoreErr != nil {
			return fmt.Errorf("taglib write failed and restore failed: write=%w restore=%v", err, restoreErr)
		}
		return fmt.Errorf("taglib write failed (restored): %w", err)
	}
	return nil
}
