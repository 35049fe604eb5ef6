// file: internal/importer/importer.go
// version: 1.2.0
// guid: 2e3f4a5b-6c7d-8e9f-0a1b-2c3d4e5f6a7b

package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidybooks/tidybooks/internal/config"
	"github.com/tidybooks/tidybooks/internal/database"
	"github.com/tidybooks/tidybooks/internal/fileops"
	"github.com/tidybooks/tidybooks/internal/library"
	"github.com/tidybooks/tidybooks/internal/matcher"
	"github.com/tidybooks/tidybooks/internal/metadata"
	"github.com/tidybooks/tidybooks/internal/models"
)

// Importer places candidates into the canonical library layout and records
// them in the processed-history log. Existing library files are never
// overwritten; collisions are skipped and reported.
type Importer struct {
	cfg   *config.Config
	store database.Store
	index *library.Index
}

// Result summarizes one import.
type Result struct {
	Entry       *models.HistoryEntry `json:"entry"`
	LibraryPath string               `json:"library_path"`
	Copied      int                  `json:"copied"`
	Skipped     []string             `json:"skipped,omitempty"`
}

// New creates an importer.
func New(cfg *config.Config, store database.Store, index *library.Index) *Importer {
	return &Importer{cfg: cfg, store: store, index: index}
}

// Import copies one candidate into the library. Metadata, when given, takes
// precedence over the name parsed from the download folder.
func (im *Importer) Import(ctx context.Context, cand *models.Candidate, meta *metadata.BookMetadata) (*Result, error) {
	if cand == nil || len(cand.Files) == 0 {
		return nil, fmt.Errorf("candidate has no audio files")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fields := im.resolveFields(cand, meta)

	relDir := ExpandPattern(im.cfg.FolderNamingPattern, fields)
	relDir = SanitizePath(relDir)
	if relDir == "" {
		relDir = SanitizeFilename(cand.Name)
	}
	targetDir := filepath.Join(im.cfg.LibraryDir, filepath.FromSlash(relDir))

	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create target directory: %w", err)
	}

	result := &Result{LibraryPath: targetDir}
	for _, f := range cand.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		targetPath := filepath.Join(targetDir, im.targetFileName(cand, f, fields))
		if _, err := os.Stat(targetPath); err == nil {
			result.Skipped = append(result.Skipped, targetPath)
			continue
		}

		if err := im.placeFile(f.Path, targetPath); err != nil {
			return result, fmt.Errorf("failed to import %s: %w", f.Name, err)
		}
		result.Copied++
	}

	entry := &models.HistoryEntry{
		CandidateName:  cand.Name,
		NormalizedName: matcher.Normalize(cand.Name),
		Fingerprint:    cand.Fingerprint,
		SourcePath:     cand.Path,
		LibraryPath:    targetDir,
		Author:         fields.Author,
		Title:          fields.Title,
		Series:         fields.Series,
		Narrator:       fields.Narrator,
		FileCount:      len(cand.Files),
		TotalSize:      cand.TotalSize,
	}
	if im.store != nil {
		saved, err := im.store.CreateHistoryEntry(entry)
		if err != nil {
			return result, fmt.Errorf("import copied but history write failed: %w", err)
		}
		entry = saved
	}
	result.Entry = entry

	cand.Status = models.StatusImported
	cand.MatchedLibraryPath = targetDir

	if im.index != nil {
		im.index.Refresh()
	}
	return result, nil
}

// resolveFields picks naming fields from fetched metadata first, then from
// the parsed candidate name.
func (im *Importer) resolveFields(cand *models.Candidate, meta *metadata.BookMetadata) PatternFields {
	fields := PatternFields{
		Title:    cand.Title,
		Author:   cand.Author,
		Series:   cand.Series,
		Sequence: cand.Sequence,
	}
	if meta != nil {
		if meta.Title != "" {
			fields.Title = meta.Title
		}
		if meta.Author != "" {
			fields.Author = meta.Author
		}
		if meta.Series != "" {
			fields.Series = meta.Series
			fields.Sequence = meta.SeriesPosition
		}
		fields.Narrator = meta.Narrator
		fields.Year = meta.PublishYear
	}
	if fields.Title == "" {
		fields.Title = cand.Name
	}
	if fields.Author == "" {
		fields.Author = "Unknown Author"
	}
	return fields
}

// targetFileName names the destination file. Multi-file candidates keep
// their original track names so ordering survives; single-file candidates
// follow the file naming pattern.
func (im *Importer) targetFileName(cand *models.Candidate, f models.CandidateFile, fields PatternFields) string {
	if len(cand.Files) > 1 {
		return SanitizeFilename(f.Name)
	}
	ext := filepath.Ext(f.Name)
	name := ExpandPattern(im.cfg.FileNamingPattern, fields)
	name = SanitizeFilename(strings.ReplaceAll(name, "/", "_"))
	if name == "" {
		return SanitizeFilename(f.Name)
	}
	return name + ext
}

// placeFile moves one file into the library using the configured strategy.
// The auto strategy tries reflink, then hardlink, then falls back to copy.
func (im *Importer) placeFile(src, dst string) error {
	strategy := im.cfg.OrganizeStrategy
	if strategy == "" {
		strategy = "copy"
	}

	if strategy == "auto" {
		if err := reflinkFile(src, dst); err == nil {
			return nil
		}
		if err := os.Link(src, dst); err == nil {
			return nil
		}
		strategy = "copy"
	}

	switch strategy {
	case "copy":
		if im.cfg.VerifyChecksums {
			return fileops.CopyFileVerified(src, dst)
		}
		return fileops.CopyFile(src, dst)
	case "hardlink":
		return os.Link(src, dst)
	case "reflink":
		return reflinkFile(src, dst)
	case "symlink":
		abs, err := filepath.Abs(src)
		if err != nil {
			return fmt.Errorf("failed to get absolute path: %w", err)
		}
		return os.Symlink(abs, dst)
	default:
		return fmt.Errorf("unknown organize strategy: %s", strategy)
	}
}
