// file: internal/library/index.go
// version: 1.2.0
// guid: 7f8a9b0c-1d2e-3f4a-5b6c-7d8e9f0a1b2c

package library

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidybooks/tidybooks/internal/cache"
	"github.com/tidybooks/tidybooks/internal/config"
	"github.com/tidybooks/tidybooks/internal/matcher"
	"github.com/tidybooks/tidybooks/internal/models"
)

const indexCacheKey = "library-index"

// Index is a cached view of the organized library tree. Entries are the leaf
// folders that directly contain audio files, discovered by walking
// Author/Series/Title layouts (series level optional).
type Index struct {
	libraryDir string
	cache      *cache.Cache[[]models.LibraryEntry]
}

// NewIndex creates a library index over libraryDir with the given cache TTL.
func NewIndex(libraryDir string, ttl time.Duration) *Index {
	return &Index{
		libraryDir: libraryDir,
		cache:      cache.New[[]models.LibraryEntry](ttl),
	}
}

// Entries returns the library entries, rebuilding the index when the cached
// copy has expired.
func (ix *Index) Entries() ([]models.LibraryEntry, error) {
	return ix.cache.GetOrLoad(indexCacheKey, func() ([]models.LibraryEntry, error) {
		return buildEntries(ix.libraryDir)
	})
}

// Refresh drops the cached index so the next Entries call rebuilds it.
func (ix *Index) Refresh() {
	ix.cache.Invalidate(indexCacheKey)
}

// Match scores every library entry against the candidate name and returns
// matches at or above minScore, best first.
func (ix *Index) Match(candidateName string, minScore int) ([]models.LibraryMatch, error) {
	entries, err := ix.Entries()
	if err != nil {
		return nil, err
	}

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}

	ranked := matcher.RankResults(candidateName, names, minScore)
	matches := make([]models.LibraryMatch, 0, len(ranked))
	for _, r := range ranked {
		matches = append(matches, models.LibraryMatch{Entry: entries[r.Index], Score: r.Score})
	}
	return matches, nil
}

// BestMatch returns the highest-scoring library match, or nil when nothing
// reaches minScore.
func (ix *Index) BestMatch(candidateName string, minScore int) (*models.LibraryMatch, error) {
	matches, err := ix.Match(candidateName, minScore)
	if err != nil || len(matches) == 0 {
		return nil, err
	}
	return &matches[0], nil
}

// ContainsDuplicate reports whether any library entry is a normalized-name
// duplicate of the candidate name.
func (ix *Index) ContainsDuplicate(candidateName string) (bool, *models.LibraryEntry, error) {
	entries, err := ix.Entries()
	if err != nil {
		return false, nil, err
	}
	for i := range entries {
		if matcher.IsDuplicate(candidateName, entries[i].Name) {
			return true, &entries[i], nil
		}
	}
	return false, nil, nil
}

// buildEntries walks the library tree. A directory that directly contains at
// least one supported audio file becomes one entry; author and series come
// from its position relative to the library root.
func buildEntries(libraryDir string) ([]models.LibraryEntry, error) {
	info, err := os.Stat(libraryDir)
	if err != nil {
		return nil, fmt.Errorf("library directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("library path %s is not a directory", libraryDir)
	}

	var entries []models.LibraryEntry
	err = filepath.Walk(libraryDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// Unreadable subtree should not sink the whole index.
			return nil
		}
		if !info.IsDir() || path == libraryDir {
			return nil
		}
		if strings.HasPrefix(info.Name(), ".") {
			return filepath.SkipDir
		}

		hasAudio, hasCover := inspectDir(path)
		if !hasAudio {
			return nil
		}

		rel, relErr := filepath.Rel(libraryDir, path)
		if relErr != nil {
			return nil
		}
		parts := strings.Split(rel, string(os.PathSeparator))

		entry := models.LibraryEntry{
			Path:     path,
			Name:     info.Name(),
			HasCover: hasCover,
			ModTime:  info.ModTime(),
		}
		switch len(parts) {
		case 1:
			// Loose title directly under the root.
		case 2:
			entry.Author = parts[0]
		default:
			entry.Author = parts[0]
			entry.Series = parts[len(parts)-2]
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// inspectDir checks the direct children of a directory for audio files and
// cover art.
func inspectDir(dir string) (hasAudio, hasCover bool) {
	children, err := os.ReadDir(dir)
	if err != nil {
		return false, false
	}
	for _, child := range children {
		if child.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(child.Name()))
		if config.AppConfig.IsSupportedExtension(ext) {
			hasAudio = true
		}
		base := strings.ToLower(strings.TrimSuffix(child.Name(), ext))
		if (base == "cover" || base == "folder") && (ext == ".jpg" || ext == ".jpeg" || ext == ".png" || ext == ".webp") {
			hasCover = true
		}
	}
	return hasAudio, hasCover
}
