// file: internal/scanner/scanner_test.go
// version: 2.0.0
// guid: 0c1d2e3f-4a5b-6c7d-8e9f-0a1b2c3d4e5f

package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tidybooks/tidybooks/internal/config"
	"github.com/tidybooks/tidybooks/internal/database"
	"github.com/tidybooks/tidybooks/internal/fileops"
	"github.com/tidybooks/tidybooks/internal/library"
	"github.com/tidybooks/tidybooks/internal/models"
)

func writeFile(t *testing.T, root string, rel string, contents string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func setupDirs(t *testing.T) (downloads, libDir string) {
	t.Helper()
	config.AppConfig.SupportedExtensions = []string{".mp3", ".m4b", ".flac"}
	config.AppConfig.ConcurrentScans = 2
	config.AppConfig.MinMatchScore = 70

	downloads = t.TempDir()
	libDir = t.TempDir()
	return downloads, libDir
}

func findByName(t *testing.T, cands []models.Candidate, name string) *models.Candidate {
	t.Helper()
	for i := range cands {
		if cands[i].Name == name {
			return &cands[i]
		}
	}
	t.Fatalf("candidate %q not found in %d results", name, len(cands))
	return nil
}

func TestScanDiscoversDirsAndLooseFiles(t *testing.T) {
	downloads, libDir := setupDirs(t)

	writeFile(t, downloads, "The Martian (Unabridged)/01.mp3", "aaa")
	writeFile(t, downloads, "The Martian (Unabridged)/02.mp3", "bbb")
	writeFile(t, downloads, "The Martian (Unabridged)/info.nfo", "noise")
	writeFile(t, downloads, "Project Hail Mary.m4b", "ccc")
	writeFile(t, downloads, "empty-folder/readme.txt", "no audio")
	writeFile(t, downloads, ".hidden/track.mp3", "hidden")

	s := New(downloads, library.NewIndex(libDir, time.Minute), database.NewMockStore())
	cands, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}

	dir := findByName(t, cands, "The Martian (Unabridged)")
	if !dir.IsDir || dir.FileCount() != 2 {
		t.Errorf("dir candidate: isdir=%v files=%d", dir.IsDir, dir.FileCount())
	}
	if dir.TotalSize != 6 {
		t.Errorf("TotalSize = %d", dir.TotalSize)
	}
	if dir.Fingerprint == "" {
		t.Error("expected fingerprint")
	}

	loose := findByName(t, cands, "Project Hail Mary")
	if loose.IsDir || loose.FileCount() != 1 {
		t.Errorf("loose candidate: isdir=%v files=%d", loose.IsDir, loose.FileCount())
	}
}

func TestScanSkipsExcludedDirs(t *testing.T) {
	downloads, libDir := setupDirs(t)

	excluded := filepath.Join(downloads, "Skip Me")
	writeFile(t, downloads, "Skip Me/track.mp3", "x")
	if err := Exclude(excluded); err != nil {
		t.Fatalf("Exclude failed: %v", err)
	}
	writeFile(t, downloads, "Keep Me/track.mp3", "y")

	s := New(downloads, library.NewIndex(libDir, time.Minute), database.NewMockStore())
	cands, err := s.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 1 || cands[0].Name != "Keep Me" {
		t.Fatalf("unexpected candidates: %+v", cands)
	}

	if err := Include(excluded); err != nil {
		t.Fatalf("Include failed: %v", err)
	}
	cands, err = s.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 2 {
		t.Fatalf("expected 2 after unexclude, got %d", len(cands))
	}
}

func TestClassifyStatuses(t *testing.T) {
	downloads, libDir := setupDirs(t)

	// Library holds The Martian; history says Dune was imported and tagged.
	writeFile(t, libDir, "Andy Weir/The Martian/book.m4b", "lib")

	store := database.NewMockStore()
	srcPath := writeFile(t, downloads, "Dune - Frank Herbert/01.mp3", "dune-audio")
	fp, err := fileops.Fingerprint(srcPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.CreateHistoryEntry(&models.HistoryEntry{
		CandidateName:  "Dune - Frank Herbert",
		NormalizedName: "dune frank herbert",
		Fingerprint:    fp,
		LibraryPath:    filepath.Join(libDir, "Frank Herbert", "Dune"),
	}); err != nil {
		t.Fatal(err)
	}

	writeFile(t, downloads, "The Martian MP3/01.mp3", "new-rip")
	writeFile(t, downloads, "Totally New Book/01.mp3", "fresh")

	s := New(downloads, library.NewIndex(libDir, time.Minute), store)
	cands, err := s.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if got := findByName(t, cands, "Dune - Frank Herbert").Status; got != models.StatusImported {
		t.Errorf("Dune status = %s, want imported", got)
	}
	martian := findByName(t, cands, "The Martian MP3")
	if martian.Status != models.StatusMatched {
		t.Errorf("Martian status = %s, want matched", martian.Status)
	}
	if martian.MatchedLibraryPath == "" || martian.MatchScore < 70 {
		t.Errorf("Martian match path=%q score=%d", martian.MatchedLibraryPath, martian.MatchScore)
	}
	if got := findByName(t, cands, "Totally New Book").Status; got != models.StatusNew {
		t.Errorf("new book status = %s, want new", got)
	}
}

func TestClassifyTaggedStatus(t *testing.T) {
	downloads, libDir := setupDirs(t)

	writeFile(t, libDir, "Andy Weir/The Martian/book.m4b", "lib")

	store := database.NewMockStore()
	if _, err := store.CreateHistoryEntry(&models.HistoryEntry{
		CandidateName:  "The Martian",
		NormalizedName: "martian",
		LibraryPath:    filepath.Join(libDir, "Andy Weir", "The Martian"),
		Tagged:         true,
	}); err != nil {
		t.Fatal(err)
	}

	// Different rip of the same book: fingerprint differs, name fuzzy-matches.
	writeFile(t, downloads, "The Martian Unabridged 64k/01.mp3", "other-rip")

	s := New(downloads, library.NewIndex(libDir, time.Minute), store)
	cands, err := s.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	got := findByName(t, cands, "The Martian Unabridged 64k")
	if got.Status != models.StatusImported {
		// Normalized name "martian" matches the history record directly.
		t.Errorf("status = %s, want imported via normalized-name hit", got.Status)
	}
}

func TestScanFoldsBundles(t *testing.T) {
	downloads, libDir := setupDirs(t)

	p1 := writeFile(t, downloads, "Stormlight Part 1/01.mp3", "one")
	p2 := writeFile(t, downloads, "Stormlight Part 2/01.mp3", "two")
	writeFile(t, downloads, "Other Book/01.mp3", "other")

	store := database.NewMockStore()
	if _, err := store.CreateBundle(&models.Bundle{
		Name:  "The Way of Kings",
		Paths: []string{filepath.Dir(p1), filepath.Dir(p2)},
	}); err != nil {
		t.Fatal(err)
	}

	s := New(downloads, library.NewIndex(libDir, time.Minute), store)
	cands, err := s.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 2 {
		t.Fatalf("expected bundle to absorb members, got %d candidates", len(cands))
	}

	bundle := findByName(t, cands, "The Way of Kings")
	if !bundle.IsBundle() {
		t.Error("expected IsBundle")
	}
	if bundle.FileCount() != 2 {
		t.Errorf("bundle files = %d", bundle.FileCount())
	}
}
