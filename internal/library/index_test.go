// file: internal/library/index_test.go
// version: 1.1.0
// guid: 8a9b0c1d-2e3f-4a5b-6c7d-8e9f0a1b2c3d

package library

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tidybooks/tidybooks/internal/config"
)

func setupLibrary(t *testing.T) string {
	t.Helper()
	config.AppConfig.SupportedExtensions = []string{".mp3", ".m4b", ".flac"}

	dir := t.TempDir()
	mustWrite := func(rel string) {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	mustWrite("Brandon Sanderson/Mistborn/The Final Empire/01.mp3")
	mustWrite("Brandon Sanderson/Mistborn/The Final Empire/cover.jpg")
	mustWrite("Andy Weir/The Martian/book.m4b")
	mustWrite("Loose Book/chapter1.flac")
	mustWrite("Frank Herbert/Dune/notes.txt") // no audio, not an entry
	return dir
}

func TestEntriesWalksLayouts(t *testing.T) {
	ix := NewIndex(setupLibrary(t), time.Minute)

	entries, err := ix.Entries()
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d: %+v", len(entries), entries)
	}

	byName := map[string]int{}
	for i, e := range entries {
		byName[e.Name] = i
	}

	fe := entries[byName["The Final Empire"]]
	if fe.Author != "Brandon Sanderson" || fe.Series != "Mistborn" {
		t.Errorf("author/series = %q/%q", fe.Author, fe.Series)
	}
	if !fe.HasCover {
		t.Error("expected cover detected")
	}

	tm := entries[byName["The Martian"]]
	if tm.Author != "Andy Weir" || tm.Series != "" {
		t.Errorf("author/series = %q/%q", tm.Author, tm.Series)
	}

	lb := entries[byName["Loose Book"]]
	if lb.Author != "" {
		t.Errorf("loose entry should have no author, got %q", lb.Author)
	}
}

func TestEntriesCachedUntilRefresh(t *testing.T) {
	dir := setupLibrary(t)
	ix := NewIndex(dir, time.Hour)

	first, err := ix.Entries()
	if err != nil {
		t.Fatal(err)
	}

	// Add a new book; the cached index should not see it yet.
	newBook := filepath.Join(dir, "New Author", "New Book")
	if err := os.MkdirAll(newBook, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(newBook, "a.mp3"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	cached, err := ix.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(cached) != len(first) {
		t.Errorf("cache should not have rebuilt: %d vs %d", len(cached), len(first))
	}

	ix.Refresh()
	fresh, err := ix.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(fresh) != len(first)+1 {
		t.Errorf("expected %d entries after refresh, got %d", len(first)+1, len(fresh))
	}
}

func TestMatchAndBestMatch(t *testing.T) {
	ix := NewIndex(setupLibrary(t), time.Minute)

	best, err := ix.BestMatch("The Final Empire (Unabridged) [64k]", 70)
	if err != nil {
		t.Fatalf("BestMatch failed: %v", err)
	}
	if best == nil {
		t.Fatal("expected a match")
	}
	if best.Entry.Name != "The Final Empire" {
		t.Errorf("matched %q", best.Entry.Name)
	}
	if best.Score < 90 {
		t.Errorf("score = %d, want high", best.Score)
	}

	none, err := ix.BestMatch("Completely Unrelated Audiobook Name", 70)
	if err != nil {
		t.Fatal(err)
	}
	if none != nil {
		t.Errorf("expected no match, got %+v", none)
	}
}

func TestContainsDuplicate(t *testing.T) {
	ix := NewIndex(setupLibrary(t), time.Minute)

	dup, entry, err := ix.ContainsDuplicate("The Martian MP3 Unabridged")
	if err != nil {
		t.Fatal(err)
	}
	if !dup || entry == nil || entry.Name != "The Martian" {
		t.Errorf("dup=%v entry=%+v", dup, entry)
	}

	dup, _, err = ix.ContainsDuplicate("Project Hail Mary")
	if err != nil {
		t.Fatal(err)
	}
	if dup {
		t.Error("unexpected duplicate")
	}
}
