// file: internal/metadata/metadata_test.go
// version: 1.1.0
// guid: 4c5d6e7f-8a9b-0c1d-2e3f-4a5b6c7d8e9f

package metadata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestGoogleBooksSearchByTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/volumes" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"totalItems": 1,
			"items": [{
				"volumeInfo": {
					"title": "The Martian",
					"authors": ["Andy Weir"],
					"publisher": "Crown",
					"publishedDate": "2014-02-11",
					"description": "Stranded on Mars.",
					"industryIdentifiers": [
						{"type": "ISBN_10", "identifier": "0804139024"},
						{"type": "ISBN_13", "identifier": "9780804139021"}
					],
					"imageLinks": {"thumbnail": "http://example.com/cover.jpg"},
					"language": "en"
				}
			}]
		}`)
	}))
	defer srv.Close()

	client := NewGoogleBooksClientWithBaseURL(srv.URL)
	results, err := client.SearchByTitle(context.Background(), "The Martian")
	if err != nil {
		t.Fatalf("SearchByTitle failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	got := results[0]
	if got.Title != "The Martian" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.Author != "Andy Weir" {
		t.Errorf("Author = %q", got.Author)
	}
	if got.PublishYear != 2014 {
		t.Errorf("PublishYear = %d", got.PublishYear)
	}
	if got.ISBN != "9780804139021" {
		t.Errorf("ISBN = %q, want ISBN_13 preferred", got.ISBN)
	}
	if got.CoverURL != "http://example.com/cover.jpg" {
		t.Errorf("CoverURL = %q", got.CoverURL)
	}
}

func TestGoogleBooksServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewGoogleBooksClientWithBaseURL(srv.URL)
	if _, err := client.SearchByTitle(context.Background(), "anything"); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestOpenLibrarySearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("author"); got != "Frank Herbert" {
			t.Errorf("author query = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"numFound": 1,
			"start": 0,
			"docs": [{
				"title": "Dune",
				"author_name": ["Frank Herbert"],
				"first_publish_year": 1965,
				"isbn": ["9780441172719"],
				"publisher": ["Ace"],
				"language": ["eng"],
				"cover_i": 12345
			}]
		}`)
	}))
	defer srv.Close()

	client := NewOpenLibraryClientWithBaseURL(srv.URL)
	results, err := client.SearchByTitleAndAuthor(context.Background(), "Dune", "Frank Herbert")
	if err != nil {
		t.Fatalf("SearchByTitleAndAuthor failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	got := results[0]
	if got.Title != "Dune" || got.Author != "Frank Herbert" {
		t.Errorf("unexpected result %+v", got)
	}
	if got.PublishYear != 1965 {
		t.Errorf("PublishYear = %d", got.PublishYear)
	}
	if got.CoverURL == "" {
		t.Error("expected cover URL from cover_i")
	}
}

func TestAudnexusLookupByASIN(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/books/B002V0QK4C" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"asin": "B002V0QK4C",
			"title": "The Way of Kings",
			"authors": [{"asin": "A1", "name": "Brandon Sanderson"}],
			"narrators": [{"name": "Michael Kramer"}, {"name": "Kate Reading"}],
			"publisherName": "Macmillan Audio",
			"releaseDate": "2010-08-31",
			"language": "english",
			"image": "http://example.com/wok.jpg",
			"summary": "Epic fantasy.",
			"seriesPrimary": {"asin": "S1", "name": "The Stormlight Archive", "position": "1"}
		}`)
	}))
	defer srv.Close()

	client := NewAudnexusClientWithBaseURL(srv.URL)
	meta, err := client.LookupByASIN(context.Background(), "B002V0QK4C")
	if err != nil {
		t.Fatalf("LookupByASIN failed: %v", err)
	}
	if meta.Title != "The Way of Kings" {
		t.Errorf("Title = %q", meta.Title)
	}
	if meta.Narrator != "Michael Kramer, Kate Reading" {
		t.Errorf("Narrator = %q", meta.Narrator)
	}
	if meta.Series != "The Stormlight Archive" || meta.SeriesPosition != 1 {
		t.Errorf("Series = %q pos %d", meta.Series, meta.SeriesPosition)
	}
	if meta.PublishYear != 2010 {
		t.Errorf("PublishYear = %d", meta.PublishYear)
	}
}

// fakeSource returns canned results for assembler tests.
type fakeSource struct {
	name    string
	results []BookMetadata
	err     error
}

func (f *fakeSource) Name() string { return f.name }
func (f *fakeSource) SearchByTitle(ctx context.Context, title string) ([]BookMetadata, error) {
	return f.results, f.err
}
func (f *fakeSource) SearchByTitleAndAuthor(ctx context.Context, title, author string) ([]BookMetadata, error) {
	return f.results, f.err
}

func TestAssemblerMergesSources(t *testing.T) {
	primary := &fakeSource{name: "primary", results: []BookMetadata{{
		Title:  "Project Hail Mary",
		Author: "Andy Weir",
	}}}
	secondary := &fakeSource{name: "secondary", results: []BookMetadata{{
		Title:       "Project Hail Mary",
		Author:      "Someone Else",
		Narrator:    "Ray Porter",
		PublishYear: 2021,
	}}}

	asm := NewAssembler(primary, secondary)
	got, err := asm.Lookup(context.Background(), "Project Hail Mary", "Andy Weir")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected a merged result")
	}
	if got.Author != "Andy Weir" {
		t.Errorf("earlier source should win author, got %q", got.Author)
	}
	if got.Narrator != "Ray Porter" {
		t.Errorf("later source should fill narrator, got %q", got.Narrator)
	}
	if got.PublishYear != 2021 {
		t.Errorf("later source should fill year, got %d", got.PublishYear)
	}
}

func TestAssemblerSkipsFailingSource(t *testing.T) {
	broken := &fakeSource{name: "broken", err: fmt.Errorf("connection refused")}
	working := &fakeSource{name: "working", results: []BookMetadata{{Title: "Dune"}}}

	asm := NewAssembler(broken, working)
	got, err := asm.Lookup(context.Background(), "Dune", "")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got == nil || got.Title != "Dune" {
		t.Fatalf("expected result from working source, got %+v", got)
	}
}

func TestAssemblerNoResults(t *testing.T) {
	asm := NewAssembler(&fakeSource{name: "empty"})
	got, err := asm.Lookup(context.Background(), "Nothing", "")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil result, got %+v", got)
	}
}

func TestParseSeriesTag(t *testing.T) {
	var idx int
	name := parseSeriesTag("The Stormlight Archive, Book 3", &idx)
	if name != "The Stormlight Archive" || idx != 3 {
		t.Errorf("got %q idx %d", name, idx)
	}

	idx = 0
	name = parseSeriesTag("Mistborn", &idx)
	if name != "Mistborn" || idx != 0 {
		t.Errorf("got %q idx %d", name, idx)
	}
}

func TestDownloadCoverArt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("fake-jpeg-bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	path, err := DownloadCoverArt(srv.URL+"/cover.jpg", dir)
	if err != nil {
		t.Fatalf("DownloadCoverArt failed: %v", err)
	}
	if filepath.Base(path) != "cover.jpg" {
		t.Errorf("unexpected filename %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading cover: %v", err)
	}
	if string(data) != "fake-jpeg-bytes" {
		t.Errorf("cover contents = %q", data)
	}

	// Second call finds the existing file without re-downloading.
	again, err := DownloadCoverArt("http://invalid.invalid/x.jpg", dir)
	if err != nil {
		t.Fatalf("second DownloadCoverArt failed: %v", err)
	}
	if again != path {
		t.Errorf("expected cached path %s, got %s", path, again)
	}
}

func TestDownloadCoverArtRejectsNonImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>not found</html>"))
	}))
	defer srv.Close()

	if _, err := DownloadCoverArt(srv.URL+"/cover.jpg", t.TempDir()); err == nil {
		t.Fatal("expected error for non-image content type")
	}
}

func TestWriteMetadataUnsupportedFormat(t *testing.T) {
	err := WriteMetadata("/tmp/notes.txt", BookMetadata{Title: "x"})
	if err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}
