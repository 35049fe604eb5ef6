// file: internal/metadata/openlibrary.go
// version: 2.0.0
// guid: 1a2b3c4d-5e6f-7a8b-9c0d-1e2f3a4b5c6d

package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// OpenLibraryClient handles metadata fetching from the Open Library API.
type OpenLibraryClient struct {
	httpClient *http.Client
	baseURL    string
	coversURL  string
}

// NewOpenLibraryClient creates a new Open Library API client.
func NewOpenLibraryClient() *OpenLibraryClient {
	baseURL := os.Getenv("OPENLIBRARY_BASE_URL")
	if baseURL == "" {
		baseURL = "https://openlibrary.org"
	}
	return NewOpenLibraryClientWithBaseURL(baseURL)
}

// NewOpenLibraryClientWithBaseURL creates a client with a custom base URL.
func NewOpenLibraryClientWithBaseURL(baseURL string) *OpenLibraryClient {
	return &OpenLibraryClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		coversURL:  "https://covers.openlibrary.org",
	}
}

// Name returns the display name for this metadata source.
func (c *OpenLibraryClient) Name() string {
	return "Open Library"
}

// SearchResult represents a book search result from Open Library.
type SearchResult struct {
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	FirstPublishYear int      `json:"first_publish_year"`
	ISBN             []string `json:"isbn"`
	Publisher        []string `json:"publisher"`
	Language         []string `json:"language"`
	CoverI           int      `json:"cover_i"`
	EditionCount     int      `json:"edition_count"`
}

// SearchResponse represents the API response from Open Library search.
type SearchResponse struct {
	NumFound int            `json:"numFound"`
	Start    int            `json:"start"`
	Docs     []SearchResult `json:"docs"`
}

// SearchByTitle searches for books by title.
func (c *OpenLibraryClient) SearchByTitle(ctx context.Context, title string) ([]BookMetadata, error) {
	searchURL := fmt.Sprintf("%s/search.json?title=%s&limit=5", c.baseURL, url.QueryEscape(title))
	return c.search(ctx, searchURL)
}

// SearchByTitleAndAuthor searches for books by title and author.
func (c *OpenLibraryClient) SearchByTitleAndAuthor(ctx context.Context, title, author string) ([]BookMetadata, error) {
	searchURL := fmt.Sprintf("%s/search.json?title=%s&author=%s&limit=5",
		c.baseURL, url.QueryEscape(title), url.QueryEscape(author))
	return c.search(ctx, searchURL)
}

func (c *OpenLibraryClient) search(ctx context.Context, searchURL string) ([]BookMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search Open Library: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Open Library API returned status %d", resp.StatusCode)
	}

	var searchResp SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	results := make([]BookMetadata, 0, len(searchResp.Docs))
	for _, doc := range searchResp.Docs {
		meta := BookMetadata{
			Title:       doc.Title,
			PublishYear: doc.FirstPublishYear,
		}
		if len(doc.AuthorName) > 0 {
			meta.Author = doc.AuthorName[0]
		}
		if len(doc.Publisher) > 0 {
			meta.Publisher = doc.Publisher[0]
		}
		if len(doc.ISBN) > 0 {
			meta.ISBN = doc.ISBN[0]
		}
		if len(doc.Language) > 0 {
			meta.Language = doc.Language[0]
		}
		if doc.CoverI > 0 {
			meta.CoverURL = fmt.Sprintf("%s/b/id/%d-L.jpg", c.coversURL, doc.CoverI)
		}
		results = append(results, meta)
	}
	return results, nil
}
