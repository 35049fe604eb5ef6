// file: internal/metadata/audnexus.go
// version: 2.1.0
// guid: c3d4e5f6-a7b8-9c0d-1e2f-a3b4c5d6e7f8

package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// AudnexusClient fetches audiobook metadata from the Audnexus community API,
// which provides Audible-sourced data including narrator information.
// The API requires an ASIN for book lookups; there is no title search
// endpoint, so the search methods are best-effort.
type AudnexusClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewAudnexusClient creates a new Audnexus API client.
func NewAudnexusClient() *AudnexusClient {
	baseURL := os.Getenv("AUDNEXUS_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.audnex.us"
	}
	return NewAudnexusClientWithBaseURL(baseURL)
}

// NewAudnexusClientWithBaseURL creates a client with a custom base URL (for testing).
func NewAudnexusClientWithBaseURL(baseURL string) *AudnexusClient {
	return &AudnexusClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Name returns the display name for this metadata source.
func (c *AudnexusClient) Name() string {
	return "Audnexus (Audible)"
}

// Audnexus API response types matching the OpenAPI spec
type audnexusPerson struct {
	ASIN string `json:"asin"`
	Name string `json:"name"`
}

type audnexusSeries struct {
	ASIN     string `json:"asin"`
	Name     string `json:"name"`
	Position string `json:"position"`
}

type audnexusBook struct {
	ASIN          string           `json:"asin"`
	Title         string           `json:"title"`
	Subtitle      string           `json:"subtitle"`
	Authors       []audnexusPerson `json:"authors"`
	Narrators     []audnexusPerson `json:"narrators"`
	PublisherName string           `json:"publisherName"`
	ReleaseDate   string           `json:"releaseDate"`
	Language      string           `json:"language"`
	Image         string           `json:"image"`
	Description   string           `json:"description"`
	Summary       string           `json:"summary"`
	ISBN          string           `json:"isbn"`
	SeriesPrimary *audnexusSeries  `json:"seriesPrimary"`
}

type audnexusAuthor struct {
	ASIN string `json:"asin"`
	Name string `json:"name"`
}

// SearchByTitle cannot search Audnexus by title alone (no such endpoint
// exists). Returns empty results so the chain moves to the next source.
func (c *AudnexusClient) SearchByTitle(ctx context.Context, title string) ([]BookMetadata, error) {
	log.Printf("[DEBUG] Audnexus has no title search endpoint, skipping title-only search for %q", title)
	return nil, nil
}

// SearchByTitleAndAuthor verifies the author exists on Audnexus. The API
// cannot enumerate an author's books, so this returns no book results; it
// exists to keep the source chain uniform.
func (c *AudnexusClient) SearchByTitleAndAuthor(ctx context.Context, title, author string) ([]BookMetadata, error) {
	authorsURL := fmt.Sprintf("%s/authors?name=%s", c.baseURL, url.QueryEscape(author))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, authorsURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search Audnexus authors: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Audnexus author search returned status %d", resp.StatusCode)
	}

	var authors []audnexusAuthor
	if err := json.NewDecoder(resp.Body).Decode(&authors); err != nil {
		return nil, fmt.Errorf("failed to decode Audnexus author response: %w", err)
	}

	if len(authors) > 0 {
		log.Printf("[DEBUG] Audnexus found %d authors for %q, but no book title search available", len(authors), author)
	}
	return nil, nil
}

// LookupByASIN fetches a book directly by its Audible ASIN. This is the
// primary way to use Audnexus and the only source of narrator data.
func (c *AudnexusClient) LookupByASIN(ctx context.Context, asin string) (*BookMetadata, error) {
	bookURL := fmt.Sprintf("%s/books/%s", c.baseURL, url.PathEscape(asin))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, bookURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup Audnexus book: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Audnexus book lookup returned status %d", resp.StatusCode)
	}

	var book audnexusBook
	if err := json.NewDecoder(resp.Body).Decode(&book); err != nil {
		return nil, fmt.Errorf("failed to decode Audnexus book: %w", err)
	}

	return c.bookToMetadata(&book), nil
}

func (c *AudnexusClient) bookToMetadata(book *audnexusBook) *BookMetadata {
	meta := &BookMetadata{
		Title:     book.Title,
		Publisher: book.PublisherName,
		Language:  book.Language,
		CoverURL:  book.Image,
		ISBN:      book.ISBN,
	}

	if book.Summary != "" {
		meta.Description = book.Summary
	} else if book.Description != "" {
		meta.Description = book.Description
	}

	authorNames := make([]string, 0, len(book.Authors))
	for _, a := range book.Authors {
		authorNames = append(authorNames, a.Name)
	}
	meta.Author = strings.Join(authorNames, ", ")

	narratorNames := make([]string, 0, len(book.Narrators))
	for _, n := range book.Narrators {
		narratorNames = append(narratorNames, n.Name)
	}
	meta.Narrator = strings.Join(narratorNames, ", ")

	if book.SeriesPrimary != nil {
		meta.Series = book.SeriesPrimary.Name
		if pos, err := strconv.Atoi(strings.TrimSpace(book.SeriesPrimary.Position)); err == nil {
			meta.SeriesPosition = pos
		}
	}

	if len(book.ReleaseDate) >= 4 {
		fmt.Sscanf(book.ReleaseDate, "%d", &meta.PublishYear)
	}

	return meta
}
