// file: internal/metadata/googlebooks.go
// version: 1.1.0
// guid: b2c3d4e5-f6a7-8b9c-0d1e-f2a3b4c5d6e7

package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// GoogleBooksClient fetches metadata from the Google Books Volume API.
// No API key is required for basic searches (free tier, ~1000 req/day).
type GoogleBooksClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewGoogleBooksClient creates a new Google Books API client.
func NewGoogleBooksClient() *GoogleBooksClient {
	baseURL := os.Getenv("GOOGLE_BOOKS_BASE_URL")
	if baseURL == "" {
		baseURL = "https://www.googleapis.com/books/v1"
	}
	return NewGoogleBooksClientWithBaseURL(baseURL)
}

// NewGoogleBooksClientWithBaseURL creates a client with a custom base URL (for testing).
func NewGoogleBooksClientWithBaseURL(baseURL string) *GoogleBooksClient {
	return &GoogleBooksClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Name returns the display name for this metadata source.
func (c *GoogleBooksClient) Name() string {
	return "Google Books"
}

type googleBooksResponse struct {
	TotalItems int              `json:"totalItems"`
	Items      []googleBooksVol `json:"items"`
}

type googleBooksVol struct {
	VolumeInfo googleBooksVolumeInfo `json:"volumeInfo"`
}

type googleBooksVolumeInfo struct {
	Title               string                  `json:"title"`
	Authors             []string                `json:"authors"`
	Publisher           string                  `json:"publisher"`
	PublishedDate       string                  `json:"publishedDate"`
	Description         string                  `json:"description"`
	IndustryIdentifiers []googleBooksIndustryID `json:"industryIdentifiers"`
	ImageLinks          *googleBooksImageLinks  `json:"imageLinks"`
	Language            string                  `json:"language"`
}

type googleBooksIndustryID struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

type googleBooksImageLinks struct {
	Thumbnail      string `json:"thumbnail"`
	SmallThumbnail string `json:"smallThumbnail"`
}

// SearchByTitle searches Google Books by title.
func (c *GoogleBooksClient) SearchByTitle(ctx context.Context, title string) ([]BookMetadata, error) {
	return c.search(ctx, "intitle:"+title)
}

// SearchByTitleAndAuthor searches Google Books by title and author.
func (c *GoogleBooksClient) SearchByTitleAndAuthor(ctx context.Context, title, author string) ([]BookMetadata, error) {
	return c.search(ctx, fmt.Sprintf("intitle:%s+inauthor:%s", title, author))
}

func (c *GoogleBooksClient) search(ctx context.Context, query string) ([]BookMetadata, error) {
	searchURL := fmt.Sprintf("%s/volumes?q=%s&maxResults=5", c.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search Google Books: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Google Books API returned status %d", resp.StatusCode)
	}

	var gbResp googleBooksResponse
	if err := json.NewDecoder(resp.Body).Decode(&gbResp); err != nil {
		return nil, fmt.Errorf("failed to decode Google Books response: %w", err)
	}

	results := make([]BookMetadata, 0, len(gbResp.Items))
	for _, item := range gbResp.Items {
		results = append(results, volumeToMetadata(item.VolumeInfo))
	}
	return results, nil
}

func volumeToMetadata(vi googleBooksVolumeInfo) BookMetadata {
	meta := BookMetadata{
		Title:       vi.Title,
		Author:      strings.Join(vi.Authors, ", "),
		Publisher:   vi.Publisher,
		Description: vi.Description,
		Language:    vi.Language,
	}
	if len(vi.PublishedDate) >= 4 {
		if year, err := strconv.Atoi(vi.PublishedDate[:4]); err == nil {
			meta.PublishYear = year
		}
	}
	for _, id := range vi.IndustryIdentifiers {
		switch {
		case id.Type == "ISBN_13":
			meta.ISBN = id.Identifier
		case id.Type == "ISBN_10" && meta.ISBN == "":
			meta.ISBN = id.Identifier
		}
	}
	if vi.ImageLinks != nil {
		meta.CoverURL = vi.ImageLinks.Thumbnail
		if meta.CoverURL == "" {
			meta.CoverURL = vi.ImageLinks.SmallThumbnail
		}
	}
	return meta
}
