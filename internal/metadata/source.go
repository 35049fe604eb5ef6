// file: internal/metadata/source.go
// version: 1.1.0
// guid: a1b2c3d4-e5f6-7a8b-9c0d-e1f2a3b4c5d6

package metadata

import "context"

// BookMetadata represents enriched book metadata from a provider.
type BookMetadata struct {
	Title          string
	Author         string
	Narrator       string
	Series         string
	SeriesPosition int
	Description    string
	Publisher      string
	PublishYear    int
	ISBN           string
	CoverURL       string
	Language       string
}

// MetadataSource is a pluggable metadata provider. Searches are remote
// calls and honor context cancellation.
type MetadataSource interface {
	Name() string
	SearchByTitle(ctx context.Context, title string) ([]BookMetadata, error)
	SearchByTitleAndAuthor(ctx context.Context, title, author string) ([]BookMetadata, error)
}
