// file: internal/metadata/assemble.go
// version: 1.2.0
// guid: 0e1f2a3b-4c5d-6e7f-8a9b-0c1d2e3f4a5b

package metadata

import (
	"context"
	"log"
	"strings"
)

// Assembler queries a prioritized list of metadata sources and merges the
// results into a single record. Earlier sources win on conflicts; later
// sources only fill fields the earlier ones left blank.
type Assembler struct {
	sources []MetadataSource
}

// NewAssembler creates an assembler over the given sources, in priority order.
func NewAssembler(sources ...MetadataSource) *Assembler {
	return &Assembler{sources: sources}
}

// Lookup searches every source for the given title and author and merges the
// best hit from each. A nil result with a nil error means no source had a
// match. Individual source failures are logged and skipped so a flaky
// provider does not sink the whole lookup.
func (a *Assembler) Lookup(ctx context.Context, title, author string) (*BookMetadata, error) {
	var merged *BookMetadata

	for _, src := range a.sources {
		if err := ctx.Err(); err != nil {
			return merged, err
		}

		var (
			results []BookMetadata
			err     error
		)
		if author != "" {
			results, err = src.SearchByTitleAndAuthor(ctx, title, author)
		} else {
			results, err = src.SearchByTitle(ctx, title)
		}
		if err != nil {
			log.Printf("metadata: %s lookup failed: %v", src.Name(), err)
			continue
		}
		if len(results) == 0 {
			continue
		}

		best := pickBest(results, title, author)
		if merged == nil {
			b := best
			merged = &b
			continue
		}
		mergeMetadata(merged, best)
	}

	return merged, nil
}

// Search returns the raw per-source results without merging, for callers
// that want to present choices to the user. Source failures are logged and
// skipped, same as Lookup.
func (a *Assembler) Search(ctx context.Context, title, author string) ([]BookMetadata, error) {
	var all []BookMetadata

	for _, src := range a.sources {
		if err := ctx.Err(); err != nil {
			return all, err
		}

		var (
			results []BookMetadata
			err     error
		)
		if author != "" {
			results, err = src.SearchByTitleAndAuthor(ctx, title, author)
		} else {
			results, err = src.SearchByTitle(ctx, title)
		}
		if err != nil {
			log.Printf("metadata: %s search failed: %v", src.Name(), err)
			continue
		}
		all = append(all, results...)
	}

	return all, nil
}

// pickBest prefers a result whose title and author both match the query,
// falling back to the first result.
func pickBest(results []BookMetadata, title, author string) BookMetadata {
	wantTitle := strings.ToLower(title)
	wantAuthor := strings.ToLower(author)
	for _, r := range results {
		if !strings.Contains(strings.ToLower(r.Title), wantTitle) {
			continue
		}
		if wantAuthor != "" && !strings.Contains(strings.ToLower(r.Author), wantAuthor) {
			continue
		}
		return r
	}
	return results[0]
}

// mergeMetadata copies fields from src into dst where dst is empty.
func mergeMetadata(dst *BookMetadata, src BookMetadata) {
	if dst.Title == "" {
		dst.Title = src.Title
	}
	if dst.Author == "" {
		dst.Author = src.Author
	}
	if dst.Narrator == "" {
		dst.Narrator = src.Narrator
	}
	if dst.Series == "" {
		dst.Series = src.Series
		dst.SeriesPosition = src.SeriesPosition
	}
	if dst.Description == "" {
		dst.Description = src.Description
	}
	if dst.Publisher == "" {
		dst.Publisher = src.Publisher
	}
	if dst.PublishYear == 0 {
		dst.PublishYear = src.PublishYear
	}
	if dst.ISBN == "" {
		dst.ISBN = src.ISBN
	}
	if dst.CoverURL == "" {
		dst.CoverURL = src.CoverURL
	}
	if dst.Language == "" {
		dst.Language = src.Language
	}
}
