// file: internal/metadata/extract.go
// version: 1.2.0
// guid: 9d0e1f2a-3b4c-5d6e-7f8a-9b0c1d2e3f4a

package metadata

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
)

// Metadata holds tags read from an audio file.
type Metadata struct {
	Title       string
	Artist      string
	Album       string
	Genre       string
	Series      string
	SeriesIndex int
	Narrator    string
	Year        int
}

// ExtractMetadata reads tags from an audio file via dhowden/tag. Audiobook
// rips commonly store the narrator in the composer frame and the series in
// the content-group (MVNM/TIT1) frame.
func ExtractMetadata(filePath string) (Metadata, error) {
	var metadata Metadata

	f, err := os.Open(filePath)
	if err != nil {
		return metadata, fmt.Errorf("error opening file: %w", err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return metadata, fmt.Errorf("error reading tags: %w", err)
	}

	metadata.Title = m.Title()
	metadata.Artist = m.Artist()
	metadata.Album = m.Album()
	metadata.Genre = m.Genre()
	metadata.Year = m.Year()
	metadata.Narrator = m.Composer()

	raw := m.Raw()
	for _, key := range []string{"MVNM", "TIT1", "©grp", "CONTENTGROUP"} {
		if v, ok := raw[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				metadata.Series = parseSeriesTag(s, &metadata.SeriesIndex)
				break
			}
		}
	}
	if idx, ok := raw["MVIN"]; ok && metadata.SeriesIndex == 0 {
		if s, ok := idx.(string); ok {
			// "2/10" or plain "2"
			if n, err := strconv.Atoi(strings.SplitN(s, "/", 2)[0]); err == nil {
				metadata.SeriesIndex = n
			}
		}
	}

	return metadata, nil
}

// parseSeriesTag splits "Series Name, Book 3" style values.
func parseSeriesTag(s string, index *int) string {
	low := strings.ToLower(s)
	if i := strings.LastIndex(low, ", book "); i >= 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(s[i+7:])); err == nil {
			*index = n
		}
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}
