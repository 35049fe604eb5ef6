// file: internal/metadata/write.go
// version: 1.0.0
// guid: 1f2a3b4c-5d6e-7f8a-9b0c-1d2e3f4a5b6c

package metadata

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrTaglibUnavailable is returned when tag writing is requested from a
// binary built without the taglib tag.
var ErrTaglibUnavailable = errors.New("tag writing unavailable: rebuild with -tags taglib")

var writableExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".m4b":  true,
	".flac": true,
	".ogg":  true,
	".opus": true,
}

// TaglibAvailable reports whether native tag writing was compiled in.
func TaglibAvailable() bool {
	return taglibAvailable
}

// WriteMetadata writes book metadata tags to an audio file. The file is
// backed up before writing and restored if the write fails.
func WriteMetadata(filePath string, book BookMetadata) error {
	ext := strings.ToLower(filepath.Ext(filePath))
	if !writableExtensions[ext] {
		return fmt.Errorf("unsupported format for tag writing: %s", ext)
	}
	return writeMetadataWithTaglib(filePath, book)
}
