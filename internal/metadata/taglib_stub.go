// file: internal/metadata/taglib_stub.go
// version: 1.0.0
// guid: 2a3b4c5d-6e7f-8a9b-0c1d-2e3f4a5b6c7d

//go:build !taglib

package metadata

// taglibAvailable false when not built with taglib
var taglibAvailable = false

// writeMetadataWithTaglib stub when taglib not compiled in
func writeMetadataWithTaglib(filePath string, book BookMetadata) error {
	return ErrTaglibUnavailable
}
