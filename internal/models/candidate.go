// file: internal/models/candidate.go
// version: 1.3.0
// guid: 2d4f8a1b-9c3e-4f7a-8b2d-5e6f7a8b9c0d

package models

import "time"

// Status classifies a download candidate against the library and history.
type Status string

const (
	// StatusNew means no library match and no history record.
	StatusNew Status = "new"
	// StatusMatched means a fuzzy library match exists but the imported
	// copy has not been tagged yet.
	StatusMatched Status = "matched"
	// StatusTagged means a library match exists and the imported copy
	// carries written tags.
	StatusTagged Status = "tagged"
	// StatusImported means the candidate appears in the processed-history log.
	StatusImported Status = "imported"
)

// CandidateFile is a single audio file inside a candidate.
type CandidateFile struct {
	Path   string `json:"path"`
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	Format string `json:"format"`
}

// Candidate is a folder or loose-file group in the downloads directory
// believed to represent one audiobook.
type Candidate struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Path        string          `json:"path"`
	IsDir       bool            `json:"is_dir"`
	Files       []CandidateFile `json:"files"`
	TotalSize   int64           `json:"total_size"`
	Fingerprint string          `json:"fingerprint,omitempty"`
	Status      Status          `json:"status"`

	// Best library match, populated when Status is matched or tagged.
	MatchedLibraryPath string `json:"matched_library_path,omitempty"`
	MatchScore         int    `json:"match_score,omitempty"`

	// Parsed from the folder name (best effort).
	Author   string `json:"author,omitempty"`
	Title    string `json:"title,omitempty"`
	Series   string `json:"series,omitempty"`
	Sequence int    `json:"sequence,omitempty"`

	// Bundle members when this candidate was assembled manually.
	BundlePaths []string `json:"bundle_paths,omitempty"`

	ModTime time.Time `json:"mod_time"`
}

// FileCount returns the number of audio files in the candidate.
func (c *Candidate) FileCount() int {
	return len(c.Files)
}

// Formats returns the distinct audio formats present, in first-seen order.
func (c *Candidate) Formats() []string {
	seen := make(map[string]bool)
	var formats []string
	for _, f := range c.Files {
		if f.Format == "" || seen[f.Format] {
			continue
		}
		seen[f.Format] = true
		formats = append(formats, f.Format)
	}
	return formats
}

// IsBundle reports whether this candidate was assembled from multiple
// download entries.
func (c *Candidate) IsBundle() bool {
	return len(c.BundlePaths) > 0
}
