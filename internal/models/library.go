// file: internal/models/library.go
// version: 1.1.0
// guid: 7b3e9f2a-4c5d-6e7f-8a9b-0c1d2e3f4a5b

package models

import "time"

// LibraryEntry is one organized folder in the library tree, used for fuzzy
// duplicate detection against download candidates.
type LibraryEntry struct {
	Path     string    `json:"path"`
	Name     string    `json:"name"`
	Author   string    `json:"author,omitempty"`
	Series   string    `json:"series,omitempty"`
	HasCover bool      `json:"has_cover"`
	ModTime  time.Time `json:"mod_time"`
}

// LibraryMatch pairs a library entry with its match score against a candidate.
type LibraryMatch struct {
	Entry LibraryEntry `json:"entry"`
	Score int          `json:"score"`
}

// HistoryEntry records one completed import in the processed-history log.
type HistoryEntry struct {
	ID             string    `json:"id"`
	CandidateName  string    `json:"candidate_name"`
	NormalizedName string    `json:"normalized_name"`
	Fingerprint    string    `json:"fingerprint,omitempty"`
	SourcePath     string    `json:"source_path"`
	LibraryPath    string    `json:"library_path"`
	Author         string    `json:"author,omitempty"`
	Title          string    `json:"title,omitempty"`
	Series         string    `json:"series,omitempty"`
	Narrator       string    `json:"narrator,omitempty"`
	Tagged         bool      `json:"tagged"`
	CoverPath      string    `json:"cover_path,omitempty"`
	FileCount      int       `json:"file_count"`
	TotalSize      int64     `json:"total_size"`
	ImportedAt     time.Time `json:"imported_at"`
}

// Bundle is a manually assembled candidate persisted across rescans.
type Bundle struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Paths     []string  `json:"paths"`
	CreatedAt time.Time `json:"created_at"`
}

// DashboardStats summarizes the downloads and library state for the UI.
type DashboardStats struct {
	Candidates     int   `json:"candidates"`
	NewCandidates  int   `json:"new_candidates"`
	Matched        int   `json:"matched"`
	Imported       int   `json:"imported"`
	LibraryEntries int   `json:"library_entries"`
	HistoryEntries int   `json:"history_entries"`
	DownloadsBytes int64 `json:"downloads_bytes"`
	LibraryBytes   int64 `json:"library_bytes"`
}

// FileSystemItem represents a file or directory in the file explorer.
type FileSystemItem struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	IsDir    bool      `json:"is_dir"`
	Size     int64     `json:"size,omitempty"`
	ModTime  time.Time `json:"mod_time"`
	Excluded bool      `json:"excluded"`
}
