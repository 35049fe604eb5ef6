// file: internal/matcher/parse.go
// version: 1.4.0
// guid: 1f2a3b4c-5d6e-7f8a-9b0c-1d2e3f4a5b6c

package matcher

import (
	"regexp"
	"strconv"
	"strings"
)

// ParsedName holds the fields guessed from a download folder name.
type ParsedName struct {
	Author   string
	Title    string
	Series   string
	Sequence int
	Narrator string
}

// Precompiled at package level to avoid per-call recompilation.
var (
	// Matches narrator suffixes: "read by X", "narrated by X", "narrator: X".
	reNarratorSuffix = regexp.MustCompile(
		`(?i)(?:[-–,(\[]\s*)?(?:read\s+by|narrated\s+by|narrator[:\s]+)\s*([^)\]]+)[)\]]?\s*$`,
	)

	// Matches bracketed release noise: "[64k]", "(2019)", "{MP3}".
	reBracketNoise = regexp.MustCompile(`[\[({][^\])}]*[\])}]`)

	// Series markers inside a title segment.
	reSeriesBook = regexp.MustCompile(`(?i)^(.+?)\s+(?:book|vol\.?|volume|#)\s*(\d+)(?:\s*[:\-]\s*|\s+)(.+)$`)
	reSeriesNum  = regexp.MustCompile(`(?i)^(.+?)\s+(\d+)\s*[:\-]\s*(.+)$`)
)

// seriesWords are common words indicating a series rather than a title.
var seriesWords = []string{"trilogy", "series", "saga", "chronicles", "sequence"}

// ParseFolderName guesses author, title, series, and narrator from a download
// folder name like "Brandon Sanderson - Mistborn 01 - The Final Empire
// (Unabridged) [64k]".
func ParseFolderName(name string) ParsedName {
	var p ParsedName

	// Narrator first, before noise stripping eats the "(read by ...)" group.
	if m := reNarratorSuffix.FindStringSubmatch(name); m != nil {
		p.Narrator = strings.TrimSpace(m[1])
		name = strings.TrimSpace(name[:len(name)-len(m[0])])
	}

	name = strings.TrimSpace(reBracketNoise.ReplaceAllString(name, " "))
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return p
	}

	rest := name
	if strings.Contains(rest, " - ") {
		parts := strings.SplitN(rest, " - ", 2)
		left, right := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if looksLikePersonName(left) {
			p.Author = left
			rest = right
		} else if looksLikePersonName(right) && !strings.Contains(right, " - ") {
			// "Title - Author" ordering
			p.Author = right
			rest = left
		} else {
			rest = right
			if p.Series == "" && containsSeriesWord(left) {
				p.Series = left
			}
		}
	}

	// Series markers in what remains: "Series Book 2 - Title", "Series 3: Title".
	if m := reSeriesBook.FindStringSubmatch(rest); m != nil {
		p.Series = strings.TrimSpace(m[1])
		p.Sequence, _ = strconv.Atoi(m[2])
		p.Title = strings.TrimSpace(m[3])
	} else if m := reSeriesNum.FindStringSubmatch(rest); m != nil {
		p.Series = strings.TrimSpace(m[1])
		p.Sequence, _ = strconv.Atoi(m[2])
		p.Title = strings.TrimSpace(m[3])
	} else if strings.Contains(rest, " - ") {
		parts := strings.SplitN(rest, " - ", 2)
		p.Series = strings.TrimSpace(parts[0])
		p.Title = strings.TrimSpace(parts[1])
	} else {
		p.Title = rest
	}

	return p
}

// looksLikePersonName reports whether s resembles "First Last" or
// "First M. Last": two to four capitalized words, no digits.
func looksLikePersonName(s string) bool {
	words := strings.Fields(s)
	if len(words) < 2 || len(words) > 4 {
		return false
	}
	for _, w := range words {
		if strings.ContainsAny(w, "0123456789") {
			return false
		}
		r := []rune(w)
		if len(r) == 0 || !isUpper(r[0]) {
			return false
		}
	}
	return true
}

func containsSeriesWord(s string) bool {
	low := strings.ToLower(s)
	for _, w := range seriesWords {
		if strings.Contains(low, w) {
			return true
		}
	}
	return false
}

func isUpper(r rune) bool {
	return r >= 'A' && r <= 'Z'
}
