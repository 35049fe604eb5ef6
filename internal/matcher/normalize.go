// file: internal/matcher/normalize.go
// version: 1.2.0
// guid: 4a9c2e1f-7b3d-5a6e-9f0c-1b2d3e4f5a6b

package matcher

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// minContainmentLength is the minimum normalized length for the substring
// containment rule. Below this the two names must be equal, which avoids
// false positives like "it" matching "it ends with us".
const minContainmentLength = 8

// stopwords are dropped during normalization: articles plus the noise tokens
// release folders tend to carry (format, bitrate, rip markers).
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "and": true,
	"unabridged": true, "abridged": true, "audiobook": true, "audiobooks": true,
	"mp3": true, "m4b": true, "m4a": true, "flac": true, "aac": true,
	"64k": true, "128k": true, "retail": true, "rip": true, "web": true,
	"kbps": true, "vbr": true, "cbr": true,
}

var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases a name, folds diacritics, strips punctuation, and
// drops stopwords, leaving a space-separated token string suitable for
// containment comparison.
func Normalize(s string) string {
	s = strings.ToLower(s)
	if folded, _, err := transform.String(foldDiacritics, s); err == nil {
		s = folded
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	fields := strings.Fields(b.String())
	kept := fields[:0]
	for _, f := range fields {
		if !stopwords[f] {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

// IsDuplicate reports whether two folder names refer to the same audiobook.
// After normalization the names are duplicates when either contains the
// other; names shorter than minContainmentLength must match exactly.
func IsDuplicate(a, b string) bool {
	na := Normalize(a)
	nb := Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	if len(na) < minContainmentLength || len(nb) < minContainmentLength {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}
