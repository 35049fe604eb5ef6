// file: internal/importer/pattern.go
// version: 1.0.0
// guid: 1d2e3f4a-5b6c-7d8e-9f0a-1b2c3d4e5f6a

package importer

import (
	"fmt"
	"regexp"
	"strings"
)

// PatternFields are the values available to naming patterns.
type PatternFields struct {
	Title    string
	Author   string
	Series   string
	Sequence int
	Narrator string
	Year     int
}

// ExpandPattern fills a naming pattern like "{author}/{series}/{title}".
// Segments whose placeholders resolve empty are dropped, so the default
// pattern collapses to "{author}/{title}" for standalone books.
func ExpandPattern(pattern string, fields PatternFields) string {
	seq := ""
	if fields.Sequence > 0 {
		seq = fmt.Sprintf("%d", fields.Sequence)
	}
	year := ""
	if fields.Year > 0 {
		year = fmt.Sprintf("%d", fields.Year)
	}

	replacements := map[string]string{
		"{title}":         fields.Title,
		"{author}":        fields.Author,
		"{series}":        fields.Series,
		"{series_number}": seq,
		"{narrator}":      fields.Narrator,
		"{year}":          year,
	}

	result := pattern
	for placeholder, value := range replacements {
		if value == "" {
			result = removeEmptySegment(result, placeholder)
		} else {
			result = strings.ReplaceAll(result, placeholder, value)
		}
	}

	return cleanupPattern(result)
}

// removeEmptySegment removes segments containing empty placeholders.
func removeEmptySegment(pattern, placeholder string) string {
	patterns := []string{
		fmt.Sprintf(` - %s`, regexp.QuoteMeta(placeholder)),
		fmt.Sprintf(`%s - `, regexp.QuoteMeta(placeholder)),
		fmt.Sprintf(`\(%s[^)]*\)`, regexp.QuoteMeta(placeholder)),
		fmt.Sprintf(`\([^(]*%s\)`, regexp.QuoteMeta(placeholder)),
		regexp.QuoteMeta(placeholder),
	}

	result := pattern
	for _, p := range patterns {
		re := regexp.MustCompile(p)
		result = re.ReplaceAllString(result, "")
	}
	return result
}

// cleanupPattern cleans up extra spaces, dashes, and empty path segments.
func cleanupPattern(pattern string) string {
	re := regexp.MustCompile(`\s+`)
	pattern = re.ReplaceAllString(pattern, " ")

	re = regexp.MustCompile(`\(\s*\)`)
	pattern = re.ReplaceAllString(pattern, "")

	re = regexp.MustCompile(`/+`)
	pattern = re.ReplaceAllString(pattern, "/")

	parts := strings.Split(pattern, "/")
	kept := parts[:0]
	for _, p := range parts {
		p = strings.Trim(p, " -")
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "/")
}

// SanitizePath sanitizes each path segment for filesystem use.
func SanitizePath(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		parts[i] = SanitizeFilename(part)
	}
	return strings.Join(parts, "/")
}

// SanitizeFilename sanitizes a filename for filesystem use.
func SanitizeFilename(name string) string {
	invalid := []string{"<", ">", ":", "\"", "|", "?", "*", "\\"}
	for _, char := range invalid {
		name = strings.ReplaceAll(name, char, "_")
	}

	re := regexp.MustCompile(`\s+`)
	name = re.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)
	name = strings.Trim(name, ".")

	if len(name) > 200 {
		name = name[:200]
	}

	return name
}
