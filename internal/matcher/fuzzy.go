// file: internal/matcher/fuzzy.go
// version: 2.0.0
// guid: a1b2c3d4-e5f6-7890-abcd-ef1234567890

package matcher

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// FuzzyResult holds a scored search result.
type FuzzyResult struct {
	Index int // index into the original slice
	Score int // 0-100, higher is better
}

// LevenshteinDistance computes the edit distance between two strings.
func LevenshteinDistance(a, b string) int {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	// Single-row DP
	prev := make([]int, lb+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr := make([]int, lb+1)
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, min(prev[j]+1, prev[j-1]+cost))
		}
		prev = curr
	}
	return prev[lb]
}

// ScoreMatch scores how well a candidate name matches a library entry name.
// Returns 0-100. Both names are normalized before comparison, so release
// noise ("[64k]", "(Unabridged)") does not drag the score down.
func ScoreMatch(candidate, target string) int {
	c := Normalize(candidate)
	t := Normalize(target)
	if c == "" || t == "" {
		return 0
	}

	if c == t {
		return 100
	}

	score := 0

	// Containment either way, the same rule IsDuplicate applies.
	if len(c) >= minContainmentLength && len(t) >= minContainmentLength {
		if strings.Contains(t, c) || strings.Contains(c, t) {
			shorter, longer := len(c), len(t)
			if shorter > longer {
				shorter, longer = longer, shorter
			}
			ratio := float64(shorter) / float64(longer)
			score = max(score, 70+int(ratio*25))
		}
	}

	// Subsequence match catches word reordering and dropped separators.
	if fuzzy.MatchNormalizedFold(c, t) || fuzzy.MatchNormalizedFold(t, c) {
		score = max(score, 60)
	}

	// Edit distance over the whole normalized strings.
	dist := LevenshteinDistance(c, t)
	maxLen := max(len(c), len(t))
	if maxLen > 0 {
		similarity := 1.0 - float64(dist)/float64(maxLen)
		fuzzyScore := int(similarity * 65)
		if fuzzyScore > 0 {
			score = max(score, fuzzyScore)
		}
	}

	return score
}

// RankResults scores each library name against the candidate name and returns
// results sorted by score descending. Only results with score >= minScore
// are returned.
func RankResults(candidate string, names []string, minScore int) []FuzzyResult {
	var results []FuzzyResult
	for i, n := range names {
		s := ScoreMatch(candidate, n)
		if s >= minScore {
			results = append(results, FuzzyResult{Index: i, Score: s})
		}
	}
	// Sort descending by score
	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && results[j].Score > results[j-1].Score; j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}
	return results
}
