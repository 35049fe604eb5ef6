// file: internal/matcher/fuzzy_test.go
// version: 2.0.0
// guid: b2c3d4e5-f6a7-8901-bcde-f23456789012

package matcher

import "testing"

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"saturday", "sunday", 3},
		{"abc", "abc", 0},
		{"ABC", "abc", 0}, // case insensitive
	}
	for _, tt := range tests {
		got := LevenshteinDistance(tt.a, tt.b)
		if got != tt.want {
			t.Errorf("LevenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestScoreMatch(t *testing.T) {
	tests := []struct {
		candidate, target string
		minExpected       int
		maxExpected       int
	}{
		// Exact after normalization
		{"The Final Empire (Unabridged)", "Final Empire", 100, 100},
		// Containment
		{"Andy Weir - Project Hail Mary [64k]", "Project Hail Mary", 70, 99},
		// Typo
		{"Projct Hail Mary", "Project Hail Mary", 40, 99},
		// Unrelated
		{"Leviathan Wakes", "Project Hail Mary", 0, 39},
		// Empty
		{"", "Project Hail Mary", 0, 0},
		{"Project Hail Mary", "", 0, 0},
	}
	for _, tt := range tests {
		score := ScoreMatch(tt.candidate, tt.target)
		if score < tt.minExpected || score > tt.maxExpected {
			t.Errorf("ScoreMatch(%q, %q) = %d, want [%d, %d]",
				tt.candidate, tt.target, score, tt.minExpected, tt.maxExpected)
		}
	}
}

func TestScoreMatch_Ordering(t *testing.T) {
	candidate := "Project Hail Mary"
	exact := ScoreMatch(candidate, "Project Hail Mary")
	contained := ScoreMatch(candidate, "Andy Weir - Project Hail Mary")
	distant := ScoreMatch(candidate, "Artemis")

	if exact <= contained {
		t.Errorf("exact (%d) should beat containment (%d)", exact, contained)
	}
	if contained <= distant {
		t.Errorf("containment (%d) should beat unrelated (%d)", contained, distant)
	}
}

func TestRankResults(t *testing.T) {
	names := []string{
		"Brandon Sanderson - The Final Empire",
		"Brandon Sanderson - The Well of Ascension",
		"Andy Weir - Project Hail Mary",
	}
	results := RankResults("The Final Empire [MP3]", names, 50)
	if len(results) == 0 {
		t.Fatal("expected at least one result")
	}
	if results[0].Index != 0 {
		t.Errorf("expected best match index 0, got %d", results[0].Index)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not sorted: %d before %d", results[i-1].Score, results[i].Score)
		}
	}
}

func TestRankResults_MinScoreFilters(t *testing.T) {
	names := []string{"Completely Different Book"}
	results := RankResults("Project Hail Mary", names, 60)
	if len(results) != 0 {
		t.Errorf("expected no results above threshold, got %d", len(results))
	}
}
