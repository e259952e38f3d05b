// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"testing"
)

func TestFuzzyMatch(t *testing.T) {
	tests := []struct {
		query   string
		target  string
		matched bool
	}{
		{"sv", "/save", true},
		{"sv", "/sessions", true},
		{"hlp", "/help", true},
		{"xyz", "/save", false},
		{"", "/anything", true},
		{"toolong", "/sv", false},
		{"mod", "/model", true},
		{"hist", "/history", true},
	}

	for _, tc := range tests {
		_, matched := FuzzyMatch(tc.query, tc.target)
		if matched != tc.matched {
			t.Errorf("FuzzyMatch(%q, %q) matched = %v, want %v",
				tc.query, tc.target, matched, tc.matched)
		}
	}
}

func TestFuzzyMatchScoring(t *testing.T) {
	// Consecutive match beats scattered match
	sessionsScore, _ := FuzzyMatch("se", "/sessions")
	saveScore, _ := FuzzyMatch("se", "/save")
	if sessionsScore <= saveScore {
		t.Errorf("Expected /sessions (%d) to score above /save (%d) for 'se'",
			sessionsScore, saveScore)
	}

	// Shorter target wins when the match quality is equal
	saveScore, _ = FuzzyMatch("s", "/save")
	sessionsScore, _ = FuzzyMatch("s", "/sessions")
	if saveScore <= sessionsScore {
		t.Errorf("Expected /save (%d) to score above /sessions (%d) for 's'",
			saveScore, sessionsScore)
	}
}

func TestFuzzyFilter(t *testing.T) {
	commands := []string{"/help", "/history", "/model", "/models", "/save", "/sessions"}

	matches := FuzzyFilter("h", commands)
	if len(matches) != 2 {
		t.Fatalf("Expected 2 matches for 'h', got %d", len(matches))
	}
	for _, m := range matches {
		if m.Target != "/help" && m.Target != "/history" {
			t.Errorf("Unexpected match: %s", m.Target)
		}
	}

	// Results sorted by score, highest first
	matches = FuzzyFilter("m", commands)
	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Errorf("Matches not sorted: %s (%d) after %s (%d)",
				matches[i].Target, matches[i].Score,
				matches[i-1].Target, matches[i-1].Score)
		}
	}

	// No matches returns empty
	matches = FuzzyFilter("zzz", commands)
	if len(matches) != 0 {
		t.Errorf("Expected no matches for 'zzz', got %d", len(matches))
	}
}

func TestHighlightMatch(t *testing.T) {
	positions := HighlightMatch("sv", "/save")
	if len(positions) != 2 {
		t.Fatalf("Expected 2 positions, got %d", len(positions))
	}
	// '/save': s at 1, v at 4
	if positions[0] != 1 || positions[1] != 4 {
		t.Errorf("Expected positions [1 4], got %v", positions)
	}

	if HighlightMatch("", "/save") != nil {
		t.Error("Empty query should return nil positions")
	}
}
