// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package fuzzy

import (
	"sort"
	"testing"
)

func TestMatchSubstring(t *testing.T) {
	result := Match("Installing the widget toolchain", []rune("widget"), nil)
	if result.Score <= 0 {
		t.Fatal("expected positive score for substring match")
	}
	if len(result.Positions) == 0 {
		t.Fatal("expected non-empty match positions")
	}
}

func TestMatchNonContiguous(t *testing.T) {
	// "wtc" matches "widget toolchain" — w from widget, t and c from
	// toolchain.
	result := Match("widget toolchain", []rune("wtc"), nil)
	if result.Score <= 0 {
		t.Fatal("expected positive score for non-contiguous fuzzy match")
	}
}

func TestMatchNoMatch(t *testing.T) {
	result := Match("Installing the widget toolchain", []rune("xyz"), nil)
	if result.Score != 0 {
		t.Errorf("expected zero score for no match, got %d", result.Score)
	}
	if len(result.Positions) != 0 {
		t.Errorf("expected empty positions for no match, got %v", result.Positions)
	}
}

func TestMatchCaseInsensitive(t *testing.T) {
	result := Match("Installing The Widget", []rune("widget"), nil)
	if result.Score <= 0 {
		t.Fatalf("expected case-insensitive match, got score=%d", result.Score)
	}

	// Uppercase in the pattern too.
	result = Match("quick start", []rune("QUICK"), nil)
	if result.Score <= 0 {
		t.Fatalf("expected uppercase pattern to match, got score=%d", result.Score)
	}
}

func TestMatchAllCapsText(t *testing.T) {
	result := Match("HTTP CLIENT CONFIG", []rune("http"), nil)
	if result.Score <= 0 {
		t.Fatalf("expected match against all-caps text, got score=%d", result.Score)
	}
}

func TestMatchEmptyPattern(t *testing.T) {
	result := Match("anything", []rune{}, nil)
	if result.Score != 0 {
		t.Errorf("expected zero score for empty pattern, got %d", result.Score)
	}
}

func TestMatchPositionsAscendingAndInBounds(t *testing.T) {
	text := "hello world"
	result := Match(text, []rune("hw"), nil)
	if result.Score <= 0 {
		t.Fatal("expected match")
	}
	if !sort.IntsAreSorted(result.Positions) {
		t.Errorf("positions not ascending: %v", result.Positions)
	}
	for _, position := range result.Positions {
		if position < 0 || position >= len([]rune(text)) {
			t.Errorf("position %d out of bounds for %q", position, text)
		}
	}
}

func TestMatchSlabReuse(t *testing.T) {
	slab := NewSlab()
	titles := []string{
		"Quick Start",
		"Installing the toolchain",
		"Configuration reference",
	}
	for _, title := range titles {
		Match(title, []rune("in"), slab)
	}
	// The slab is scratch space; reuse must not corrupt results.
	result := Match("Installing the toolchain", []rune("install"), slab)
	if result.Score <= 0 {
		t.Fatal("expected match after slab reuse")
	}
}

func TestMatchExactBeatsScattered(t *testing.T) {
	exact := Match("pooling is great", []rune("pooling"), nil)
	scattered := Match("p-something o-other l-long i-inner n-nope g-gone", []rune("pooling"), nil)
	if exact.Score <= scattered.Score {
		t.Errorf("exact score %d should beat scattered score %d", exact.Score, scattered.Score)
	}
}
