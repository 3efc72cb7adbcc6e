// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package viewer

import (
	"sort"
	"testing"
)

func filterPages() []*Page {
	return []*Page{
		{Source: "index.adoc", Title: "Widget Manual"},
		{Source: "guides/install.adoc", Title: "Installation"},
		{Source: "guides/notes.md", Title: "Release Notes"},
		{Source: "reference/api.adoc", Title: "API Reference"},
	}
}

func TestFilterApplyEmptyMatchesAll(t *testing.T) {
	pages := filterPages()
	filter := FilterModel{Input: ""}

	matches := filter.Apply(pages)
	if len(matches) != len(pages) {
		t.Fatalf("empty filter returned %d matches, want %d", len(matches), len(pages))
	}
	// Original order, no highlight positions.
	for index, match := range matches {
		if match.Page != pages[index] {
			t.Errorf("matches[%d] = %q, want %q", index, match.Page.Source, pages[index].Source)
		}
		if len(match.TitlePositions) != 0 {
			t.Errorf("empty filter produced positions for %q", match.Page.Source)
		}
	}
}

func TestFilterApplyNarrows(t *testing.T) {
	filter := FilterModel{Input: "install"}

	matches := filter.Apply(filterPages())
	if len(matches) != 1 {
		t.Fatalf("filter 'install' matched %d pages, want 1", len(matches))
	}
	if matches[0].Page.Source != "guides/install.adoc" {
		t.Errorf("matched %q, want guides/install.adoc", matches[0].Page.Source)
	}
}

func TestFilterApplyCaseInsensitive(t *testing.T) {
	filter := FilterModel{Input: "INSTALL"}

	matches := filter.Apply(filterPages())
	if len(matches) != 1 || matches[0].Page.Source != "guides/install.adoc" {
		t.Error("filter should be case-insensitive")
	}
}

func TestFilterApplyNoMatch(t *testing.T) {
	filter := FilterModel{Input: "zzz-nonexistent"}

	if matches := filter.Apply(filterPages()); len(matches) != 0 {
		t.Errorf("filter matched %d pages, want 0", len(matches))
	}
}

func TestFilterApplyTitlePositions(t *testing.T) {
	filter := FilterModel{Input: "ins"}

	matches := filter.Apply(filterPages())
	if len(matches) == 0 {
		t.Fatal("filter 'ins' matched nothing")
	}

	var install *FilterMatch
	for index := range matches {
		if matches[index].Page.Source == "guides/install.adoc" {
			install = &matches[index]
		}
	}
	if install == nil {
		t.Fatal("install page not in matches")
	}
	if len(install.TitlePositions) != 3 {
		t.Fatalf("TitlePositions = %v, want 3 positions", install.TitlePositions)
	}
	if !sort.IntsAreSorted(install.TitlePositions) {
		t.Errorf("TitlePositions not ascending: %v", install.TitlePositions)
	}
	// "Installation" starts with the pattern.
	if install.TitlePositions[0] != 0 {
		t.Errorf("first position = %d, want 0", install.TitlePositions[0])
	}
}

func TestFilterApplySourceOnlyMatch(t *testing.T) {
	// "md" appears in guides/notes.md but in no page title.
	filter := FilterModel{Input: "md"}

	matches := filter.Apply(filterPages())
	if len(matches) != 1 {
		t.Fatalf("filter 'md' matched %d pages, want 1", len(matches))
	}
	if matches[0].Page.Source != "guides/notes.md" {
		t.Errorf("matched %q, want guides/notes.md", matches[0].Page.Source)
	}
	// The match was against the source path, so there is nothing to
	// highlight in the title.
	if len(matches[0].TitlePositions) != 0 {
		t.Errorf("source-path match produced title positions: %v", matches[0].TitlePositions)
	}
}

func TestFilterApplyRanking(t *testing.T) {
	pages := []*Page{
		{Source: "tracker.adoc", Title: "Noise Tracker"},
		{Source: "notes.adoc", Title: "Notes"},
	}
	filter := FilterModel{Input: "not"}

	matches := filter.Apply(pages)
	if len(matches) != 2 {
		t.Fatalf("filter 'not' matched %d pages, want 2", len(matches))
	}
	// The consecutive prefix match outranks the scattered one.
	if matches[0].Page.Title != "Notes" {
		t.Errorf("top match = %q, want Notes", matches[0].Page.Title)
	}
}

func TestFilterHandleRune(t *testing.T) {
	filter := FilterModel{}
	filter.HandleRune('a')
	filter.HandleRune('b')
	if filter.Input != "ab" {
		t.Errorf("expected 'ab', got %q", filter.Input)
	}
}

func TestFilterHandleBackspace(t *testing.T) {
	filter := FilterModel{Input: "abc"}
	changed := filter.HandleBackspace()
	if !changed {
		t.Error("backspace should return true when there's text")
	}
	if filter.Input != "ab" {
		t.Errorf("expected 'ab' after backspace, got %q", filter.Input)
	}

	// Backspace trims whole runes, not bytes.
	filter.Input = "café"
	filter.HandleBackspace()
	if filter.Input != "caf" {
		t.Errorf("expected 'caf' after backspace, got %q", filter.Input)
	}

	// Backspace on empty.
	filter.Input = ""
	changed = filter.HandleBackspace()
	if changed {
		t.Error("backspace on empty should return false")
	}
}

func TestFilterClear(t *testing.T) {
	filter := FilterModel{Input: "test", Active: true}
	filter.Clear()
	if filter.Input != "" {
		t.Errorf("expected empty input after clear, got %q", filter.Input)
	}
	if filter.Active {
		t.Error("filter should be inactive after clear")
	}
}
