// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package viewer

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/colophon-press/colophon/lib/search"
	"github.com/colophon-press/colophon/lib/termdoc"
)

// searchResultLimit caps how many ranked hits a search shows. Hits
// past the first screenful of relevance are noise.
const searchResultLimit = 50

// SearchModel holds the relevance search prompt and its current result
// set. Search reranks the whole list by BM25 relevance as the user
// types, where the filter only narrows it by name.
type SearchModel struct {
	// Input is the current query text.
	Input string

	// Active is true when the search input has keyboard focus
	// (the user pressed s to start typing).
	Active bool

	// Results is the ranked hit list for Input. Nil when the input is
	// empty or nothing matched.
	Results []search.Result
}

// Showing reports whether search results currently replace the normal
// page order.
func (s *SearchModel) Showing() bool {
	return s.Input != ""
}

// HandleRune processes a character typed while the search is active.
// Returns true if the input changed.
func (s *SearchModel) HandleRune(character rune) bool {
	s.Input += string(character)
	return true
}

// HandleBackspace removes the last character from the query.
// Returns true if the input changed.
func (s *SearchModel) HandleBackspace() bool {
	if len(s.Input) == 0 {
		return false
	}
	runes := []rune(s.Input)
	s.Input = string(runes[:len(runes)-1])
	return true
}

// Clear resets the query, the results, and the focus flag.
func (s *SearchModel) Clear() {
	s.Input = ""
	s.Active = false
	s.Results = nil
}

// View renders the search bar. When active, shows the query with a
// cursor and the hit count. When inactive with a query, shows a subtle
// indicator. When idle, returns empty string (hidden).
func (s *SearchModel) View(theme termdoc.Theme, width int) string {
	if !s.Active && s.Input == "" {
		return ""
	}

	count := fmt.Sprintf("  %d hits", len(s.Results))
	if len(s.Results) == 1 {
		count = "  1 hit"
	}

	style := lipgloss.NewStyle().
		Foreground(theme.NormalText).
		Width(width)

	if s.Active {
		cursor := lipgloss.NewStyle().
			Foreground(theme.Heading).
			Bold(true).
			Render("▎")
		hint := lipgloss.NewStyle().
			Foreground(theme.FaintText).
			Render(count)
		return style.Render(" s " + s.Input + cursor + hint)
	}

	dimStyle := lipgloss.NewStyle().
		Foreground(theme.FaintText).
		Width(width)
	return dimStyle.Render(" search: " + s.Input + count)
}
