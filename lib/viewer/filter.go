// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package viewer

import (
	"sort"

	"github.com/charmbracelet/lipgloss"

	"github.com/colophon-press/colophon/lib/fuzzy"
	"github.com/colophon-press/colophon/lib/termdoc"
)

// FilterModel implements fzf-style fuzzy matching over page titles and
// source paths. The filter narrows the list client-side as the user
// types; match positions in the title feed the list highlighting.
type FilterModel struct {
	// Input is the current filter query text.
	Input string

	// Active is true when the filter input has keyboard focus
	// (the user pressed / to start typing).
	Active bool

	// slab is the reusable match scratch space, allocated on first use.
	slab *fuzzy.Slab
}

// FilterMatch is one page that survived the filter, with the evidence
// needed to highlight why it matched.
type FilterMatch struct {
	Page *Page

	// TitlePositions are the matched rune positions in the page title,
	// ascending. Empty when the match was against the source path.
	TitlePositions []int
}

// Apply returns the pages matching the current filter, best score
// first. An empty filter returns every page in its original order with
// no positions. Each page is scored against its title and its source
// path; the better of the two decides the rank.
func (filter *FilterModel) Apply(pages []*Page) []FilterMatch {
	if filter.Input == "" {
		matches := make([]FilterMatch, len(pages))
		for index, page := range pages {
			matches[index] = FilterMatch{Page: page}
		}
		return matches
	}

	if filter.slab == nil {
		filter.slab = fuzzy.NewSlab()
	}
	pattern := []rune(filter.Input)

	type scored struct {
		match FilterMatch
		score int
	}
	var results []scored
	for _, page := range pages {
		titleResult := fuzzy.Match(page.Title, pattern, filter.slab)
		sourceResult := fuzzy.Match(page.Source, pattern, filter.slab)

		best := titleResult.Score
		if sourceResult.Score > best {
			best = sourceResult.Score
		}
		if best <= 0 {
			continue
		}
		results = append(results, scored{
			match: FilterMatch{Page: page, TitlePositions: titleResult.Positions},
			score: best,
		})
	}

	// Stable: equal scores keep display order.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	matches := make([]FilterMatch, len(results))
	for index, result := range results {
		matches[index] = result.match
	}
	return matches
}

// HandleRune processes a character typed while the filter is active.
// Returns true if the input changed.
func (filter *FilterModel) HandleRune(character rune) bool {
	filter.Input += string(character)
	return true
}

// HandleBackspace removes the last character from the filter input.
// Returns true if the input changed.
func (filter *FilterModel) HandleBackspace() bool {
	if len(filter.Input) == 0 {
		return false
	}
	runes := []rune(filter.Input)
	filter.Input = string(runes[:len(runes)-1])
	return true
}

// Clear resets the filter input and deactivates it.
func (filter *FilterModel) Clear() {
	filter.Input = ""
	filter.Active = false
}

// View renders the filter bar. When active, shows the input with a
// cursor. When inactive with text, shows the filter text. When
// inactive with no text, returns empty string (hidden).
func (filter *FilterModel) View(theme termdoc.Theme, width int) string {
	if !filter.Active && filter.Input == "" {
		return ""
	}

	style := lipgloss.NewStyle().
		Foreground(theme.NormalText).
		Width(width)

	if filter.Active {
		cursor := lipgloss.NewStyle().
			Foreground(theme.Heading).
			Bold(true).
			Render("▎")
		return style.Render(" / " + filter.Input + cursor)
	}

	// Inactive but has text — show the filter as a subtle indicator.
	dimStyle := lipgloss.NewStyle().
		Foreground(theme.FaintText).
		Width(width)
	return dimStyle.Render(" filter: " + filter.Input)
}
