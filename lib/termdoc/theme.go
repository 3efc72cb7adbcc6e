// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package termdoc

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/colophon-press/colophon/lib/adoc"
)

// Theme defines the color palette for terminal page rendering and the
// viewer chrome around it. All colors use lipgloss ANSI 256-color
// codes for broad terminal compatibility.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Headings: document title and top-level sections use Heading,
	// deeper sections fall back to NormalText.
	Heading lipgloss.Color

	// Selected row in the viewer's page list.
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Admonition label colors.
	Note      lipgloss.Color
	Tip       lipgloss.Color
	Important lipgloss.Color
	Warning   lipgloss.Color
	Caution   lipgloss.Color

	// Inline code and verbatim blocks without a language.
	Code lipgloss.Color

	// Links, cross references, and callout markers.
	Link lipgloss.Color

	// UI chrome.
	Border   lipgloss.Color
	HelpText lipgloss.Color

	// Filter and search match highlighting in the viewer.
	MatchForeground lipgloss.Color
}

// AdmonitionColor returns the label color for an admonition kind.
func (theme Theme) AdmonitionColor(kind adoc.AdmonitionKind) lipgloss.Color {
	switch kind {
	case adoc.AdmonitionTip:
		return theme.Tip
	case adoc.AdmonitionImportant:
		return theme.Important
	case adoc.AdmonitionWarning:
		return theme.Warning
	case adoc.AdmonitionCaution:
		return theme.Caution
	default:
		return theme.Note
	}
}

// DefaultTheme is the built-in dark-terminal color scheme. Designed
// for 256-color terminals with a dark background (the common case for
// development environments and tmux sessions).
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	Heading: lipgloss.Color("255"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	Note:      lipgloss.Color("75"),  // blue
	Tip:       lipgloss.Color("114"), // green
	Important: lipgloss.Color("141"), // light purple
	Warning:   lipgloss.Color("208"), // orange
	Caution:   lipgloss.Color("196"), // red

	Code: lipgloss.Color("222"), // pale amber

	Link: lipgloss.Color("75"), // blue

	Border:   lipgloss.Color("240"),
	HelpText: lipgloss.Color("241"),

	MatchForeground: lipgloss.Color("220"), // amber
}
