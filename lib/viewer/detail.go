// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package viewer

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/colophon-press/colophon/lib/termdoc"
)

// detailHeaderLines is the fixed number of lines consumed by the
// detail pane header. This is constant so the scrollable body never
// shifts vertically when switching pages.
//
// Layout:
//
//	Line 1: page title
//	Line 2: source path, format, orphan marker
//	Line 3: separator
const detailHeaderLines = 3

// DetailPane is the right pane: a fixed header over a scrollable
// viewport holding the ANSI rendering of the selected page.
type DetailPane struct {
	viewport viewport.Model
	theme    termdoc.Theme
	width    int
	height   int

	// Retained for re-rendering on resize. library and page are set
	// by SetPage and cleared by Clear. When hasPage is true, SetSize
	// re-renders the content at the new width so word wrap adapts to
	// splitter and terminal changes.
	hasPage bool
	library *Library
	page    *Page

	// Pre-rendered header string, set by SetPage and rerender.
	header string
}

// NewDetailPane creates an empty detail pane.
func NewDetailPane(theme termdoc.Theme) DetailPane {
	return DetailPane{
		theme: theme,
	}
}

// bodyHeight returns the number of lines available for the scrollable
// viewport body.
func (pane DetailPane) bodyHeight() int {
	result := pane.height - detailHeaderLines
	if result < 1 {
		result = 1
	}
	return result
}

// contentWidth returns the usable width for text content (total width
// minus the left padding column and right scrollbar column).
func (pane DetailPane) contentWidth() int {
	return pane.width - 2
}

// SetSize updates the detail pane dimensions. If the width changed and
// there is content displayed, the content is re-rendered at the new
// width so word wrap stays correct.
func (pane *DetailPane) SetSize(width, height int) {
	previousWidth := pane.width
	pane.width = width
	pane.height = height
	pane.viewport.Width = pane.contentWidth()
	pane.viewport.Height = pane.bodyHeight()

	if pane.hasPage && width != previousWidth {
		pane.rerender()
	}
}

// SetPage renders a page into the pane. Setting the page that is
// already displayed is a no-op, preserving the scroll position across
// list refreshes that keep the selection.
func (pane *DetailPane) SetPage(library *Library, page *Page) {
	if pane.hasPage && pane.page == page {
		return
	}

	pane.hasPage = true
	pane.library = library
	pane.page = page
	pane.header = pane.renderHeader()
	pane.viewport.SetContent(library.Render(page, pane.theme, pane.contentWidth()))
	pane.viewport.GotoTop()
}

// Clear removes the detail pane content.
func (pane *DetailPane) Clear() {
	pane.hasPage = false
	pane.library = nil
	pane.page = nil
	pane.header = ""
	pane.viewport.SetContent("")
}

// rerender regenerates the content at the current width, preserving
// the scroll position as closely as possible.
func (pane *DetailPane) rerender() {
	previousOffset := pane.viewport.YOffset

	pane.header = pane.renderHeader()
	pane.viewport.SetContent(pane.library.Render(pane.page, pane.theme, pane.contentWidth()))

	// Restore scroll position, clamped to the new content height.
	maxOffset := pane.viewport.TotalLineCount() - pane.viewport.Height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if previousOffset > maxOffset {
		previousOffset = maxOffset
	}
	pane.viewport.SetYOffset(previousOffset)
}

// renderHeader produces the fixed header: the page title, a context
// line with the source path, and a separator. Always exactly
// [detailHeaderLines] lines.
func (pane *DetailPane) renderHeader() string {
	contentWidth := pane.contentWidth()
	if contentWidth < 1 {
		contentWidth = 1
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(pane.theme.Heading)
	title := ansi.Truncate(pane.page.Title, contentWidth, "…")

	context := pane.page.Source
	if pane.page.Orphan {
		context += "  ∅ not in nav"
	}
	contextStyle := lipgloss.NewStyle().
		Foreground(pane.theme.FaintText)
	context = ansi.Truncate(context, contentWidth, "…")

	separator := lipgloss.NewStyle().
		Foreground(pane.theme.Border).
		Render(strings.Repeat("─", contentWidth))

	return titleStyle.Render(title) + "\n" +
		contextStyle.Render(context) + "\n" +
		separator
}

// View renders the detail pane as a docked panel with a fixed header,
// scrollable body, left padding, and a right scrollbar.
func (pane DetailPane) View(focused bool) string {
	contentWidth := pane.contentWidth()

	if !pane.hasPage {
		emptyStyle := lipgloss.NewStyle().
			Foreground(pane.theme.FaintText)

		contentStyle := lipgloss.NewStyle().
			PaddingLeft(1).
			Width(pane.width - 1).
			Height(pane.height)

		content := contentStyle.Render(
			lipgloss.Place(
				contentWidth, pane.height,
				lipgloss.Center, lipgloss.Center,
				emptyStyle.Render("Select a page to read"),
			),
		)

		scrollbar := renderScrollbar(
			pane.theme, pane.height,
			0, pane.height, 0,
			focused,
		)
		return lipgloss.JoinHorizontal(lipgloss.Top, content, scrollbar)
	}

	// Build the content column as exactly pane.height lines: fixed
	// header (detailHeaderLines) + scrollable body (remainder).
	paddingStyle := lipgloss.NewStyle().
		PaddingLeft(1).
		Width(pane.width - 1)

	headerView := paddingStyle.Height(detailHeaderLines).Render(pane.header)
	bodyView := paddingStyle.Height(pane.bodyHeight()).Render(pane.viewport.View())
	content := headerView + "\n" + bodyView

	// Scrollbar: blank column for the header rows, actual scrollbar
	// for the body rows, so it only covers the region it scrolls.
	headerColumn := lipgloss.NewStyle().
		Width(1).
		Height(detailHeaderLines).
		Render("")
	bodyScrollbar := renderScrollbar(
		pane.theme, pane.bodyHeight(),
		pane.viewport.TotalLineCount(), pane.viewport.Height, pane.viewport.YOffset,
		focused,
	)
	scrollColumn := headerColumn + "\n" + bodyScrollbar

	return lipgloss.JoinHorizontal(lipgloss.Top, content, scrollColumn)
}

// ScrollUp scrolls the detail pane up by half a page.
func (pane *DetailPane) ScrollUp() {
	pane.viewport.HalfViewUp()
}

// ScrollDown scrolls the detail pane down by half a page.
func (pane *DetailPane) ScrollDown() {
	pane.viewport.HalfViewDown()
}
