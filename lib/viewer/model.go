// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package viewer

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/colophon-press/colophon/lib/termdoc"
)

// FocusRegion identifies which pane has keyboard focus.
type FocusRegion int

const (
	// FocusList means navigation keys move the page list cursor.
	FocusList FocusRegion = iota
	// FocusDetail means navigation keys scroll the detail viewport.
	FocusDetail
	// FocusFilter means keystrokes go to the fuzzy filter input.
	FocusFilter
	// FocusSearch means keystrokes go to the relevance search input.
	FocusSearch
)

// splitRatio is the fraction of the terminal width given to the page
// list. Reading is the primary activity, so the detail pane gets the
// larger share.
const splitRatio = 0.35

// ListItem is a single row in the page list.
type ListItem struct {
	Page *Page

	// Score is the BM25 relevance when search results are showing,
	// zero otherwise.
	Score float64
}

// Model is the top-level bubbletea model for the page viewer TUI.
type Model struct {
	library *Library
	theme   termdoc.Theme
	keys    KeyMap

	// Terminal dimensions (set by WindowSizeMsg).
	width  int
	height int
	ready  bool

	// Input modes. Filter narrows the list by name; search reranks it
	// by content relevance. The two are exclusive.
	filter FilterModel
	search SearchModel

	// List state. items is the displayed list, already narrowed or
	// ranked; cursor and scrollOffset address it.
	items          []ListItem
	cursor         int
	scrollOffset   int
	selectedSource string // Stable focus: track selection by source path.

	// Two-pane layout.
	focusRegion FocusRegion
	priorFocus  FocusRegion // Saved focus when entering filter/search mode.
	detailPane  DetailPane

	// Filter match highlighting: page source path to matched rune
	// positions in the title. Nil when no filter is active.
	filterHighlights map[string][]int
}

// NewModel creates a Model over the given library. startPage, when
// non-nil, selects that page and focuses the detail pane so
// `colophon view <page>` opens straight into reading.
func NewModel(library *Library, startPage *Page) Model {
	model := Model{
		library:    library,
		theme:      termdoc.DefaultTheme,
		keys:       DefaultKeyMap,
		detailPane: NewDetailPane(termdoc.DefaultTheme),
	}

	model.rebuildItems()

	if len(model.items) > 0 {
		model.cursor = 0
		model.selectedSource = model.items[0].Page.Source
	}

	if startPage != nil {
		model.focusRegion = FocusDetail
		for index, item := range model.items {
			if item.Page == startPage {
				model.cursor = index
				model.selectedSource = item.Page.Source
				break
			}
		}
	}

	return model
}

// Run starts the interactive viewer and blocks until the user quits.
func Run(ctx context.Context, library *Library, startPage *Page) error {
	program := tea.NewProgram(
		NewModel(library, startPage),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := program.Run()
	return err
}

// Init implements tea.Model. The library is loaded up front, so there
// is nothing to start.
func (model Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model. Routes keyboard events based on the
// current focus region and handles layout changes.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		// When an input mode is active, route all input to it first.
		if model.focusRegion == FocusFilter {
			return model.handleFilterKeys(message)
		}
		if model.focusRegion == FocusSearch {
			return model.handleSearchKeys(message)
		}

		switch {
		case key.Matches(message, model.keys.Quit):
			return model, tea.Quit

		case key.Matches(message, model.keys.FocusToggle):
			if model.focusRegion == FocusList {
				model.focusRegion = FocusDetail
			} else {
				model.focusRegion = FocusList
			}

		case key.Matches(message, model.keys.FilterActivate):
			model.priorFocus = model.focusRegion
			model.focusRegion = FocusFilter
			model.filter.Active = true
			model.search.Clear()
			model.rebuildItems()
			// Reset list position to the top so the user sees
			// results from the beginning as they type.
			model.cursor = 0
			model.scrollOffset = 0

		case key.Matches(message, model.keys.SearchActivate):
			model.priorFocus = model.focusRegion
			model.focusRegion = FocusSearch
			model.search.Active = true
			model.filter.Clear()
			model.rebuildItems()
			model.cursor = 0
			model.scrollOffset = 0

		case key.Matches(message, model.keys.FilterClear):
			if model.filter.Input != "" {
				model.filter.Clear()
				model.rebuildItems()
				model.restoreSelection()
				model.ensureCursorVisible()
				model.syncDetailPane()
			} else if model.search.Showing() {
				model.search.Clear()
				model.rebuildItems()
				model.restoreSelection()
				model.ensureCursorVisible()
				model.syncDetailPane()
			}

		default:
			if model.focusRegion == FocusList {
				model.handleListKeys(message)
			} else {
				model.handleDetailKeys(message)
			}
		}

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.ready = true
		model.updatePaneSizes()
		model.syncDetailPane()
	}
	return model, nil
}

// handleFilterKeys processes keystrokes while the filter input has
// focus. All input goes to the filter, except ctrl+c (quit), Esc
// (clear text, then exit the mode), and Enter (confirm and return
// focus to the list).
func (model Model) handleFilterKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		// ctrl+c always quits, even in filter mode.
		if message.Type == tea.KeyCtrlC {
			return model, tea.Quit
		}
		// 'q' is a regular character in filter mode.
		model.filter.HandleRune('q')
		model.applyFilter()
		return model, nil

	case key.Matches(message, model.keys.FilterClear):
		if model.filter.Input != "" {
			model.filter.Input = ""
			model.applyFilter()
		} else {
			model.filter.Active = false
			model.focusRegion = model.priorFocus
		}
		return model, nil

	case message.Type == tea.KeyEnter:
		model.filter.Active = false
		model.focusRegion = FocusList
		return model, nil

	case message.Type == tea.KeyBackspace:
		if model.filter.HandleBackspace() {
			model.applyFilter()
		}
		return model, nil

	case message.Type == tea.KeyRunes || message.Type == tea.KeySpace:
		for _, character := range message.Runes {
			model.filter.HandleRune(character)
		}
		model.applyFilter()
		return model, nil
	}

	return model, nil
}

// handleSearchKeys processes keystrokes while the search input has
// focus. Same grammar as the filter: characters refine the query live,
// Esc clears then exits, Enter confirms with the results showing.
func (model Model) handleSearchKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		if message.Type == tea.KeyCtrlC {
			return model, tea.Quit
		}
		// 'q' is a regular character in search mode.
		model.search.HandleRune('q')
		model.runSearch()
		return model, nil

	case key.Matches(message, model.keys.FilterClear):
		if model.search.Input != "" {
			model.search.Input = ""
			model.runSearch()
		} else {
			model.search.Active = false
			model.focusRegion = model.priorFocus
		}
		return model, nil

	case message.Type == tea.KeyEnter:
		model.search.Active = false
		model.focusRegion = FocusList
		return model, nil

	case message.Type == tea.KeyBackspace:
		if model.search.HandleBackspace() {
			model.runSearch()
		}
		return model, nil

	case message.Type == tea.KeyRunes || message.Type == tea.KeySpace:
		for _, character := range message.Runes {
			model.search.HandleRune(character)
		}
		model.runSearch()
		return model, nil
	}

	return model, nil
}

// applyFilter re-derives the item list from the filter input. While
// the user is typing, the cursor snaps to the top so the best-scored
// matches are visible; restoring the previous selection would show an
// arbitrary slice of the results.
func (model *Model) applyFilter() {
	model.rebuildItems()

	if model.filter.Input != "" {
		model.cursor = 0
		model.scrollOffset = 0
		if len(model.items) > 0 {
			model.selectedSource = model.items[0].Page.Source
		}
	} else {
		model.restoreSelection()
	}
	model.ensureCursorVisible()
	model.syncDetailPane()
}

// runSearch reranks the list by relevance to the current query. Like
// the filter, the cursor snaps to the top hit as the user types.
func (model *Model) runSearch() {
	if model.search.Input == "" {
		model.search.Results = nil
	} else {
		model.search.Results = model.library.Search(model.search.Input, searchResultLimit)
	}
	model.rebuildItems()

	model.cursor = 0
	model.scrollOffset = 0
	if len(model.items) > 0 {
		model.selectedSource = model.items[0].Page.Source
	}
	model.ensureCursorVisible()
	model.syncDetailPane()
}

// rebuildItems derives the displayed rows: ranked hits when a search
// query is live, the fuzzy-narrowed list when a filter is typed,
// otherwise every page in display order.
func (model *Model) rebuildItems() {
	switch {
	case model.search.Showing():
		model.items = make([]ListItem, 0, len(model.search.Results))
		model.filterHighlights = nil
		for _, result := range model.search.Results {
			if page := model.library.PageBySlug(result.Slug); page != nil {
				model.items = append(model.items, ListItem{Page: page, Score: result.Score})
			}
		}

	case model.filter.Input != "":
		matches := model.filter.Apply(model.library.Pages())
		model.items = make([]ListItem, len(matches))
		model.filterHighlights = make(map[string][]int, len(matches))
		for index, match := range matches {
			model.items[index] = ListItem{Page: match.Page}
			if len(match.TitlePositions) > 0 {
				model.filterHighlights[match.Page.Source] = match.TitlePositions
			}
		}

	default:
		pages := model.library.Pages()
		model.items = make([]ListItem, len(pages))
		for index, page := range pages {
			model.items[index] = ListItem{Page: page}
		}
		model.filterHighlights = nil
	}
}

// restoreSelection attempts to find the previously selected page in
// the rebuilt items list and move the cursor there. If not found,
// clamps the cursor to a valid position.
func (model *Model) restoreSelection() {
	if model.selectedSource == "" {
		model.cursor = 0
		return
	}

	for index, item := range model.items {
		if item.Page.Source == model.selectedSource {
			model.cursor = index
			return
		}
	}

	model.cursor = model.clampedIndex(model.cursor)
}

// clampedIndex returns position clamped to valid item bounds.
func (model *Model) clampedIndex(position int) int {
	if len(model.items) == 0 {
		return 0
	}
	if position < 0 {
		return 0
	}
	if position >= len(model.items) {
		return len(model.items) - 1
	}
	return position
}

// handleListKeys processes navigation keys when the list has focus.
func (model *Model) handleListKeys(message tea.KeyMsg) {
	prevCursor := model.cursor

	switch {
	case key.Matches(message, model.keys.Up):
		if model.cursor > 0 {
			model.cursor--
		}

	case key.Matches(message, model.keys.Down):
		if model.cursor < len(model.items)-1 {
			model.cursor++
		}

	case key.Matches(message, model.keys.PageUp):
		model.cursor = model.clampedIndex(model.cursor - model.visibleHeight())

	case key.Matches(message, model.keys.PageDown):
		model.cursor = model.clampedIndex(model.cursor + model.visibleHeight())

	case key.Matches(message, model.keys.Home):
		model.cursor = 0

	case key.Matches(message, model.keys.End):
		if len(model.items) > 0 {
			model.cursor = len(model.items) - 1
		}

	case key.Matches(message, model.keys.Open):
		model.focusRegion = FocusDetail
	}

	model.ensureCursorVisible()

	if model.cursor != prevCursor {
		model.syncDetailPane()
	}
}

// handleDetailKeys processes navigation keys when the detail pane has
// focus.
func (model *Model) handleDetailKeys(message tea.KeyMsg) {
	switch {
	case key.Matches(message, model.keys.Up):
		model.detailPane.viewport.LineUp(1)
	case key.Matches(message, model.keys.Down):
		model.detailPane.viewport.LineDown(1)
	case key.Matches(message, model.keys.PageUp):
		model.detailPane.ScrollUp()
	case key.Matches(message, model.keys.PageDown):
		model.detailPane.ScrollDown()
	case key.Matches(message, model.keys.Home):
		model.detailPane.viewport.GotoTop()
	case key.Matches(message, model.keys.End):
		model.detailPane.viewport.GotoBottom()
	}
}

// syncDetailPane renders the page under the cursor into the detail
// pane.
func (model *Model) syncDetailPane() {
	if model.cursor < 0 || model.cursor >= len(model.items) {
		model.detailPane.Clear()
		return
	}

	page := model.items[model.cursor].Page
	model.selectedSource = page.Source
	model.detailPane.SetPage(model.library, page)
}

// ensureCursorVisible adjusts scrollOffset so the cursor is within
// the visible window.
func (model *Model) ensureCursorVisible() {
	visible := model.visibleHeight()
	if visible <= 0 {
		return
	}

	// Clamp scrollOffset so we never scroll past the end of the list.
	// This handles mode exits where the restored list is shorter than
	// the old scrollOffset.
	maxOffset := len(model.items) - visible
	if maxOffset < 0 {
		maxOffset = 0
	}
	if model.scrollOffset > maxOffset {
		model.scrollOffset = maxOffset
	}

	if model.cursor < model.scrollOffset {
		model.scrollOffset = model.cursor
	}
	if model.cursor >= model.scrollOffset+visible {
		model.scrollOffset = model.cursor - visible + 1
	}
}

// visibleHeight returns the number of list rows that fit between the
// chrome elements: the top bar (1), the bottom separator (1), and the
// help bar (1).
func (model Model) visibleHeight() int {
	return model.height - 3
}

// updatePaneSizes recalculates pane dimensions after a resize.
func (model *Model) updatePaneSizes() {
	contentHeight := model.visibleHeight()
	// 1 column for the vertical divider between panes.
	detailWidth := model.width - model.listWidth() - 1
	if detailWidth < 10 {
		detailWidth = 10
	}
	model.detailPane.SetSize(detailWidth, contentHeight)
}

// listWidth returns the width of the list pane in columns.
func (model Model) listWidth() int {
	return int(float64(model.width) * splitRatio)
}

// View implements tea.Model. Renders the full TUI frame with two panes.
func (model Model) View() string {
	if !model.ready {
		return "Loading..."
	}

	if len(model.items) == 0 && model.filter.Input == "" && !model.search.Showing() {
		return model.renderEmpty()
	}

	var sections []string

	// Top chrome line: the title bar, or the filter/search bar while
	// one is live. The input bars replace the title bar so the layout
	// doesn't shift.
	chrome := model.filter.View(model.theme, model.width)
	if chrome == "" {
		chrome = model.search.View(model.theme, model.width)
	}
	if chrome == "" {
		chrome = model.renderHeader()
	}
	sections = append(sections, chrome)

	// Two-pane content area with vertical divider.
	listView := model.renderListPane()
	divider := model.renderDivider()
	detailView := model.detailPane.View(model.focusRegion == FocusDetail)
	contentArea := lipgloss.JoinHorizontal(lipgloss.Top, listView, divider, detailView)
	sections = append(sections, contentArea)

	// Bottom separator.
	separator := lipgloss.NewStyle().
		Foreground(model.theme.Border).
		Render(strings.Repeat("─", model.width))
	sections = append(sections, separator)

	sections = append(sections, model.renderHelp())

	return strings.Join(sections, "\n")
}

// renderEmpty renders the empty state when the site has no pages.
func (model Model) renderEmpty() string {
	messageStyle := lipgloss.NewStyle().
		Foreground(model.theme.FaintText)

	return lipgloss.Place(
		model.width, model.height,
		lipgloss.Center, lipgloss.Center,
		messageStyle.Render("No pages found."),
	)
}

// renderHeader renders the top line in the btop style: the site pages
// count embedded in a horizontal rule.
//
// Example: ─── Pages ────────────────────── 24 pages  3 orphans ─
func (model Model) renderHeader() string {
	separatorStyle := lipgloss.NewStyle().
		Foreground(model.theme.Border)
	labelStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(model.theme.Heading)
	statsStyle := lipgloss.NewStyle().
		Foreground(model.theme.FaintText)

	label := "Pages"
	left := separatorStyle.Render("───") + " " + labelStyle.Render(label) + " "
	leftWidth := 3 + 1 + lipgloss.Width(label) + 1

	orphans := 0
	for _, page := range model.library.Pages() {
		if page.Orphan {
			orphans++
		}
	}
	statsText := fmt.Sprintf("%d pages", len(model.library.Pages()))
	if orphans > 0 {
		statsText += fmt.Sprintf("  %d orphans", orphans)
	}
	rightWidth := 1 + lipgloss.Width(statsText) + 1 + 1

	fillCount := model.width - leftWidth - rightWidth
	if fillCount < 1 {
		fillCount = 1
	}

	return left +
		separatorStyle.Render(strings.Repeat("─", fillCount)) +
		" " + statsStyle.Render(statsText) + " " +
		separatorStyle.Render("─")
}

// renderListPane renders the page list rows with the scrollbar column.
func (model Model) renderListPane() string {
	listWidth := model.listWidth()

	// Reserve 1 column for the scrollbar so content stays at a fixed
	// position regardless of scroll state.
	rowWidth := listWidth - 1

	visible := model.visibleHeight()
	if visible < 0 {
		visible = 0
	}

	var rows []string
	for index := model.scrollOffset; index < model.scrollOffset+visible && index < len(model.items); index++ {
		rows = append(rows, model.renderRow(model.items[index], index == model.cursor, rowWidth))
	}

	// Pad empty rows.
	rendered := len(rows)
	if rendered < visible {
		emptyStyle := lipgloss.NewStyle().Width(rowWidth)
		for padding := rendered; padding < visible; padding++ {
			rows = append(rows, emptyStyle.Render(""))
		}
	}

	scrollbar := renderScrollbar(
		model.theme, visible,
		len(model.items), visible, model.scrollOffset,
		model.focusRegion == FocusList,
	)

	contentStyle := lipgloss.NewStyle().
		Width(rowWidth).
		Height(visible)

	return lipgloss.JoinHorizontal(lipgloss.Top,
		contentStyle.Render(strings.Join(rows, "\n")),
		scrollbar,
	)
}

// renderRow renders one list row: the page title with any filter
// match positions highlighted, truncated and padded to rowWidth.
// Search rows carry their relevance score in a leading column; orphan
// pages render faint so the nav structure stays legible in the flat
// list.
func (model Model) renderRow(item ListItem, selected bool, rowWidth int) string {
	titleColor := model.theme.NormalText
	if item.Page.Orphan {
		titleColor = model.theme.FaintText
	}
	base := lipgloss.NewStyle().Foreground(titleColor)
	match := lipgloss.NewStyle().
		Foreground(model.theme.MatchForeground).
		Bold(true)
	if selected {
		base = base.
			Foreground(model.theme.SelectedForeground).
			Background(model.theme.SelectedBackground)
		match = match.Background(model.theme.SelectedBackground)
	}

	prefix := " "
	if model.search.Showing() {
		prefix = fmt.Sprintf(" %4.1f  ", item.Score)
	}

	available := rowWidth - len(prefix)
	if available < 1 {
		available = 1
	}
	title := ansi.Truncate(item.Page.Title, available, "…")

	var row strings.Builder
	row.WriteString(base.Render(prefix))

	positions := model.filterHighlights[item.Page.Source]
	if len(positions) == 0 {
		row.WriteString(base.Render(title))
	} else {
		marked := make(map[int]bool, len(positions))
		for _, position := range positions {
			marked[position] = true
		}
		// Render contiguous runs of matched/unmatched runes so the
		// row doesn't dissolve into per-character escape sequences.
		runes := []rune(title)
		for start := 0; start < len(runes); {
			end := start
			for end < len(runes) && marked[end] == marked[start] {
				end++
			}
			segment := string(runes[start:end])
			if marked[start] {
				row.WriteString(match.Render(segment))
			} else {
				row.WriteString(base.Render(segment))
			}
			start = end
		}
	}

	// Pad to the full row width so the selection background spans it.
	padding := rowWidth - lipgloss.Width(row.String())
	if padding > 0 {
		row.WriteString(base.Render(strings.Repeat(" ", padding)))
	}
	return row.String()
}

// renderDivider renders the single-column vertical divider between the
// list and detail panes.
func (model Model) renderDivider() string {
	visible := model.visibleHeight()
	if visible < 0 {
		visible = 0
	}

	dividerStyle := lipgloss.NewStyle().
		Foreground(model.theme.Border)

	lines := make([]string, visible)
	for index := range lines {
		lines[index] = "│"
	}

	return dividerStyle.Width(1).Height(visible).Render(strings.Join(lines, "\n"))
}

// renderHelp renders the bottom help bar with key hints and position.
func (model Model) renderHelp() string {
	style := lipgloss.NewStyle().Foreground(model.theme.HelpText)

	focusIndicator := "LIST"
	switch model.focusRegion {
	case FocusDetail:
		focusIndicator = "PAGE"
	case FocusFilter:
		focusIndicator = "FILTER"
	case FocusSearch:
		focusIndicator = "SEARCH"
	}

	help := fmt.Sprintf(" [%s] q quit  ↑↓ navigate  Tab focus  Enter read  / filter  s search",
		focusIndicator)

	if len(model.items) > 0 {
		help += fmt.Sprintf("  %d/%d", model.cursor+1, len(model.items))
	}

	if problems := model.library.Problems(); problems > 0 {
		warnStyle := lipgloss.NewStyle().
			Foreground(model.theme.Warning).
			Bold(true)
		help += "  " + warnStyle.Render(fmt.Sprintf("%d problems (run colophon check)", problems))
	}

	return style.Render(help)
}
