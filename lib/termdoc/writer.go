// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package termdoc

import (
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
)

// wrapBreakpoints are the characters ansi.Wrap may break lines at, in
// addition to spaces.
const wrapBreakpoints = " ,.;-+|"

// writer is the shared output engine for both page formats. Block
// walkers accumulate styled inline fragments, then flush them with
// word-wrap when the containing block closes; the writer tracks the
// prefix stack for nested containers (quotes, lists, admonitions) and
// manages blank lines between blocks.
type writer struct {
	theme Theme
	width int

	// lip carries a forced ANSI256 color profile: this output is
	// always for terminal display, so auto-detection (which produces
	// uncolored output without a TTY) is bypassed.
	lip *lipgloss.Renderer

	// out is the final rendered text.
	out strings.Builder

	// inline collects styled fragments within a paragraph, heading,
	// or other inline-containing block until the block closes.
	inline strings.Builder

	// Prefix stack for nested block containers.
	prefixStack     []prefixLevel
	linePrefix      string // concatenation of all prefix texts
	linePrefixWidth int    // sum of all visible prefix widths

	// pendingBullet replaces linePrefix for the very next emitted
	// line, then clears. Used for list bullets and callout markers.
	pendingBullet string

	// trailingNewlines at the end of out, for blank-line management.
	trailingNewlines int
}

type prefixLevel struct {
	text  string
	width int
}

func newWriter(theme Theme, width int) *writer {
	lip := lipgloss.NewRenderer(os.Stderr, termenv.WithProfile(termenv.ANSI256))
	lip.SetColorProfile(termenv.ANSI256)
	return &writer{
		theme: theme,
		width: width,
		lip:   lip,
	}
}

// style creates a lipgloss style on the forced color profile.
func (w *writer) style() lipgloss.Style {
	return w.lip.NewStyle()
}

// result returns the rendered document without trailing newlines.
func (w *writer) result() string {
	return strings.TrimRight(w.out.String(), "\n")
}

// currentWidth returns the content width available after nesting
// prefixes, clamped to a minimum of 10 to prevent degenerate
// wrapping.
func (w *writer) currentWidth() int {
	width := w.width - w.linePrefixWidth
	if width < 10 {
		width = 10
	}
	return width
}

// pushPrefix adds a container prefix. The text may carry ANSI styling;
// visibleWidth is its unstyled display width.
func (w *writer) pushPrefix(text string, visibleWidth int) {
	w.prefixStack = append(w.prefixStack, prefixLevel{text: text, width: visibleWidth})
	w.linePrefix += text
	w.linePrefixWidth += visibleWidth
}

func (w *writer) popPrefix() {
	if len(w.prefixStack) == 0 {
		return
	}
	top := w.prefixStack[len(w.prefixStack)-1]
	w.prefixStack = w.prefixStack[:len(w.prefixStack)-1]
	w.linePrefix = w.linePrefix[:len(w.linePrefix)-len(top.text)]
	w.linePrefixWidth -= top.width
}

// write appends text to the output, tracking trailing newlines.
func (w *writer) write(s string) {
	if s == "" {
		return
	}
	w.out.WriteString(s)

	newTrailing := 0
	entirelyNewlines := true
	for index := len(s) - 1; index >= 0; index-- {
		if s[index] == '\n' {
			newTrailing++
		} else {
			entirelyNewlines = false
			break
		}
	}
	if entirelyNewlines {
		w.trailingNewlines += newTrailing
	} else {
		w.trailingNewlines = newTrailing
	}
}

func (w *writer) ensureNewline() {
	if w.trailingNewlines < 1 {
		w.write("\n")
	}
}

func (w *writer) ensureBlankLine() {
	for w.trailingNewlines < 2 {
		w.write("\n")
	}
}

// consumeLinePrefix returns the prefix for the current line. A pending
// bullet wins once, then the regular prefix resumes.
func (w *writer) consumeLinePrefix() string {
	if w.pendingBullet != "" {
		bullet := w.pendingBullet
		w.pendingBullet = ""
		return bullet
	}
	return w.linePrefix
}

// applyPrefixes prepends the line prefix to each line: the first line
// takes the pending bullet if one is set.
func (w *writer) applyPrefixes(content string) string {
	lines := strings.Split(content, "\n")
	var result strings.Builder
	for index, line := range lines {
		if index == 0 {
			result.WriteString(w.consumeLinePrefix())
		} else {
			result.WriteString(w.linePrefix)
		}
		result.WriteString(line)
		if index < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// flushInline word-wraps the accumulated inline content to the
// current width, applies line prefixes, and resets the buffer.
func (w *writer) flushInline() string {
	content := w.inline.String()
	w.inline.Reset()
	if content == "" {
		return ""
	}
	return w.applyPrefixes(ansi.Wrap(content, w.currentWidth(), wrapBreakpoints))
}

// paragraphBreak closes a flushed paragraph-like block.
func (w *writer) paragraphBreak(flushed string) {
	if flushed == "" {
		return
	}
	w.write(flushed)
	w.ensureNewline()
	w.ensureBlankLine()
}

// heading emits a heading line with blank lines around it. Levels one
// and two take the theme's heading color, deeper levels stay normal.
func (w *writer) heading(text string, level int) {
	if text == "" {
		return
	}
	style := w.style().Bold(true)
	if level <= 2 {
		style = style.Foreground(w.theme.Heading)
	} else {
		style = style.Foreground(w.theme.NormalText)
	}
	wrapped := ansi.Wrap(style.Render(text), w.currentWidth(), wrapBreakpoints)
	w.ensureBlankLine()
	w.write(w.applyPrefixes(wrapped))
	w.ensureNewline()
	w.ensureBlankLine()
}

// codeLines emits preformatted lines without wrapping, each under the
// current prefix.
func (w *writer) codeLines(text string) {
	w.ensureBlankLine()
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		w.write(w.consumeLinePrefix() + line)
		w.ensureNewline()
	}
	w.ensureBlankLine()
}

// highlightCode syntax-highlights code for the terminal. Unknown
// languages and highlighter failures fall back to code-colored plain
// text.
func (w *writer) highlightCode(code, language string) string {
	if language == "" {
		return w.style().Foreground(w.theme.Code).Render(code)
	}
	var buffer strings.Builder
	if err := quick.Highlight(&buffer, code, language, "terminal256", "monokai"); err != nil {
		return w.style().Foreground(w.theme.Code).Render(code)
	}
	return buffer.String()
}

// rule emits a horizontal rule across the current width.
func (w *writer) rule() {
	line := strings.Repeat("─", w.currentWidth())
	w.ensureBlankLine()
	w.write(w.applyPrefixes(w.style().Foreground(w.theme.Border).Render(line)))
	w.ensureNewline()
	w.ensureBlankLine()
}

// gridAlign selects a column alignment in grid.
type gridAlign int

const (
	alignLeft gridAlign = iota
	alignRight
	alignCenter
)

// grid renders a table: header (optional), separator, body rows.
// Column widths derive from the widest cell, proportionally shrunk
// when the table exceeds the available width. aligns may be nil or
// shorter than the column count; missing entries align left.
func (w *writer) grid(header []string, rows [][]string, aligns []gridAlign) {
	columnCount := len(header)
	for _, row := range rows {
		if len(row) > columnCount {
			columnCount = len(row)
		}
	}
	if columnCount == 0 {
		return
	}

	columnWidths := make([]int, columnCount)
	measure := func(row []string) {
		for index, cell := range row {
			if width := lipgloss.Width(cell); width > columnWidths[index] {
				columnWidths[index] = width
			}
		}
	}
	measure(header)
	for _, row := range rows {
		measure(row)
	}

	const separator = "  "
	totalWidth := len(separator) * (columnCount - 1)
	for _, width := range columnWidths {
		totalWidth += width
	}
	if available := w.currentWidth(); totalWidth > available {
		// Shrink proportionally, minimum 3 chars per column.
		usable := available - len(separator)*(columnCount-1)
		if usable < columnCount*3 {
			usable = columnCount * 3
		}
		for index := range columnWidths {
			columnWidths[index] = (columnWidths[index] * usable) / totalWidth
			if columnWidths[index] < 3 {
				columnWidths[index] = 3
			}
		}
	}

	w.ensureBlankLine()

	if len(header) > 0 {
		bold := w.style().Bold(true).Foreground(w.theme.NormalText)
		w.write(w.consumeLinePrefix() + w.gridRow(header, columnWidths, aligns, bold))
		w.ensureNewline()

		parts := make([]string, columnCount)
		for index, width := range columnWidths {
			parts[index] = strings.Repeat("─", width)
		}
		border := w.style().Foreground(w.theme.Border)
		w.write(w.linePrefix + border.Render(strings.Join(parts, separator)))
		w.ensureNewline()
	}

	for _, row := range rows {
		w.write(w.consumeLinePrefix() + w.gridRow(row, columnWidths, aligns, w.style()))
		w.ensureNewline()
	}

	w.ensureBlankLine()
}

// gridRow formats one row with padded, aligned columns.
func (w *writer) gridRow(cells []string, columnWidths []int, aligns []gridAlign, baseStyle lipgloss.Style) string {
	const separator = "  "
	parts := make([]string, 0, len(columnWidths))
	for index, width := range columnWidths {
		var cell string
		if index < len(cells) {
			cell = cells[index]
		}

		visibleWidth := lipgloss.Width(cell)
		if visibleWidth > width {
			cell = ansi.Truncate(cell, width, "…")
			visibleWidth = lipgloss.Width(cell)
		}
		padding := width - visibleWidth
		if padding < 0 {
			padding = 0
		}

		var alignment gridAlign
		if index < len(aligns) {
			alignment = aligns[index]
		}
		switch alignment {
		case alignRight:
			cell = strings.Repeat(" ", padding) + cell
		case alignCenter:
			left := padding / 2
			cell = strings.Repeat(" ", left) + cell + strings.Repeat(" ", padding-left)
		default:
			cell += strings.Repeat(" ", padding)
		}
		parts = append(parts, cell)
	}
	return baseStyle.Render(strings.Join(parts, separator))
}
