// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package adoc

import (
	"strconv"
	"strings"

	"github.com/colophon-press/colophon/lib/diag"
)

// cellStyles maps the single-letter cell and column specifiers.
// Styles without a rendering of their own fall back to default.
var cellStyles = map[byte]ColumnStyle{
	'a': ColumnAsciiDoc,
	'd': ColumnDefault,
	'e': ColumnDefault,
	'h': ColumnHeader,
	'l': ColumnMonospace,
	'm': ColumnMonospace,
	's': ColumnDefault,
}

// rawCell accumulates one cell's source lines before content parsing.
type rawCell struct {
	style ColumnStyle
	lines []Line
}

func (c *rawCell) append(text string, pos diag.Position) {
	c.lines = append(c.lines, Line{Text: text, Pos: pos})
}

func (p *parser) parseTable(fence string, pos diag.Position, meta *blockMeta) *Table {
	p.index++

	table := &Table{
		position: position{pos},
		Title:    meta.title,
	}
	if meta.id != "" {
		table.ID = p.assignID(meta.id, meta.title, meta.reftext, pos)
	}

	var cells []rawCell
	firstLineCells := 0
	headerCandidate := false
	contentLines := 0
	closed := false

	for !p.atEnd() {
		line := p.current()
		text := strings.TrimRight(line.Text, " \t")
		if text == fence {
			p.index++
			closed = true
			break
		}
		p.index++

		if strings.TrimSpace(text) == "" {
			// A blank line right after a single-line first row marks
			// it as the header.
			if contentLines == 1 {
				headerCandidate = true
			}
			continue
		}
		contentLines++

		before := len(cells)
		cells = p.splitRowLine(text, line.Pos, cells)
		if contentLines == 1 {
			firstLineCells = len(cells) - before
		}
	}
	if !closed {
		p.diags.Errorf(pos, "unterminated table")
	}

	table.Columns = p.parseColumnSpecs(meta.named["cols"], pos)
	if len(table.Columns) == 0 {
		count := firstLineCells
		if count == 0 {
			count = 1
		}
		table.Columns = make([]Column, count)
		for i := range table.Columns {
			table.Columns[i].Width = 1
		}
	}

	width := len(table.Columns)
	if rem := len(cells) % width; rem != 0 {
		p.diags.Warnf(pos, "table has %d cells, not a multiple of %d columns", len(cells), width)
		for ; rem != 0 && rem < width; rem++ {
			cells = append(cells, rawCell{})
		}
	}

	header := meta.hasOption("header")
	if !header && headerCandidate && firstLineCells == width {
		header = true
	}

	var rows [][]Cell
	for start := 0; start+width <= len(cells); start += width {
		row := make([]Cell, width)
		for i := 0; i < width; i++ {
			row[i] = p.buildCell(cells[start+i], table.Columns[i], pos)
		}
		rows = append(rows, row)
	}

	if header && len(rows) > 0 {
		table.Header = rows[0]
		rows = rows[1:]
	}
	table.Rows = rows
	return table
}

// splitRowLine splits one table source line into cells. Text before
// the first unescaped "|" continues the previous cell; a style letter
// directly before a "|" (at line start or after whitespace) sets the
// next cell's style.
func (p *parser) splitRowLine(text string, pos diag.Position, cells []rawCell) []rawCell {
	var boundaries []int
	for i := 0; i < len(text); i++ {
		if text[i] == '|' && (i == 0 || text[i-1] != '\\') {
			boundaries = append(boundaries, i)
		}
	}

	if len(boundaries) == 0 {
		// Continuation of a multi-line cell.
		if len(cells) == 0 {
			p.diags.Warnf(pos, "table line outside any cell: %q", text)
			return cells
		}
		cells[len(cells)-1].append(unescapeCell(text), pos)
		return cells
	}

	// segmentEnd walks back over a trailing style letter belonging to
	// the following boundary.
	styleAt := make(map[int]ColumnStyle)
	segmentEnd := func(end, boundary int) int {
		if boundary == end {
			return end
		}
		c := text[boundary-1]
		style, ok := cellStyles[c]
		if !ok {
			return boundary
		}
		if boundary-1 == 0 || text[boundary-2] == ' ' || text[boundary-2] == '\t' {
			styleAt[boundary] = style
			return boundary - 1
		}
		return boundary
	}

	leadingEnd := segmentEnd(0, boundaries[0])
	if leading := strings.TrimSpace(text[:leadingEnd]); leading != "" {
		if len(cells) == 0 {
			p.diags.Warnf(pos, "table line outside any cell: %q", leading)
		} else {
			cells[len(cells)-1].append(unescapeCell(strings.TrimRight(text[:leadingEnd], " \t")), pos)
		}
	}

	for i, boundary := range boundaries {
		contentStart := boundary + 1
		contentEnd := len(text)
		if i+1 < len(boundaries) {
			contentEnd = segmentEnd(contentStart, boundaries[i+1])
		}
		cell := rawCell{style: styleAt[boundary]}
		segment := strings.TrimRight(text[contentStart:contentEnd], " \t")
		segment = strings.TrimPrefix(segment, " ")
		cell.append(unescapeCell(segment), pos)
		cells = append(cells, cell)
	}
	return cells
}

func unescapeCell(text string) string {
	return strings.ReplaceAll(text, `\|`, "|")
}

// buildCell parses accumulated cell source. AsciiDoc-style cells get
// a full block parse; everything else is inline content.
func (p *parser) buildCell(raw rawCell, column Column, pos diag.Position) Cell {
	style := raw.style
	if style == ColumnDefault {
		style = column.Style
	}
	cell := Cell{Style: style}

	// Trim leading and trailing blank lines.
	lines := raw.lines
	for len(lines) > 0 && strings.TrimSpace(lines[0].Text) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1].Text) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return cell
	}

	if style == ColumnAsciiDoc {
		cell.Blocks = p.parseInner(lines)
		return cell
	}

	texts := make([]string, len(lines))
	for i, line := range lines {
		texts[i] = strings.TrimSpace(line.Text)
	}
	cell.Content = p.parseInlines(strings.Join(texts, "\n"), lines[0].Pos)
	return cell
}

// parseColumnSpecs parses the cols attribute: comma-separated specs,
// each an optional repeat ("3*"), alignment (ignored), width weight,
// and style letter.
func (p *parser) parseColumnSpecs(value string, pos diag.Position) []Column {
	if strings.TrimSpace(value) == "" {
		return nil
	}

	var columns []Column
	for _, spec := range strings.Split(value, ",") {
		spec = strings.TrimSpace(spec)
		repeat := 1
		if star := strings.IndexByte(spec, '*'); star >= 0 {
			count, err := strconv.Atoi(spec[:star])
			if err != nil || count < 1 {
				p.diags.Warnf(pos, "bad column repeat %q in cols", spec)
			} else {
				repeat = count
			}
			spec = spec[star+1:]
		}

		column := Column{Width: 1}
		digits := ""
		for i := 0; i < len(spec); i++ {
			c := spec[i]
			switch {
			case c >= '0' && c <= '9':
				digits += string(c)
			case c == '<' || c == '^' || c == '>' || c == '.':
				// Alignment is not carried into the output.
			case c == '~':
				// Autowidth; the weight stays 1.
			default:
				if style, ok := cellStyles[c]; ok {
					column.Style = style
				} else {
					p.diags.Warnf(pos, "unknown column spec %q in cols", spec)
				}
			}
		}
		if digits != "" {
			if width, err := strconv.Atoi(digits); err == nil && width > 0 {
				column.Width = width
			}
		}

		for ; repeat > 0; repeat-- {
			columns = append(columns, column)
		}
	}
	return columns
}
