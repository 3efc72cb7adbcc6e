// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package termdoc

import (
	"fmt"
	"strings"

	"github.com/colophon-press/colophon/lib/adoc"
)

// AsciiDoc renders a parsed document as styled terminal text wrapped
// to width.
func AsciiDoc(doc *adoc.Document, theme Theme, width int) string {
	v := &adocWalker{writer: newWriter(theme, width)}
	if doc.Title != "" {
		v.heading(doc.Title, 1)
	}
	v.blocks(doc.Blocks)
	return v.result()
}

// adocWalker walks the document tree depth-first, accumulating inline
// fragments and flushing them block by block.
type adocWalker struct {
	*writer

	// Inline style nesting. Counters rather than booleans so nested
	// formatting unwinds correctly.
	boldCount   int
	italicCount int
}

func (v *adocWalker) blocks(blocks []adoc.Block) {
	for _, block := range blocks {
		v.block(block)
	}
}

func (v *adocWalker) block(block adoc.Block) {
	switch b := block.(type) {
	case *adoc.Section:
		// Section levels start at one for "=="; the document title
		// already took level one, so sections render one deeper.
		v.heading(adoc.PlainText(b.Title), b.Level+1)
		v.blocks(b.Blocks)

	case *adoc.Paragraph:
		v.inlines(b.Content)
		v.paragraphBreak(v.flushInline())

	case *adoc.Admonition:
		v.admonition(b)

	case *adoc.Verbatim:
		v.verbatim(b)

	case *adoc.Passthrough:
		// Raw HTML has no terminal form.

	case *adoc.Example:
		v.titledBox(b.Title, b.Blocks)

	case *adoc.Quote:
		v.quote(b)

	case *adoc.Sidebar:
		v.titledBox(b.Title, b.Blocks)

	case *adoc.Open:
		if b.Title != "" {
			v.ensureBlankLine()
			title := v.style().Bold(true).Foreground(v.theme.NormalText).Render(b.Title)
			v.write(v.applyPrefixes(title))
			v.ensureNewline()
		}
		v.blocks(b.Blocks)

	case *adoc.List:
		v.list(b)

	case *adoc.DescriptionList:
		v.descriptionList(b)

	case *adoc.CalloutList:
		v.calloutList(b)

	case *adoc.Table:
		v.table(b)

	case *adoc.Image:
		v.blockImage(b)

	case *adoc.ThematicBreak:
		v.rule()
	}
}

// admonition renders the colored label line, then the body under a
// bar prefix in the label color.
func (v *adocWalker) admonition(b *adoc.Admonition) {
	color := v.theme.AdmonitionColor(b.Kind)
	label := v.style().Bold(true).Foreground(color).Render(b.Kind.String())
	if b.Title != "" {
		label += " " + v.style().Bold(true).Foreground(v.theme.NormalText).Render(b.Title)
	}

	v.ensureBlankLine()
	v.write(v.applyPrefixes(label))
	v.ensureNewline()

	bar := v.style().Foreground(color).Render("│ ")
	v.pushPrefix(bar, 2)
	v.blocks(b.Blocks)
	v.popPrefix()
	v.ensureBlankLine()
}

// verbatim renders listing and literal blocks without wrapping.
// Listing content is syntax-highlighted when a language is set;
// callout markers are appended to their lines.
func (v *adocWalker) verbatim(b *adoc.Verbatim) {
	if b.Title != "" {
		v.ensureBlankLine()
		title := v.style().Bold(true).Foreground(v.theme.NormalText).Render(b.Title)
		v.write(v.applyPrefixes(title))
		v.ensureNewline()
	}

	text := strings.Join(b.Lines, "\n")
	if b.Style == adoc.VerbatimListing {
		text = v.highlightCode(text, b.Language)
	} else {
		text = v.style().Foreground(v.theme.Code).Render(text)
	}

	if len(b.Callouts) > 0 {
		lines := strings.Split(text, "\n")
		marker := v.style().Foreground(v.theme.Link)
		for _, callout := range b.Callouts {
			if callout.Line >= 0 && callout.Line < len(lines) {
				lines[callout.Line] += " " + marker.Render(fmt.Sprintf("<%d>", callout.Number))
			}
		}
		text = strings.Join(lines, "\n")
	}

	v.codeLines(text)
}

// titledBox renders example and sidebar blocks: optional bold title,
// body indented two spaces.
func (v *adocWalker) titledBox(title string, blocks []adoc.Block) {
	v.ensureBlankLine()
	if title != "" {
		styled := v.style().Bold(true).Foreground(v.theme.NormalText).Render(title)
		v.write(v.applyPrefixes(styled))
		v.ensureNewline()
	}
	v.pushPrefix("  ", 2)
	v.blocks(blocks)
	v.popPrefix()
	v.ensureBlankLine()
}

func (v *adocWalker) quote(b *adoc.Quote) {
	v.ensureBlankLine()
	bar := v.style().Foreground(v.theme.Border).Render("│ ")
	v.pushPrefix(bar, 2)
	v.blocks(b.Blocks)
	v.popPrefix()

	if b.Attribution != "" || b.Citation != "" {
		credit := "— " + b.Attribution
		if b.Citation != "" {
			if b.Attribution != "" {
				credit += ", "
			}
			credit += b.Citation
		}
		v.write(v.applyPrefixes(v.style().Foreground(v.theme.FaintText).Render(credit)))
		v.ensureNewline()
	}
	v.ensureBlankLine()
}

func (v *adocWalker) list(b *adoc.List) {
	for index, item := range b.Items {
		bullet := "- "
		if b.Ordered {
			bullet = fmt.Sprintf("%d. ", index+1)
		}

		// The pending bullet carries the current prefix so it
		// replaces the whole line prefix for the item's first line.
		v.pendingBullet = v.linePrefix + v.style().Foreground(v.theme.NormalText).Render(bullet)
		v.pushPrefix(strings.Repeat(" ", len(bullet)), len(bullet))
		v.inlines(item.Principal)
		if flushed := v.flushInline(); flushed != "" {
			v.write(flushed)
			v.ensureNewline()
		}
		v.blocks(item.Blocks)
		v.popPrefix()
		v.pendingBullet = ""
	}
	v.ensureBlankLine()
}

func (v *adocWalker) descriptionList(b *adoc.DescriptionList) {
	for _, item := range b.Items {
		term := adoc.PlainText(item.Term)
		if term != "" {
			styled := v.style().Bold(true).Foreground(v.theme.NormalText).Render(term)
			v.write(v.applyPrefixes(styled))
			v.ensureNewline()
		}
		v.pushPrefix("  ", 2)
		v.blocks(item.Description)
		v.popPrefix()
	}
	v.ensureBlankLine()
}

func (v *adocWalker) calloutList(b *adoc.CalloutList) {
	for _, item := range b.Items {
		marker := fmt.Sprintf("<%d> ", item.Number)
		v.pendingBullet = v.linePrefix + v.style().Foreground(v.theme.Link).Render(marker)
		v.pushPrefix(strings.Repeat(" ", len(marker)), len(marker))
		v.inlines(item.Text)
		if flushed := v.flushInline(); flushed != "" {
			v.write(flushed)
			v.ensureNewline()
		}
		v.popPrefix()
		v.pendingBullet = ""
	}
	v.ensureBlankLine()
}

func (v *adocWalker) table(b *adoc.Table) {
	if b.Title != "" {
		v.ensureBlankLine()
		title := v.style().Bold(true).Foreground(v.theme.NormalText).Render(b.Title)
		v.write(v.applyPrefixes(title))
		v.ensureNewline()
	}

	header := make([]string, 0, len(b.Header))
	for _, cell := range b.Header {
		header = append(header, v.cellText(cell))
	}
	rows := make([][]string, 0, len(b.Rows))
	for _, row := range b.Rows {
		cells := make([]string, 0, len(row))
		for _, cell := range row {
			cells = append(cells, v.cellText(cell))
		}
		rows = append(rows, cells)
	}
	v.grid(header, rows, nil)
}

// cellText renders one table cell to a single styled line. AsciiDoc-
// style cells flatten their blocks to plain text; the grid is no
// place for nested structure.
func (v *adocWalker) cellText(cell adoc.Cell) string {
	if len(cell.Blocks) > 0 {
		var parts []string
		for _, block := range cell.Blocks {
			if paragraph, ok := block.(*adoc.Paragraph); ok {
				parts = append(parts, adoc.PlainText(paragraph.Content))
			}
		}
		return v.style().Foreground(v.theme.NormalText).Render(strings.Join(parts, " "))
	}

	content := v.renderInlines(cell.Content)
	if cell.Style == adoc.ColumnMonospace {
		return v.style().Foreground(v.theme.Code).Render(adoc.PlainText(cell.Content))
	}
	if cell.Style == adoc.ColumnHeader {
		return v.style().Bold(true).Foreground(v.theme.NormalText).Render(adoc.PlainText(cell.Content))
	}
	return content
}

func (v *adocWalker) blockImage(b *adoc.Image) {
	alt := b.Alt
	if alt == "" {
		alt = b.Target
	}
	faint := v.style().Foreground(v.theme.FaintText)
	line := faint.Render("["+alt+"]") + " " + faint.Render("("+b.Target+")")
	v.ensureBlankLine()
	v.write(v.applyPrefixes(line))
	v.ensureNewline()
	v.ensureBlankLine()
}

// --- Inline handling ---

// inlines appends styled fragments for a span sequence to the inline
// buffer.
func (v *adocWalker) inlines(inlines []adoc.Inline) {
	for _, node := range inlines {
		v.inlineNode(node)
	}
}

func (v *adocWalker) inlineNode(node adoc.Inline) {
	switch n := node.(type) {
	case *adoc.Text:
		v.inline.WriteString(v.styledText(n.Value))

	case *adoc.Strong:
		v.boldCount++
		v.inlines(n.Children)
		v.boldCount--

	case *adoc.Emphasis:
		v.italicCount++
		v.inlines(n.Children)
		v.italicCount--

	case *adoc.Monospace:
		code := adoc.PlainText(n.Children)
		v.inline.WriteString(v.style().Foreground(v.theme.Code).Render(code))

	case *adoc.Superscript:
		v.inlines(n.Children)

	case *adoc.Subscript:
		v.inlines(n.Children)

	case *adoc.Link:
		text := adoc.PlainText(n.Text)
		if text == "" {
			text = n.Target
		}
		v.inline.WriteString(v.style().Foreground(v.theme.Link).Render(text))
		if text != n.Target {
			faint := v.style().Foreground(v.theme.FaintText)
			v.inline.WriteString(" " + faint.Render("("+n.Target+")"))
		}

	case *adoc.CrossRef:
		text := n.Text
		if text == "" {
			text = n.Target
		}
		v.inline.WriteString(v.style().Foreground(v.theme.Link).Render(text))

	case *adoc.InlineImage:
		alt := n.Alt
		if alt == "" {
			alt = n.Target
		}
		v.inline.WriteString(v.style().Foreground(v.theme.FaintText).Render("[" + alt + "]"))

	case *adoc.InlineAnchor:
		// Anchors are invisible in terminal output.

	case *adoc.LineBreak:
		v.inline.WriteString("\n")
	}
}

// styledText applies the current bold/italic nesting to a text run.
func (v *adocWalker) styledText(content string) string {
	style := v.style().Foreground(v.theme.NormalText)
	if v.boldCount > 0 {
		style = style.Bold(true)
	}
	if v.italicCount > 0 {
		style = style.Italic(true)
	}
	return style.Render(content)
}

// renderInlines renders a span sequence to a string without touching
// the shared inline buffer.
func (v *adocWalker) renderInlines(inlines []adoc.Inline) string {
	saved := v.inline.String()
	savedBold, savedItalic := v.boldCount, v.italicCount

	v.inline.Reset()
	v.inlines(inlines)
	result := v.inline.String()

	v.inline.Reset()
	v.inline.WriteString(saved)
	v.boldCount, v.italicCount = savedBold, savedItalic
	return result
}
