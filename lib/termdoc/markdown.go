// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package termdoc

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// markdownParser is initialized once and reused. The parser
// configuration never changes and the goldmark Parser is safe to
// share; parsing creates per-call state via Parse(reader).
var (
	markdownParser     goldmark.Markdown
	markdownParserOnce sync.Once
)

func getMarkdownParser() goldmark.Markdown {
	markdownParserOnce.Do(func() {
		markdownParser = goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.DefinitionList,
			),
		)
	})
	return markdownParser
}

// Markdown renders CommonMark plus GFM source as styled terminal text
// wrapped to width. Soft line breaks (single newlines within
// paragraphs) become spaces so hard-wrapped source reflows at any
// terminal width; code blocks, lists, and tables keep their structure.
func Markdown(source []byte, theme Theme, width int) string {
	if len(source) == 0 {
		return ""
	}
	document := getMarkdownParser().Parser().Parse(text.NewReader(source))

	v := &markdownWalker{writer: newWriter(theme, width), source: source}
	ast.Walk(document, v.walk)
	return v.result()
}

// markdownWalker walks a goldmark AST with a direct ast.Walk rather
// than goldmark's renderer interface: terminal rendering needs
// accumulate-then-wrap semantics, where paragraph inline content
// collects in a buffer and word-wraps as a unit when the paragraph
// closes. Goldmark's streaming NodeRendererFunc callbacks don't fit
// that without the intermediate-buffer gymnastics glamour uses.
type markdownWalker struct {
	*writer

	source []byte

	// Inline style counters: incremented on entering emphasis or
	// strikethrough, decremented on leaving. Counters rather than
	// booleans so nested emphasis unwinds correctly.
	boldCount          int
	italicCount        int
	strikethroughCount int

	listStack []listState
}

type listState struct {
	ordered bool
	counter int
	tight   bool
}

func (v *markdownWalker) inTightList() bool {
	if len(v.listStack) == 0 {
		return false
	}
	return v.listStack[len(v.listStack)-1].tight
}

// styledText applies the current bold/italic/strikethrough nesting to
// a text run.
func (v *markdownWalker) styledText(content string) string {
	style := v.style().Foreground(v.theme.NormalText)
	if v.boldCount > 0 {
		style = style.Bold(true)
	}
	if v.italicCount > 0 {
		style = style.Italic(true)
	}
	if v.strikethroughCount > 0 {
		style = style.Strikethrough(true)
	}
	return style.Render(content)
}

// renderInlineContent walks a node's children to collect inline
// content into a string. Saves and restores the inline buffer and
// style counters so the caller's context is unaffected.
func (v *markdownWalker) renderInlineContent(node ast.Node) string {
	saved := v.inline.String()
	savedBold, savedItalic, savedStrike := v.boldCount, v.italicCount, v.strikethroughCount

	v.inline.Reset()
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		ast.Walk(child, v.walk)
	}
	result := v.inline.String()

	v.inline.Reset()
	v.inline.WriteString(saved)
	v.boldCount, v.italicCount, v.strikethroughCount = savedBold, savedItalic, savedStrike
	return result
}

// nodeLines concatenates a block node's source line segments.
func (v *markdownWalker) nodeLines(node ast.Node) string {
	var content strings.Builder
	lines := node.Lines()
	for index := 0; index < lines.Len(); index++ {
		segment := lines.At(index)
		content.Write(segment.Value(v.source))
	}
	return content.String()
}

// --- AST walk dispatcher ---

func (v *markdownWalker) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node.Kind() {

	// Block nodes.
	case ast.KindDocument:

	case ast.KindParagraph, ast.KindTextBlock:
		if entering {
			v.inline.Reset()
		} else {
			flushed := v.flushInline()
			if flushed != "" {
				v.write(flushed)
				v.ensureNewline()
				if !v.inTightList() {
					v.ensureBlankLine()
				}
			}
		}

	case ast.KindHeading:
		if entering {
			v.inline.Reset()
		} else {
			// Strip accumulated inline styling: the heading style
			// replaces it wholesale.
			content := ansi.Strip(v.inline.String())
			v.inline.Reset()
			v.heading(content, node.(*ast.Heading).Level)
		}

	case ast.KindFencedCodeBlock:
		if entering {
			block := node.(*ast.FencedCodeBlock)
			language := string(block.Language(v.source))
			v.codeLines(v.highlightCode(v.nodeLines(block), language))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindCodeBlock:
		if entering {
			v.codeLines(v.highlightCode(v.nodeLines(node), ""))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindBlockquote:
		if entering {
			bar := v.style().Foreground(v.theme.Border).Render("│ ")
			v.pushPrefix(bar, 2)
		} else {
			v.popPrefix()
			v.ensureBlankLine()
		}

	case ast.KindList:
		if entering {
			v.enterList(node.(*ast.List))
		} else {
			v.leaveList()
		}

	case ast.KindListItem:
		if entering {
			v.enterListItem()
		} else {
			v.leaveListItem()
		}

	case ast.KindThematicBreak:
		if entering {
			v.rule()
		}

	case ast.KindHTMLBlock:
		if entering {
			v.renderHTMLBlock(node.(*ast.HTMLBlock))
			return ast.WalkSkipChildren, nil
		}

	// Inline nodes.
	case ast.KindText:
		if entering {
			v.handleText(node.(*ast.Text))
		}

	case ast.KindString:
		if entering {
			str := node.(*ast.String)
			v.inline.WriteString(v.styledText(string(str.Value)))
		}

	case ast.KindEmphasis:
		v.handleEmphasis(node.(*ast.Emphasis), entering)

	case ast.KindCodeSpan:
		if entering {
			v.renderCodeSpan(node)
			return ast.WalkSkipChildren, nil
		}

	case ast.KindLink:
		if entering {
			v.renderLink(node.(*ast.Link))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindAutoLink:
		if entering {
			url := string(node.(*ast.AutoLink).URL(v.source))
			v.inline.WriteString(v.style().Foreground(v.theme.Link).Render(url))
		}

	case ast.KindImage:
		if entering {
			v.renderImage(node.(*ast.Image))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindRawHTML:
		if entering {
			v.renderRawHTML(node.(*ast.RawHTML))
		}

	// GFM extension nodes.
	case extast.KindStrikethrough:
		if entering {
			v.strikethroughCount++
		} else {
			v.strikethroughCount--
		}

	case extast.KindTable:
		if entering {
			v.renderTable(node.(*extast.Table))
			return ast.WalkSkipChildren, nil
		}

	case extast.KindTaskCheckBox:
		if entering {
			checkbox := node.(*extast.TaskCheckBox)
			if checkbox.IsChecked {
				done := v.style().Foreground(v.theme.Tip)
				v.inline.WriteString(done.Render("[x]") + " ")
			} else {
				v.inline.WriteString(v.styledText("[ ] "))
			}
		}

	// Definition list extension nodes.
	case extast.KindDefinitionList:

	case extast.KindDefinitionTerm:
		if entering {
			v.inline.Reset()
		} else {
			content := ansi.Strip(v.inline.String())
			v.inline.Reset()
			if content != "" {
				bold := v.style().Bold(true).Foreground(v.theme.NormalText)
				v.write(v.applyPrefixes(bold.Render(content)))
				v.ensureNewline()
			}
		}

	case extast.KindDefinitionDescription:
		if entering {
			v.pushPrefix("  ", 2)
		} else {
			v.popPrefix()
		}
	}

	return ast.WalkContinue, nil
}

// --- Block-level handlers ---

func (v *markdownWalker) enterList(list *ast.List) {
	startNumber := 0
	if list.IsOrdered() {
		startNumber = list.Start
	}
	v.listStack = append(v.listStack, listState{
		ordered: list.IsOrdered(),
		counter: startNumber,
		tight:   list.IsTight,
	})
}

func (v *markdownWalker) leaveList() {
	if len(v.listStack) > 0 {
		v.listStack = v.listStack[:len(v.listStack)-1]
	}
	if !v.inTightList() {
		v.ensureBlankLine()
	}
}

func (v *markdownWalker) enterListItem() {
	if len(v.listStack) == 0 {
		return
	}
	top := &v.listStack[len(v.listStack)-1]

	var bullet string
	if top.ordered {
		bullet = fmt.Sprintf("%d. ", top.counter)
		top.counter++
	} else {
		bullet = "- "
	}

	bulletWidth := len(bullet) // ASCII-only, so byte length == visual width.
	continuation := strings.Repeat(" ", bulletWidth)

	// The pending bullet includes the current linePrefix so it
	// replaces the entire prefix for the first line of this item.
	v.pendingBullet = v.linePrefix + v.style().Foreground(v.theme.NormalText).Render(bullet)
	v.pushPrefix(continuation, bulletWidth)
}

func (v *markdownWalker) leaveListItem() {
	v.popPrefix()
	if !v.inTightList() {
		v.ensureBlankLine()
	} else {
		v.ensureNewline()
	}
}

func (v *markdownWalker) renderHTMLBlock(node *ast.HTMLBlock) {
	stripped := strings.TrimSpace(stripHTMLTags(v.nodeLines(node)))
	if stripped == "" {
		return
	}
	faint := v.style().Foreground(v.theme.FaintText)
	v.write(v.applyPrefixes(faint.Render(stripped)))
	v.ensureNewline()
	v.ensureBlankLine()
}

// --- Inline handlers ---

func (v *markdownWalker) handleText(node *ast.Text) {
	value := string(node.Segment.Value(v.source))
	v.inline.WriteString(v.styledText(value))

	if node.SoftLineBreak() {
		// Soft line breaks become spaces so hard-wrapped source text
		// reflows at any terminal width.
		v.inline.WriteString(" ")
	}
	if node.HardLineBreak() {
		v.inline.WriteString("\n")
	}
}

func (v *markdownWalker) handleEmphasis(node *ast.Emphasis, entering bool) {
	if node.Level >= 2 {
		if entering {
			v.boldCount++
		} else {
			v.boldCount--
		}
	} else {
		if entering {
			v.italicCount++
		} else {
			v.italicCount--
		}
	}
}

func (v *markdownWalker) renderCodeSpan(node ast.Node) {
	var code strings.Builder
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Text:
			code.Write(n.Segment.Value(v.source))
		case *ast.String:
			code.Write(n.Value)
		}
	}
	v.inline.WriteString(v.style().Foreground(v.theme.Code).Render(code.String()))
}

func (v *markdownWalker) renderLink(node *ast.Link) {
	display := ansi.Strip(v.renderInlineContent(node))
	url := string(node.Destination)
	if display == "" {
		display = url
	}
	v.inline.WriteString(v.style().Foreground(v.theme.Link).Render(display))
	if url != "" && url != display {
		faint := v.style().Foreground(v.theme.FaintText)
		v.inline.WriteString(" " + faint.Render("("+url+")"))
	}
}

func (v *markdownWalker) renderImage(node *ast.Image) {
	alt := ansi.Strip(v.renderInlineContent(node))
	url := string(node.Destination)
	if alt == "" {
		alt = url
	}
	faint := v.style().Foreground(v.theme.FaintText)
	v.inline.WriteString(faint.Render("[" + alt + "]"))
	if url != "" {
		v.inline.WriteString(" " + faint.Render("("+url+")"))
	}
}

func (v *markdownWalker) renderRawHTML(node *ast.RawHTML) {
	var raw strings.Builder
	for index := 0; index < node.Segments.Len(); index++ {
		segment := node.Segments.At(index)
		raw.Write(segment.Value(v.source))
	}
	stripped := stripHTMLTags(raw.String())
	if stripped != "" {
		faint := v.style().Foreground(v.theme.FaintText)
		v.inline.WriteString(faint.Render(stripped))
	}
}

// --- Table rendering ---

func (v *markdownWalker) renderTable(table *extast.Table) {
	var header []string
	var rows [][]string
	for child := table.FirstChild(); child != nil; child = child.NextSibling() {
		switch child.Kind() {
		case extast.KindTableHeader:
			header = v.collectTableRow(child)
		case extast.KindTableRow:
			rows = append(rows, v.collectTableRow(child))
		}
	}
	v.grid(header, rows, gridAligns(table.Alignments))
}

// collectTableRow extracts cell content strings from a table row node.
func (v *markdownWalker) collectTableRow(row ast.Node) []string {
	var cells []string
	for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
		if cell.Kind() == extast.KindTableCell {
			cells = append(cells, v.renderInlineContent(cell))
		}
	}
	return cells
}

func gridAligns(alignments []extast.Alignment) []gridAlign {
	aligns := make([]gridAlign, len(alignments))
	for index, alignment := range alignments {
		switch alignment {
		case extast.AlignRight:
			aligns[index] = alignRight
		case extast.AlignCenter:
			aligns[index] = alignCenter
		default:
			aligns[index] = alignLeft
		}
	}
	return aligns
}

// --- Utilities ---

// stripHTMLTags removes HTML tags, keeping only text content.
func stripHTMLTags(input string) string {
	var result strings.Builder
	inTag := false
	for _, character := range input {
		if character == '<' {
			inTag = true
			continue
		}
		if character == '>' {
			inTag = false
			continue
		}
		if !inTag {
			result.WriteRune(character)
		}
	}
	return result.String()
}
