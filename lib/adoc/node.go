// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package adoc

import "github.com/colophon-press/colophon/lib/diag"

// Document is the parsed form of one AsciiDoc file after include
// expansion. Blocks holds the top-level content in source order;
// section nesting is represented by Section.Blocks.
type Document struct {
	// Title is the document title from the "= Title" header line,
	// empty if the file has none.
	Title string

	// Attributes is the final attribute set: built-ins, site
	// configuration, CLI overrides, and every attribute entry in the
	// document or its includes.
	Attributes *AttributeSet

	// Blocks is the top-level block sequence.
	Blocks []Block

	// Anchors maps every assigned ID (sections, blocks, inline
	// anchors) to its display text. Used for cross-reference
	// resolution and duplicate detection.
	Anchors map[string]string
}

// Block is a structural element: section, paragraph, list, table,
// delimited block, or block macro. The concrete types below are the
// complete set.
type Block interface {
	block()
	// Pos returns the source position of the block's first line.
	Pos() diag.Position
}

// Inline is a span of formatted content inside a paragraph, heading,
// list item, or table cell.
type Inline interface {
	inline()
}

// position implements the Pos half of Block for embedding.
type position struct {
	pos diag.Position
}

func (p position) Pos() diag.Position { return p.pos }

// Section is a titled division of the document. Level 1 corresponds
// to "==", matching the heading depth the renderer emits (h2).
type Section struct {
	position
	Level  int
	Title  []Inline
	ID     string
	Blocks []Block
}

// Paragraph is a run of contiguous text lines.
type Paragraph struct {
	position
	Content []Inline
}

// AdmonitionKind distinguishes the five admonition labels.
type AdmonitionKind int

const (
	AdmonitionNote AdmonitionKind = iota
	AdmonitionTip
	AdmonitionImportant
	AdmonitionWarning
	AdmonitionCaution
)

// String returns the uppercase admonition label.
func (k AdmonitionKind) String() string {
	switch k {
	case AdmonitionNote:
		return "NOTE"
	case AdmonitionTip:
		return "TIP"
	case AdmonitionImportant:
		return "IMPORTANT"
	case AdmonitionWarning:
		return "WARNING"
	case AdmonitionCaution:
		return "CAUTION"
	default:
		return "NOTE"
	}
}

// Admonition is a callout box. The paragraph form ("NOTE: text")
// produces a single Paragraph child; the block form ("[NOTE]" over a
// delimited block) may hold any block content.
type Admonition struct {
	position
	Kind   AdmonitionKind
	Title  string
	Blocks []Block
}

// VerbatimStyle distinguishes the preformatted block flavors.
type VerbatimStyle int

const (
	// VerbatimListing is a "----" block, by default rendered as code.
	VerbatimListing VerbatimStyle = iota
	// VerbatimLiteral is a "...." block of plain preformatted text.
	VerbatimLiteral
)

// Callout marks a numbered reference at the end of a listing line.
// Line is the zero-based index into Verbatim.Lines.
type Callout struct {
	Line   int
	Number int
}

// Verbatim is a preformatted block whose content is not parsed.
type Verbatim struct {
	position
	Style    VerbatimStyle
	Language string
	Title    string
	ID       string
	Lines    []string
	Callouts []Callout
}

// Passthrough is a "++++" block emitted into HTML output unchanged
// and dropped by non-HTML renderers.
type Passthrough struct {
	position
	Lines []string
}

// Example is a "====" block.
type Example struct {
	position
	Title  string
	ID     string
	Blocks []Block
}

// Quote is a "____" block with optional attribution.
type Quote struct {
	position
	Attribution string
	Citation    string
	Blocks      []Block
}

// Sidebar is a "****" block of supporting content.
type Sidebar struct {
	position
	Title  string
	Blocks []Block
}

// Open is a "--" block: an anonymous container, most often used to
// attach multiple blocks to a list item.
type Open struct {
	position
	Title  string
	Blocks []Block
}

// List is an unordered or ordered list. Nested lists appear as List
// blocks inside the parent item's Blocks.
type List struct {
	position
	Ordered bool
	Items   []ListItem
}

// ListItem is one item: its principal text plus any attached blocks
// (from nesting or "+" continuation).
type ListItem struct {
	Principal []Inline
	Blocks    []Block
}

// DescriptionList is a "term:: description" list.
type DescriptionList struct {
	position
	Items []DescriptionItem
}

// DescriptionItem pairs a term with its description blocks.
type DescriptionItem struct {
	Term        []Inline
	Description []Block
}

// CalloutList explains the numbered callouts of a preceding listing.
type CalloutList struct {
	position
	Items []CalloutItem
}

// CalloutItem is one "<n> explanation" entry.
type CalloutItem struct {
	Number int
	Text   []Inline
}

// Table is a "|===" block.
type Table struct {
	position
	Title   string
	ID      string
	Columns []Column
	Header  []Cell
	Rows    [][]Cell
}

// ColumnStyle selects how cell content in a column is interpreted.
type ColumnStyle int

const (
	// ColumnDefault parses cell content as inline text.
	ColumnDefault ColumnStyle = iota
	// ColumnAsciiDoc parses cell content as nested block content.
	ColumnAsciiDoc
	// ColumnHeader renders cells as header cells.
	ColumnHeader
	// ColumnMonospace renders cell content in monospace.
	ColumnMonospace
)

// Column describes one table column from the cols attribute.
type Column struct {
	// Width is the relative width weight. The renderer converts the
	// weights to percentages.
	Width int
	Style ColumnStyle
}

// Cell is one table cell. Exactly one of Content or Blocks is set:
// Content for default cells, Blocks for AsciiDoc-style cells.
type Cell struct {
	Style   ColumnStyle
	Content []Inline
	Blocks  []Block
}

// Image is a block image macro.
type Image struct {
	position
	Target string
	Alt    string
	Title  string
	Width  string
	Height string
}

// ThematicBreak is a "'''" horizontal rule.
type ThematicBreak struct {
	position
}

func (*Section) block()         {}
func (*Paragraph) block()       {}
func (*Admonition) block()      {}
func (*Verbatim) block()        {}
func (*Passthrough) block()     {}
func (*Example) block()         {}
func (*Quote) block()           {}
func (*Sidebar) block()         {}
func (*Open) block()            {}
func (*List) block()            {}
func (*DescriptionList) block() {}
func (*CalloutList) block()     {}
func (*Table) block()           {}
func (*Image) block()           {}
func (*ThematicBreak) block()   {}

// Text is a literal run of characters.
type Text struct {
	Value string
}

// Strong is bold text: *constrained* or **unconstrained**.
type Strong struct {
	Children []Inline
}

// Emphasis is italic text: _constrained_ or __unconstrained__.
type Emphasis struct {
	Children []Inline
}

// Monospace is code text: `constrained` or ``unconstrained``. Content
// is literal; nested formatting marks are not interpreted.
type Monospace struct {
	Children []Inline
}

// Superscript is ^raised^ text.
type Superscript struct {
	Children []Inline
}

// Subscript is ~lowered~ text.
type Subscript struct {
	Children []Inline
}

// Link is a hyperlink: an autolinked URL, or link:target[text].
type Link struct {
	Target string
	Text   []Inline
}

// CrossRef is an internal reference: <<anchor,text>> or
// xref:target[text]. Target is resolved against the site index at
// render time.
type CrossRef struct {
	Target string
	Text   string
}

// InlineImage is an image:target[alt] macro.
type InlineImage struct {
	Target string
	Alt    string
}

// InlineAnchor is an [[id]] anchor inside flowing text.
type InlineAnchor struct {
	ID string
}

// LineBreak is a hard break from a trailing " +".
type LineBreak struct{}

func (*Text) inline()         {}
func (*Strong) inline()       {}
func (*Emphasis) inline()     {}
func (*Monospace) inline()    {}
func (*Superscript) inline()  {}
func (*Subscript) inline()    {}
func (*Link) inline()         {}
func (*CrossRef) inline()     {}
func (*InlineImage) inline()  {}
func (*InlineAnchor) inline() {}
func (*LineBreak) inline()    {}

// PlainText flattens inline content to unformatted text. Used for
// auto-generated section IDs, search indexing, and reference text.
func PlainText(inlines []Inline) string {
	var out []byte
	for _, node := range inlines {
		switch n := node.(type) {
		case *Text:
			out = append(out, n.Value...)
		case *Strong:
			out = append(out, PlainText(n.Children)...)
		case *Emphasis:
			out = append(out, PlainText(n.Children)...)
		case *Monospace:
			out = append(out, PlainText(n.Children)...)
		case *Superscript:
			out = append(out, PlainText(n.Children)...)
		case *Subscript:
			out = append(out, PlainText(n.Children)...)
		case *Link:
			if len(n.Text) > 0 {
				out = append(out, PlainText(n.Text)...)
			} else {
				out = append(out, n.Target...)
			}
		case *CrossRef:
			out = append(out, n.Text...)
		case *InlineImage:
			out = append(out, n.Alt...)
		case *LineBreak:
			out = append(out, ' ')
		}
	}
	return string(out)
}
