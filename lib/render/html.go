// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/colophon-press/colophon/lib/adoc"
	"github.com/colophon-press/colophon/lib/diag"
)

// Resolver maps cross-reference targets ("anchor", "page.adoc",
// "page.adoc#anchor") to link destinations. The site index implements
// it; a nil Resolver treats every target as a same-page anchor.
type Resolver interface {
	// Resolve returns the href and default link text for target.
	// ok=false marks a dangling reference.
	Resolve(target string) (href, text string, ok bool)
}

// Options configure fragment rendering.
type Options struct {
	Highlight HighlightOptions
	Resolver  Resolver
}

// Heading is one anchored section heading, in document order. Level 1
// corresponds to "==" and renders as h2.
type Heading struct {
	Level int
	ID    string
	Text  string
}

// Result is a rendered fragment plus the metadata derived during the
// walk. Plain is the unformatted body text for search indexing;
// section titles are carried separately in Headings.
type Result struct {
	HTML     []byte
	Headings []Heading
	Plain    string
}

// Fragment renders a parsed document body to an HTML fragment.
// Dangling cross references and highlighter failures are recorded on
// diags; rendering itself never fails.
func Fragment(doc *adoc.Document, opts Options, diags *diag.List) *Result {
	r := &fragmentRenderer{
		opts:        opts,
		highlighter: NewHighlighter(opts.Highlight),
		diags:       diags,
	}
	r.blocks(doc.Blocks)
	return &Result{
		HTML:     []byte(r.out.String()),
		Headings: r.headings,
		Plain:    strings.TrimSpace(r.plain.String()),
	}
}

type fragmentRenderer struct {
	out         strings.Builder
	plain       strings.Builder
	headings    []Heading
	opts        Options
	highlighter *Highlighter
	diags       *diag.List

	// pos is the position of the innermost block being rendered,
	// used for inline-level diagnostics.
	pos diag.Position
}

func (r *fragmentRenderer) blocks(blocks []adoc.Block) {
	for _, block := range blocks {
		r.block(block)
	}
}

func (r *fragmentRenderer) block(block adoc.Block) {
	r.pos = block.Pos()
	switch n := block.(type) {
	case *adoc.Section:
		r.section(n)
	case *adoc.Paragraph:
		r.paragraph(n)
	case *adoc.Admonition:
		r.admonition(n)
	case *adoc.Verbatim:
		r.verbatim(n)
	case *adoc.Passthrough:
		for _, line := range n.Lines {
			r.out.WriteString(line)
			r.out.WriteByte('\n')
		}
	case *adoc.Example:
		r.container("example", n.ID, n.Title, n.Blocks)
	case *adoc.Quote:
		r.quote(n)
	case *adoc.Sidebar:
		r.sidebar(n)
	case *adoc.Open:
		r.container("open", "", n.Title, n.Blocks)
	case *adoc.List:
		r.list(n)
	case *adoc.DescriptionList:
		r.descriptionList(n)
	case *adoc.CalloutList:
		r.calloutList(n)
	case *adoc.Table:
		r.table(n)
	case *adoc.Image:
		r.image(n)
	case *adoc.ThematicBreak:
		r.out.WriteString("<hr>\n")
	}
}

func (r *fragmentRenderer) section(s *adoc.Section) {
	text := adoc.PlainText(s.Title)
	r.headings = append(r.headings, Heading{Level: s.Level, ID: s.ID, Text: text})

	// Heading depth is capped at h6.
	level := min(s.Level, 5) + 1
	fmt.Fprintf(&r.out, `<h%d id="%s">`, level, escape(s.ID))
	r.inlines(s.Title)
	fmt.Fprintf(&r.out, `<a class="anchor" href="#%s" aria-label="Link to this section">§</a></h%d>`,
		escape(s.ID), level)
	r.out.WriteByte('\n')
	r.blocks(s.Blocks)
}

func (r *fragmentRenderer) paragraph(p *adoc.Paragraph) {
	r.out.WriteString("<p>")
	r.inlines(p.Content)
	r.out.WriteString("</p>\n")
	r.plainLine(adoc.PlainText(p.Content))
}

func (r *fragmentRenderer) admonition(a *adoc.Admonition) {
	kind := strings.ToLower(a.Kind.String())
	label := strings.ToUpper(kind[:1]) + kind[1:]
	fmt.Fprintf(&r.out, "<div class=\"admonition %s\">\n", kind)
	fmt.Fprintf(&r.out, "<p class=\"admonition-label\">%s</p>\n", label)
	if a.Title != "" {
		r.blockTitle(a.Title)
	}
	r.blocks(a.Blocks)
	r.out.WriteString("</div>\n")
}

func (r *fragmentRenderer) verbatim(v *adoc.Verbatim) {
	class := "listing"
	if v.Style == adoc.VerbatimLiteral {
		class = "literal"
	}
	r.out.WriteString("<div")
	if v.ID != "" {
		fmt.Fprintf(&r.out, ` id="%s"`, escape(v.ID))
	}
	fmt.Fprintf(&r.out, ` class="%s">`+"\n", class)
	if v.Title != "" {
		r.blockTitle(v.Title)
	}

	conums := make(map[int][]int, len(v.Callouts))
	for _, callout := range v.Callouts {
		conums[callout.Line] = append(conums[callout.Line], callout.Number)
	}

	var highlighted []string
	if v.Style == adoc.VerbatimListing && v.Language != "" {
		lines, err := r.highlighter.Lines(v.Language, v.Lines)
		if err != nil {
			r.diags.Warnf(r.pos, "highlighting %s listing: %v", v.Language, err)
		}
		highlighted = lines
	}

	if highlighted != nil {
		// "chroma" scopes the generated highlight stylesheet.
		fmt.Fprintf(&r.out, `<pre class="highlight chroma"><code class="language-%s" data-lang="%s">`,
			escape(v.Language), escape(v.Language))
	} else {
		r.out.WriteString("<pre><code>")
	}
	numberWidth := len(fmt.Sprint(len(v.Lines)))
	for i, line := range v.Lines {
		if i > 0 {
			r.out.WriteByte('\n')
		}
		if r.opts.Highlight.LineNumbers && v.Style == adoc.VerbatimListing {
			fmt.Fprintf(&r.out, `<span class="ln">%*d</span>`, numberWidth, i+1)
		}
		if highlighted != nil {
			r.out.WriteString(highlighted[i])
		} else {
			r.out.WriteString(escape(line))
		}
		for _, number := range conums[i] {
			fmt.Fprintf(&r.out, `<b class="conum">%d</b>`, number)
		}
		r.plainLine(line)
	}
	r.out.WriteString("</code></pre>\n</div>\n")
}

func (r *fragmentRenderer) container(class, id, title string, blocks []adoc.Block) {
	r.out.WriteString("<div")
	if id != "" {
		fmt.Fprintf(&r.out, ` id="%s"`, escape(id))
	}
	fmt.Fprintf(&r.out, ` class="%s">`+"\n", class)
	if title != "" {
		r.blockTitle(title)
	}
	r.blocks(blocks)
	r.out.WriteString("</div>\n")
}

func (r *fragmentRenderer) quote(q *adoc.Quote) {
	r.out.WriteString("<blockquote>\n")
	r.blocks(q.Blocks)
	if q.Attribution != "" {
		r.out.WriteString("<footer>&#8212; ")
		r.out.WriteString(escape(q.Attribution))
		if q.Citation != "" {
			fmt.Fprintf(&r.out, ", <cite>%s</cite>", escape(q.Citation))
		}
		r.out.WriteString("</footer>\n")
	}
	r.out.WriteString("</blockquote>\n")
}

func (r *fragmentRenderer) sidebar(s *adoc.Sidebar) {
	r.out.WriteString(`<aside class="sidebar">` + "\n")
	if s.Title != "" {
		r.blockTitle(s.Title)
	}
	r.blocks(s.Blocks)
	r.out.WriteString("</aside>\n")
}

func (r *fragmentRenderer) list(l *adoc.List) {
	tag := "ul"
	if l.Ordered {
		tag = "ol"
	}
	fmt.Fprintf(&r.out, "<%s>\n", tag)
	for _, item := range l.Items {
		r.out.WriteString("<li>")
		r.inlines(item.Principal)
		r.plainLine(adoc.PlainText(item.Principal))
		if len(item.Blocks) > 0 {
			r.out.WriteByte('\n')
			r.blocks(item.Blocks)
		}
		r.out.WriteString("</li>\n")
	}
	fmt.Fprintf(&r.out, "</%s>\n", tag)
}

func (r *fragmentRenderer) descriptionList(l *adoc.DescriptionList) {
	r.out.WriteString("<dl>\n")
	for _, item := range l.Items {
		r.out.WriteString("<dt>")
		r.inlines(item.Term)
		r.out.WriteString("</dt>\n<dd>")
		r.plainLine(adoc.PlainText(item.Term))
		if len(item.Description) > 0 {
			r.out.WriteByte('\n')
			r.blocks(item.Description)
		}
		r.out.WriteString("</dd>\n")
	}
	r.out.WriteString("</dl>\n")
}

func (r *fragmentRenderer) calloutList(l *adoc.CalloutList) {
	r.out.WriteString(`<ol class="callouts">` + "\n")
	for _, item := range l.Items {
		fmt.Fprintf(&r.out, `<li><b class="conum">%d</b> `, item.Number)
		r.inlines(item.Text)
		r.out.WriteString("</li>\n")
		r.plainLine(adoc.PlainText(item.Text))
	}
	r.out.WriteString("</ol>\n")
}

func (r *fragmentRenderer) table(t *adoc.Table) {
	r.out.WriteString("<table")
	if t.ID != "" {
		fmt.Fprintf(&r.out, ` id="%s"`, escape(t.ID))
	}
	r.out.WriteString(">\n")
	if t.Title != "" {
		fmt.Fprintf(&r.out, "<caption>%s</caption>\n", escape(t.Title))
		r.plainLine(t.Title)
	}

	total := 0
	for _, column := range t.Columns {
		total += column.Width
	}
	if total > 0 {
		r.out.WriteString("<colgroup>\n")
		for _, column := range t.Columns {
			fmt.Fprintf(&r.out, `<col style="width: %d%%">`+"\n", column.Width*100/total)
		}
		r.out.WriteString("</colgroup>\n")
	}

	if len(t.Header) > 0 {
		r.out.WriteString("<thead>\n<tr>")
		for _, cell := range t.Header {
			r.out.WriteString("<th>")
			r.cellContent(cell)
			r.out.WriteString("</th>")
		}
		r.out.WriteString("</tr>\n</thead>\n")
	}

	r.out.WriteString("<tbody>\n")
	for _, row := range t.Rows {
		r.out.WriteString("<tr>")
		for _, cell := range row {
			tag := "td"
			if cell.Style == adoc.ColumnHeader {
				tag = "th"
			}
			fmt.Fprintf(&r.out, "<%s>", tag)
			switch cell.Style {
			case adoc.ColumnMonospace:
				r.out.WriteString("<code>")
				r.cellContent(cell)
				r.out.WriteString("</code>")
			default:
				r.cellContent(cell)
			}
			fmt.Fprintf(&r.out, "</%s>", tag)
		}
		r.out.WriteString("</tr>\n")
	}
	r.out.WriteString("</tbody>\n</table>\n")
}

func (r *fragmentRenderer) cellContent(cell adoc.Cell) {
	if cell.Blocks != nil {
		r.blocks(cell.Blocks)
		return
	}
	r.inlines(cell.Content)
	r.plainLine(adoc.PlainText(cell.Content))
}

func (r *fragmentRenderer) image(img *adoc.Image) {
	r.out.WriteString(`<figure class="image">`)
	fmt.Fprintf(&r.out, `<img src="%s" alt="%s"`, escape(img.Target), escape(img.Alt))
	if img.Width != "" {
		fmt.Fprintf(&r.out, ` width="%s"`, escape(img.Width))
	}
	if img.Height != "" {
		fmt.Fprintf(&r.out, ` height="%s"`, escape(img.Height))
	}
	r.out.WriteString(">")
	if img.Title != "" {
		fmt.Fprintf(&r.out, "<figcaption>%s</figcaption>", escape(img.Title))
	}
	r.out.WriteString("</figure>\n")
}

func (r *fragmentRenderer) blockTitle(title string) {
	fmt.Fprintf(&r.out, `<div class="block-title">%s</div>`+"\n", escape(title))
	r.plainLine(title)
}

func (r *fragmentRenderer) inlines(list []adoc.Inline) {
	for _, node := range list {
		switch n := node.(type) {
		case *adoc.Text:
			r.out.WriteString(escape(n.Value))
		case *adoc.Strong:
			r.span("strong", n.Children)
		case *adoc.Emphasis:
			r.span("em", n.Children)
		case *adoc.Monospace:
			r.span("code", n.Children)
		case *adoc.Superscript:
			r.span("sup", n.Children)
		case *adoc.Subscript:
			r.span("sub", n.Children)
		case *adoc.Link:
			fmt.Fprintf(&r.out, `<a href="%s">`, escape(n.Target))
			if len(n.Text) > 0 {
				r.inlines(n.Text)
			} else {
				r.out.WriteString(escape(n.Target))
			}
			r.out.WriteString("</a>")
		case *adoc.CrossRef:
			r.crossRef(n)
		case *adoc.InlineImage:
			fmt.Fprintf(&r.out, `<img src="%s" alt="%s">`, escape(n.Target), escape(n.Alt))
		case *adoc.InlineAnchor:
			fmt.Fprintf(&r.out, `<a id="%s"></a>`, escape(n.ID))
		case *adoc.LineBreak:
			r.out.WriteString("<br>\n")
		}
	}
}

func (r *fragmentRenderer) span(tag string, children []adoc.Inline) {
	fmt.Fprintf(&r.out, "<%s>", tag)
	r.inlines(children)
	fmt.Fprintf(&r.out, "</%s>", tag)
}

// crossRef renders a resolved reference as a link. A dangling target
// renders its text without a link and records a diagnostic.
func (r *fragmentRenderer) crossRef(x *adoc.CrossRef) {
	href, fallback, ok := r.resolve(x.Target)
	text := x.Text
	if text == "" {
		text = fallback
	}
	if text == "" {
		text = x.Target
	}
	if !ok {
		r.diags.Warnf(r.pos, "unresolved cross reference %q", x.Target)
		r.out.WriteString(escape(text))
		return
	}
	fmt.Fprintf(&r.out, `<a href="%s">%s</a>`, escape(href), escape(text))
}

func (r *fragmentRenderer) resolve(target string) (href, text string, ok bool) {
	if r.opts.Resolver != nil {
		return r.opts.Resolver.Resolve(target)
	}
	return "#" + target, "", true
}

func (r *fragmentRenderer) plainLine(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	r.plain.WriteString(text)
	r.plain.WriteByte('\n')
}

func escape(s string) string { return html.EscapeString(s) }
