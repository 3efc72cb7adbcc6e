// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package markdown

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/colophon-press/colophon/lib/render"
)

// Page is one rendered Markdown page. It carries the same metadata a
// rendered AsciiDoc page does, so nav, search, cache, and the viewer
// treat both formats alike.
type Page struct {
	// Title is the first level-1 heading, removed from the body (the
	// page chrome renders it).
	Title    string
	HTML     []byte
	Headings []render.Heading
	Plain    string
}

// Converter renders Markdown pages: GFM plus definition lists, auto
// heading IDs, fenced code blocks highlighted through chroma. Safe
// for concurrent use.
type Converter struct {
	md goldmark.Markdown
}

// NewConverter builds a converter with the site highlight settings.
func NewConverter(highlight render.HighlightOptions) *Converter {
	code := &codeBlockRenderer{highlighter: render.NewHighlighter(highlight)}
	return &Converter{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.DefinitionList,
			),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(
				renderer.WithNodeRenderers(util.Prioritized(code, 100)),
			),
		),
	}
}

// Render parses and renders one Markdown source file.
func (c *Converter) Render(source []byte) (*Page, error) {
	doc := c.md.Parser().Parse(text.NewReader(source))
	info, err := scanDoc(doc, source)
	if err != nil {
		return nil, err
	}

	// The page chrome renders the title; drop its heading from the
	// body so it does not appear twice.
	if info.titleNode != nil {
		if parent := info.titleNode.Parent(); parent != nil {
			parent.RemoveChild(parent, info.titleNode)
		}
	}

	var buf bytes.Buffer
	if err := c.md.Renderer().Render(&buf, source, doc); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}
	return &Page{
		Title:    info.title,
		HTML:     buf.Bytes(),
		Headings: info.headings,
		Plain:    strings.TrimSpace(info.plain.String()),
	}, nil
}

// Outline is the parse-only page summary: what the site index needs
// before any HTML exists.
type Outline struct {
	Title    string
	Headings []render.Heading

	// Images are the referenced image destinations in document order,
	// exactly as written.
	Images []string
}

// Outline parses source just far enough for the site index, no HTML
// rendering. The build uses it so a cached page never pays for a
// render.
func (c *Converter) Outline(source []byte) (*Outline, error) {
	doc := c.md.Parser().Parse(text.NewReader(source))
	info, err := scanDoc(doc, source)
	if err != nil {
		return nil, err
	}
	return &Outline{
		Title:    info.title,
		Headings: info.headings,
		Images:   info.images,
	}, nil
}

// docInfo is the metadata one walk over the parsed tree yields.
type docInfo struct {
	title     string
	titleNode *ast.Heading
	headings  []render.Heading
	images    []string
	plain     bytes.Buffer
}

func scanDoc(doc ast.Node, source []byte) (*docInfo, error) {
	info := &docInfo{}
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			// Block boundaries separate plain-text runs.
			if n.Type() == ast.TypeBlock {
				if b := info.plain.Bytes(); len(b) > 0 && b[len(b)-1] != '\n' {
					info.plain.WriteByte('\n')
				}
			}
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			heading := nodeText(node, source)
			if node.Level == 1 && info.titleNode == nil {
				info.titleNode = node
				info.title = heading
			} else {
				info.headings = append(info.headings, render.Heading{
					Level: max(1, node.Level-1),
					ID:    headingID(node),
					Text:  heading,
				})
			}
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			for _, line := range blockLines(n, source) {
				info.plain.WriteString(line)
				info.plain.WriteByte('\n')
			}
			return ast.WalkSkipChildren, nil
		case *ast.Image:
			info.images = append(info.images, string(node.Destination))
		case *ast.Text:
			info.plain.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				info.plain.WriteByte(' ')
			}
		case *ast.String:
			info.plain.Write(node.Value)
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking markdown ast: %w", err)
	}
	return info, nil
}

// nodeText flattens a node's text content.
func nodeText(node ast.Node, source []byte) string {
	var b strings.Builder
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

func headingID(node *ast.Heading) string {
	value, ok := node.AttributeString("id")
	if !ok {
		return ""
	}
	switch id := value.(type) {
	case []byte:
		return string(id)
	case string:
		return id
	}
	return ""
}

func blockLines(node ast.Node, source []byte) []string {
	segments := node.Lines()
	lines := make([]string, 0, segments.Len())
	for i := 0; i < segments.Len(); i++ {
		segment := segments.At(i)
		lines = append(lines, strings.TrimRight(string(segment.Value(source)), "\n"))
	}
	return lines
}

// codeBlockRenderer replaces goldmark's code block output with the
// same markup the AsciiDoc renderer emits, so one highlight
// stylesheet covers both page formats.
type codeBlockRenderer struct {
	highlighter *render.Highlighter
}

func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderCode)
	reg.Register(ast.KindCodeBlock, r.renderCode)
}

func (r *codeBlockRenderer) renderCode(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	language := ""
	if fenced, ok := node.(*ast.FencedCodeBlock); ok {
		language = string(fenced.Language(source))
	}
	lines := blockLines(node, source)

	var highlighted []string
	if language != "" {
		// A failed highlight falls back to plain output; Markdown
		// rendering has no diagnostics channel.
		highlighted, _ = r.highlighter.Lines(language, lines)
	}

	if highlighted != nil {
		fmt.Fprintf(w, `<pre class="highlight chroma"><code class="language-%s" data-lang="%s">`,
			html.EscapeString(language), html.EscapeString(language))
	} else {
		w.WriteString("<pre><code>")
	}
	for i, line := range lines {
		if i > 0 {
			w.WriteString("\n")
		}
		if highlighted != nil {
			w.WriteString(highlighted[i])
		} else {
			w.WriteString(html.EscapeString(line))
		}
	}
	w.WriteString("</code></pre>\n")
	return ast.WalkContinue, nil
}
