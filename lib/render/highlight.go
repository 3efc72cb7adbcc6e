// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// HighlightOptions configure source-block highlighting.
type HighlightOptions struct {
	// Style is the chroma style name. Unknown names use the chroma
	// fallback style.
	Style string
	// LineNumbers prefixes listing lines with their number.
	LineNumbers bool
}

// Highlighter renders source listings to per-line HTML so callout
// badges and line numbers can be attached to individual lines. Safe
// for concurrent use.
type Highlighter struct {
	formatter *chromahtml.Formatter
	style     *chroma.Style
}

// NewHighlighter builds a highlighter for the configured style.
func NewHighlighter(opts HighlightOptions) *Highlighter {
	return &Highlighter{
		formatter: chromahtml.New(
			chromahtml.WithClasses(true),
			chromahtml.PreventSurroundingPre(true),
		),
		style: styles.Get(opts.Style),
	}
}

// Lines tokenizes source and formats each line separately, returning
// HTML without trailing newlines, one entry per source line. An
// unknown language returns (nil, nil): the caller renders the listing
// unhighlighted.
func (h *Highlighter) Lines(language string, source []string) ([]string, error) {
	lexer := lexers.Get(language)
	if lexer == nil {
		return nil, nil
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, strings.Join(source, "\n")+"\n")
	if err != nil {
		return nil, fmt.Errorf("tokenizing: %w", err)
	}
	tokenLines := chroma.SplitTokensIntoLines(iterator.Tokens())

	out := make([]string, 0, len(source))
	for _, tokens := range tokenLines {
		// Each line's last token carries the newline. Strip it before
		// formatting so nothing renders after the line content: the
		// caller appends callout badges directly to the line.
		if n := len(tokens); n > 0 {
			tokens[n-1].Value = strings.TrimRight(tokens[n-1].Value, "\n")
			if tokens[n-1].Value == "" {
				tokens = tokens[:n-1]
			}
		}
		var b strings.Builder
		if err := h.formatter.Format(&b, h.style, chroma.Literator(tokens...)); err != nil {
			return nil, fmt.Errorf("formatting: %w", err)
		}
		out = append(out, b.String())
	}
	// The joined source carries a trailing newline; keep the output
	// aligned with the input lines.
	for len(out) > len(source) {
		out = out[:len(out)-1]
	}
	for len(out) < len(source) {
		out = append(out, "")
	}
	return out, nil
}

// HighlightCSS returns the stylesheet for the named chroma style,
// written against the class names the fragment renderer emits. The
// build ships it as an asset next to the site stylesheet.
func HighlightCSS(styleName string) ([]byte, error) {
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	var buf bytes.Buffer
	if err := formatter.WriteCSS(&buf, styles.Get(styleName)); err != nil {
		return nil, fmt.Errorf("writing highlight stylesheet: %w", err)
	}
	return buf.Bytes(), nil
}
