// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

// Package termdoc renders documentation pages as styled terminal
// text. AsciiDoc pages render from the parsed document tree, Markdown
// pages from a goldmark AST; both share one accumulate-then-wrap
// writer so headings, lists, quotes, code blocks, and tables come out
// with the same texture regardless of source format.
//
// Inline content collects in a buffer and word-wraps as a unit when
// its block closes, so hard-wrapped source reflows at any width.
// Output is forced to ANSI256 because it always targets a terminal.
package termdoc
