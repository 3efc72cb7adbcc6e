// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

// Package markdown renders Markdown content pages.
//
// Markdown is a peer page format: a .md file under content/ becomes a
// site page exactly like a .adoc file does. This package parses GFM
// (plus definition lists) with goldmark and produces the same shape
// the AsciiDoc renderer produces: an HTML fragment, the page title,
// the heading outline, and the plain text used by the search index.
//
// Fenced code blocks bypass goldmark's stock renderer and go through
// the chroma highlighter instead, emitting the identical markup the
// AsciiDoc listing renderer emits. Both page formats are covered by
// the one generated highlight stylesheet.
package markdown
