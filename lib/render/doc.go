// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

// Package render turns parsed documents into HTML.
//
// Rendering is split in two: Fragment walks a document AST and
// produces the article body (plus the headings and plain text the
// build feeds to the TOC and search index), and Templates wraps
// fragments in the site chrome (header, navigation, breadcrumbs,
// pager, footer). The chrome templates and the default stylesheet are
// embedded; a site overrides them by dropping same-named files into
// its templates/ and assets/ directories.
//
// Source listings are highlighted with chroma in CSS-class mode, one
// line at a time so callout badges and line numbers attach to the
// lines they belong to. HighlightCSS emits the matching stylesheet
// for the configured style.
//
// Fragment never fails: dangling cross references render as plain
// text and highlighter problems fall back to unhighlighted output,
// both recorded as warning diagnostics.
package render
