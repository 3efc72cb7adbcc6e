// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

// Package search provides relevance-ranked full-text search over site
// pages using the Okapi BM25 algorithm. Each page contributes a
// composite document built from its title, headings, and plain body
// text, weighted 3/2/1 by repeating tokens in proportion to the
// field weight. This is a simple alternative to per-field BM25 that
// works well for corpora of this size (hundreds of pages).
//
// The index is built at load time — from search-index.json when a
// built site is available, else from freshly parsed sources — and is
// immutable thereafter. It is never persisted; only the entry list
// is, as the search-index.json build artifact. Safe for concurrent
// read access.
package search
