// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

// Package viewer implements the interactive terminal page viewer: a
// two-pane bubbletea TUI with the page list on the left and the
// rendered page on the right.
//
// The list follows the site navigation order with orphan pages
// appended. Typing / narrows the list with fuzzy matching; typing s
// ranks pages by relevance to a query instead. The detail pane renders
// pages through lib/termdoc, so what the viewer shows is the same ANSI
// output `colophon view <page>` writes when stdout is a pipe.
package viewer
