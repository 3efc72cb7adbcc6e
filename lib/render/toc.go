// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package render

// TOCEntry is one node of the per-page table of contents.
type TOCEntry struct {
	ID       string
	Text     string
	Children []TOCEntry
}

// BuildTOC folds the flat heading list into a tree, keeping headings
// with level at most depth. Depth 0 disables the TOC. A heading that
// skips levels attaches one level below its nearest ancestor.
func BuildTOC(headings []Heading, depth int) []TOCEntry {
	if depth <= 0 {
		return nil
	}
	var root []TOCEntry
	// stack[i] is the container that a heading of level i+1 appends
	// to. Truncating the stack drops every pointer into a slice
	// before it is appended to, so reallocation never strands one.
	stack := []*[]TOCEntry{&root}
	for _, h := range headings {
		if h.Level < 1 || h.Level > depth {
			continue
		}
		level := min(h.Level, len(stack))
		stack = stack[:level]
		container := stack[len(stack)-1]
		*container = append(*container, TOCEntry{ID: h.ID, Text: h.Text})
		stack = append(stack, &(*container)[len(*container)-1].Children)
	}
	return root
}
