// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package adoc

// Walk calls fn for every block in blocks, depth-first in source
// order. Returning false skips the block's children.
func Walk(blocks []Block, fn func(Block) bool) {
	for _, block := range blocks {
		if !fn(block) {
			continue
		}
		switch b := block.(type) {
		case *Section:
			Walk(b.Blocks, fn)
		case *Admonition:
			Walk(b.Blocks, fn)
		case *Example:
			Walk(b.Blocks, fn)
		case *Quote:
			Walk(b.Blocks, fn)
		case *Sidebar:
			Walk(b.Blocks, fn)
		case *Open:
			Walk(b.Blocks, fn)
		case *List:
			for _, item := range b.Items {
				Walk(item.Blocks, fn)
			}
		case *DescriptionList:
			for _, item := range b.Items {
				Walk(item.Description, fn)
			}
		case *Table:
			for _, cell := range b.Header {
				Walk(cell.Blocks, fn)
			}
			for _, row := range b.Rows {
				for _, cell := range row {
					Walk(cell.Blocks, fn)
				}
			}
		}
	}
}

// WalkInlines calls fn for every inline span reachable from blocks:
// section titles, paragraph content, list principals, description
// terms, callout explanations, and table cells, including the
// children of formatting spans.
func WalkInlines(blocks []Block, fn func(Inline)) {
	Walk(blocks, func(block Block) bool {
		switch b := block.(type) {
		case *Section:
			walkInlines(b.Title, fn)
		case *Paragraph:
			walkInlines(b.Content, fn)
		case *List:
			for _, item := range b.Items {
				walkInlines(item.Principal, fn)
			}
		case *DescriptionList:
			for _, item := range b.Items {
				walkInlines(item.Term, fn)
			}
		case *CalloutList:
			for _, item := range b.Items {
				walkInlines(item.Text, fn)
			}
		case *Table:
			for _, cell := range b.Header {
				walkInlines(cell.Content, fn)
			}
			for _, row := range b.Rows {
				for _, cell := range row {
					walkInlines(cell.Content, fn)
				}
			}
		}
		return true
	})
}

func walkInlines(inlines []Inline, fn func(Inline)) {
	for _, node := range inlines {
		fn(node)
		switch n := node.(type) {
		case *Strong:
			walkInlines(n.Children, fn)
		case *Emphasis:
			walkInlines(n.Children, fn)
		case *Monospace:
			walkInlines(n.Children, fn)
		case *Superscript:
			walkInlines(n.Children, fn)
		case *Subscript:
			walkInlines(n.Children, fn)
		case *Link:
			walkInlines(n.Text, fn)
		}
	}
}
