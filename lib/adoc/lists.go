// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package adoc

import (
	"strings"

	"github.com/colophon-press/colophon/lib/diag"
)

// listMarker identifies one list item prefix. Depth counts marker
// characters: "*" is depth 1, "**" depth 2.
type listMarker struct {
	ordered bool
	depth   int
}

// matchListItem matches "* item", "** item", "- item", ". item",
// ".. item", and "1. item" lines.
func matchListItem(text string) (listMarker, string, bool) {
	if text == "" {
		return listMarker{}, "", false
	}

	switch text[0] {
	case '*', '.':
		c := text[0]
		depth := 1
		for depth < len(text) && text[depth] == c {
			depth++
		}
		if depth >= len(text) || text[depth] != ' ' {
			return listMarker{}, "", false
		}
		rest := strings.TrimSpace(text[depth:])
		if rest == "" {
			return listMarker{}, "", false
		}
		return listMarker{ordered: c == '.', depth: depth}, rest, true

	case '-':
		if len(text) < 3 || text[1] != ' ' {
			return listMarker{}, "", false
		}
		rest := strings.TrimSpace(text[1:])
		if rest == "" {
			return listMarker{}, "", false
		}
		return listMarker{ordered: false, depth: 1}, rest, true
	}

	// Explicitly numbered: "1. item".
	digits := 0
	for digits < len(text) && text[digits] >= '0' && text[digits] <= '9' {
		digits++
	}
	if digits == 0 || digits+1 >= len(text) || text[digits] != '.' || text[digits+1] != ' ' {
		return listMarker{}, "", false
	}
	rest := strings.TrimSpace(text[digits+1:])
	if rest == "" {
		return listMarker{}, "", false
	}
	return listMarker{ordered: true, depth: 1}, rest, true
}

func isListItemLine(text string) bool {
	_, _, ok := matchListItem(text)
	return ok
}

func (p *parser) parseList(pos diag.Position) *List {
	text := strings.TrimRight(p.current().Text, " \t")
	marker, _, _ := matchListItem(text)
	return p.parseListLevel(marker, pos)
}

// parseListLevel parses items at one marker depth. Deeper markers
// nest under the previous item; shallower or differently ordered
// markers end the list.
func (p *parser) parseListLevel(level listMarker, pos diag.Position) *List {
	list := &List{position: position{pos}, Ordered: level.ordered}

	for !p.atEnd() {
		// Blank lines between items do not end the list; peek past
		// them without committing.
		peek := p.index
		for peek < len(p.lines) && strings.TrimSpace(p.lines[peek].Text) == "" {
			peek++
		}
		if peek >= len(p.lines) {
			break
		}
		text := strings.TrimRight(p.lines[peek].Text, " \t")
		marker, rest, ok := matchListItem(text)
		if !ok {
			break
		}
		if marker.depth < level.depth || (marker.depth == level.depth && marker.ordered != level.ordered) {
			break
		}
		p.index = peek
		itemPos := p.current().Pos

		if marker.depth > level.depth {
			nested := p.parseListLevel(marker, itemPos)
			if len(list.Items) == 0 {
				// A list that opens at depth two still gets an item.
				list.Items = append(list.Items, ListItem{Blocks: []Block{nested}})
				continue
			}
			last := &list.Items[len(list.Items)-1]
			last.Blocks = append(last.Blocks, nested)
			continue
		}

		p.index++
		item := ListItem{Principal: p.parseInlines(p.collectPrincipal(rest), itemPos)}
		item.Blocks = p.parseAttachedBlocks()
		list.Items = append(list.Items, item)
	}

	return list
}

// collectPrincipal joins an item's first line with its wrapped
// continuation lines.
func (p *parser) collectPrincipal(first string) string {
	principal := first
	for !p.atEnd() {
		text := strings.TrimRight(p.current().Text, " \t")
		if strings.TrimSpace(text) == "" || text == "+" {
			break
		}
		if isListItemLine(text) || isDescriptionItemLine(text) || paragraphInterrupt(text) {
			break
		}
		principal += "\n" + strings.TrimSpace(text)
		p.index++
	}
	return principal
}

// parseAttachedBlocks consumes "+" continuation blocks following a
// list or description item.
func (p *parser) parseAttachedBlocks() []Block {
	var blocks []Block
	for !p.atEnd() {
		text := strings.TrimRight(p.current().Text, " \t")
		if text != "+" {
			break
		}
		p.index++

		var meta blockMeta
		for !p.atEnd() {
			next := strings.TrimRight(p.current().Text, " \t")
			if id, reftext, ok := matchBlockAnchor(next); ok {
				meta.id, meta.reftext = id, reftext
				p.index++
				continue
			}
			if strings.HasPrefix(next, "[") && strings.HasSuffix(next, "]") && !strings.HasPrefix(next, "[[") {
				p.parseBlockAttrLine(next[1:len(next)-1], &meta)
				p.index++
				continue
			}
			if title, ok := matchBlockTitle(next); ok {
				meta.title = title
				p.index++
				continue
			}
			break
		}
		if p.atEnd() || strings.TrimSpace(p.current().Text) == "" {
			break
		}

		next := strings.TrimRight(p.current().Text, " \t")
		blocks = append(blocks, p.parseBlock(next, p.current().Pos, &meta)...)
	}
	return blocks
}

// matchDescriptionItem matches "term:: description" lines. The colon
// run length gives nesting: "::" is depth 1, ":::" depth 2.
func matchDescriptionItem(text string) (term, rest string, colons int, ok bool) {
	if text == "" || text[0] == ' ' || text[0] == '\t' {
		return "", "", 0, false
	}

	for search := 0; ; {
		i := strings.Index(text[search:], "::")
		if i < 0 {
			return "", "", 0, false
		}
		i += search
		if i == 0 {
			return "", "", 0, false
		}

		run := 2
		for i+run < len(text) && text[i+run] == ':' {
			run++
		}
		after := i + run
		if after < len(text) && text[after] != ' ' {
			// "http://example.com" has a "::"-free colon pair, but a
			// term like "a::b" keeps searching for a later match.
			search = after
			continue
		}
		return strings.TrimSpace(text[:i]), strings.TrimSpace(text[after:]), run, true
	}
}

func isDescriptionItemLine(text string) bool {
	_, _, _, ok := matchDescriptionItem(text)
	return ok
}

func (p *parser) parseDescriptionList(pos diag.Position) *DescriptionList {
	text := strings.TrimRight(p.current().Text, " \t")
	_, _, colons, _ := matchDescriptionItem(text)
	return p.parseDescriptionLevel(colons, pos)
}

func (p *parser) parseDescriptionLevel(colons int, pos diag.Position) *DescriptionList {
	list := &DescriptionList{position: position{pos}}

	for !p.atEnd() {
		peek := p.index
		for peek < len(p.lines) && strings.TrimSpace(p.lines[peek].Text) == "" {
			peek++
		}
		if peek >= len(p.lines) {
			break
		}
		text := strings.TrimRight(p.lines[peek].Text, " \t")
		term, rest, depth, ok := matchDescriptionItem(text)
		if !ok || depth < colons {
			break
		}
		p.index = peek
		itemPos := p.current().Pos

		if depth > colons {
			nested := p.parseDescriptionLevel(depth, itemPos)
			if len(list.Items) == 0 {
				list.Items = append(list.Items, DescriptionItem{Description: []Block{nested}})
				continue
			}
			last := &list.Items[len(list.Items)-1]
			last.Description = append(last.Description, nested)
			continue
		}

		p.index++
		item := DescriptionItem{Term: p.parseInlines(term, itemPos)}

		// The description starts on the same line, on following
		// lines, or both.
		principal := rest
		for !p.atEnd() {
			next := strings.TrimRight(p.current().Text, " \t")
			if strings.TrimSpace(next) == "" || next == "+" {
				break
			}
			if isDescriptionItemLine(next) || isListItemLine(next) || paragraphInterrupt(next) {
				break
			}
			if principal != "" {
				principal += "\n"
			}
			principal += strings.TrimSpace(next)
			p.index++
		}
		if principal != "" {
			item.Description = append(item.Description, &Paragraph{
				position: position{itemPos},
				Content:  p.parseInlines(principal, itemPos),
			})
		}

		// A list directly below the term attaches without a "+".
		if !p.atEnd() {
			next := strings.TrimRight(p.current().Text, " \t")
			if isListItemLine(next) {
				item.Description = append(item.Description, p.parseList(p.current().Pos))
			}
		}

		item.Description = append(item.Description, p.parseAttachedBlocks()...)
		list.Items = append(list.Items, item)
	}

	return list
}
