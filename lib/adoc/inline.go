// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package adoc

import (
	"strconv"
	"strings"

	"github.com/colophon-press/colophon/lib/diag"
)

// parseInlines parses the inline content of one paragraph, heading,
// cell, or list item. Passthrough spans are lifted out first, then
// attribute references are substituted with their final values, then
// formatting marks and macros are scanned.
func (p *parser) parseInlines(text string, pos diag.Position) []Inline {
	s := &inlineScanner{p: p, pos: pos}
	text = s.extractPassthroughs(text)
	text = s.substituteAttributes(text)
	s.text = text
	s.scan()
	return s.out
}

type inlineScanner struct {
	p   *parser
	pos diag.Position

	text string
	i    int
	// start marks the beginning of the pending plain-text run.
	start int
	out   []Inline

	// passthroughs holds the literal content of extracted "+...+"
	// spans, referenced by placeholder index.
	passthroughs []string
}

const placeholderMark = '\x00'

// extractPassthroughs replaces "+...+" and "++...++" spans with
// indexed placeholders so their content survives attribute
// substitution and mark scanning untouched.
func (s *inlineScanner) extractPassthroughs(text string) string {
	var out strings.Builder
	for i := 0; i < len(text); {
		c := text[i]
		if c != '+' || (i > 0 && text[i-1] == '\\') {
			out.WriteByte(c)
			i++
			continue
		}

		// Unconstrained "++...++" first.
		if i+1 < len(text) && text[i+1] == '+' {
			if end := strings.Index(text[i+2:], "++"); end >= 0 {
				s.passthroughs = append(s.passthroughs, text[i+2:i+2+end])
				out.WriteString(s.placeholder(len(s.passthroughs) - 1))
				i += 2 + end + 2
				continue
			}
		}

		// Constrained "+...+": word boundaries on both sides, content
		// not touching whitespace.
		if canOpenConstrained(text, i) {
			if end := findConstrainedClose(text, i+1, '+'); end >= 0 {
				s.passthroughs = append(s.passthroughs, text[i+1:end])
				out.WriteString(s.placeholder(len(s.passthroughs) - 1))
				i = end + 1
				continue
			}
		}

		out.WriteByte(c)
		i++
	}
	return out.String()
}

func (s *inlineScanner) placeholder(index int) string {
	return string(placeholderMark) + strconv.Itoa(index) + string(placeholderMark)
}

// resolve expands placeholders back into their literal content.
func (s *inlineScanner) resolve(text string) string {
	if !strings.ContainsRune(text, placeholderMark) {
		return text
	}
	var out strings.Builder
	for i := 0; i < len(text); {
		if text[i] != placeholderMark {
			out.WriteByte(text[i])
			i++
			continue
		}
		end := strings.IndexByte(text[i+1:], placeholderMark)
		if end < 0 {
			out.WriteString(text[i:])
			break
		}
		index, err := strconv.Atoi(text[i+1 : i+1+end])
		if err == nil && index >= 0 && index < len(s.passthroughs) {
			out.WriteString(s.passthroughs[index])
		}
		i += end + 2
	}
	return out.String()
}

func (s *inlineScanner) substituteAttributes(text string) string {
	result, unresolved := s.p.attrs.Substitute(text)
	for _, name := range unresolved {
		if !s.p.warned[name] {
			s.p.warned[name] = true
			s.p.diags.Warnf(s.pos, "unresolved attribute reference {%s}", name)
		}
	}
	return result
}

// scanInlines runs a child scan over a slice of already substituted
// text, sharing the passthrough store.
func (s *inlineScanner) scanInlines(text string) []Inline {
	child := &inlineScanner{p: s.p, pos: s.pos, text: text, passthroughs: s.passthroughs}
	child.scan()
	return child.out
}

// flush emits the pending plain-text run up to the current position.
func (s *inlineScanner) flush() {
	s.flushTo(s.i)
}

func (s *inlineScanner) flushTo(end int) {
	if s.start < end {
		s.out = append(s.out, &Text{Value: s.resolve(s.text[s.start:end])})
	}
	s.start = end
}

func (s *inlineScanner) emit(node Inline, next int) {
	s.flush()
	s.out = append(s.out, node)
	s.i = next
	s.start = next
}

func (s *inlineScanner) scan() {
	text := s.text
	for s.i < len(text) {
		switch c := text[s.i]; c {
		case '\\':
			if s.i+1 < len(text) && isEscapableMark(text[s.i+1]) {
				s.flush()
				s.out = append(s.out, &Text{Value: string(text[s.i+1])})
				s.i += 2
				s.start = s.i
				continue
			}
			s.i++

		case '*':
			s.tryMark('*', func(children []Inline) Inline { return &Strong{Children: children} })

		case '_':
			s.tryMark('_', func(children []Inline) Inline { return &Emphasis{Children: children} })

		case '`':
			s.tryMark('`', func(children []Inline) Inline { return &Monospace{Children: children} })

		case '^':
			s.trySupSub('^', func(children []Inline) Inline { return &Superscript{Children: children} })

		case '~':
			s.trySupSub('~', func(children []Inline) Inline { return &Subscript{Children: children} })

		case '<':
			if !s.tryCrossRef() {
				s.i++
			}

		case '[':
			if !s.tryInlineAnchor() {
				s.i++
			}

		case '+':
			if !s.tryLineBreak() {
				s.i++
			}

		case placeholderMark:
			s.flushPlaceholder()

		default:
			if !s.tryMacro() {
				s.i++
			}
		}
	}
	s.flush()
}

func isEscapableMark(c byte) bool {
	switch c {
	case '*', '_', '`', '^', '~', '+', '<', '[', '\\', '{':
		return true
	}
	return false
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// canOpenConstrained reports whether a constrained mark at i opens a
// span: preceded by a non-word character and followed by visible
// content.
func canOpenConstrained(text string, i int) bool {
	if i > 0 && isWordByte(text[i-1]) {
		return false
	}
	if i+1 >= len(text) {
		return false
	}
	next := text[i+1]
	return next != ' ' && next != '\t' && next != '\n' && next != text[i]
}

// findConstrainedClose finds the closing mark: preceded by non-space,
// followed by end of text or a non-word character.
func findConstrainedClose(text string, from int, mark byte) int {
	for j := from; j < len(text); j++ {
		if text[j] != mark {
			continue
		}
		prev := text[j-1]
		if prev == ' ' || prev == '\t' || prev == '\n' || prev == mark {
			continue
		}
		if j+1 < len(text) && (isWordByte(text[j+1]) || text[j+1] == mark) {
			continue
		}
		return j
	}
	return -1
}

func (s *inlineScanner) tryMark(mark byte, build func([]Inline) Inline) {
	text := s.text

	// Unconstrained double marks match anywhere.
	if s.i+1 < len(text) && text[s.i+1] == mark {
		double := text[s.i : s.i+2]
		if end := strings.Index(text[s.i+2:], double); end >= 0 {
			inner := text[s.i+2 : s.i+2+end]
			s.emit(build(s.markChildren(mark, inner)), s.i+2+end+2)
			return
		}
		s.i += 2
		return
	}

	if canOpenConstrained(text, s.i) {
		if end := findConstrainedClose(text, s.i+1, mark); end >= 0 {
			inner := text[s.i+1 : end]
			s.emit(build(s.markChildren(mark, inner)), end+1)
			return
		}
	}
	s.i++
}

// markChildren parses span content. Monospace content stays literal;
// bold and italic nest.
func (s *inlineScanner) markChildren(mark byte, inner string) []Inline {
	if mark == '`' {
		return []Inline{&Text{Value: s.resolve(inner)}}
	}
	return s.scanInlines(inner)
}

// trySupSub matches "^sup^" and "~sub~". Unlike the constrained
// marks these match inside words (x^2^), but the span content may
// not contain whitespace.
func (s *inlineScanner) trySupSub(mark byte, build func([]Inline) Inline) {
	text := s.text
	end := strings.IndexByte(text[s.i+1:], mark)
	if end <= 0 || strings.ContainsAny(text[s.i+1:s.i+1+end], " \t\n") {
		s.i++
		return
	}
	s.emit(build(s.scanInlines(text[s.i+1:s.i+1+end])), s.i+1+end+1)
}

// tryCrossRef matches "<<target>>" and "<<target,text>>".
func (s *inlineScanner) tryCrossRef() bool {
	text := s.text
	if s.i+1 >= len(text) || text[s.i+1] != '<' {
		return false
	}
	end := strings.Index(text[s.i+2:], ">>")
	if end < 0 {
		return false
	}
	inner := text[s.i+2 : s.i+2+end]
	if inner == "" || strings.Contains(inner, "<<") {
		return false
	}
	target, label, _ := strings.Cut(inner, ",")
	s.emit(&CrossRef{
		Target: strings.TrimSpace(target),
		Text:   strings.TrimSpace(s.resolve(label)),
	}, s.i+2+end+2)
	return true
}

// tryInlineAnchor matches "[[id]]" and "[[id,reftext]]".
func (s *inlineScanner) tryInlineAnchor() bool {
	text := s.text
	if s.i+1 >= len(text) || text[s.i+1] != '[' {
		return false
	}
	end := strings.Index(text[s.i+2:], "]]")
	if end < 0 {
		return false
	}
	inner := text[s.i+2 : s.i+2+end]
	id, reftext, _ := strings.Cut(inner, ",")
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, "[] \n") {
		return false
	}
	reftext = strings.TrimSpace(reftext)
	id = s.p.assignID(id, reftext, reftext, s.pos)
	s.emit(&InlineAnchor{ID: id}, s.i+2+end+2)
	return true
}

// tryLineBreak matches a " +" at the end of a source line.
func (s *inlineScanner) tryLineBreak() bool {
	text := s.text
	if s.i == 0 || text[s.i-1] != ' ' {
		return false
	}
	if s.i+1 < len(text) && text[s.i+1] != '\n' {
		return false
	}
	s.flushTo(s.i - 1)
	s.out = append(s.out, &LineBreak{})
	s.i++
	if s.i < len(text) && text[s.i] == '\n' {
		s.i++
	}
	s.start = s.i
	return true
}

func (s *inlineScanner) flushPlaceholder() {
	text := s.text
	end := strings.IndexByte(text[s.i+1:], placeholderMark)
	if end < 0 {
		s.i++
		return
	}
	next := s.i + 1 + end + 1
	literal := s.resolve(text[s.i:next])
	s.flush()
	s.out = append(s.out, &Text{Value: literal})
	s.i = next
	s.start = next
}

// inline macro and autolink prefixes, checked at word boundaries.
func (s *inlineScanner) tryMacro() bool {
	text := s.text
	if s.i > 0 && isWordByte(text[s.i-1]) {
		return false
	}
	rest := text[s.i:]

	switch {
	case strings.HasPrefix(rest, "https://"), strings.HasPrefix(rest, "http://"):
		return s.scanURL()
	case strings.HasPrefix(rest, "link:"):
		return s.scanBracketMacro("link:", func(target, inner string) Inline {
			return &Link{Target: target, Text: s.linkText(inner, target)}
		})
	case strings.HasPrefix(rest, "xref:"):
		return s.scanBracketMacro("xref:", func(target, inner string) Inline {
			return &CrossRef{Target: target, Text: strings.TrimSpace(s.resolve(inner))}
		})
	case strings.HasPrefix(rest, "image:") && !strings.HasPrefix(rest, "image::"):
		return s.scanBracketMacro("image:", func(target, inner string) Inline {
			alt := inner
			if parts := splitAttrList(inner); len(parts) > 0 {
				alt = unquoteAttr(parts[0])
			}
			return &InlineImage{Target: target, Alt: s.resolve(alt)}
		})
	}
	return false
}

func (s *inlineScanner) linkText(inner, target string) []Inline {
	inner = strings.TrimSpace(inner)
	// Window/role suffixes like [text^] keep only the text.
	inner = strings.TrimSuffix(inner, "^")
	if inner == "" {
		return nil
	}
	// Commas only separate attributes when named attributes are
	// present; "link:u[Hello, world]" keeps the whole text.
	if strings.Contains(inner, "=") {
		if parts := splitAttrList(inner); len(parts) > 0 {
			inner = unquoteAttr(parts[0])
		}
	} else {
		inner = unquoteAttr(inner)
	}
	if inner == "" {
		return nil
	}
	return s.scanInlines(inner)
}

// scanURL consumes a bare URL, with optional [text] suffix.
func (s *inlineScanner) scanURL() bool {
	text := s.text
	j := s.i
	for j < len(text) && !isURLStop(text[j]) {
		j++
	}
	if j < len(text) && text[j] == '[' {
		end := strings.IndexByte(text[j:], ']')
		if end >= 0 {
			target := text[s.i:j]
			inner := text[j+1 : j+end]
			s.emit(&Link{Target: target, Text: s.linkText(inner, target)}, j+end+1)
			return true
		}
	}

	// Trailing sentence punctuation stays outside the link.
	for j > s.i && strings.IndexByte(".,;:!?", text[j-1]) >= 0 {
		j--
	}
	target := text[s.i:j]
	if !strings.Contains(target, "://") || strings.HasSuffix(target, "://") {
		return false
	}
	s.emit(&Link{Target: target, Text: []Inline{&Text{Value: target}}}, j)
	return true
}

func isURLStop(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '[', ']', '<', '>', '"', '\'':
		return true
	}
	return false
}

// scanBracketMacro consumes "prefix target[inner]" macros.
func (s *inlineScanner) scanBracketMacro(prefix string, build func(target, inner string) Inline) bool {
	text := s.text
	start := s.i + len(prefix)
	open := start
	for open < len(text) && text[open] != '[' {
		if text[open] == ' ' || text[open] == '\t' || text[open] == '\n' {
			return false
		}
		open++
	}
	if open >= len(text) || open == start {
		return false
	}
	end := strings.IndexByte(text[open:], ']')
	if end < 0 {
		return false
	}
	target := s.resolve(text[start:open])
	inner := text[open+1 : open+end]
	s.emit(build(target, inner), open+end+1)
	return true
}
