// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package adoc

import (
	"strconv"
	"strings"

	"github.com/colophon-press/colophon/lib/diag"
)

// ParseOptions configures parsing of one document.
type ParseOptions struct {
	// Resolver loads include targets. Nil makes every include fail
	// with a diagnostic.
	Resolver Resolver

	// Attributes seeds the working attribute set, typically with the
	// site configuration and CLI overrides already locked in. Nil
	// means a fresh set.
	Attributes *AttributeSet

	// MaxIncludeDepth caps include nesting. Zero means
	// DefaultMaxIncludeDepth.
	MaxIncludeDepth int
}

// Parse preprocesses and parses one AsciiDoc file. The document is
// always non-nil: parsing is best-effort and problems land in the
// returned diagnostics instead of aborting.
func Parse(relpath string, source []byte, options ParseOptions) (*Document, *diag.List) {
	diags := &diag.List{}
	lines, attrs := Preprocess(relpath, source, PreprocessOptions{
		Resolver:   options.Resolver,
		Attributes: options.Attributes,
		MaxDepth:   options.MaxIncludeDepth,
	}, diags)

	p := &parser{
		lines:    lines,
		attrs:    attrs,
		diags:    diags,
		doc:      &Document{Attributes: attrs, Anchors: make(map[string]string)},
		idCounts: make(map[string]int),
		warned:   make(map[string]bool),
	}
	p.parseDocument()
	return p.doc, diags
}

type parser struct {
	lines []Line
	index int

	attrs *AttributeSet
	diags *diag.List
	doc   *Document

	// idCounts tracks how many times each base ID has been assigned,
	// for the -2/-3 dedup suffixes.
	idCounts map[string]int

	// warned dedups unresolved-attribute warnings per name.
	warned map[string]bool
}

// blockMeta is the pending metadata collected from the lines above a
// block: "[attrs]", ".Title", and "[[anchor]]".
type blockMeta struct {
	style      string
	id         string
	reftext    string
	title      string
	roles      []string
	options    []string
	named      map[string]string
	positional []string
}

func (m *blockMeta) hasOption(name string) bool {
	for _, option := range m.options {
		if option == name {
			return true
		}
	}
	return false
}

func (p *parser) atEnd() bool { return p.index >= len(p.lines) }

func (p *parser) current() Line { return p.lines[p.index] }

func (p *parser) pos() diag.Position {
	if p.atEnd() {
		if len(p.lines) == 0 {
			return diag.Position{}
		}
		return p.lines[len(p.lines)-1].Pos
	}
	return p.current().Pos
}

func (p *parser) parseDocument() {
	// Document title: the first content line when it is a level-0
	// heading.
	for !p.atEnd() && strings.TrimSpace(p.current().Text) == "" {
		p.index++
	}
	if !p.atEnd() {
		text := strings.TrimRight(p.current().Text, " \t")
		if level := headingLevel(text); level == 1 {
			p.doc.Title = strings.TrimSpace(text[1:])
			p.index++
		}
	}

	p.doc.Blocks = p.parseBlocks(0)
}

// parseBlocks parses blocks until EOF or a heading at or above the
// containing section level.
func (p *parser) parseBlocks(level int) []Block {
	var blocks []Block
	var meta blockMeta

	for !p.atEnd() {
		line := p.current()
		text := strings.TrimRight(line.Text, " \t")

		if strings.TrimSpace(text) == "" {
			// Blank lines end the metadata context: a title or
			// anchor separated from its block attaches to nothing.
			meta = blockMeta{}
			p.index++
			continue
		}

		// Metadata lines accumulate until the block they decorate.
		if id, reftext, ok := matchBlockAnchor(text); ok {
			meta.id, meta.reftext = id, reftext
			p.index++
			continue
		}
		if strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]") && !strings.HasPrefix(text, "[[") {
			p.parseBlockAttrLine(text[1:len(text)-1], &meta)
			p.index++
			continue
		}
		if title, ok := matchBlockTitle(text); ok {
			meta.title = title
			p.index++
			continue
		}

		// Headings either open a child section or close this one.
		if count := headingLevel(text); count > 1 {
			sectionLevel := count - 1
			if sectionLevel <= level {
				return blocks
			}
			if sectionLevel > level+1 {
				p.diags.Warnf(line.Pos, "section level %d skips level %d", sectionLevel, level+1)
			}
			blocks = append(blocks, p.parseSection(sectionLevel, text, line.Pos, &meta))
			meta = blockMeta{}
			continue
		}

		blocks = append(blocks, p.parseBlock(text, line.Pos, &meta)...)
		meta = blockMeta{}
	}

	return blocks
}

// parseBlock dispatches one non-heading block. It returns a slice
// because some inputs (an ignored macro) produce nothing.
func (p *parser) parseBlock(text string, pos diag.Position, meta *blockMeta) []Block {
	switch {
	case text == "'''":
		p.index++
		return []Block{&ThematicBreak{position: position{pos}}}

	case text == "<<<":
		// Page breaks have no meaning in HTML output.
		p.index++
		return nil

	case isTableFence(text):
		return []Block{p.parseTable(text, pos, meta)}

	case text == "--":
		return []Block{p.parseDelimited(text, pos, meta)}

	case verbatimFence(text) != 0:
		return []Block{p.parseDelimited(text, pos, meta)}

	case isContainerFence(text):
		return []Block{p.parseDelimited(text, pos, meta)}

	case isCalloutItemLine(text):
		return []Block{p.parseCalloutList(pos)}

	case isListItemLine(text):
		return []Block{p.parseList(pos)}
	}

	// Block macros before description lists: "image::pic.png[]" must
	// not read as the term "image".
	if name, target, attrlist, ok := matchBlockMacro(text); ok {
		switch name {
		case "image":
			p.index++
			return []Block{p.parseImageMacro(target, attrlist, pos, meta)}
		case "toc":
			// The table of contents comes from site configuration.
			p.index++
			return nil
		case "video", "audio":
			p.index++
			p.diags.Warnf(pos, "%s macro is not supported, skipping", name)
			return nil
		}
		// Unknown macros stay visible as paragraph text so the author
		// notices rather than losing content silently.
	}

	if isDescriptionItemLine(text) {
		return []Block{p.parseDescriptionList(pos)}
	}

	return []Block{p.parseParagraph(pos, meta)}
}

func (p *parser) parseSection(level int, text string, pos diag.Position, meta *blockMeta) *Section {
	p.index++
	count := level + 1
	titleText := strings.TrimSpace(text[count:])
	title := p.parseInlines(titleText, pos)

	explicit := meta.id
	section := &Section{
		position: position{pos},
		Level:    level,
		Title:    title,
		ID:       p.assignID(explicit, PlainText(title), meta.reftext, pos),
	}
	section.Blocks = p.parseBlocks(level)
	return section
}

// assignID returns a unique anchor ID, generating one from the title
// when no explicit ID is given and suffixing duplicates.
func (p *parser) assignID(explicit, plainTitle, reftext string, pos diag.Position) string {
	id := explicit
	if id == "" {
		id = p.generateID(plainTitle)
	}
	if id == "" {
		return ""
	}

	base := id
	p.idCounts[base]++
	if count := p.idCounts[base]; count > 1 {
		separator := p.idSeparator()
		id = base + separator + strconv.Itoa(count)
		// Guard against an explicit anchor already occupying the
		// suffixed form.
		for p.idCounts[id] > 0 {
			p.idCounts[base]++
			id = base + separator + strconv.Itoa(p.idCounts[base])
		}
		p.idCounts[id]++
		p.diags.Warnf(pos, "duplicate ID %q, renamed to %q", base, id)
	}

	display := reftext
	if display == "" {
		display = plainTitle
	}
	p.doc.Anchors[id] = display
	return id
}

func (p *parser) idSeparator() string {
	separator, ok := p.attrs.Get("idseparator")
	if !ok {
		separator = "_"
	}
	return separator
}

// generateID derives an anchor from a title: lowercase, word
// characters kept, everything else collapsed into the idseparator
// attribute, prefixed with idprefix.
func (p *parser) generateID(title string) string {
	prefix, ok := p.attrs.Get("idprefix")
	if !ok {
		prefix = "_"
	}
	separator := p.idSeparator()

	var out strings.Builder
	out.WriteString(prefix)
	pendingSeparator := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			if pendingSeparator && out.Len() > len(prefix) {
				out.WriteString(separator)
			}
			pendingSeparator = false
			out.WriteRune(r)
		case r > 127:
			// Non-ASCII letters pass through; the anchors stay
			// readable for localized headings.
			if pendingSeparator && out.Len() > len(prefix) {
				out.WriteString(separator)
			}
			pendingSeparator = false
			out.WriteRune(r)
		default:
			pendingSeparator = true
		}
	}
	return out.String()
}

// parseBlockAttrLine fills meta from the inside of a "[...]" line.
func (p *parser) parseBlockAttrLine(attrlist string, meta *blockMeta) {
	parts := splitAttrList(attrlist)
	if meta.named == nil {
		meta.named = make(map[string]string)
	}

	for i, part := range parts {
		if part == "" {
			continue
		}
		if key, value, found := strings.Cut(part, "="); found && isValidAttributeName(strings.TrimSpace(key)) {
			key = strings.TrimSpace(key)
			value = unquoteAttr(strings.TrimSpace(value))
			if key == "options" || key == "opts" {
				for _, option := range strings.Split(value, ",") {
					if option = strings.TrimSpace(option); option != "" {
						meta.options = append(meta.options, option)
					}
				}
				continue
			}
			meta.named[key] = value
			continue
		}

		if i == 0 {
			p.parseFirstPositional(part, meta)
			continue
		}
		meta.positional = append(meta.positional, unquoteAttr(part))
	}
}

// parseFirstPositional splits the style shorthand: style, then any
// number of #id, .role, and %option suffixes.
func (p *parser) parseFirstPositional(part string, meta *blockMeta) {
	start := 0
	kind := byte(0)
	flush := func(end int) {
		segment := part[start:end]
		switch kind {
		case 0:
			meta.style = segment
		case '#':
			meta.id = segment
		case '.':
			if segment != "" {
				meta.roles = append(meta.roles, segment)
			}
		case '%':
			if segment != "" {
				meta.options = append(meta.options, segment)
			}
		}
	}
	for i := 0; i < len(part); i++ {
		c := part[i]
		if c == '#' || c == '.' || c == '%' {
			flush(i)
			kind = c
			start = i + 1
		}
	}
	flush(len(part))
}

// matchBlockAnchor matches "[[id]]" and "[[id,reftext]]" lines.
func matchBlockAnchor(text string) (id, reftext string, ok bool) {
	if !strings.HasPrefix(text, "[[") || !strings.HasSuffix(text, "]]") || len(text) < 5 {
		return "", "", false
	}
	inner := text[2 : len(text)-2]
	id, reftext, _ = strings.Cut(inner, ",")
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, "[] ") {
		return "", "", false
	}
	return id, strings.TrimSpace(reftext), true
}

// matchBlockTitle matches ".Title" lines. A single dot followed by
// anything that is not whitespace or another dot.
func matchBlockTitle(text string) (string, bool) {
	if len(text) < 2 || text[0] != '.' {
		return "", false
	}
	if text[1] == '.' || text[1] == ' ' || text[1] == '\t' {
		return "", false
	}
	return text[1:], true
}

// matchBlockMacro matches "name::target[attrlist]" block macros.
func matchBlockMacro(text string) (name, target, attrlist string, ok bool) {
	sep := strings.Index(text, "::")
	if sep <= 0 || !strings.HasSuffix(text, "]") {
		return "", "", "", false
	}
	name = text[:sep]
	for i := 0; i < len(name); i++ {
		if name[i] < 'a' || name[i] > 'z' {
			return "", "", "", false
		}
	}
	rest := text[sep+2:]
	open := strings.IndexByte(rest, '[')
	if open < 0 {
		return "", "", "", false
	}
	target = rest[:open]
	if strings.ContainsAny(target, " \t") {
		return "", "", "", false
	}
	return name, target, rest[open+1 : len(rest)-1], true
}

func (p *parser) parseImageMacro(target, attrlist string, pos diag.Position, meta *blockMeta) *Image {
	image := &Image{
		position: position{pos},
		Target:   target,
		Title:    meta.title,
	}
	parts := splitAttrList(attrlist)
	positional := 0
	for _, part := range parts {
		if key, value, found := strings.Cut(part, "="); found && isValidAttributeName(strings.TrimSpace(key)) {
			value = unquoteAttr(strings.TrimSpace(value))
			switch strings.TrimSpace(key) {
			case "alt":
				image.Alt = value
			case "width":
				image.Width = value
			case "height":
				image.Height = value
			case "title":
				image.Title = value
			}
			continue
		}
		positional++
		switch positional {
		case 1:
			image.Alt = unquoteAttr(part)
		case 2:
			image.Width = unquoteAttr(part)
		case 3:
			image.Height = unquoteAttr(part)
		}
	}
	if image.Alt == "" {
		base := target
		if slash := strings.LastIndexByte(base, '/'); slash >= 0 {
			base = base[slash+1:]
		}
		if dot := strings.LastIndexByte(base, '.'); dot > 0 {
			base = base[:dot]
		}
		image.Alt = base
	}
	return image
}

// admonitionKinds maps the uppercase labels of paragraph admonitions
// and the style names of block admonitions.
var admonitionKinds = map[string]AdmonitionKind{
	"NOTE":      AdmonitionNote,
	"TIP":       AdmonitionTip,
	"IMPORTANT": AdmonitionImportant,
	"WARNING":   AdmonitionWarning,
	"CAUTION":   AdmonitionCaution,
}

func (p *parser) parseParagraph(pos diag.Position, meta *blockMeta) Block {
	var lines []string
	for !p.atEnd() {
		// Trailing whitespace goes, but a " +" hard-break marker
		// survives the trim for the inline parser to find.
		text := strings.TrimRight(p.current().Text, " \t")
		if strings.TrimSpace(text) == "" {
			break
		}
		// A fence or list marker directly below a paragraph starts a
		// new block.
		if len(lines) > 0 && paragraphInterrupt(text) {
			break
		}
		lines = append(lines, text)
		p.index++
	}

	content := strings.Join(lines, "\n")

	// "NOTE: text" admonition paragraphs.
	if label, rest, found := strings.Cut(content, ": "); found {
		if kind, ok := admonitionKinds[label]; ok {
			return &Admonition{
				position: position{pos},
				Kind:     kind,
				Title:    meta.title,
				Blocks: []Block{&Paragraph{
					position: position{pos},
					Content:  p.parseInlines(rest, pos),
				}},
			}
		}
	}

	paragraph := &Paragraph{
		position: position{pos},
		Content:  p.parseInlines(content, pos),
	}

	// "[NOTE]" above a plain paragraph.
	if kind, ok := admonitionKinds[meta.style]; ok {
		return &Admonition{
			position: position{pos},
			Kind:     kind,
			Title:    meta.title,
			Blocks:   []Block{paragraph},
		}
	}

	return paragraph
}

// paragraphInterrupt reports whether a line cannot be a paragraph
// continuation.
func paragraphInterrupt(text string) bool {
	if verbatimFence(text) != 0 || isContainerFence(text) || isTableFence(text) || text == "--" {
		return true
	}
	if isListItemLine(text) || isCalloutItemLine(text) {
		return true
	}
	if headingLevel(text) > 0 {
		return true
	}
	return false
}

// isContainerFence matches example (====), quote (____), and sidebar
// (****) delimiters.
func isContainerFence(text string) bool {
	if len(text) < 4 {
		return false
	}
	c := text[0]
	if c != '=' && c != '_' && c != '*' {
		return false
	}
	for i := 1; i < len(text); i++ {
		if text[i] != c {
			return false
		}
	}
	return true
}

func isTableFence(text string) bool {
	return text == "|==="
}

// parseDelimited parses any fenced block: verbatim, passthrough,
// container, or open block.
func (p *parser) parseDelimited(fence string, pos diag.Position, meta *blockMeta) Block {
	p.index++
	var inner []Line
	closed := false
	for !p.atEnd() {
		text := strings.TrimRight(p.current().Text, " \t")
		if fenceMatches(fence, text) {
			p.index++
			closed = true
			break
		}
		inner = append(inner, p.current())
		p.index++
	}
	if !closed {
		p.diags.Errorf(pos, "unterminated %q block", fence)
	}

	switch fence[0] {
	case '-':
		if fence == "--" {
			return p.parseContainer(inner, pos, meta, containerOpen)
		}
		return p.parseVerbatimBlock(inner, pos, meta, VerbatimListing)
	case '.':
		return p.parseVerbatimBlock(inner, pos, meta, VerbatimLiteral)
	case '+':
		return &Passthrough{position: position{pos}, Lines: rawTexts(inner)}
	case '=':
		return p.parseContainer(inner, pos, meta, containerExample)
	case '_':
		return p.parseContainer(inner, pos, meta, containerQuote)
	case '*':
		return p.parseContainer(inner, pos, meta, containerSidebar)
	}
	return &Paragraph{position: position{pos}}
}

// fenceMatches reports whether text closes the given opening fence:
// same character, and at least four long (or exactly "--" for open
// blocks).
func fenceMatches(fence, text string) bool {
	if fence == "--" {
		return text == "--"
	}
	if len(text) < 4 || text[0] != fence[0] {
		return false
	}
	for i := 1; i < len(text); i++ {
		if text[i] != text[0] {
			return false
		}
	}
	return true
}

func rawTexts(lines []Line) []string {
	texts := make([]string, len(lines))
	for i, line := range lines {
		texts[i] = line.Text
	}
	return texts
}

func (p *parser) parseVerbatimBlock(inner []Line, pos diag.Position, meta *blockMeta, style VerbatimStyle) Block {
	language := ""
	if meta.style == "source" || style == VerbatimListing {
		if len(meta.positional) > 0 {
			language = meta.positional[0]
		} else if meta.style != "" && meta.style != "source" && meta.style != "listing" {
			// "[yaml]" shorthand used instead of "[source,yaml]".
			language = meta.style
		}
		if language == "" {
			language, _ = p.attrs.Get("source-language")
		}
	}

	verbatim := &Verbatim{
		position: position{pos},
		Style:    style,
		Language: language,
		Title:    meta.title,
		ID:       meta.id,
	}
	if meta.id != "" {
		p.assignID(meta.id, meta.title, meta.reftext, pos)
	}

	for i, line := range inner {
		text, callouts := extractCallouts(line.Text)
		verbatim.Lines = append(verbatim.Lines, text)
		for _, number := range callouts {
			verbatim.Callouts = append(verbatim.Callouts, Callout{Line: i, Number: number})
		}
	}
	if style == VerbatimLiteral {
		// Literal blocks render text exactly; callout extraction only
		// applies to listings.
		verbatim.Lines = rawTexts(inner)
		verbatim.Callouts = nil
	}
	return verbatim
}

// extractCallouts strips trailing "<1>" markers from a listing line.
// Markers may be preceded by a line comment ("// <1>" keeps the
// comment text) and several may stack ("<1> <2>").
func extractCallouts(text string) (string, []int) {
	var callouts []int
	rest := strings.TrimRight(text, " \t")
	for {
		end := len(rest)
		if end < 3 || rest[end-1] != '>' {
			break
		}
		open := strings.LastIndexByte(rest, '<')
		if open < 0 || open+1 >= end-1 {
			break
		}
		number, err := strconv.Atoi(rest[open+1 : end-1])
		if err != nil || number <= 0 {
			break
		}
		callouts = append([]int{number}, callouts...)
		rest = strings.TrimRight(rest[:open], " ")
	}
	if len(callouts) == 0 {
		return text, nil
	}
	return rest, callouts
}

type containerKind int

const (
	containerExample containerKind = iota
	containerQuote
	containerSidebar
	containerOpen
)

func (p *parser) parseContainer(inner []Line, pos diag.Position, meta *blockMeta, kind containerKind) Block {
	// Admonition style turns any container into an admonition box.
	if admonition, ok := admonitionKinds[meta.style]; ok {
		return &Admonition{
			position: position{pos},
			Kind:     admonition,
			Title:    meta.title,
			Blocks:   p.parseInner(inner),
		}
	}

	switch kind {
	case containerQuote:
		quote := &Quote{position: position{pos}, Blocks: p.parseInner(inner)}
		if len(meta.positional) > 0 {
			quote.Attribution = meta.positional[0]
		}
		if len(meta.positional) > 1 {
			quote.Citation = meta.positional[1]
		}
		return quote
	case containerSidebar:
		return &Sidebar{position: position{pos}, Title: meta.title, Blocks: p.parseInner(inner)}
	case containerOpen:
		return &Open{position: position{pos}, Title: meta.title, Blocks: p.parseInner(inner)}
	default:
		example := &Example{position: position{pos}, Title: meta.title, Blocks: p.parseInner(inner)}
		if meta.id != "" {
			example.ID = p.assignID(meta.id, meta.title, meta.reftext, pos)
		}
		return example
	}
}

// parseInner runs a child parse over the lines of a container block,
// sharing the attribute set, anchors, and diagnostics.
func (p *parser) parseInner(inner []Line) []Block {
	child := &parser{
		lines:    inner,
		attrs:    p.attrs,
		diags:    p.diags,
		doc:      p.doc,
		idCounts: p.idCounts,
		warned:   p.warned,
	}
	return child.parseBlocks(0)
}

func (p *parser) parseCalloutList(pos diag.Position) *CalloutList {
	list := &CalloutList{position: position{pos}}
	for !p.atEnd() {
		text := strings.TrimRight(p.current().Text, " \t")
		number, rest, ok := matchCalloutItem(text)
		if !ok {
			break
		}
		itemPos := p.current().Pos
		p.index++

		// Wrapped explanation lines belong to the current item.
		for !p.atEnd() {
			next := strings.TrimRight(p.current().Text, " \t")
			if strings.TrimSpace(next) == "" || isCalloutItemLine(next) || paragraphInterrupt(next) {
				break
			}
			rest += "\n" + next
			p.index++
		}

		list.Items = append(list.Items, CalloutItem{
			Number: number,
			Text:   p.parseInlines(rest, itemPos),
		})
	}
	return list
}

func isCalloutItemLine(text string) bool {
	_, _, ok := matchCalloutItem(text)
	return ok
}

func matchCalloutItem(text string) (int, string, bool) {
	if len(text) < 4 || text[0] != '<' {
		return 0, "", false
	}
	close := strings.IndexByte(text, '>')
	if close < 2 || close+1 >= len(text) || text[close+1] != ' ' {
		return 0, "", false
	}
	number, err := strconv.Atoi(text[1:close])
	if err != nil || number <= 0 {
		return 0, "", false
	}
	return number, strings.TrimSpace(text[close+1:]), true
}
