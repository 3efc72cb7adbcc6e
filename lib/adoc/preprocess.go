// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package adoc

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/colophon-press/colophon/lib/diag"
)

// DefaultMaxIncludeDepth caps include nesting. Deep chains are almost
// always an undetected cycle through attribute-expanded targets.
const DefaultMaxIncludeDepth = 64

// Line is one line of preprocessed source. Pos identifies the file
// and line the text originally came from, across include boundaries.
type Line struct {
	Text string
	Pos  diag.Position
}

// Resolver supplies the bytes of include targets. Paths are
// slash-separated, relative to the content root, already cleaned and
// joined against the including file's directory.
type Resolver interface {
	ReadInclude(path string) ([]byte, error)
}

// DirResolver resolves include targets against a root directory and
// rejects targets that escape it.
type DirResolver struct {
	Root string
}

// ReadInclude implements Resolver.
func (r DirResolver) ReadInclude(relpath string) ([]byte, error) {
	clean := path.Clean(relpath)
	if clean == ".." || strings.HasPrefix(clean, "../") || path.IsAbs(clean) {
		return nil, fmt.Errorf("include target %q escapes the content root", relpath)
	}
	return os.ReadFile(filepath.Join(r.Root, filepath.FromSlash(clean)))
}

// PreprocessOptions configures include expansion.
type PreprocessOptions struct {
	// Resolver loads include targets. When nil, every include
	// directive produces an error diagnostic and its placeholder
	// paragraph.
	Resolver Resolver

	// Attributes is the working attribute set. Entries found in the
	// source are applied to it in document order. When nil, a fresh
	// set is created.
	Attributes *AttributeSet

	// MaxDepth caps include nesting. Zero means
	// DefaultMaxIncludeDepth.
	MaxDepth int
}

// Preprocess expands the source of the file at relpath into a flat
// line sequence: include directives are resolved, ifdef/ifndef
// conditionals evaluated, attribute entries consumed into the working
// set, and comments stripped. Problems are reported into diags; the
// returned lines are always usable.
func Preprocess(relpath string, source []byte, options PreprocessOptions, diags *diag.List) ([]Line, *AttributeSet) {
	attrs := options.Attributes
	if attrs == nil {
		attrs = NewAttributeSet()
	}
	maxDepth := options.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxIncludeDepth
	}

	p := &preprocessor{
		resolver: options.Resolver,
		attrs:    attrs,
		maxDepth: maxDepth,
		diags:    diags,
	}

	p.expand(relpath, splitLines(string(source)), -1)

	for range p.conditions {
		p.diags.Errorf(diag.Position{File: relpath}, "ifdef/ifndef without matching endif")
	}

	return p.out, attrs
}

type preprocessor struct {
	resolver Resolver
	attrs    *AttributeSet
	maxDepth int
	diags    *diag.List
	out      []Line

	// stack holds the chain of files being expanded, for cycle
	// detection and the error message that names it.
	stack []string

	// conditions is the ifdef/ifndef nesting. Content is suppressed
	// while any frame is false.
	conditions []bool

	// verbatim and comment track delimited listing/literal/passthrough
	// blocks and //// comment blocks. Both span include boundaries:
	// the classic snippet pattern opens a listing in the including
	// file and fills it from the included one.
	verbatim string
	comment  bool
}

// numberedLine pairs raw text with its 1-based source line.
type numberedLine struct {
	text string
	num  int
}

func splitLines(source string) []numberedLine {
	raw := strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n")
	// A trailing newline produces one empty trailing element; drop it
	// so files with and without final newlines parse identically.
	if len(raw) > 0 && raw[len(raw)-1] == "" {
		raw = raw[:len(raw)-1]
	}
	lines := make([]numberedLine, len(raw))
	for i, text := range raw {
		lines[i] = numberedLine{text: text, num: i + 1}
	}
	return lines
}

func (p *preprocessor) suppressed() bool {
	for _, active := range p.conditions {
		if !active {
			return true
		}
	}
	return false
}

func (p *preprocessor) expand(file string, lines []numberedLine, indent int) {
	p.stack = append(p.stack, file)
	defer func() { p.stack = p.stack[:len(p.stack)-1] }()

	start := len(p.out)
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		pos := diag.Position{File: file, Line: line.num}

		// Attribute entry continuation: a value ending in " \" pulls
		// the next line into the same entry.
		if !p.comment && p.verbatim == "" && !p.suppressed() && isAttributeEntry(line.text) {
			text := line.text
			for strings.HasSuffix(text, " \\") && i+1 < len(lines) {
				i++
				text = strings.TrimSuffix(text, " \\") + " " + strings.TrimSpace(lines[i].text)
			}
			p.handleLine(text, pos)
			continue
		}

		p.handleLine(line.text, pos)
	}

	if indent >= 0 {
		reindent(p.out[start:], indent)
	}
}

// handleLine routes one line through directive handling or emits it.
func (p *preprocessor) handleLine(text string, pos diag.Position) {
	trimmed := strings.TrimRight(text, " \t")

	// Block comments hide everything, directives included. Inside a
	// verbatim block a //// line is content, not a fence.
	if p.comment {
		if isCommentFence(trimmed) {
			p.comment = false
		}
		return
	}
	if p.verbatim == "" && isCommentFence(trimmed) {
		p.comment = true
		return
	}

	// Conditional directives are evaluated even inside verbatim
	// blocks; the preprocessor is a pure line filter.
	if directive, rest, ok := matchConditional(trimmed); ok {
		p.handleConditional(directive, rest, pos)
		return
	}
	if p.suppressed() {
		return
	}

	if target, attrlist, ok := matchInclude(trimmed); ok {
		p.handleInclude(target, attrlist, pos)
		return
	}

	// Escaped directives pass through with the backslash removed.
	if strings.HasPrefix(trimmed, `\include::`) || strings.HasPrefix(trimmed, `\ifdef::`) ||
		strings.HasPrefix(trimmed, `\ifndef::`) || strings.HasPrefix(trimmed, `\endif::`) {
		p.emit(text[1:], pos)
		return
	}

	if fence := verbatimFence(trimmed); fence != 0 {
		switch {
		case p.verbatim == "":
			p.verbatim = trimmed
		case p.verbatim[0] == trimmed[0]:
			p.verbatim = ""
		}
		p.emit(text, pos)
		return
	}

	if p.verbatim == "" {
		// Line comments never reach the parser.
		if strings.HasPrefix(trimmed, "//") && !isCommentFence(trimmed) {
			return
		}
		if name, value, unset, ok := parseAttributeEntry(trimmed); ok {
			if unset {
				p.attrs.Unset(name)
				return
			}
			substituted, unresolved := p.attrs.Substitute(value)
			for _, missing := range unresolved {
				p.diags.Warnf(pos, "attribute entry %q references undefined attribute %q", name, missing)
			}
			p.attrs.Set(name, substituted)
			return
		}
	}

	p.emit(text, pos)
}

func (p *preprocessor) emit(text string, pos diag.Position) {
	p.out = append(p.out, Line{Text: text, Pos: pos})
}

// handleConditional evaluates ifdef/ifndef/endif. The single-line
// form, with content inside the brackets, emits the content when the
// condition holds instead of opening a region.
func (p *preprocessor) handleConditional(directive, rest string, pos diag.Position) {
	open := strings.IndexByte(rest, '[')
	if open < 0 || !strings.HasSuffix(rest, "]") {
		p.diags.Errorf(pos, "malformed %s directive", directive)
		return
	}
	names := rest[:open]
	content := rest[open+1 : len(rest)-1]

	if directive == "endif" {
		if len(p.conditions) == 0 {
			p.diags.Errorf(pos, "endif without matching ifdef/ifndef")
			return
		}
		p.conditions = p.conditions[:len(p.conditions)-1]
		return
	}

	result := p.evalCondition(names)
	if directive == "ifndef" {
		result = !result
	}

	if content != "" {
		// Single-line form: emit the bracketed content when the
		// condition holds, suppression state permitting.
		if result && !p.suppressed() {
			p.handleLine(content, pos)
		}
		return
	}

	p.conditions = append(p.conditions, result)
}

// evalCondition evaluates the attribute name list of an ifdef:
// "a,b" is any-of, "a+b" is all-of, a single name is itself.
func (p *preprocessor) evalCondition(names string) bool {
	if strings.Contains(names, "+") {
		for _, name := range strings.Split(names, "+") {
			if !p.attrs.IsSet(name) {
				return false
			}
		}
		return true
	}
	for _, name := range strings.Split(names, ",") {
		if p.attrs.IsSet(name) {
			return true
		}
	}
	return false
}

func (p *preprocessor) handleInclude(target, attrlist string, pos diag.Position) {
	substituted, unresolved := p.attrs.Substitute(target)
	if len(unresolved) > 0 {
		p.diags.Errorf(pos, "include target %q references undefined attribute %q", target, unresolved[0])
		p.emitUnresolved(target, pos)
		return
	}
	target = substituted

	resolved := path.Clean(target)
	if dir := path.Dir(pos.File); dir != "." && !path.IsAbs(target) {
		resolved = path.Join(dir, target)
	}

	for _, ancestor := range p.stack {
		if ancestor == resolved {
			p.diags.Errorf(pos, "include cycle: %s", strings.Join(append(p.stack, resolved), " -> "))
			p.emitUnresolved(target, pos)
			return
		}
	}
	if len(p.stack) >= p.maxDepth {
		p.diags.Errorf(pos, "include nesting exceeds %d levels at %q", p.maxDepth, target)
		p.emitUnresolved(target, pos)
		return
	}

	if p.resolver == nil {
		p.diags.Errorf(pos, "include directive for %q but no include resolver configured", target)
		p.emitUnresolved(target, pos)
		return
	}

	source, err := p.resolver.ReadInclude(resolved)
	if err != nil {
		p.diags.Errorf(pos, "include resolves to missing file %q: %v", target, err)
		p.emitUnresolved(target, pos)
		return
	}

	params, err := parseIncludeParams(attrlist)
	if err != nil {
		p.diags.Errorf(pos, "include %q: %v", target, err)
		p.emitUnresolved(target, pos)
		return
	}

	lines := splitLines(string(source))
	if params.lineRanges != nil {
		lines = filterLineRanges(lines, params.lineRanges)
	}
	if params.tags != nil {
		lines = p.filterTags(lines, params.tags, params.tagDefault, resolved)
	}
	if params.levelOffset != 0 {
		lines = shiftHeadings(lines, params.levelOffset)
	}

	p.expand(resolved, lines, params.indent)
}

// emitUnresolved writes the placeholder paragraph that marks a failed
// include in rendered output.
func (p *preprocessor) emitUnresolved(target string, pos diag.Position) {
	p.emit(fmt.Sprintf("Unresolved directive in %s - include::%s[]", pos.File, target), pos)
}

// includeParams are the recognized include directive attributes.
type includeParams struct {
	tags        map[string]bool
	tagDefault  bool
	lineRanges  [][2]int
	levelOffset int
	indent      int // -1 when absent
}

func parseIncludeParams(attrlist string) (includeParams, error) {
	params := includeParams{indent: -1}
	for _, part := range splitAttrList(attrlist) {
		key, value, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = unquoteAttr(strings.TrimSpace(value))
		switch key {
		case "tag":
			params.tags = map[string]bool{value: true}
		case "tags":
			params.tags = make(map[string]bool)
			for _, name := range strings.Split(value, ";") {
				name = strings.TrimSpace(name)
				switch {
				case name == "":
				case name == "**" || name == "*":
					params.tagDefault = true
				case strings.HasPrefix(name, "!"):
					params.tags[name[1:]] = false
				default:
					params.tags[name] = true
				}
			}
			// An exclusion-only list means "everything except".
			onlyExclusions := !params.tagDefault
			for _, include := range params.tags {
				if include {
					onlyExclusions = false
					break
				}
			}
			if onlyExclusions {
				params.tagDefault = true
			}
		case "lines":
			ranges, err := parseLineRanges(value)
			if err != nil {
				return params, err
			}
			params.lineRanges = ranges
		case "leveloffset":
			offset, err := parseLevelOffset(value)
			if err != nil {
				return params, err
			}
			params.levelOffset = offset
		case "indent":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return params, fmt.Errorf("invalid indent %q", value)
			}
			params.indent = n
		}
	}
	return params, nil
}

// parseLineRanges parses "1..10;15;20..-1" into inclusive 1-based
// ranges. -1 as an end means end-of-file.
func parseLineRanges(value string) ([][2]int, error) {
	var ranges [][2]int
	for _, segment := range strings.FieldsFunc(value, func(r rune) bool { return r == ';' || r == ',' }) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		first, last, isRange := strings.Cut(segment, "..")
		start, err := strconv.Atoi(first)
		if err != nil {
			return nil, fmt.Errorf("invalid lines range %q", segment)
		}
		end := start
		if isRange {
			end, err = strconv.Atoi(last)
			if err != nil {
				return nil, fmt.Errorf("invalid lines range %q", segment)
			}
		}
		ranges = append(ranges, [2]int{start, end})
	}
	return ranges, nil
}

func parseLevelOffset(value string) (int, error) {
	// Only the relative forms (+n, -n) shift headings; a bare number
	// is treated as relative too, which is what every include in the
	// wild means by it.
	offset, err := strconv.Atoi(strings.TrimPrefix(value, "+"))
	if err != nil {
		return 0, fmt.Errorf("invalid leveloffset %q", value)
	}
	return offset, nil
}

func filterLineRanges(lines []numberedLine, ranges [][2]int) []numberedLine {
	var kept []numberedLine
	for _, line := range lines {
		for _, r := range ranges {
			end := r[1]
			if end == -1 {
				end = len(lines)
			}
			if line.num >= r[0] && line.num <= end {
				kept = append(kept, line)
				break
			}
		}
	}
	return kept
}

// filterTags keeps the lines inside requested tag::name[] regions.
// includeDefault decides the fate of lines outside any tagged region
// (true for wildcard and exclusion-only tag lists). Tag directive
// lines themselves are always dropped when filtering.
func (p *preprocessor) filterTags(lines []numberedLine, tags map[string]bool, includeDefault bool, file string) []numberedLine {
	type frame struct {
		name     string
		included bool
	}

	var kept []numberedLine
	var stack []frame
	current := func() bool {
		if len(stack) == 0 {
			return includeDefault
		}
		return stack[len(stack)-1].included
	}

	for _, line := range lines {
		if name, ok := matchTagDirective(line.text, "tag"); ok {
			included, explicit := tags[name]
			if !explicit {
				included = current()
			}
			stack = append(stack, frame{name: name, included: included})
			continue
		}
		if name, ok := matchTagDirective(line.text, "end"); ok {
			if len(stack) == 0 || stack[len(stack)-1].name != name {
				p.diags.Warnf(diag.Position{File: file, Line: line.num},
					"mismatched end::%s[] tag directive", name)
				continue
			}
			stack = stack[:len(stack)-1]
			continue
		}
		if current() {
			kept = append(kept, line)
		}
	}

	for _, open := range stack {
		p.diags.Warnf(diag.Position{File: file},
			"tag::%s[] without matching end::%s[]", open.name, open.name)
	}
	return kept
}

// matchTagDirective finds "tag::name[]" or "end::name[]" anywhere in
// the line, which is how the markers hide behind source comments.
func matchTagDirective(text, directive string) (string, bool) {
	marker := directive + "::"
	index := strings.Index(text, marker)
	if index < 0 {
		return "", false
	}
	rest := text[index+len(marker):]
	close := strings.Index(rest, "[]")
	if close <= 0 {
		return "", false
	}
	name := rest[:close]
	if strings.ContainsAny(name, " \t[]") {
		return "", false
	}
	return name, true
}

func shiftHeadings(lines []numberedLine, offset int) []numberedLine {
	shifted := make([]numberedLine, len(lines))
	verbatim := ""
	for i, line := range lines {
		shifted[i] = line
		trimmed := strings.TrimRight(line.text, " \t")
		if verbatimFence(trimmed) != 0 {
			switch {
			case verbatim == "":
				verbatim = trimmed
			case verbatim[0] == trimmed[0]:
				verbatim = ""
			}
			continue
		}
		if verbatim != "" {
			continue
		}
		level := headingLevel(trimmed)
		if level == 0 {
			continue
		}
		adjusted := level + offset
		if adjusted < 1 {
			adjusted = 1
		}
		if adjusted > 6 {
			adjusted = 6
		}
		shifted[i].text = strings.Repeat("=", adjusted) + trimmed[level:]
	}
	return shifted
}

// headingLevel returns the number of leading "=" markers of a section
// line, or 0 when the line is not a heading.
func headingLevel(text string) int {
	count := 0
	for count < len(text) && text[count] == '=' {
		count++
	}
	if count == 0 || count >= len(text) || text[count] != ' ' {
		return 0
	}
	return count
}

// reindent strips the common leading whitespace of the non-blank
// lines and applies the requested indent instead.
func reindent(lines []Line, indent int) {
	common := -1
	for _, line := range lines {
		text := line.Text
		if strings.TrimSpace(text) == "" {
			continue
		}
		leading := len(text) - len(strings.TrimLeft(text, " \t"))
		if common < 0 || leading < common {
			common = leading
		}
	}
	if common <= 0 && indent == 0 {
		return
	}
	if common < 0 {
		common = 0
	}
	prefix := strings.Repeat(" ", indent)
	for i := range lines {
		text := lines[i].Text
		if strings.TrimSpace(text) == "" {
			lines[i].Text = ""
			continue
		}
		if len(text) >= common {
			text = text[common:]
		}
		lines[i].Text = prefix + text
	}
}

// matchInclude matches "include::target[attrlist]".
func matchInclude(text string) (target, attrlist string, ok bool) {
	const prefix = "include::"
	if !strings.HasPrefix(text, prefix) {
		return "", "", false
	}
	rest := text[len(prefix):]
	open := strings.IndexByte(rest, '[')
	if open <= 0 || !strings.HasSuffix(rest, "]") {
		return "", "", false
	}
	return rest[:open], rest[open+1 : len(rest)-1], true
}

// matchConditional matches ifdef::/ifndef::/endif:: directives and
// returns the directive name and everything after the "::".
func matchConditional(text string) (directive, rest string, ok bool) {
	for _, name := range []string{"ifdef", "ifndef", "endif"} {
		prefix := name + "::"
		if strings.HasPrefix(text, prefix) {
			return name, text[len(prefix):], true
		}
	}
	return "", "", false
}

// isAttributeEntry reports whether the line opens an attribute entry.
// Cheap precheck for the continuation logic.
func isAttributeEntry(text string) bool {
	_, _, _, ok := parseAttributeEntry(strings.TrimRight(text, " \t"))
	return ok || strings.HasSuffix(text, " \\") && strings.HasPrefix(text, ":")
}

// parseAttributeEntry parses ":name: value", ":name!:" and ":!name:".
func parseAttributeEntry(text string) (name, value string, unset, ok bool) {
	if len(text) < 3 || text[0] != ':' {
		return "", "", false, false
	}
	end := strings.Index(text[1:], ":")
	if end <= 0 {
		return "", "", false, false
	}
	name = text[1 : 1+end]
	rest := text[2+end:]

	if strings.HasPrefix(name, "!") {
		name = name[1:]
		unset = true
	} else if strings.HasSuffix(name, "!") {
		name = name[:len(name)-1]
		unset = true
	}
	if name == "" || !isValidAttributeName(name) {
		return "", "", false, false
	}
	if unset {
		if strings.TrimSpace(rest) != "" {
			return "", "", false, false
		}
		return name, "", true, true
	}
	if rest != "" && !strings.HasPrefix(rest, " ") {
		return "", "", false, false
	}
	return name, strings.TrimSpace(rest), false, true
}

func isValidAttributeName(name string) bool {
	for i := 0; i < len(name); i++ {
		if !isAttributeNameChar(name[i]) {
			return false
		}
	}
	return true
}

// verbatimFence returns the fence character when the line delimits a
// listing ("----"), literal ("...."), or passthrough ("++++") block.
func verbatimFence(text string) byte {
	if len(text) < 4 {
		return 0
	}
	c := text[0]
	if c != '-' && c != '.' && c != '+' {
		return 0
	}
	for i := 1; i < len(text); i++ {
		if text[i] != c {
			return 0
		}
	}
	return c
}

// isCommentFence matches "////" block comment delimiters.
func isCommentFence(text string) bool {
	if len(text) < 4 {
		return false
	}
	for i := 0; i < len(text); i++ {
		if text[i] != '/' {
			return false
		}
	}
	return true
}

// splitAttrList splits a bracket attribute list on top-level commas,
// honoring single and double quotes.
func splitAttrList(attrlist string) []string {
	var parts []string
	var current strings.Builder
	var quote byte

	for i := 0; i < len(attrlist); i++ {
		c := attrlist[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			current.WriteByte(c)
		case c == '"' || c == '\'':
			quote = c
			current.WriteByte(c)
		case c == ',':
			parts = append(parts, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, strings.TrimSpace(current.String()))
	}
	return parts
}

// unquoteAttr strips one level of matched quotes from an attribute
// value.
func unquoteAttr(value string) string {
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return value[1 : len(value)-1]
		}
	}
	return value
}
