// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package adoc

import (
	"sort"
	"strings"
)

// characterReplacements are the predefined character reference
// attributes. They are seeded into every new set and may be overridden
// by ordinary attribute entries.
var characterReplacements = map[string]string{
	"empty":     "",
	"blank":     "",
	"sp":        " ",
	"nbsp":      " ",
	"zwsp":      "​",
	"wj":        "⁠",
	"apos":      "'",
	"quot":      `"`,
	"lsquo":     "‘",
	"rsquo":     "’",
	"ldquo":     "“",
	"rdquo":     "”",
	"deg":       "°",
	"plus":      "+",
	"brvbar":    "¦",
	"vbar":      "|",
	"amp":       "&",
	"lt":        "<",
	"gt":        ">",
	"startsb":   "[",
	"endsb":     "]",
	"caret":     "^",
	"asterisk":  "*",
	"tilde":     "~",
	"backslash": `\`,
	"backtick":  "`",
	"cpp":       "C++",
}

// AttributeSet holds document attributes with override locking.
// Attributes set from the command line or site configuration are
// locked: attribute entries inside documents cannot change them. This
// is what lets a site pin, say, the framework version across every
// guide regardless of what individual files declare.
type AttributeSet struct {
	values map[string]string
	locked map[string]bool
}

// NewAttributeSet returns a set seeded with the predefined character
// replacement attributes ({nbsp}, {plus}, and friends).
func NewAttributeSet() *AttributeSet {
	s := &AttributeSet{
		values: make(map[string]string, len(characterReplacements)+16),
		locked: make(map[string]bool),
	}
	for name, value := range characterReplacements {
		s.values[name] = value
	}
	return s
}

// normalizeName lowercases an attribute name. AsciiDoc attribute
// names are case-insensitive and conventionally lowercase.
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Set assigns value to name unless the name is locked. Returns false
// when the assignment was rejected by a lock.
func (s *AttributeSet) Set(name, value string) bool {
	name = normalizeName(name)
	if s.locked[name] {
		return false
	}
	s.values[name] = value
	return true
}

// SetLocked assigns value to name and locks it against later Set and
// Unset calls. Used for CLI -a flags and site configuration.
func (s *AttributeSet) SetLocked(name, value string) {
	name = normalizeName(name)
	s.values[name] = value
	s.locked[name] = true
}

// Unset removes name unless it is locked. Returns false when the
// removal was rejected by a lock.
func (s *AttributeSet) Unset(name string) bool {
	name = normalizeName(name)
	if s.locked[name] {
		return false
	}
	delete(s.values, name)
	return true
}

// Get returns the value of name and whether it is set.
func (s *AttributeSet) Get(name string) (string, bool) {
	value, ok := s.values[normalizeName(name)]
	return value, ok
}

// IsSet reports whether name is defined. An attribute set to the
// empty string counts as defined; this is the ifdef semantic.
func (s *AttributeSet) IsSet(name string) bool {
	_, ok := s.values[normalizeName(name)]
	return ok
}

// Names returns all defined attribute names in sorted order.
func (s *AttributeSet) Names() []string {
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Pairs returns "name=value" strings in sorted name order. The cache
// layer hashes these so attribute changes invalidate rendered pages.
func (s *AttributeSet) Pairs() []string {
	names := s.Names()
	pairs := make([]string, len(names))
	for i, name := range names {
		pairs[i] = name + "=" + s.values[name]
	}
	return pairs
}

// Clone returns an independent copy, locks included.
func (s *AttributeSet) Clone() *AttributeSet {
	clone := &AttributeSet{
		values: make(map[string]string, len(s.values)),
		locked: make(map[string]bool, len(s.locked)),
	}
	for name, value := range s.values {
		clone.values[name] = value
	}
	for name, locked := range s.locked {
		clone.locked[name] = locked
	}
	return clone
}

// Substitute replaces {name} references in text with attribute values.
// A backslash escapes a reference: "\{name}" produces the literal
// "{name}". References to undefined attributes are left in place and
// reported in the unresolved return value so the caller can warn with
// its own position information.
func (s *AttributeSet) Substitute(text string) (string, []string) {
	if !strings.Contains(text, "{") {
		return text, nil
	}

	var out strings.Builder
	out.Grow(len(text))
	var unresolved []string

	for i := 0; i < len(text); {
		c := text[i]

		if c == '\\' && i+1 < len(text) && text[i+1] == '{' {
			if name, end := scanAttributeRef(text, i+1); name != "" {
				out.WriteString(text[i+1 : end])
				i = end
				continue
			}
		}

		if c == '{' {
			if name, end := scanAttributeRef(text, i); name != "" {
				if value, ok := s.values[name]; ok {
					out.WriteString(value)
				} else {
					out.WriteString(text[i:end])
					unresolved = append(unresolved, name)
				}
				i = end
				continue
			}
		}

		out.WriteByte(c)
		i++
	}

	return out.String(), unresolved
}

// scanAttributeRef matches an attribute reference starting at the "{"
// at position start. Returns the normalized name and the index just
// past the closing "}", or "" when the text is not a valid reference.
func scanAttributeRef(text string, start int) (string, int) {
	i := start + 1
	for i < len(text) {
		c := text[i]
		if c == '}' {
			if i == start+1 {
				return "", 0
			}
			return normalizeName(text[start+1 : i]), i + 1
		}
		if !isAttributeNameChar(c) {
			return "", 0
		}
		i++
	}
	return "", 0
}

func isAttributeNameChar(c byte) bool {
	return c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' ||
		c == '-' || c == '_'
}
