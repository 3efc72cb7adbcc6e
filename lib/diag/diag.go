// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

// Package diag defines the diagnostic records produced by parsing,
// validation, and building. A diagnostic carries a severity, a source
// position, and a message. Errors fail the build; warnings are
// reported and, under strict mode, promoted to build failures.
package diag

import (
	"fmt"
	"sort"
	"strings"
)

// Severity classifies a diagnostic.
type Severity int

const (
	// SeverityWarning marks a problem the build can proceed past:
	// an unresolved attribute reference, a duplicate section ID, an
	// orphaned page. Warnings fail the build only in strict mode.
	SeverityWarning Severity = iota

	// SeverityError marks a problem that invalidates the output:
	// a missing include file, an unterminated delimited block, a
	// malformed properties descriptor. Errors always fail the build.
	SeverityError
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler so severities render
// as "warning"/"error" in JSON diagnostics output.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "warning":
		*s = SeverityWarning
	case "error":
		*s = SeverityError
	default:
		return fmt.Errorf("unknown severity %q", text)
	}
	return nil
}

// Position locates a diagnostic in a source file. Line and Column are
// 1-based; zero means unknown. For content pulled in through include
// directives, File names the included file, not the including one.
type Position struct {
	File   string `json:"file"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// String renders the position as "file:line:column", omitting trailing
// unknown parts.
func (p Position) String() string {
	switch {
	case p.File == "":
		return "<unknown>"
	case p.Line == 0:
		return p.File
	case p.Column == 0:
		return fmt.Sprintf("%s:%d", p.File, p.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	}
}

// Diagnostic is a single problem found in source content.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Position Position `json:"position"`
	Message  string   `json:"message"`
}

// String renders the diagnostic in the conventional
// "file:line: severity: message" form used by compilers.
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Position, d.Severity, d.Message)
}

// List accumulates diagnostics during a parse or build. The zero value
// is ready to use. List is not safe for concurrent use; collect into
// per-goroutine lists and Merge.
type List struct {
	diags []Diagnostic
}

// Errorf appends an error diagnostic at pos.
func (l *List) Errorf(pos Position, format string, args ...any) {
	l.diags = append(l.diags, Diagnostic{
		Severity: SeverityError,
		Position: pos,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Warnf appends a warning diagnostic at pos.
func (l *List) Warnf(pos Position, format string, args ...any) {
	l.diags = append(l.diags, Diagnostic{
		Severity: SeverityWarning,
		Position: pos,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Add appends a prebuilt diagnostic.
func (l *List) Add(d Diagnostic) {
	l.diags = append(l.diags, d)
}

// Merge appends all diagnostics from other.
func (l *List) Merge(other *List) {
	if other == nil {
		return
	}
	l.diags = append(l.diags, other.diags...)
}

// All returns the accumulated diagnostics in insertion order. The
// returned slice is the list's backing store; callers must not mutate
// it.
func (l *List) All() []Diagnostic {
	return l.diags
}

// Sorted returns a copy of the diagnostics ordered by file, then line,
// then column, then message. Deterministic report order regardless of
// the concurrency of the build that produced them.
func (l *List) Sorted() []Diagnostic {
	sorted := make([]Diagnostic, len(l.diags))
	copy(sorted, l.diags)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Position.File != b.Position.File {
			return a.Position.File < b.Position.File
		}
		if a.Position.Line != b.Position.Line {
			return a.Position.Line < b.Position.Line
		}
		if a.Position.Column != b.Position.Column {
			return a.Position.Column < b.Position.Column
		}
		return a.Message < b.Message
	})
	return sorted
}

// Len returns the total number of diagnostics.
func (l *List) Len() int { return len(l.diags) }

// ErrorCount returns the number of error-severity diagnostics.
func (l *List) ErrorCount() int {
	count := 0
	for _, d := range l.diags {
		if d.Severity == SeverityError {
			count++
		}
	}
	return count
}

// WarningCount returns the number of warning-severity diagnostics.
func (l *List) WarningCount() int {
	return len(l.diags) - l.ErrorCount()
}

// HasErrors reports whether any diagnostic is an error.
func (l *List) HasErrors() bool {
	return l.ErrorCount() > 0
}

// Err returns nil when the list would not fail a build, or an error
// summarizing the failure. Warnings count as failures only when
// strict is set.
func (l *List) Err(strict bool) error {
	errors := l.ErrorCount()
	warnings := l.WarningCount()
	if errors == 0 && (!strict || warnings == 0) {
		return nil
	}
	parts := []string{}
	if errors > 0 {
		parts = append(parts, fmt.Sprintf("%d error(s)", errors))
	}
	if strict && warnings > 0 {
		parts = append(parts, fmt.Sprintf("%d warning(s) in strict mode", warnings))
	}
	return fmt.Errorf("build failed with %s", strings.Join(parts, " and "))
}
