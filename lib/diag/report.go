// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package diag

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteText writes the diagnostics in compiler form, one per line,
// sorted, followed by a summary line when anything was reported.
func WriteText(w io.Writer, l *List) error {
	for _, d := range l.Sorted() {
		if _, err := fmt.Fprintln(w, d); err != nil {
			return err
		}
	}
	if l.Len() > 0 {
		_, err := fmt.Fprintf(w, "%d error(s), %d warning(s)\n", l.ErrorCount(), l.WarningCount())
		return err
	}
	return nil
}

// jsonReport is the machine-readable report shape. Diagnostics is
// never null; Sorted returns an empty slice for an empty list.
type jsonReport struct {
	Errors      int          `json:"errors"`
	Warnings    int          `json:"warnings"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// WriteJSON writes the diagnostics as a single JSON object with
// counts and the sorted diagnostic records.
func WriteJSON(w io.Writer, l *List) error {
	report := jsonReport{
		Errors:      l.ErrorCount(),
		Warnings:    l.WarningCount(),
		Diagnostics: l.Sorted(),
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
