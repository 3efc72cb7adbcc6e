// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestCommandError_ErrorWithoutHint(t *testing.T) {
	err := Validation("missing required argument <query>")
	if err.Error() != "missing required argument <query>" {
		t.Errorf("Error() = %q, want %q", err.Error(), "missing required argument <query>")
	}
}

func TestCommandError_ErrorWithHint(t *testing.T) {
	err := Validation("missing required argument <query>").
		WithHint("Pass a search term, e.g. 'colophon search caching'.")

	want := "missing required argument <query>\n\nPass a search term, e.g. 'colophon search caching'."
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestCommandError_WithHintReturnsReceiver(t *testing.T) {
	original := Validation("bad input")
	chained := original.WithHint("fix it")
	if original != chained {
		t.Error("WithHint should return the same pointer")
	}
}

func TestCommandError_WithHintPreservesCategory(t *testing.T) {
	err := NotFound("property %q not found", "app.cache.size").
		WithHint("Run 'colophon props search' to list candidates.")

	if err.Category != CategoryNotFound {
		t.Errorf("Category = %q, want %q", err.Category, CategoryNotFound)
	}
}

func TestCommandError_HintSurvivesErrorsAs(t *testing.T) {
	inner := Validation("bad page reference").WithHint("use a source path like guides/install.adoc")
	wrapped := fmt.Errorf("view failed: %w", inner)

	var commandErr *CommandError
	if !errors.As(wrapped, &commandErr) {
		t.Fatal("errors.As should find CommandError in wrapped chain")
	}
	if commandErr.Hint != "use a source path like guides/install.adoc" {
		t.Errorf("Hint = %q after unwrap, want %q", commandErr.Hint, "use a source path like guides/install.adoc")
	}
}

func TestCommandError_EmptyHintNotAppended(t *testing.T) {
	err := Internal("unexpected failure")
	if strings.Contains(err.Error(), "\n\n") {
		t.Error("empty hint should not add blank line to error message")
	}
}

func TestCommandError_Unwrap(t *testing.T) {
	sentinel := errors.New("catalog locked")
	err := Transient("opening catalog: %w", sentinel)

	if !errors.Is(err, sentinel) {
		t.Error("errors.Is should walk through the CommandError wrapper")
	}
}

func TestCommandError_AllCategories(t *testing.T) {
	tests := []struct {
		name     string
		err      *CommandError
		category ErrorCategory
	}{
		{"Validation", Validation("bad"), CategoryValidation},
		{"NotFound", NotFound("missing"), CategoryNotFound},
		{"Conflict", Conflict("duplicate"), CategoryConflict},
		{"Transient", Transient("timeout"), CategoryTransient},
		{"Internal", Internal("bug"), CategoryInternal},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if test.err.Category != test.category {
				t.Errorf("Category = %q, want %q", test.err.Category, test.category)
			}
			// All constructors should support WithHint.
			hinted := test.err.WithHint("try again")
			if hinted.Hint != "try again" {
				t.Errorf("Hint = %q after WithHint, want %q", hinted.Hint, "try again")
			}
		})
	}
}

func TestExitError_Code(t *testing.T) {
	err := &ExitError{Code: 1}
	if err.ExitCode() != 1 {
		t.Errorf("ExitCode() = %d, want 1", err.ExitCode())
	}
	if !strings.Contains(err.Error(), "1") {
		t.Errorf("Error() = %q, should mention the code", err.Error())
	}
}
