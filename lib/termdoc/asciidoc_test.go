// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package termdoc

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/colophon-press/colophon/lib/adoc"
)

// strippedAsciiDoc parses and renders a document, returning the
// ANSI-stripped visible text.
func strippedAsciiDoc(t *testing.T, source string, width int) string {
	t.Helper()
	return ansi.Strip(rawAsciiDoc(t, source, width))
}

func rawAsciiDoc(t *testing.T, source string, width int) string {
	t.Helper()
	doc, diags := adoc.Parse("page.adoc", []byte(source), adoc.ParseOptions{})
	if diags.HasErrors() {
		t.Fatalf("parse errors: %v", diags.All())
	}
	return AsciiDoc(doc, DefaultTheme, width)
}

func TestAsciiDocTitleAndSections(t *testing.T) {
	source := `= Widget Guide

Intro paragraph.

== Install

Steps here.

=== Verify

Done.
`
	result := strippedAsciiDoc(t, source, 80)

	for _, want := range []string{"Widget Guide", "Install", "Verify", "Intro paragraph.", "Steps here."} {
		if !strings.Contains(result, want) {
			t.Errorf("missing %q, got:\n%s", want, result)
		}
	}
	if rawAsciiDoc(t, source, 80) == result {
		t.Error("expected ANSI styling in section output")
	}
}

func TestAsciiDocParagraphReflow(t *testing.T) {
	source := "This paragraph was written\nat a narrow width with\nhard line breaks in it.\n"
	result := strippedAsciiDoc(t, source, 120)

	if strings.Contains(result, "\n") {
		t.Errorf("expected no newlines at width=120, got:\n%s", result)
	}
	if !strings.Contains(result, "written at a narrow") {
		t.Errorf("expected source breaks reflowed, got:\n%s", result)
	}
}

func TestAsciiDocParagraphWrapsNarrow(t *testing.T) {
	source := "This is a paragraph that should be wrapped at the target width.\n"
	result := strippedAsciiDoc(t, source, 30)

	for _, line := range strings.Split(result, "\n") {
		if len(line) > 30 {
			t.Errorf("line exceeds width 30: %q (len=%d)", line, len(line))
		}
	}
}

func TestAsciiDocAdmonition(t *testing.T) {
	source := "NOTE: Remember to save your work.\n"
	result := strippedAsciiDoc(t, source, 80)

	if !strings.Contains(result, "NOTE") {
		t.Errorf("missing admonition label, got:\n%s", result)
	}
	if !strings.Contains(result, "│ Remember to save your work.") {
		t.Errorf("expected body under bar prefix, got:\n%s", result)
	}
}

func TestAsciiDocAdmonitionBlock(t *testing.T) {
	source := "[WARNING]\n====\nFirst point.\n\nSecond point.\n====\n"
	result := strippedAsciiDoc(t, source, 80)

	if !strings.Contains(result, "WARNING") {
		t.Errorf("missing label, got:\n%s", result)
	}
	if !strings.Contains(result, "First point.") || !strings.Contains(result, "Second point.") {
		t.Errorf("missing body paragraphs, got:\n%s", result)
	}
}

func TestAsciiDocListing(t *testing.T) {
	source := ".Create the client\n[source,go]\n----\nclient := widgets.New() // <1>\nclient.Start()\n----\n<1> Builds the client.\n"
	result := strippedAsciiDoc(t, source, 80)

	if !strings.Contains(result, "Create the client") {
		t.Errorf("missing listing title, got:\n%s", result)
	}
	if !strings.Contains(result, "client := widgets.New()") {
		t.Errorf("missing code content, got:\n%s", result)
	}
	// The callout marker re-attaches to its line and the callout list
	// explains it below.
	if !strings.Contains(result, "<1>") {
		t.Errorf("missing callout marker, got:\n%s", result)
	}
	if !strings.Contains(result, "Builds the client.") {
		t.Errorf("missing callout explanation, got:\n%s", result)
	}
}

func TestAsciiDocListingHighlighted(t *testing.T) {
	source := "[source,go]\n----\npackage main\n----\n"
	rawResult := rawAsciiDoc(t, source, 80)

	if !strings.Contains(rawResult, "\x1b[") {
		t.Error("expected ANSI escapes from syntax highlighting")
	}
}

func TestAsciiDocListingNotReflowed(t *testing.T) {
	source := "----\nshort\nlines\nhere\n----\n"
	result := strippedAsciiDoc(t, source, 80)

	if !strings.Contains(result, "short\nlines\nhere") {
		t.Errorf("expected listing lines preserved, got:\n%s", result)
	}
}

func TestAsciiDocLiteralBlock(t *testing.T) {
	source := "....\n$ colophon build\n....\n"
	result := strippedAsciiDoc(t, source, 80)

	if !strings.Contains(result, "$ colophon build") {
		t.Errorf("missing literal content, got:\n%s", result)
	}
}

func TestAsciiDocExample(t *testing.T) {
	source := ".Request flow\n====\nStep one.\n====\n"
	result := strippedAsciiDoc(t, source, 80)

	if !strings.Contains(result, "Request flow") {
		t.Errorf("missing example title, got:\n%s", result)
	}
	if !strings.Contains(result, "  Step one.") {
		t.Errorf("expected indented example body, got:\n%s", result)
	}
}

func TestAsciiDocQuote(t *testing.T) {
	source := "[quote, Gordon, Release Handbook]\n____\nShip it.\n____\n"
	result := strippedAsciiDoc(t, source, 80)

	if !strings.Contains(result, "│ Ship it.") {
		t.Errorf("expected quote bar prefix, got:\n%s", result)
	}
	if !strings.Contains(result, "— Gordon, Release Handbook") {
		t.Errorf("missing attribution, got:\n%s", result)
	}
}

func TestAsciiDocSidebar(t *testing.T) {
	source := ".Aside\n****\nSupporting text.\n****\n"
	result := strippedAsciiDoc(t, source, 80)

	if !strings.Contains(result, "Aside") {
		t.Errorf("missing sidebar title, got:\n%s", result)
	}
	if !strings.Contains(result, "Supporting text.") {
		t.Errorf("missing sidebar body, got:\n%s", result)
	}
}

func TestAsciiDocPassthroughDropped(t *testing.T) {
	source := "before\n\n++++\n<div>raw html</div>\n++++\n\nafter\n"
	result := strippedAsciiDoc(t, source, 80)

	if strings.Contains(result, "raw html") {
		t.Errorf("passthrough content leaked into terminal output:\n%s", result)
	}
	if !strings.Contains(result, "before") || !strings.Contains(result, "after") {
		t.Errorf("missing surrounding paragraphs, got:\n%s", result)
	}
}

func TestAsciiDocLists(t *testing.T) {
	t.Run("unordered", func(t *testing.T) {
		result := strippedAsciiDoc(t, "* alpha\n* beta\n", 80)
		if !strings.Contains(result, "- alpha") || !strings.Contains(result, "- beta") {
			t.Errorf("missing list items, got:\n%s", result)
		}
	})

	t.Run("ordered", func(t *testing.T) {
		result := strippedAsciiDoc(t, ". first\n. second\n", 80)
		if !strings.Contains(result, "1. first") || !strings.Contains(result, "2. second") {
			t.Errorf("missing ordered items, got:\n%s", result)
		}
	})

	t.Run("nested_indents", func(t *testing.T) {
		result := strippedAsciiDoc(t, "* outer\n** inner\n* outer two\n", 80)
		var outerIndent, innerIndent int
		for _, line := range strings.Split(result, "\n") {
			indent := len(line) - len(strings.TrimLeft(line, " "))
			if strings.Contains(line, "inner") {
				innerIndent = indent
			}
			if strings.Contains(line, "outer") && !strings.Contains(line, "two") {
				outerIndent = indent
			}
		}
		if innerIndent <= outerIndent {
			t.Errorf("expected nested list more indented: outer=%d, inner=%d", outerIndent, innerIndent)
		}
	})

	t.Run("wrapped_item_aligns", func(t *testing.T) {
		source := "* This list item is long enough that it has to wrap onto a continuation line somewhere.\n"
		result := strippedAsciiDoc(t, source, 40)
		lines := strings.Split(result, "\n")
		if len(lines) < 2 {
			t.Fatalf("expected wrapped item, got:\n%s", result)
		}
		if !strings.HasPrefix(lines[0], "- ") {
			t.Errorf("first line = %q, want bullet prefix", lines[0])
		}
		if !strings.HasPrefix(lines[1], "  ") {
			t.Errorf("continuation line = %q, want aligned indent", lines[1])
		}
	})
}

func TestAsciiDocDescriptionList(t *testing.T) {
	source := "timeout:: How long to wait.\nretries:: How many attempts.\n"
	result := strippedAsciiDoc(t, source, 80)

	if !strings.Contains(result, "timeout") {
		t.Errorf("missing term, got:\n%s", result)
	}
	if !strings.Contains(result, "  How long to wait.") {
		t.Errorf("expected indented description, got:\n%s", result)
	}
}

func TestAsciiDocTable(t *testing.T) {
	source := "|===\n|Name |Default\n\n|timeout\n|30s\n\n|retries\n|3\n|===\n"
	result := strippedAsciiDoc(t, source, 80)

	for _, want := range []string{"Name", "Default", "timeout", "30s", "retries"} {
		if !strings.Contains(result, want) {
			t.Errorf("missing table content %q, got:\n%s", want, result)
		}
	}
	if !strings.Contains(result, "───") {
		t.Errorf("missing header separator, got:\n%s", result)
	}
}

func TestAsciiDocBlockImage(t *testing.T) {
	source := "image::diagrams/arch.png[Architecture diagram]\n"
	result := strippedAsciiDoc(t, source, 80)

	if !strings.Contains(result, "[Architecture diagram]") {
		t.Errorf("missing image alt, got:\n%s", result)
	}
	if !strings.Contains(result, "(diagrams/arch.png)") {
		t.Errorf("missing image target, got:\n%s", result)
	}
}

func TestAsciiDocThematicBreak(t *testing.T) {
	result := strippedAsciiDoc(t, "before\n\n'''\n\nafter\n", 40)

	if !strings.Contains(result, "───") {
		t.Errorf("expected horizontal rule, got:\n%s", result)
	}
}

func TestAsciiDocInlineMarks(t *testing.T) {
	source := "Use *bold*, _italic_, and `mono` text.\n"
	result := strippedAsciiDoc(t, source, 80)

	for _, want := range []string{"bold", "italic", "mono"} {
		if !strings.Contains(result, want) {
			t.Errorf("missing %q, got:\n%s", want, result)
		}
	}
	if rawAsciiDoc(t, source, 80) == result {
		t.Error("expected ANSI styling in inline output")
	}
}

func TestAsciiDocLink(t *testing.T) {
	source := "See https://example.com[the site] for details.\n"
	result := strippedAsciiDoc(t, source, 80)

	if !strings.Contains(result, "the site") {
		t.Error("missing link text")
	}
	if !strings.Contains(result, "(https://example.com)") {
		t.Errorf("missing link URL, got:\n%s", result)
	}
}

func TestAsciiDocAutoLinkNoEcho(t *testing.T) {
	// Bare URLs keep their text as the target; no parenthetical echo.
	source := "Visit https://example.com today.\n"
	result := strippedAsciiDoc(t, source, 80)

	if strings.Count(result, "https://example.com") != 1 {
		t.Errorf("expected URL exactly once, got:\n%s", result)
	}
}

func TestAsciiDocCrossRef(t *testing.T) {
	source := "== Install\n\nSee <<_install,the install section>> again.\n"
	result := strippedAsciiDoc(t, source, 80)

	if !strings.Contains(result, "the install section") {
		t.Errorf("missing cross reference text, got:\n%s", result)
	}
}

func TestAsciiDocHardLineBreak(t *testing.T) {
	source := "line one +\nline two\n"
	result := strippedAsciiDoc(t, source, 80)

	if !strings.Contains(result, "line one\nline two") {
		t.Errorf("expected hard break preserved, got:\n%s", result)
	}
}
