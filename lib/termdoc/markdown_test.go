// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package termdoc

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

// strippedMarkdown renders markdown and returns ANSI-stripped visible
// text.
func strippedMarkdown(input string, width int) string {
	return ansi.Strip(Markdown([]byte(input), DefaultTheme, width))
}

func rawMarkdown(input string, width int) string {
	return Markdown([]byte(input), DefaultTheme, width)
}

func TestMarkdownEmpty(t *testing.T) {
	result := Markdown(nil, DefaultTheme, 80)
	if result != "" {
		t.Errorf("expected empty string for empty input, got %q", result)
	}
}

func TestMarkdownParagraphReflow(t *testing.T) {
	// Source text hard-wrapped at ~40 columns.
	input := "This is a paragraph that was\nwritten at a narrow width with\nhard line breaks embedded in it."
	// Joined text is ~91 chars, so width 120 verifies soft breaks
	// become spaces without word-wrap interference.
	result := strippedMarkdown(input, 120)

	if strings.Contains(result, "\n") {
		t.Errorf("expected no newlines at width=120, got:\n%s", result)
	}
	if !strings.Contains(result, "was written at") {
		t.Errorf("expected soft break converted to space, got:\n%s", result)
	}
}

func TestMarkdownParagraphWrapsNarrow(t *testing.T) {
	input := "This is a paragraph that should be wrapped at the target width."
	result := strippedMarkdown(input, 30)

	for _, line := range strings.Split(result, "\n") {
		if len(line) > 30 {
			t.Errorf("line exceeds width 30: %q (len=%d)", line, len(line))
		}
	}
}

func TestMarkdownHardLineBreak(t *testing.T) {
	// Two trailing spaces create a hard line break in CommonMark.
	input := "Line one  \nLine two"
	result := strippedMarkdown(input, 80)

	if !strings.Contains(result, "Line one\nLine two") {
		t.Errorf("expected hard line break preserved, got:\n%s", result)
	}
}

func TestMarkdownHeading(t *testing.T) {
	input := "# Heading One\n\n## Heading Two\n\n### Heading Three"
	result := strippedMarkdown(input, 80)

	for _, want := range []string{"Heading One", "Heading Two", "Heading Three"} {
		if !strings.Contains(result, want) {
			t.Errorf("missing heading text %q", want)
		}
	}
	if rawMarkdown(input, 80) == result {
		t.Error("expected ANSI styling in heading output")
	}
}

func TestMarkdownEmphasis(t *testing.T) {
	input := "This is *italic* and **bold** text."
	result := strippedMarkdown(input, 80)

	if !strings.Contains(result, "italic") {
		t.Error("missing italic text")
	}
	if !strings.Contains(result, "bold") {
		t.Error("missing bold text")
	}
	if rawMarkdown(input, 80) == result {
		t.Error("expected ANSI styling in emphasis output")
	}
}

func TestMarkdownCodeSpan(t *testing.T) {
	input := "Use the `widgets.New()` function."
	result := strippedMarkdown(input, 80)

	if !strings.Contains(result, "widgets.New()") {
		t.Error("missing code span text")
	}
}

func TestMarkdownFencedCodeBlock(t *testing.T) {
	input := "Text before.\n\n```go\nfunc main() {\n\tfmt.Println(\"hello\")\n}\n```\n\nText after."
	result := strippedMarkdown(input, 80)

	// Code block content is preserved exactly, no reflow.
	for _, want := range []string{"func main()", "fmt.Println", "Text before.", "Text after."} {
		if !strings.Contains(result, want) {
			t.Errorf("missing %q, got:\n%s", want, result)
		}
	}
}

func TestMarkdownFencedCodeBlockHighlighted(t *testing.T) {
	input := "```go\npackage main\n```"
	rawResult := rawMarkdown(input, 80)

	// Chroma produces ANSI escapes for Go syntax.
	if !strings.Contains(rawResult, "\x1b[") {
		t.Error("expected ANSI escapes from syntax highlighting")
	}
}

func TestMarkdownCodeBlockNotReflowed(t *testing.T) {
	input := "```\nshort\nlines\nhere\n```"
	result := strippedMarkdown(input, 80)

	if !strings.Contains(result, "short\nlines\nhere") {
		t.Errorf("expected code block lines preserved, got:\n%s", result)
	}
}

func TestMarkdownBlockquote(t *testing.T) {
	input := "> This is a long quoted paragraph that\n> was written at a narrow width with\n> hard line breaks."
	result := strippedMarkdown(input, 80)

	for _, line := range strings.Split(result, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, "│") {
			t.Errorf("expected blockquote prefix on every line, got: %q", line)
		}
	}
	if !strings.Contains(result, "was written at") {
		t.Errorf("expected quoted text reflowed, got:\n%s", result)
	}
}

func TestMarkdownLists(t *testing.T) {
	t.Run("unordered", func(t *testing.T) {
		result := strippedMarkdown("- Item one\n- Item two", 80)
		if !strings.Contains(result, "- Item one") || !strings.Contains(result, "- Item two") {
			t.Errorf("missing list items, got:\n%s", result)
		}
	})

	t.Run("ordered", func(t *testing.T) {
		result := strippedMarkdown("1. First\n2. Second", 80)
		if !strings.Contains(result, "1. First") || !strings.Contains(result, "2. Second") {
			t.Errorf("missing ordered items, got:\n%s", result)
		}
	})

	t.Run("nested_indents", func(t *testing.T) {
		result := strippedMarkdown("- Outer\n  - Inner\n- Outer two", 80)
		var outerIndent, innerIndent int
		for _, line := range strings.Split(result, "\n") {
			indent := len(line) - len(strings.TrimLeft(line, " "))
			if strings.Contains(line, "Inner") {
				innerIndent = indent
			}
			if strings.Contains(line, "Outer") && !strings.Contains(line, "two") {
				outerIndent = indent
			}
		}
		if innerIndent <= outerIndent {
			t.Errorf("expected inner list more indented: outer=%d, inner=%d", outerIndent, innerIndent)
		}
	})

	t.Run("item_reflow", func(t *testing.T) {
		input := "- This is a long list item that\n  was written at a narrow width."
		result := strippedMarkdown(input, 80)
		if !strings.Contains(result, "long list item that was written") {
			t.Errorf("expected list item text reflowed, got:\n%s", result)
		}
	})
}

func TestMarkdownTaskCheckbox(t *testing.T) {
	input := "- [x] Done task\n- [ ] Pending task"
	result := strippedMarkdown(input, 80)

	if !strings.Contains(result, "[x]") {
		t.Errorf("missing checked checkbox, got:\n%s", result)
	}
	if !strings.Contains(result, "[ ]") {
		t.Error("missing unchecked checkbox")
	}
}

func TestMarkdownStrikethrough(t *testing.T) {
	input := "This is ~~deleted~~ text."
	result := strippedMarkdown(input, 80)

	if !strings.Contains(result, "deleted") {
		t.Error("missing strikethrough text")
	}
	if rawMarkdown(input, 80) == result {
		t.Error("expected ANSI styling for strikethrough")
	}
}

func TestMarkdownLink(t *testing.T) {
	input := "See [the docs](https://example.com) for details."
	result := strippedMarkdown(input, 80)

	if !strings.Contains(result, "the docs") {
		t.Error("missing link text")
	}
	if !strings.Contains(result, "(https://example.com)") {
		t.Errorf("missing link URL, got:\n%s", result)
	}
}

func TestMarkdownAutoLink(t *testing.T) {
	input := "Visit https://example.com for info."
	result := strippedMarkdown(input, 80)

	if !strings.Contains(result, "https://example.com") {
		t.Errorf("missing autolink URL, got:\n%s", result)
	}
}

func TestMarkdownImage(t *testing.T) {
	input := "![alt text](diagram.png)"
	result := strippedMarkdown(input, 80)

	if !strings.Contains(result, "[alt text]") {
		t.Errorf("missing image alt text, got:\n%s", result)
	}
	if !strings.Contains(result, "(diagram.png)") {
		t.Error("missing image target")
	}
}

func TestMarkdownThematicBreak(t *testing.T) {
	input := "Before.\n\n---\n\nAfter."
	result := strippedMarkdown(input, 40)

	if !strings.Contains(result, "───") {
		t.Errorf("expected horizontal rule, got:\n%s", result)
	}
}

func TestMarkdownTable(t *testing.T) {
	input := "| Name | Age |\n|------|-----|\n| Alice | 30 |\n| Bob | 25 |"
	result := strippedMarkdown(input, 80)

	for _, want := range []string{"Name", "Alice", "Bob"} {
		if !strings.Contains(result, want) {
			t.Errorf("missing table content %q, got:\n%s", want, result)
		}
	}
	if !strings.Contains(result, "───") {
		t.Error("missing table header separator")
	}
}

func TestMarkdownTableAlignment(t *testing.T) {
	input := "| Left | Right |\n|:-----|------:|\n| a | 1 |"
	result := strippedMarkdown(input, 80)

	// Right-aligned cell pads on the left.
	var row string
	for _, line := range strings.Split(result, "\n") {
		if strings.Contains(line, "a") && strings.Contains(line, "1") {
			row = line
		}
	}
	if row == "" {
		t.Fatalf("missing body row, got:\n%s", result)
	}
	if strings.Index(row, "1") <= strings.Index(row, "a")+1 {
		t.Errorf("expected right-aligned cell padded left, got: %q", row)
	}
}

func TestMarkdownDefinitionList(t *testing.T) {
	input := "Term\n:   Description of the term."
	result := strippedMarkdown(input, 80)

	if !strings.Contains(result, "Term") {
		t.Errorf("missing definition term, got:\n%s", result)
	}
	if !strings.Contains(result, "Description of the term.") {
		t.Errorf("missing definition description, got:\n%s", result)
	}
}

func TestMarkdownMultipleParagraphs(t *testing.T) {
	input := "First paragraph.\n\nSecond paragraph."
	result := strippedMarkdown(input, 80)

	if !strings.Contains(result, "\n\n") {
		t.Errorf("expected blank line between paragraphs, got:\n%s", result)
	}
}

func TestStripHTMLTags(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"<p>hello</p>", "hello"},
		{"no tags", "no tags"},
		{"<b>bold</b> and <i>italic</i>", "bold and italic"},
		{"<br/>", ""},
		{"", ""},
	}
	for _, test := range tests {
		result := stripHTMLTags(test.input)
		if result != test.expected {
			t.Errorf("stripHTMLTags(%q) = %q, want %q", test.input, result, test.expected)
		}
	}
}
