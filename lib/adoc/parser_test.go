// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package adoc

import (
	"strings"
	"testing"

	"github.com/colophon-press/colophon/lib/diag"
)

func parseDoc(t *testing.T, source string) (*Document, *diag.List) {
	t.Helper()
	return Parse("doc.adoc", []byte(source), ParseOptions{})
}

// blockAt asserts the type of the block at index.
func blockAt[T Block](t *testing.T, blocks []Block, index int) T {
	t.Helper()
	if index >= len(blocks) {
		t.Fatalf("want block at index %d, have %d blocks", index, len(blocks))
	}
	block, ok := blocks[index].(T)
	if !ok {
		var want T
		t.Fatalf("block %d is %T, want %T", index, blocks[index], want)
	}
	return block
}

func TestParseDocumentTitle(t *testing.T) {
	doc, diags := parseDoc(t, "= Building Extensions\n\nThe extension model.\n")
	if diags.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags.All())
	}
	if doc.Title != "Building Extensions" {
		t.Fatalf("Title = %q", doc.Title)
	}
	paragraph := blockAt[*Paragraph](t, doc.Blocks, 0)
	if got := PlainText(paragraph.Content); got != "The extension model." {
		t.Fatalf("paragraph text = %q", got)
	}
}

func TestParseSections(t *testing.T) {
	source := `= Guide

Intro paragraph.

== First Steps

Some text.

=== Deep Dive

More text.

== Second Part

Closing.
`
	doc, diags := parseDoc(t, source)
	if diags.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags.All())
	}

	if len(doc.Blocks) != 3 {
		t.Fatalf("top-level blocks = %d, want 3", len(doc.Blocks))
	}
	first := blockAt[*Section](t, doc.Blocks, 1)
	if first.Level != 1 || PlainText(first.Title) != "First Steps" {
		t.Fatalf("section = level %d title %q", first.Level, PlainText(first.Title))
	}
	if first.ID != "_first_steps" {
		t.Fatalf("auto ID = %q, want _first_steps", first.ID)
	}

	deep := blockAt[*Section](t, first.Blocks, 1)
	if deep.Level != 2 || deep.ID != "_deep_dive" {
		t.Fatalf("nested section = level %d ID %q", deep.Level, deep.ID)
	}

	second := blockAt[*Section](t, doc.Blocks, 2)
	if second.ID != "_second_part" {
		t.Fatalf("second section ID = %q", second.ID)
	}

	if got := doc.Anchors["_first_steps"]; got != "First Steps" {
		t.Fatalf("anchor reftext = %q", got)
	}
}

func TestParseSectionIDsRespectAttributes(t *testing.T) {
	source := ":idprefix:\n:idseparator: -\n\n== First Steps\n"
	doc, _ := parseDoc(t, source)
	section := blockAt[*Section](t, doc.Blocks, 0)
	if section.ID != "first-steps" {
		t.Fatalf("ID = %q, want first-steps", section.ID)
	}
}

func TestParseSectionExplicitIDs(t *testing.T) {
	source := `[[custom-anchor]]
== One

[#shorthand-id]
== Two
`
	doc, _ := parseDoc(t, source)
	one := blockAt[*Section](t, doc.Blocks, 0)
	if one.ID != "custom-anchor" {
		t.Fatalf("explicit ID = %q", one.ID)
	}
	two := blockAt[*Section](t, doc.Blocks, 1)
	if two.ID != "shorthand-id" {
		t.Fatalf("shorthand ID = %q", two.ID)
	}
}

func TestParseDuplicateSectionIDs(t *testing.T) {
	source := "== Setup\n\n== Setup\n\n== Setup\n"
	doc, diags := parseDoc(t, source)

	ids := make([]string, 0, 3)
	for _, block := range doc.Blocks {
		ids = append(ids, block.(*Section).ID)
	}
	want := []string{"_setup", "_setup_2", "_setup_3"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("IDs = %v, want %v", ids, want)
		}
	}
	if diags.WarningCount() != 2 {
		t.Fatalf("warnings = %d, want 2: %v", diags.WarningCount(), diags.All())
	}
}

func TestParseSectionLevelSkipWarns(t *testing.T) {
	_, diags := parseDoc(t, "== Top\n\n==== Too Deep\n")
	if diags.WarningCount() != 1 {
		t.Fatalf("warnings = %d, want 1: %v", diags.WarningCount(), diags.All())
	}
	if !strings.Contains(diags.All()[0].Message, "skips") {
		t.Fatalf("warning message = %q", diags.All()[0].Message)
	}
}

func TestParseAdmonitions(t *testing.T) {
	source := `NOTE: Inline form.

[TIP]
Style form.

[WARNING]
====
Block form with *markup*.
====
`
	doc, diags := parseDoc(t, source)
	if diags.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags.All())
	}

	note := blockAt[*Admonition](t, doc.Blocks, 0)
	if note.Kind != AdmonitionNote {
		t.Fatalf("kind = %v, want note", note.Kind)
	}
	paragraph := blockAt[*Paragraph](t, note.Blocks, 0)
	if got := PlainText(paragraph.Content); got != "Inline form." {
		t.Fatalf("note text = %q", got)
	}

	tip := blockAt[*Admonition](t, doc.Blocks, 1)
	if tip.Kind != AdmonitionTip {
		t.Fatalf("kind = %v, want tip", tip.Kind)
	}

	warning := blockAt[*Admonition](t, doc.Blocks, 2)
	if warning.Kind != AdmonitionWarning {
		t.Fatalf("kind = %v, want warning", warning.Kind)
	}
	inner := blockAt[*Paragraph](t, warning.Blocks, 0)
	if len(inner.Content) < 2 {
		t.Fatalf("markup not parsed inside admonition: %v", inner.Content)
	}
}

func TestParseColonInParagraphIsNotAdmonition(t *testing.T) {
	doc, _ := parseDoc(t, "Usage: run the build.\n")
	blockAt[*Paragraph](t, doc.Blocks, 0)
}

func TestParseListing(t *testing.T) {
	source := `.Create the client
[source,java]
----
HttpClient client = HttpClient.create(); // <1>
client.start(); // <2> <3>
----
<1> Builds the client.
<2> Starts the transport.
<3> Returns immediately.
`
	doc, diags := parseDoc(t, source)
	if diags.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags.All())
	}

	listing := blockAt[*Verbatim](t, doc.Blocks, 0)
	if listing.Style != VerbatimListing {
		t.Fatalf("style = %v, want listing", listing.Style)
	}
	if listing.Language != "java" {
		t.Fatalf("language = %q, want java", listing.Language)
	}
	if listing.Title != "Create the client" {
		t.Fatalf("title = %q", listing.Title)
	}
	if got := listing.Lines[0]; got != "HttpClient client = HttpClient.create(); //" {
		t.Fatalf("line 0 = %q", got)
	}
	wantCallouts := []Callout{{Line: 0, Number: 1}, {Line: 1, Number: 2}, {Line: 1, Number: 3}}
	if len(listing.Callouts) != len(wantCallouts) {
		t.Fatalf("callouts = %v, want %v", listing.Callouts, wantCallouts)
	}
	for i, want := range wantCallouts {
		if listing.Callouts[i] != want {
			t.Fatalf("callout %d = %v, want %v", i, listing.Callouts[i], want)
		}
	}

	callouts := blockAt[*CalloutList](t, doc.Blocks, 1)
	if len(callouts.Items) != 3 {
		t.Fatalf("callout items = %d, want 3", len(callouts.Items))
	}
	if callouts.Items[1].Number != 2 {
		t.Fatalf("item number = %d", callouts.Items[1].Number)
	}
	if got := PlainText(callouts.Items[0].Text); got != "Builds the client." {
		t.Fatalf("item text = %q", got)
	}
}

func TestParseListingLanguageShorthand(t *testing.T) {
	doc, _ := parseDoc(t, "[yaml]\n----\nkey: value\n----\n")
	listing := blockAt[*Verbatim](t, doc.Blocks, 0)
	if listing.Language != "yaml" {
		t.Fatalf("language = %q, want yaml", listing.Language)
	}
}

func TestParseLiteralBlockKeepsMarkers(t *testing.T) {
	doc, _ := parseDoc(t, "....\noutput <1>\n....\n")
	literal := blockAt[*Verbatim](t, doc.Blocks, 0)
	if literal.Style != VerbatimLiteral {
		t.Fatalf("style = %v, want literal", literal.Style)
	}
	if literal.Lines[0] != "output <1>" {
		t.Fatalf("line = %q, markers must stay in literal blocks", literal.Lines[0])
	}
	if len(literal.Callouts) != 0 {
		t.Fatalf("literal block extracted callouts: %v", literal.Callouts)
	}
}

func TestParseUnterminatedListing(t *testing.T) {
	_, diags := parseDoc(t, "----\nnever closed\n")
	if !diags.HasErrors() {
		t.Fatal("want error for unterminated block")
	}
	if !strings.Contains(diags.All()[0].Message, "unterminated") {
		t.Fatalf("message = %q", diags.All()[0].Message)
	}
}

func TestParseExampleBlock(t *testing.T) {
	source := `[[ex-request]]
.Request flow
====
Step one.

Step two.
====
`
	doc, _ := parseDoc(t, source)
	example := blockAt[*Example](t, doc.Blocks, 0)
	if example.Title != "Request flow" {
		t.Fatalf("title = %q", example.Title)
	}
	if example.ID != "ex-request" {
		t.Fatalf("ID = %q", example.ID)
	}
	if len(example.Blocks) != 2 {
		t.Fatalf("inner blocks = %d, want 2", len(example.Blocks))
	}
	if got := doc.Anchors["ex-request"]; got != "Request flow" {
		t.Fatalf("anchor reftext = %q", got)
	}
}

func TestParseQuoteBlock(t *testing.T) {
	source := `[quote, Gordon, Release Handbook]
____
Ship it.
____
`
	doc, _ := parseDoc(t, source)
	quote := blockAt[*Quote](t, doc.Blocks, 0)
	if quote.Attribution != "Gordon" {
		t.Fatalf("attribution = %q", quote.Attribution)
	}
	if quote.Citation != "Release Handbook" {
		t.Fatalf("citation = %q", quote.Citation)
	}
}

func TestParseSidebarAndOpenBlocks(t *testing.T) {
	source := `.Aside
****
Sidebar text.
****

--
Open content.
--
`
	doc, _ := parseDoc(t, source)
	sidebar := blockAt[*Sidebar](t, doc.Blocks, 0)
	if sidebar.Title != "Aside" {
		t.Fatalf("sidebar title = %q", sidebar.Title)
	}
	open := blockAt[*Open](t, doc.Blocks, 1)
	paragraph := blockAt[*Paragraph](t, open.Blocks, 0)
	if got := PlainText(paragraph.Content); got != "Open content." {
		t.Fatalf("open content = %q", got)
	}
}

func TestParsePassthroughBlock(t *testing.T) {
	doc, _ := parseDoc(t, "++++\n<div class=\"x\">raw</div>\n++++\n")
	passthrough := blockAt[*Passthrough](t, doc.Blocks, 0)
	if passthrough.Lines[0] != `<div class="x">raw</div>` {
		t.Fatalf("line = %q", passthrough.Lines[0])
	}
}

func TestParseAdmonitionBlockFromContainer(t *testing.T) {
	source := "[NOTE]\n====\nFirst.\n\nSecond.\n====\n"
	doc, _ := parseDoc(t, source)
	note := blockAt[*Admonition](t, doc.Blocks, 0)
	if note.Kind != AdmonitionNote || len(note.Blocks) != 2 {
		t.Fatalf("kind %v blocks %d", note.Kind, len(note.Blocks))
	}
}

func TestParseImageMacro(t *testing.T) {
	source := `.Architecture
image::diagrams/arch.png[Architecture diagram, 640, 480]

image::img/pipeline-stages.svg[]
`
	doc, _ := parseDoc(t, source)

	image := blockAt[*Image](t, doc.Blocks, 0)
	if image.Target != "diagrams/arch.png" {
		t.Fatalf("target = %q", image.Target)
	}
	if image.Alt != "Architecture diagram" || image.Width != "640" || image.Height != "480" {
		t.Fatalf("alt %q width %q height %q", image.Alt, image.Width, image.Height)
	}
	if image.Title != "Architecture" {
		t.Fatalf("title = %q", image.Title)
	}

	bare := blockAt[*Image](t, doc.Blocks, 1)
	if bare.Alt != "pipeline-stages" {
		t.Fatalf("default alt = %q, want pipeline-stages", bare.Alt)
	}
}

func TestParseThematicAndPageBreaks(t *testing.T) {
	doc, _ := parseDoc(t, "before\n\n'''\n\n<<<\n\nafter\n")
	if len(doc.Blocks) != 3 {
		t.Fatalf("blocks = %d, want 3 (page break dropped)", len(doc.Blocks))
	}
	blockAt[*ThematicBreak](t, doc.Blocks, 1)
}

func TestParseTocMacroIgnored(t *testing.T) {
	doc, diags := parseDoc(t, "toc::[]\n\ncontent\n")
	if diags.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags.All())
	}
	if len(doc.Blocks) != 1 {
		t.Fatalf("blocks = %d, want 1", len(doc.Blocks))
	}
}

func TestParseParagraphEndsAtFence(t *testing.T) {
	source := "lead-in text\n----\ncode\n----\n"
	doc, _ := parseDoc(t, source)
	if len(doc.Blocks) != 2 {
		t.Fatalf("blocks = %d, want paragraph and listing", len(doc.Blocks))
	}
	blockAt[*Paragraph](t, doc.Blocks, 0)
	blockAt[*Verbatim](t, doc.Blocks, 1)
}

func TestParsePositionsSurviveIncludes(t *testing.T) {
	resolver := mapResolver{
		"partials/shared.adoc": "== Shared Section\n",
	}
	source := "content\n\ninclude::partials/shared.adoc[]\n"
	doc, diags := Parse("index.adoc", []byte(source), ParseOptions{Resolver: resolver})
	if diags.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags.All())
	}
	section := blockAt[*Section](t, doc.Blocks, 1)
	pos := section.Pos()
	if pos.File != "partials/shared.adoc" || pos.Line != 1 {
		t.Fatalf("section position = %v, want partials/shared.adoc:1", pos)
	}
}
