// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package viewer

import (
	"strings"
	"testing"

	"github.com/colophon-press/colophon/lib/config"
	"github.com/colophon-press/colophon/lib/termdoc"
)

// longPageLibrary is a two-page site whose first page renders to far
// more lines than any test viewport, so scroll positions move.
func longPageLibrary(t *testing.T) *Library {
	t.Helper()
	cfg := siteConfig(t, map[string]string{
		"content/long.adoc":  "= Long Page\n\n" + strings.Repeat("A line of prose.\n\n", 30),
		"content/short.adoc": "= Short Page\n\nOne paragraph.\n",
	})
	cfg.Nav = []config.NavEntry{
		{Page: "long.adoc"},
		{Page: "short.adoc"},
	}

	library, err := NewLibrary(cfg)
	if err != nil {
		t.Fatalf("NewLibrary: %v", err)
	}
	return library
}

func TestDetailPaneEmpty(t *testing.T) {
	pane := NewDetailPane(termdoc.DefaultTheme)
	pane.SetSize(60, 20)

	view := pane.View(false)
	if !strings.Contains(view, "Select a page to read") {
		t.Error("empty pane should show the placeholder")
	}
}

func TestDetailPaneSetPage(t *testing.T) {
	library := testLibrary(t)
	pane := NewDetailPane(termdoc.DefaultTheme)
	pane.SetSize(80, 24)

	pane.SetPage(library, library.Page("guides/install.adoc"))

	view := pane.View(true)
	if !strings.Contains(view, "Installation") {
		t.Error("header should show the page title")
	}
	if !strings.Contains(view, "guides/install.adoc") {
		t.Error("header should show the source path")
	}
	if !strings.Contains(view, "Run the installer binary.") {
		t.Error("body should show the page content")
	}
}

func TestDetailPaneOrphanMarker(t *testing.T) {
	library := testLibrary(t)
	pane := NewDetailPane(termdoc.DefaultTheme)
	pane.SetSize(80, 24)

	pane.SetPage(library, library.Page("reference/api.adoc"))
	if !strings.Contains(pane.View(false), "∅ not in nav") {
		t.Error("orphan page header should carry the nav marker")
	}

	pane.SetPage(library, library.Page("index.adoc"))
	if strings.Contains(pane.View(false), "∅ not in nav") {
		t.Error("nav page header should not carry the orphan marker")
	}
}

func TestDetailPaneScrollPreserved(t *testing.T) {
	library := longPageLibrary(t)
	long := library.Page("long.adoc")
	short := library.Page("short.adoc")

	pane := NewDetailPane(termdoc.DefaultTheme)
	pane.SetSize(60, 13)
	pane.SetPage(library, long)

	pane.viewport.LineDown(3)
	if pane.viewport.YOffset != 3 {
		t.Fatalf("YOffset = %d, want 3", pane.viewport.YOffset)
	}

	// Re-setting the same page keeps the scroll position: list
	// refreshes that keep the selection must not yank the reader back
	// to the top.
	pane.SetPage(library, long)
	if pane.viewport.YOffset != 3 {
		t.Errorf("same-page SetPage moved YOffset to %d", pane.viewport.YOffset)
	}

	// A different page starts at the top.
	pane.SetPage(library, short)
	if pane.viewport.YOffset != 0 {
		t.Errorf("new page should start at the top, YOffset = %d", pane.viewport.YOffset)
	}
}

func TestDetailPaneResizePreservesScroll(t *testing.T) {
	library := longPageLibrary(t)
	pane := NewDetailPane(termdoc.DefaultTheme)
	pane.SetSize(60, 13)
	pane.SetPage(library, library.Page("long.adoc"))

	pane.viewport.LineDown(3)
	pane.SetSize(80, 13)

	if pane.viewport.YOffset != 3 {
		t.Errorf("resize moved YOffset to %d, want 3", pane.viewport.YOffset)
	}
	if !strings.Contains(pane.View(false), "A line of prose.") {
		t.Error("resized pane lost its content")
	}
}

func TestDetailPaneClear(t *testing.T) {
	library := testLibrary(t)
	pane := NewDetailPane(termdoc.DefaultTheme)
	pane.SetSize(80, 24)

	pane.SetPage(library, library.Page("index.adoc"))
	pane.Clear()

	if !strings.Contains(pane.View(false), "Select a page to read") {
		t.Error("cleared pane should show the placeholder")
	}
}
