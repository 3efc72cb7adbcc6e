// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package viewer

import (
	"strings"

	"github.com/colophon-press/colophon/lib/adoc"
	"github.com/colophon-press/colophon/lib/build"
	"github.com/colophon-press/colophon/lib/config"
	"github.com/colophon-press/colophon/lib/diag"
	"github.com/colophon-press/colophon/lib/markdown"
	"github.com/colophon-press/colophon/lib/render"
	"github.com/colophon-press/colophon/lib/search"
	"github.com/colophon-press/colophon/lib/site"
	"github.com/colophon-press/colophon/lib/termdoc"
)

// Page is one viewable page: index metadata plus the parsed content
// the terminal renderers consume.
type Page struct {
	// Source is the content-relative source path ("guides/install.adoc").
	Source string

	// Slug is the output path; search results are keyed by it.
	Slug string

	// Title is the display title: the nav override when one is set,
	// otherwise the document title, otherwise the source path.
	Title string

	Format site.Format

	// Orphan marks pages absent from the navigation.
	Orphan bool

	doc *adoc.Document // Parsed tree; nil for Markdown pages.
	raw []byte
}

// Library is the viewer's data set: every site page in display order
// (navigation order first, orphans appended) plus a relevance index
// over their plain text.
type Library struct {
	pages    []*Page
	bySource map[string]*Page
	bySlug   map[string]*Page
	index    *search.Index

	// problems counts load diagnostics with error severity, surfaced
	// in the help bar so broken pages are not silently blank.
	problems int
}

// NewLibrary parses the whole site and builds the display order and
// the search index. Pages with parse problems still appear — the
// viewer renders whatever parsed — and the problem count is available
// through Problems.
func NewLibrary(cfg *config.Config) (*Library, error) {
	diags := &diag.List{}
	loaded, err := build.Load(cfg, diags)
	if err != nil {
		return nil, err
	}

	byLoaded := make(map[string]*build.LoadedPage, len(loaded.Pages))
	for _, page := range loaded.Pages {
		byLoaded[page.Page.Source] = page
	}

	library := &Library{
		bySource: make(map[string]*Page),
		bySlug:   make(map[string]*Page),
		problems: diags.ErrorCount(),
	}

	add := func(loadedPage *build.LoadedPage, navTitle string, orphan bool) {
		sitePage := loadedPage.Page
		title := navTitle
		if title == "" {
			title = sitePage.Title
		}
		if title == "" {
			title = sitePage.Source
		}
		page := &Page{
			Source: sitePage.Source,
			Slug:   sitePage.Slug,
			Title:  title,
			Format: sitePage.Format,
			Orphan: orphan,
			doc:    loadedPage.Doc,
			raw:    loadedPage.Source,
		}
		library.pages = append(library.pages, page)
		library.bySource[page.Source] = page
		library.bySlug[page.Slug] = page
	}

	// Navigation pages first, in nav order. A page listed twice keeps
	// its first position.
	navSources := make([]string, 0, len(cfg.Nav))
	for _, entry := range cfg.Nav {
		navSources = append(navSources, entry.Page)
		if library.bySource[entry.Page] != nil {
			continue
		}
		if loadedPage := byLoaded[entry.Page]; loadedPage != nil {
			add(loadedPage, entry.Title, false)
		}
	}

	for _, orphan := range loaded.Index.Orphans(navSources) {
		if loadedPage := byLoaded[orphan.Source]; loadedPage != nil {
			add(loadedPage, "", true)
		}
	}

	library.index = search.New(library.searchEntries(cfg))
	return library, nil
}

// searchEntries builds the relevance corpus. The plain text comes from
// the same extraction the build's search-index.json uses, so viewer
// search and site search rank alike. Render diagnostics go to a
// scratch list; dangling references are check's concern.
func (lib *Library) searchEntries(cfg *config.Config) []search.Entry {
	highlight := render.HighlightOptions{Style: cfg.Highlight.Style}
	converter := markdown.NewConverter(highlight)

	entries := make([]search.Entry, 0, len(lib.pages))
	for _, page := range lib.pages {
		entry := search.Entry{Slug: page.Slug, Title: page.Title}
		switch {
		case page.Format == site.FormatAsciiDoc && page.doc != nil:
			scratch := &diag.List{}
			result := render.Fragment(page.doc, render.Options{Highlight: highlight}, scratch)
			entry.Plain = result.Plain
			for _, heading := range result.Headings {
				entry.Headings = append(entry.Headings, heading.Text)
			}

		case page.Format == site.FormatMarkdown:
			rendered, err := converter.Render(page.raw)
			if err == nil {
				entry.Plain = rendered.Plain
				for _, heading := range rendered.Headings {
					entry.Headings = append(entry.Headings, heading.Text)
				}
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

// Pages returns every page in display order.
func (lib *Library) Pages() []*Page {
	return lib.pages
}

// Page looks a page up by its content-relative source path.
func (lib *Library) Page(source string) *Page {
	return lib.bySource[source]
}

// PageBySlug looks a page up by its output slug.
func (lib *Library) PageBySlug(slug string) *Page {
	return lib.bySlug[slug]
}

// Problems returns the number of load diagnostics with error severity.
func (lib *Library) Problems() int {
	return lib.problems
}

// Find resolves a page reference from the command line: an exact
// source path, an output slug, or a unique source-path suffix
// ("install.adoc" finds "guides/install.adoc"). Returns nil when the
// reference matches nothing or is ambiguous.
func (lib *Library) Find(ref string) *Page {
	if page := lib.bySource[ref]; page != nil {
		return page
	}
	if page := lib.bySlug[ref]; page != nil {
		return page
	}
	var match *Page
	for _, page := range lib.pages {
		if strings.HasSuffix(page.Source, "/"+ref) {
			if match != nil {
				return nil
			}
			match = page
		}
	}
	return match
}

// Render produces the ANSI rendering of a page at the given width.
// The same output backs the detail pane and the non-interactive
// `colophon view <page>` pipe mode.
func (lib *Library) Render(page *Page, theme termdoc.Theme, width int) string {
	if page.Format == site.FormatMarkdown {
		return termdoc.Markdown(page.raw, theme, width)
	}
	if page.doc == nil {
		return ""
	}
	return termdoc.AsciiDoc(page.doc, theme, width)
}

// Search ranks pages by relevance to the query, best first.
func (lib *Library) Search(query string, limit int) []search.Result {
	return lib.index.Search(query, limit)
}
