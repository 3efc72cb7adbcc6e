// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package site

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/colophon-press/colophon/lib/adoc"
)

// Format identifies a page's source markup.
type Format int

const (
	FormatAsciiDoc Format = iota
	FormatMarkdown
)

// String returns the source extension without the dot.
func (f Format) String() string {
	if f == FormatMarkdown {
		return "md"
	}
	return "adoc"
}

// Page is one content page in the site model. The renderer, search
// index, and viewer all work from this shape regardless of the source
// format.
type Page struct {
	// Source is the content-relative source path, slash-separated
	// ("guides/install.adoc").
	Source string

	// Slug is the output path: Source with the extension swapped to
	// ".html".
	Slug string

	Format Format

	// Title is the document title ("= Title" or the first "# Title").
	Title string

	// Anchors maps every anchor the page defines to its display text.
	Anchors map[string]string

	// Xrefs holds the page's outgoing cross reference targets in
	// source order, unresolved.
	Xrefs []string

	// Images holds the page's referenced image targets, exactly as
	// written.
	Images []string
}

// FormatFor reports the page format for a source path. ok is false
// for non-page files.
func FormatFor(source string) (Format, bool) {
	switch path.Ext(source) {
	case ".adoc":
		return FormatAsciiDoc, true
	case ".md":
		return FormatMarkdown, true
	}
	return 0, false
}

// SlugFor converts a content-relative source path to its output path.
func SlugFor(source string) string {
	return strings.TrimSuffix(source, path.Ext(source)) + ".html"
}

// PageURL joins the site base URL and a slug into an absolute site
// path.
func PageURL(baseURL, slug string) string {
	if baseURL == "" {
		baseURL = "/"
	}
	return strings.TrimSuffix(baseURL, "/") + "/" + slug
}

// Discover walks contentDir and returns the content-relative paths of
// every page source in lexical order. Underscore directories hold
// partials, reachable only through includes, and dot entries are not
// content; both are skipped.
func Discover(contentDir string) ([]string, error) {
	return discover(contentDir, true)
}

// DiscoverStatic returns the content-relative paths of every non-page
// file in the content tree, under the same skip rules as Discover.
// These travel into the output verbatim: images and downloads keep
// the page-relative paths pages reference them by.
func DiscoverStatic(contentDir string) ([]string, error) {
	return discover(contentDir, false)
}

func discover(contentDir string, pages bool) ([]string, error) {
	var found []string
	err := filepath.WalkDir(contentDir, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := entry.Name()
		if entry.IsDir() {
			if p == contentDir {
				return nil
			}
			if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		if _, ok := FormatFor(name); ok != pages {
			return nil
		}
		rel, err := filepath.Rel(contentDir, p)
		if err != nil {
			return err
		}
		found = append(found, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discovering content: %w", err)
	}
	return found, nil
}

// PageFromDocument builds the page model for a parsed AsciiDoc file.
func PageFromDocument(source string, doc *adoc.Document) *Page {
	var images []string
	adoc.Walk(doc.Blocks, func(b adoc.Block) bool {
		if image, ok := b.(*adoc.Image); ok {
			images = append(images, image.Target)
		}
		return true
	})
	var xrefs []string
	adoc.WalkInlines(doc.Blocks, func(n adoc.Inline) {
		switch n := n.(type) {
		case *adoc.CrossRef:
			xrefs = append(xrefs, n.Target)
		case *adoc.InlineImage:
			images = append(images, n.Target)
		}
	})
	return &Page{
		Source:  source,
		Slug:    SlugFor(source),
		Format:  FormatAsciiDoc,
		Title:   doc.Title,
		Anchors: doc.Anchors,
		Xrefs:   xrefs,
		Images:  images,
	}
}

// Index is the site-wide page index: lookup by source path, duplicate
// detection, and the anchor table cross references resolve against.
//
// Add is single-threaded; after indexing, lookups are safe for
// concurrent use.
type Index struct {
	pages    []*Page
	bySource map[string]*Page
	bySlug   map[string]*Page
	anchors  map[string][]*Page
}

func NewIndex() *Index {
	return &Index{
		bySource: make(map[string]*Page),
		bySlug:   make(map[string]*Page),
		anchors:  make(map[string][]*Page),
	}
}

// Add registers a page. Registering two sources that map to the same
// output slug (install.adoc beside install.md) is an error: one would
// silently overwrite the other in the output tree.
func (ix *Index) Add(page *Page) error {
	if prev, ok := ix.bySource[page.Source]; ok && prev != nil {
		return fmt.Errorf("page %s already indexed", page.Source)
	}
	if prev, ok := ix.bySlug[page.Slug]; ok {
		return fmt.Errorf("pages %s and %s both produce %s", prev.Source, page.Source, page.Slug)
	}
	ix.pages = append(ix.pages, page)
	ix.bySource[page.Source] = page
	ix.bySlug[page.Slug] = page
	for anchor := range page.Anchors {
		ix.anchors[anchor] = append(ix.anchors[anchor], page)
	}
	return nil
}

// Pages returns every indexed page in insertion order.
func (ix *Index) Pages() []*Page {
	return ix.pages
}

// Page looks a page up by its content-relative source path.
func (ix *Index) Page(source string) *Page {
	return ix.bySource[source]
}

// Len returns the number of indexed pages.
func (ix *Index) Len() int {
	return len(ix.pages)
}

// Orphans returns pages absent from the nav source list, in page
// order. Orphans still build; they are only unreachable from the
// navigation.
func (ix *Index) Orphans(nav []string) []*Page {
	listed := make(map[string]bool, len(nav))
	for _, source := range nav {
		listed[source] = true
	}
	var orphans []*Page
	for _, page := range ix.pages {
		if !listed[page.Source] {
			orphans = append(orphans, page)
		}
	}
	return orphans
}

// DuplicateAnchors returns anchors defined by more than one page,
// with their defining pages. Cross references to these are ambiguous.
func (ix *Index) DuplicateAnchors() map[string][]*Page {
	dups := make(map[string][]*Page)
	for anchor, pages := range ix.anchors {
		if len(pages) > 1 {
			dups[anchor] = pages
		}
	}
	return dups
}
