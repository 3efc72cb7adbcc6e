// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package build

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/colophon-press/colophon/lib/cache"
	"github.com/colophon-press/colophon/lib/diag"
	"github.com/colophon-press/colophon/lib/render"
	"github.com/colophon-press/colophon/lib/search"
	"github.com/colophon-press/colophon/lib/site"
)

// renderPages renders every page fragment, bounded by GOMAXPROCS.
// Workers share nothing but the immutable site index and the cache
// store; diagnostics collect per page and merge in page order so the
// report is deterministic regardless of scheduling.
func (b *builder) renderPages(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(runtime.GOMAXPROCS(0))

	lists := make([]*diag.List, len(b.states))
	for i, state := range b.states {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			lists[i] = &diag.List{}
			return b.renderPage(state, lists[i])
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	for _, list := range lists {
		if list != nil {
			b.diags.Merge(list)
		}
	}
	for _, state := range b.states {
		if state.fromCache {
			b.reused++
		} else {
			b.rendered++
		}
	}
	return nil
}

// renderPage produces the fragment entry for one page, from the cache
// when its key matches a previous render.
func (b *builder) renderPage(state *pageState, diags *diag.List) error {
	resolver := b.index.Resolver(state.Page, b.cfg.BaseURL)
	state.key = b.pageKey(state, resolver)

	if b.store != nil {
		if entry, ok := b.store.Get(state.key); ok {
			state.entry = entry
			state.fromCache = true
			return nil
		}
	}

	entry := &cache.Entry{
		Slug:     state.Page.Slug,
		Source:   state.Page.Source,
		Title:    state.Page.Title,
		Rendered: time.Now().UTC(),
	}
	switch state.Page.Format {
	case site.FormatAsciiDoc:
		fragment := render.Fragment(state.Doc, render.Options{
			Highlight: b.highlight,
			Resolver:  resolver,
		}, diags)
		entry.HTML = fragment.HTML
		entry.Plain = fragment.Plain
		entry.Headings = toEntryHeadings(fragment.Headings)

	case site.FormatMarkdown:
		page, err := b.converter.Render(state.Source)
		if err != nil {
			return fmt.Errorf("rendering %s: %w", state.Page.Source, err)
		}
		entry.HTML = page.HTML
		entry.Plain = page.Plain
		entry.Headings = toEntryHeadings(page.Headings)
	}
	state.entry = entry

	if b.store != nil {
		if err := b.store.Put(state.key, entry); err != nil {
			// A cache write failure costs a re-render next build,
			// nothing more.
			b.logger.Warn("caching rendered page", "page", state.Page.Source, "error", err)
		}
	}
	return nil
}

// pageKey computes the cache key over everything that determines the
// fragment: source bytes, include contents, final attributes, the
// resolutions of the page's outgoing cross references, the toolchain
// stamp, and the template set digest.
func (b *builder) pageKey(state *pageState, resolver *site.Resolver) cache.Hash {
	in := cache.PageInputs{
		Source:    state.Source,
		Includes:  state.Includes,
		Toolchain: b.toolchain,
		Template:  b.templateDigest,
	}
	if state.Doc != nil {
		in.Attributes = state.Doc.Attributes.Pairs()
	}
	for _, target := range state.Page.Xrefs {
		href, text, ok := resolver.Resolve(target)
		in.Xrefs = append(in.Xrefs, fmt.Sprintf("%s\x00%s\x00%s\x00%t", target, href, text, ok))
	}
	return in.Key()
}

func toEntryHeadings(headings []render.Heading) []cache.EntryHeading {
	if len(headings) == 0 {
		return nil
	}
	out := make([]cache.EntryHeading, len(headings))
	for i, h := range headings {
		out[i] = cache.EntryHeading{Level: h.Level, ID: h.ID, Text: h.Text}
	}
	return out
}

func toRenderHeadings(headings []cache.EntryHeading) []render.Heading {
	if len(headings) == 0 {
		return nil
	}
	out := make([]render.Heading, len(headings))
	for i, h := range headings {
		out[i] = render.Heading{Level: h.Level, ID: h.ID, Text: h.Text}
	}
	return out
}

// navRef is one resolved navigation entry.
type navRef struct {
	source string
	title  string
	href   string
}

// navRefs resolves the configured nav list against the index,
// dropping entries that matched no page (already warned about in the
// parse phase).
func (b *builder) navRefs() []navRef {
	refs := make([]navRef, 0, len(b.cfg.Nav))
	for _, entry := range b.cfg.Nav {
		page := b.index.Page(entry.Page)
		if page == nil {
			continue
		}
		title := entry.Title
		if title == "" {
			title = page.Title
		}
		if title == "" {
			title = page.Slug
		}
		refs = append(refs, navRef{
			source: page.Source,
			title:  title,
			href:   site.PageURL(b.cfg.BaseURL, page.Slug),
		})
	}
	return refs
}

// writePages assembles each fragment into a complete page and writes
// it. Pages render to memory first: a template failure never leaves a
// truncated file in the output tree.
func (b *builder) writePages() error {
	templates, err := render.LoadTemplates(b.cfg.Paths.Templates, b.assets)
	if err != nil {
		return err
	}

	refs := b.navRefs()
	for _, state := range b.states {
		data := b.pageData(state, refs)

		var buf bytes.Buffer
		if err := templates.RenderPage(&buf, data); err != nil {
			return fmt.Errorf("assembling %s: %w", state.Page.Slug, err)
		}

		out := filepath.Join(b.cfg.Paths.Output, filepath.FromSlash(state.Page.Slug))
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
		if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", state.Page.Slug, err)
		}
	}
	return nil
}

// pageData builds the template context for one page.
func (b *builder) pageData(state *pageState, refs []navRef) *render.PageData {
	page := state.Page

	nav := make([]render.NavItem, len(refs))
	position := -1
	for i, ref := range refs {
		nav[i] = render.NavItem{
			Title:   ref.title,
			Href:    ref.href,
			Current: ref.source == page.Source,
		}
		if ref.source == page.Source {
			position = i
		}
	}

	var prev, next *render.NavItem
	if position > 0 {
		prev = &render.NavItem{Title: refs[position-1].title, Href: refs[position-1].href}
	}
	if position >= 0 && position < len(refs)-1 {
		next = &render.NavItem{Title: refs[position+1].title, Href: refs[position+1].href}
	}

	return &render.PageData{
		Site: render.SiteData{
			Title: b.cfg.Title,
			// Normalized to end in "/" so templates can prepend it to
			// relative asset paths.
			BaseURL:   site.PageURL(b.cfg.BaseURL, ""),
			Generator: b.toolchain,
		},
		Title:       state.entry.Title,
		Slug:        page.Slug,
		Content:     template.HTML(state.entry.HTML),
		TOC:         render.BuildTOC(toRenderHeadings(state.entry.Headings), b.cfg.TOC.Depth),
		Nav:         nav,
		Breadcrumbs: b.breadcrumbs(page),
		Prev:        prev,
		Next:        next,
	}
}

// breadcrumbs derives the trail from the slug path. The root index
// page carries none.
func (b *builder) breadcrumbs(page *site.Page) []render.Crumb {
	if page.Slug == "index.html" {
		return nil
	}
	crumbs := []render.Crumb{{
		Title: b.cfg.Title,
		Href:  site.PageURL(b.cfg.BaseURL, ""),
	}}
	dir := path.Dir(page.Slug)
	if dir != "." {
		for _, segment := range strings.Split(dir, "/") {
			crumbs = append(crumbs, render.Crumb{Title: titleizeSegment(segment)})
		}
	}
	title := page.Title
	if title == "" {
		title = page.Slug
	}
	return append(crumbs, render.Crumb{Title: title})
}

// titleizeSegment turns a path segment into display text:
// "getting-started" becomes "Getting Started".
func titleizeSegment(segment string) string {
	words := strings.FieldsFunc(segment, func(r rune) bool {
		return r == '-' || r == '_'
	})
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// writeSearchIndex emits the search metadata artifact into the output
// root.
func (b *builder) writeSearchIndex() error {
	entries := make([]search.Entry, len(b.states))
	for i, state := range b.states {
		headings := make([]string, len(state.entry.Headings))
		for j, h := range state.entry.Headings {
			headings[j] = h.Text
		}
		entries[i] = search.Entry{
			Slug:     state.Page.Slug,
			Title:    state.entry.Title,
			Headings: headings,
			Plain:    state.entry.Plain,
		}
	}
	return search.Write(filepath.Join(b.cfg.Paths.Output, search.FileName), entries)
}
