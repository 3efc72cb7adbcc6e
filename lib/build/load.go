// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package build

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/colophon-press/colophon/lib/adoc"
	"github.com/colophon-press/colophon/lib/cache"
	"github.com/colophon-press/colophon/lib/config"
	"github.com/colophon-press/colophon/lib/diag"
	"github.com/colophon-press/colophon/lib/markdown"
	"github.com/colophon-press/colophon/lib/props"
	"github.com/colophon-press/colophon/lib/render"
	"github.com/colophon-press/colophon/lib/site"
)

// propertiesSource is the synthetic source path of the generated
// all-properties page. It never exists on disk; a site that provides
// its own page with the same slug wins.
const propertiesSource = "properties.adoc"

// LoadedPage is one parsed page.
type LoadedPage struct {
	Page   *site.Page
	Source []byte

	// Doc is the parsed tree, nil for Markdown pages.
	Doc *adoc.Document

	// Includes are the content hashes of the files the preprocessor
	// read, in resolution order.
	Includes []cache.Hash
}

// Loaded is the parsed content tree: every page in discovery order,
// the site index, and the property descriptors. The generated
// all-properties page is included when descriptors exist and no
// authored page claims its slug.
type Loaded struct {
	Index       *site.Index
	Pages       []*LoadedPage
	Descriptors []*props.Descriptor
}

// Load parses the whole site without writing anything: the build,
// check, and the viewer all start here. Include directives targeting
// the generated partials directory are served from memory, so parsing
// reflects the current descriptors even when no build has written the
// partials yet. Content problems become diagnostics; the returned
// error is reserved for unreadable trees.
func Load(cfg *config.Config, diags *diag.List) (*Loaded, error) {
	descriptors, err := props.LoadDir(cfg.DescriptorDir(), diags)
	if err != nil {
		return nil, err
	}

	sources, err := site.Discover(cfg.Paths.Content)
	if err != nil {
		return nil, err
	}

	loaded := &Loaded{
		Index:       site.NewIndex(),
		Descriptors: descriptors,
	}
	converter := markdown.NewConverter(render.HighlightOptions{Style: cfg.Highlight.Style})
	partials := generatedPartials(cfg, descriptors)

	for _, source := range sources {
		data, err := os.ReadFile(filepath.Join(cfg.Paths.Content, filepath.FromSlash(source)))
		if err != nil {
			return nil, fmt.Errorf("reading page source: %w", err)
		}

		page := &LoadedPage{Source: data}
		format, _ := site.FormatFor(source)
		switch format {
		case site.FormatAsciiDoc:
			resolver := &recordingResolver{inner: overlayResolver{
				inner:   adoc.DirResolver{Root: cfg.Paths.Content},
				overlay: partials,
			}}
			doc, parseDiags := adoc.Parse(source, data, adoc.ParseOptions{
				Resolver:   resolver,
				Attributes: siteAttributes(cfg),
			})
			diags.Merge(parseDiags)
			page.Doc = doc
			page.Includes = resolver.hashes
			page.Page = site.PageFromDocument(source, doc)

		case site.FormatMarkdown:
			outline, err := converter.Outline(data)
			if err != nil {
				diags.Errorf(diag.Position{File: source}, "parsing markdown: %v", err)
				continue
			}
			anchors := make(map[string]string, len(outline.Headings))
			for _, h := range outline.Headings {
				anchors[h.ID] = h.Text
			}
			page.Page = &site.Page{
				Source:  source,
				Slug:    site.SlugFor(source),
				Format:  site.FormatMarkdown,
				Title:   outline.Title,
				Anchors: anchors,
				Images:  outline.Images,
			}
		}

		if err := loaded.Index.Add(page.Page); err != nil {
			diags.Errorf(diag.Position{File: source}, "%v", err)
			continue
		}
		loaded.Pages = append(loaded.Pages, page)
	}

	appendPropertiesPage(loaded, diags)

	if len(loaded.Pages) == 0 {
		diags.Errorf(diag.Position{File: cfg.Paths.Content}, "no pages found")
	}

	for _, entry := range cfg.Nav {
		if loaded.Index.Page(entry.Page) == nil {
			diags.Warnf(diag.Position{File: config.DefaultFileName},
				"nav entry %q does not match any page", entry.Page)
		}
	}
	return loaded, nil
}

// recordingResolver hashes every include it serves for the page cache
// key.
type recordingResolver struct {
	inner  adoc.Resolver
	hashes []cache.Hash
}

func (r *recordingResolver) ReadInclude(path string) ([]byte, error) {
	data, err := r.inner.ReadInclude(path)
	if err != nil {
		return nil, err
	}
	r.hashes = append(r.hashes, cache.HashAsset(data))
	return data, nil
}

// overlayResolver serves selected include targets from memory and
// everything else from the wrapped resolver.
type overlayResolver struct {
	inner   adoc.Resolver
	overlay map[string][]byte
}

func (r overlayResolver) ReadInclude(relpath string) ([]byte, error) {
	if data, ok := r.overlay[path.Clean(relpath)]; ok {
		return data, nil
	}
	return r.inner.ReadInclude(relpath)
}

// generatedPartials maps the content-relative include paths of the
// generated property partials to their current content. Nil when no
// descriptors exist or the generated directory is outside the content
// root, where includes cannot reach it anyway.
func generatedPartials(cfg *config.Config, descriptors []*props.Descriptor) map[string][]byte {
	if len(descriptors) == 0 {
		return nil
	}
	rel, err := filepath.Rel(cfg.Paths.Content, cfg.Paths.Generated)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil
	}
	partials := make(map[string][]byte, len(descriptors))
	for _, descriptor := range descriptors {
		key := path.Join(filepath.ToSlash(rel), descriptor.Extension+".adoc")
		partials[key] = props.GenerateTable(descriptor)
	}
	return partials
}

// siteAttributes builds the attribute seed for one page parse: the
// global attributes from configuration, overridable by page entries.
func siteAttributes(cfg *config.Config) *adoc.AttributeSet {
	attrs := adoc.NewAttributeSet()
	for name, value := range cfg.Attributes {
		attrs.Set(name, value)
	}
	return attrs
}

// appendPropertiesPage synthesizes the all-properties reference page
// from the loaded descriptors. A site page that already claims the
// slug wins over the generated one.
func appendPropertiesPage(loaded *Loaded, diags *diag.List) {
	if len(loaded.Descriptors) == 0 {
		return
	}
	source := allPropertiesSource(loaded.Descriptors)
	doc, parseDiags := adoc.Parse(propertiesSource, source, adoc.ParseOptions{})
	diags.Merge(parseDiags)

	page := site.PageFromDocument(propertiesSource, doc)
	if err := loaded.Index.Add(page); err != nil {
		return
	}
	loaded.Pages = append(loaded.Pages, &LoadedPage{Page: page, Source: source, Doc: doc})
}

// allPropertiesSource builds the AsciiDoc source of the properties
// reference: one section per descriptor, each holding its generated
// table. Descriptors arrive sorted by extension, so the source is
// deterministic.
func allPropertiesSource(descriptors []*props.Descriptor) []byte {
	var buf bytes.Buffer
	buf.WriteString("= Configuration Properties\n\n")
	buf.WriteString("Every configuration property, grouped by extension. Generated from the property descriptors.\n\n")
	for _, descriptor := range descriptors {
		fmt.Fprintf(&buf, "== %s\n\n", descriptor.DisplayTitle())
		buf.Write(props.GenerateTable(descriptor))
		buf.WriteString("\n")
	}
	return buf.Bytes()
}
