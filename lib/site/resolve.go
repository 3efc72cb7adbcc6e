// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package site

import (
	"path"
	"strings"
)

// Resolver resolves one page's cross references against the site
// index. It satisfies the HTML renderer's resolver contract.
//
// Target forms, in the order they are tried:
//
//   - "anchor": an anchor on the referring page, then an anchor
//     defined by exactly one other page. Ambiguous anchors do not
//     resolve.
//   - "other.adoc" or "dir/other.md": another page, located relative
//     to the referring page's directory first, then relative to the
//     content root.
//   - "other.adoc#anchor": an anchor on another page. The anchor must
//     exist there.
type Resolver struct {
	index   *Index
	page    *Page
	baseURL string
}

// Resolver returns the cross reference resolver for one page.
func (ix *Index) Resolver(page *Page, baseURL string) *Resolver {
	return &Resolver{index: ix, page: page, baseURL: baseURL}
}

// Resolve maps a cross reference target to a href and default link
// text. ok is false for dangling and ambiguous targets.
func (r *Resolver) Resolve(target string) (href, text string, ok bool) {
	source, fragment, hasPath := splitTarget(target)
	if hasPath {
		return r.resolvePage(source, fragment)
	}
	return r.resolveAnchor(target)
}

// splitTarget separates "page#fragment" targets. hasPath is true only
// when the part before the fragment names a page source file.
func splitTarget(target string) (source, fragment string, hasPath bool) {
	source, fragment, _ = strings.Cut(target, "#")
	if _, ok := FormatFor(source); !ok {
		return "", "", false
	}
	return source, fragment, true
}

func (r *Resolver) resolvePage(source, fragment string) (string, string, bool) {
	dest := r.index.Page(path.Join(path.Dir(r.page.Source), source))
	if dest == nil {
		dest = r.index.Page(path.Clean(source))
	}
	if dest == nil {
		return "", "", false
	}
	href := PageURL(r.baseURL, dest.Slug)
	if fragment == "" {
		return href, dest.Title, true
	}
	text, ok := dest.Anchors[fragment]
	if !ok {
		return "", "", false
	}
	return href + "#" + fragment, text, true
}

func (r *Resolver) resolveAnchor(anchor string) (string, string, bool) {
	if text, ok := r.page.Anchors[anchor]; ok {
		return "#" + anchor, text, true
	}
	owners := r.index.anchors[anchor]
	if len(owners) != 1 {
		return "", "", false
	}
	dest := owners[0]
	return PageURL(r.baseURL, dest.Slug) + "#" + anchor, dest.Anchors[anchor], true
}
