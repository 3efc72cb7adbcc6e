// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package check

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/colophon-press/colophon/lib/build"
	"github.com/colophon-press/colophon/lib/config"
	"github.com/colophon-press/colophon/lib/diag"
	"github.com/colophon-press/colophon/lib/site"
)

// Options configures one validation run.
type Options struct {
	Config *config.Config
	Logger *slog.Logger
}

// Result is the validation outcome. The diagnostics are the report;
// callers decide exit behavior from the counts and strict mode.
type Result struct {
	Diags *diag.List
	Pages int
}

// Run validates the site without writing anything: a full parse of
// every page and descriptor, then the cross-page checks a single-page
// parse cannot see. Parse diagnostics (missing includes, malformed
// blocks, unresolved attributes) surface alongside dangling cross
// references, ambiguous anchors, missing images, orphaned pages, and
// unmatched nav entries.
func Run(ctx context.Context, opts Options) (*Result, error) {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	diags := &diag.List{}
	loaded, err := build.Load(cfg, diags)
	if err != nil {
		return nil, err
	}

	for _, page := range loaded.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		checkXrefs(loaded.Index, cfg, page.Page, diags)
		checkImages(cfg, page.Page, diags)
	}
	checkAnchors(loaded.Index, diags)
	checkOrphans(cfg, loaded.Index, diags)

	logger.Info("check complete",
		"pages", len(loaded.Pages),
		"errors", diags.ErrorCount(),
		"warnings", diags.WarningCount(),
	)
	return &Result{Diags: diags, Pages: len(loaded.Pages)}, nil
}

// checkXrefs resolves every outgoing reference the way the renderer
// will. The build only reports these for pages it actually re-renders;
// check reports them all.
func checkXrefs(index *site.Index, cfg *config.Config, page *site.Page, diags *diag.List) {
	resolver := index.Resolver(page, cfg.BaseURL)
	for _, target := range page.Xrefs {
		if _, _, ok := resolver.Resolve(target); !ok {
			diags.Warnf(diag.Position{File: page.Source},
				"unresolved cross reference %q", target)
		}
	}
}

// checkImages verifies that every page-relative image target exists
// in the content tree, where the build's static copy will pick it up.
// Absolute URLs and root-relative targets are not checked.
func checkImages(cfg *config.Config, page *site.Page, diags *diag.List) {
	for _, target := range page.Images {
		if strings.Contains(target, "://") || strings.HasPrefix(target, "data:") ||
			strings.HasPrefix(target, "/") {
			continue
		}
		resolved := path.Join(path.Dir(page.Source), target)
		if resolved == ".." || strings.HasPrefix(resolved, "../") {
			diags.Warnf(diag.Position{File: page.Source},
				"image %q escapes the content directory", target)
			continue
		}
		if _, err := os.Stat(filepath.Join(cfg.Paths.Content, filepath.FromSlash(resolved))); err != nil {
			diags.Warnf(diag.Position{File: page.Source},
				"image %q not found", target)
		}
	}
}

// checkAnchors reports anchors defined by more than one page. Bare
// cross references to them are ambiguous and render unlinked until
// the author switches to the page#anchor form.
func checkAnchors(index *site.Index, diags *diag.List) {
	duplicates := index.DuplicateAnchors()
	anchors := make([]string, 0, len(duplicates))
	for anchor := range duplicates {
		anchors = append(anchors, anchor)
	}
	sort.Strings(anchors)

	for _, anchor := range anchors {
		pages := duplicates[anchor]
		sources := make([]string, len(pages))
		for i, page := range pages {
			sources[i] = page.Source
		}
		sort.Strings(sources)
		diags.Warnf(diag.Position{File: sources[0]},
			"anchor %q is defined on multiple pages: %s", anchor, strings.Join(sources, ", "))
	}
}

// checkOrphans reports pages unreachable from the navigation. Sites
// without a nav list skip this; the root index page is always
// reachable through the site title link.
func checkOrphans(cfg *config.Config, index *site.Index, diags *diag.List) {
	if len(cfg.Nav) == 0 {
		return
	}
	nav := make([]string, len(cfg.Nav))
	for i, entry := range cfg.Nav {
		nav[i] = entry.Page
	}
	for _, page := range index.Orphans(nav) {
		if page.Slug == "index.html" {
			continue
		}
		diags.Warnf(diag.Position{File: page.Source},
			"page is not linked from the navigation")
	}
}
