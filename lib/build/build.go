// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/colophon-press/colophon/lib/cache"
	"github.com/colophon-press/colophon/lib/config"
	"github.com/colophon-press/colophon/lib/diag"
	"github.com/colophon-press/colophon/lib/markdown"
	"github.com/colophon-press/colophon/lib/props"
	"github.com/colophon-press/colophon/lib/render"
	"github.com/colophon-press/colophon/lib/site"
	"github.com/colophon-press/colophon/lib/version"
)

// Options configures one build.
type Options struct {
	Config *config.Config
	Logger *slog.Logger

	// NoCache renders every page even when a cached fragment exists.
	NoCache bool
}

// Result summarizes a completed build. Content problems are
// diagnostics here, not errors: Run returns an error only for
// infrastructure failures (unreadable directories, write failures).
type Result struct {
	// Diags holds every diagnostic the build produced, parse and
	// render phases included.
	Diags *diag.List

	// Pages is the number of pages in the site, the generated
	// properties page included.
	Pages int

	// Rendered and Reused split the pages by cache outcome.
	Rendered int
	Reused   int

	// Digest identifies the built output: the manifest-domain digest
	// over the page keys in slug order. The preview server seeds its
	// ETags from it.
	Digest cache.Hash
}

// pageState carries one page through the render and assembly phases.
type pageState struct {
	*LoadedPage

	key       cache.Hash
	entry     *cache.Entry
	fromCache bool
}

// builder threads the pipeline state between phases.
type builder struct {
	cfg    *config.Config
	logger *slog.Logger
	opts   Options

	diags       *diag.List
	highlight   render.HighlightOptions
	converter   *markdown.Converter
	toolchain   string
	descriptors []*props.Descriptor

	index  *site.Index
	states []*pageState

	store          *cache.Store
	templateDigest cache.Hash

	// assets maps logical asset paths ("assets/colophon.css") to
	// their fingerprinted output paths.
	assets map[string]string

	rendered int
	reused   int
}

// Run executes the build pipeline: regenerate property partials,
// discover and parse pages, fingerprint assets, render fragments
// through the cache, assemble pages, and emit the search index. The
// same input tree always produces byte-identical output.
func Run(ctx context.Context, opts Options) (*Result, error) {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsurePaths(); err != nil {
		return nil, err
	}

	start := time.Now()
	b := &builder{
		cfg:    cfg,
		logger: logger,
		opts:   opts,
		diags:  &diag.List{},
		highlight: render.HighlightOptions{
			Style:       cfg.Highlight.Style,
			LineNumbers: cfg.Highlight.LineNumbers,
		},
		toolchain: "colophon/" + version.Short(),
		assets:    make(map[string]string),
	}
	b.converter = markdown.NewConverter(b.highlight)

	loaded, err := Load(cfg, b.diags)
	if err != nil {
		return nil, err
	}
	b.index = loaded.Index
	b.descriptors = loaded.Descriptors
	b.states = make([]*pageState, len(loaded.Pages))
	for i, page := range loaded.Pages {
		b.states[i] = &pageState{LoadedPage: page}
	}

	if err := b.writePartials(); err != nil {
		return nil, err
	}
	if err := b.writeAssets(); err != nil {
		return nil, err
	}
	if err := b.copyStatic(); err != nil {
		return nil, err
	}

	if !opts.NoCache {
		store, err := cache.Open(cfg.Paths.Cache)
		if err != nil {
			return nil, err
		}
		b.store = store
		if cause := store.ResetNote(); cause != nil {
			logger.Warn("render cache reset, rebuilding cold", "cause", cause)
		}
	}

	digest, err := b.templatesDigest()
	if err != nil {
		return nil, err
	}
	b.templateDigest = digest

	if err := b.renderPages(ctx); err != nil {
		return nil, err
	}
	if b.store != nil {
		b.maintainCache()
	}

	if err := b.writePages(); err != nil {
		return nil, err
	}
	if err := b.writeSearchIndex(); err != nil {
		return nil, err
	}

	result := &Result{
		Diags:    b.diags,
		Pages:    len(b.states),
		Rendered: b.rendered,
		Reused:   b.reused,
		Digest:   b.outputDigest(),
	}
	logger.Info("build complete",
		"pages", result.Pages,
		"rendered", result.Rendered,
		"reused", result.Reused,
		"errors", b.diags.ErrorCount(),
		"warnings", b.diags.WarningCount(),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return result, nil
}

// writePartials rewrites stale property-table partials on disk. The
// parse already saw their current content through the load overlay;
// the files exist for authors and for the serve watcher.
func (b *builder) writePartials() error {
	if len(b.descriptors) == 0 {
		return nil
	}
	written, err := props.WritePartials(b.cfg.Paths.Generated, b.descriptors)
	if err != nil {
		return err
	}
	if len(written) > 0 {
		b.logger.Info("regenerated property partials", "count", len(written))
	}
	return nil
}

// copyStatic copies non-page content files (images, downloads) into
// the output verbatim, page-relative paths intact.
func (b *builder) copyStatic() error {
	statics, err := site.DiscoverStatic(b.cfg.Paths.Content)
	if err != nil {
		return err
	}
	for _, rel := range statics {
		data, err := os.ReadFile(filepath.Join(b.cfg.Paths.Content, filepath.FromSlash(rel)))
		if err != nil {
			return fmt.Errorf("reading static file: %w", err)
		}
		out := filepath.Join(b.cfg.Paths.Output, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("copying static file %s: %w", rel, err)
		}
	}
	return nil
}

// maintainCache drops entries no build input produces anymore and
// persists the manifest.
func (b *builder) maintainCache() {
	live := make(map[cache.Hash]bool, len(b.states))
	for _, state := range b.states {
		live[state.key] = true
	}
	if pruned, err := b.store.Prune(live); err != nil {
		b.logger.Warn("pruning render cache", "error", err)
	} else if pruned > 0 {
		b.logger.Debug("pruned stale cache entries", "count", pruned)
	}
	if err := b.store.Flush(); err != nil {
		b.logger.Warn("flushing render cache", "error", err)
	}
}

// outputDigest derives the build digest from the page keys in slug
// order.
func (b *builder) outputDigest() cache.Hash {
	if len(b.states) == 0 {
		return cache.Hash{}
	}
	sorted := make([]*pageState, len(b.states))
	copy(sorted, b.states)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Page.Slug < sorted[j].Page.Slug
	})
	keys := make([]cache.Hash, len(sorted))
	for i, state := range sorted {
		keys[i] = state.key
	}
	return cache.ManifestDigest(keys)
}
