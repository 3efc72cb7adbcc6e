// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package build

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/colophon-press/colophon/lib/cache"
	"github.com/colophon-press/colophon/lib/render"
)

// manifestName is the asset manifest emitted at the output root,
// mapping logical asset paths to their fingerprinted copies.
const manifestName = "manifest.json"

// writeAssets copies static assets into the output with content
// fingerprints in their names and records the mapping in b.assets and
// manifest.json. Sources, in override order: built-in assets, the
// generated highlight stylesheet, then the site assets directory.
func (b *builder) writeAssets() error {
	files := make(map[string][]byte)

	if err := collectAssetFS(render.BuiltinAssets(), files); err != nil {
		return fmt.Errorf("reading built-in assets: %w", err)
	}

	chromaCSS, err := render.HighlightCSS(b.cfg.Highlight.Style)
	if err != nil {
		return fmt.Errorf("generating highlight stylesheet: %w", err)
	}
	files["chroma.css"] = chromaCSS

	if dir := b.cfg.Paths.Assets; dir != "" {
		if err := collectAssetDir(dir, files); err != nil {
			return err
		}
	}

	b.assets = make(map[string]string, len(files))
	for name, data := range files {
		fingerprinted := fingerprintName(name, cache.HashAsset(data))
		out := filepath.Join(b.cfg.Paths.Output, "assets", filepath.FromSlash(fingerprinted))
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return fmt.Errorf("creating asset directory: %w", err)
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("writing asset %s: %w", name, err)
		}
		b.assets["assets/"+name] = "assets/" + fingerprinted
	}
	b.logger.Debug("assets written", "count", len(b.assets))

	return b.writeAssetManifest()
}

// writeAssetManifest emits manifest.json. Key order is JSON map order
// (sorted), so the file is deterministic.
func (b *builder) writeAssetManifest() error {
	data, err := json.MarshalIndent(b.assets, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding asset manifest: %w", err)
	}
	data = append(data, '\n')
	out := filepath.Join(b.cfg.Paths.Output, manifestName)
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("writing asset manifest: %w", err)
	}
	return nil
}

// collectAssetFS reads every file of fsys into files, keyed by
// slash-separated path.
func collectAssetFS(fsys fs.FS, files map[string][]byte) error {
	return fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		files[p] = data
		return nil
	})
}

// collectAssetDir reads the site assets directory into files. A
// missing directory is fine; dot entries are skipped.
func collectAssetDir(dir string, files map[string][]byte) error {
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") && p != dir {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = data
		return nil
	})
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading site assets: %w", err)
	}
	return nil
}

// fingerprintName inserts the asset tag before the extension:
// "colophon.css" becomes "colophon-3f9c2ab8e1.css".
func fingerprintName(name string, hash cache.Hash) string {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + "-" + cache.AssetTag(hash) + ext
}

// templatesDigest hashes the template set: the built-in files overlaid
// with any site overrides. The digest feeds every page cache key, so
// editing a template invalidates rendered fragments even though
// templates execute on every build (the fragment itself may embed
// template-era conventions such as heading anchors).
func (b *builder) templatesDigest() (cache.Hash, error) {
	type tmplFile struct {
		name string
		data []byte
	}
	byName := make(map[string]tmplFile)

	builtin := render.BuiltinTemplates()
	err := fs.WalkDir(builtin, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(builtin, p)
		if err != nil {
			return err
		}
		byName[p] = tmplFile{name: p, data: data}
		return nil
	})
	if err != nil {
		return cache.Hash{}, fmt.Errorf("reading built-in templates: %w", err)
	}

	if dir := b.cfg.Paths.Templates; dir != "" {
		overrides, err := filepath.Glob(filepath.Join(dir, "*.html"))
		if err != nil {
			return cache.Hash{}, fmt.Errorf("listing site templates: %w", err)
		}
		for _, p := range overrides {
			data, err := os.ReadFile(p)
			if err != nil {
				return cache.Hash{}, fmt.Errorf("reading site template: %w", err)
			}
			name := filepath.Base(p)
			byName[name] = tmplFile{name: name, data: data}
		}
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	hashes := make([]cache.Hash, len(names))
	for i, name := range names {
		f := byName[name]
		framed := append([]byte(f.name+"\x00"), f.data...)
		hashes[i] = cache.HashAsset(framed)
	}
	return cache.ManifestDigest(hashes), nil
}
