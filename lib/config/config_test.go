// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "colophon.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.BaseURL != "/" {
		t.Errorf("expected baseurl=/, got %s", cfg.BaseURL)
	}
	if cfg.Paths.Content != "content" {
		t.Errorf("expected content=content, got %s", cfg.Paths.Content)
	}
	if cfg.Highlight.Style != "github" {
		t.Errorf("expected highlight.style=github, got %s", cfg.Highlight.Style)
	}
	if cfg.TOC.Depth != 2 {
		t.Errorf("expected toc.depth=2, got %d", cfg.TOC.Depth)
	}
	if cfg.Serve.Address != "localhost:8080" {
		t.Errorf("expected serve.address=localhost:8080, got %s", cfg.Serve.Address)
	}
	if !cfg.Serve.Watch {
		t.Error("expected serve.watch=true by default")
	}
	if cfg.Strict {
		t.Error("expected strict=false by default")
	}
}

func TestLoad_UsesColophonConfigEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
title: Pipeline Docs
paths:
  content: docs
`)
	t.Setenv("COLOPHON_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Title != "Pipeline Docs" {
		t.Errorf("expected title=Pipeline Docs, got %s", cfg.Title)
	}
	if cfg.Paths.Content != filepath.Join(dir, "docs") {
		t.Errorf("expected content under config dir, got %s", cfg.Paths.Content)
	}
}

func TestLoad_FallsBackToWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "title: Pipeline Docs\n")
	t.Setenv("COLOPHON_CONFIG", "")
	t.Chdir(dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Title != "Pipeline Docs" {
		t.Errorf("expected title=Pipeline Docs, got %s", cfg.Title)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("COLOPHON_CONFIG", "")
	t.Chdir(t.TempDir())

	if _, err := Load(); err == nil {
		t.Fatal("expected error when no colophon.yaml exists, got nil")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
title: Pipeline Docs
baseurl: /docs/

paths:
  content: src/docs
  output: dist
  cache: .cache

attributes:
  product: Pipeline
  version: 2.4.0

highlight:
  style: monokai
  line_numbers: true

toc:
  depth: 3

nav:
  - page: index.adoc
  - page: guides/install.adoc
    title: Installation

serve:
  address: 0.0.0.0:9000
  watch: false

strict: true
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Title != "Pipeline Docs" {
		t.Errorf("expected title=Pipeline Docs, got %s", cfg.Title)
	}
	if cfg.BaseURL != "/docs/" {
		t.Errorf("expected baseurl=/docs/, got %s", cfg.BaseURL)
	}
	if cfg.Paths.Content != filepath.Join(dir, "src/docs") {
		t.Errorf("expected resolved content path, got %s", cfg.Paths.Content)
	}
	if cfg.Attributes["product"] != "Pipeline" {
		t.Errorf("expected attributes.product=Pipeline, got %s", cfg.Attributes["product"])
	}
	if cfg.Attributes["version"] != "2.4.0" {
		t.Errorf("expected attributes.version=2.4.0, got %s", cfg.Attributes["version"])
	}
	if cfg.Highlight.Style != "monokai" {
		t.Errorf("expected highlight.style=monokai, got %s", cfg.Highlight.Style)
	}
	if !cfg.Highlight.LineNumbers {
		t.Error("expected line_numbers=true")
	}
	if cfg.TOC.Depth != 3 {
		t.Errorf("expected toc.depth=3, got %d", cfg.TOC.Depth)
	}
	if len(cfg.Nav) != 2 {
		t.Fatalf("expected 2 nav entries, got %d", len(cfg.Nav))
	}
	if cfg.Nav[1].Page != "guides/install.adoc" || cfg.Nav[1].Title != "Installation" {
		t.Errorf("nav[1] = %+v, want guides/install.adoc / Installation", cfg.Nav[1])
	}
	if cfg.Serve.Address != "0.0.0.0:9000" {
		t.Errorf("expected serve.address=0.0.0.0:9000, got %s", cfg.Serve.Address)
	}
	if cfg.Serve.Watch {
		t.Error("expected serve.watch=false from file")
	}
	if !cfg.Strict {
		t.Error("expected strict=true from file")
	}
}

func TestLoadFile_DerivedPaths(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
title: Pipeline Docs
paths:
  content: docs
  cache: .cache
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	wantGenerated := filepath.Join(dir, "docs", "_partials", "generated")
	if cfg.Paths.Generated != wantGenerated {
		t.Errorf("expected generated=%s, got %s", wantGenerated, cfg.Paths.Generated)
	}
	wantCatalog := filepath.Join(dir, ".cache", "props.db")
	if cfg.Props.Catalog != wantCatalog {
		t.Errorf("expected props.catalog=%s, got %s", wantCatalog, cfg.Props.Catalog)
	}
}

func TestLoadFile_AbsolutePathsKept(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
title: Pipeline Docs
paths:
  output: /srv/www/docs
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Paths.Output != "/srv/www/docs" {
		t.Errorf("absolute path was rewritten: %s", cfg.Paths.Output)
	}
}

func TestEnvVarsDoNotOverride(t *testing.T) {
	// The config file is the single source of truth: COLOPHON_* env
	// vars never override values loaded from it.
	t.Setenv("COLOPHON_TITLE", "Env Title")
	t.Setenv("COLOPHON_OUTPUT", "/env/output")

	dir := t.TempDir()
	path := writeConfig(t, dir, `
title: File Title
paths:
  output: file-output
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Title != "File Title" {
		t.Errorf("expected title from file, got %s", cfg.Title)
	}
	if cfg.Paths.Output != filepath.Join(dir, "file-output") {
		t.Errorf("expected output from file, got %s", cfg.Paths.Output)
	}
}

func TestExpandVars(t *testing.T) {
	tests := []struct {
		input    string
		vars     map[string]string
		expected string
	}{
		{
			input:    "${HOME}/docs",
			vars:     map[string]string{"HOME": "/home/user"},
			expected: "/home/user/docs",
		},
		{
			input:    "${MISSING:-default}",
			vars:     map[string]string{},
			expected: "default",
		},
		{
			input:    "${PRESENT:-default}",
			vars:     map[string]string{"PRESENT": "value"},
			expected: "value",
		},
		{
			input:    "${A}/${B}",
			vars:     map[string]string{"A": "first", "B": "second"},
			expected: "first/second",
		},
		{
			input:    "no variables here",
			vars:     map[string]string{},
			expected: "no variables here",
		},
	}

	for _, tt := range tests {
		result := expandVars(tt.input, tt.vars)
		if result != tt.expected {
			t.Errorf("expandVars(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestExpandVariablesInPaths(t *testing.T) {
	t.Setenv("DOCS_CACHE", "/fast/cache")

	dir := t.TempDir()
	path := writeConfig(t, dir, `
title: Pipeline Docs
paths:
  cache: ${DOCS_CACHE}/colophon
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Paths.Cache != "/fast/cache/colophon" {
		t.Errorf("expected expanded cache path, got %s", cfg.Paths.Cache)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Title = "Pipeline Docs"
		return cfg
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			modify: func(c *Config) {},
		},
		{
			name:    "missing title",
			modify:  func(c *Config) { c.Title = "" },
			wantErr: "title is required",
		},
		{
			name:    "empty content path",
			modify:  func(c *Config) { c.Paths.Content = "" },
			wantErr: "paths.content is required",
		},
		{
			name:    "empty output path",
			modify:  func(c *Config) { c.Paths.Output = "" },
			wantErr: "paths.output is required",
		},
		{
			name:    "empty highlight style",
			modify:  func(c *Config) { c.Highlight.Style = "" },
			wantErr: "highlight.style is required",
		},
		{
			name:    "toc depth out of range",
			modify:  func(c *Config) { c.TOC.Depth = 7 },
			wantErr: "toc.depth",
		},
		{
			name:    "negative toc depth",
			modify:  func(c *Config) { c.TOC.Depth = -1 },
			wantErr: "toc.depth",
		},
		{
			name:    "nav entry without page",
			modify:  func(c *Config) { c.Nav = []NavEntry{{Title: "Orphan"}} },
			wantErr: "page is required",
		},
		{
			name: "duplicate nav page",
			modify: func(c *Config) {
				c.Nav = []NavEntry{{Page: "index.adoc"}, {Page: "index.adoc"}}
			},
			wantErr: "duplicate page",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Title = ""
	cfg.Paths.Content = ""
	cfg.TOC.Depth = 10

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want errors")
	}
	for _, want := range []string{"title", "paths.content", "toc.depth"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error missing %q: %v", want, err)
		}
	}
}

func TestDescriptorDir(t *testing.T) {
	cfg := Default()
	cfg.Paths.Descriptors = "/site/descriptors"

	if got := cfg.DescriptorDir(); got != "/site/descriptors" {
		t.Errorf("DescriptorDir() = %s, want /site/descriptors", got)
	}

	cfg.Props.Descriptors = "/override/descriptors"
	if got := cfg.DescriptorDir(); got != "/override/descriptors" {
		t.Errorf("DescriptorDir() = %s, want the props override", got)
	}
}

func TestEnsurePaths(t *testing.T) {
	dir := t.TempDir()

	cfg := Default()
	cfg.Paths.Output = filepath.Join(dir, "public")
	cfg.Paths.Cache = filepath.Join(dir, ".cache")
	cfg.Paths.Generated = filepath.Join(dir, "content", "_partials", "generated")

	if err := cfg.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths failed: %v", err)
	}

	for _, path := range []string{cfg.Paths.Output, cfg.Paths.Cache, cfg.Paths.Generated} {
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("path %s not created: %v", path, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("path %s is not a directory", path)
		}
	}
}
