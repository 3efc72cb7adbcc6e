// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config is the site configuration loaded from colophon.yaml.
type Config struct {
	// Title is the site title, shown in page chrome and the viewer.
	Title string `yaml:"title"`

	// BaseURL is the path prefix pages are served under ("/" for a
	// root-mounted site, "/docs/" behind a reverse proxy).
	BaseURL string `yaml:"baseurl"`

	// Paths configures directory locations. Relative paths are
	// resolved against the directory containing the config file.
	Paths PathsConfig `yaml:"paths"`

	// Attributes are global AsciiDoc attributes, available to every
	// page. Page-level attribute entries override them.
	Attributes map[string]string `yaml:"attributes"`

	// Highlight configures source-code highlighting.
	Highlight HighlightConfig `yaml:"highlight"`

	// TOC configures the per-page table of contents.
	TOC TOCConfig `yaml:"toc"`

	// Nav is the ordered site navigation. Pages not listed here still
	// build but "colophon check" reports them as orphans.
	Nav []NavEntry `yaml:"nav"`

	// Serve configures the preview server.
	Serve ServeConfig `yaml:"serve"`

	// Props configures the generated property-reference tables.
	Props PropsConfig `yaml:"props"`

	// Strict promotes build warnings to errors.
	Strict bool `yaml:"strict"`

	// BaseDir is the directory containing the config file. Set by
	// LoadFile, never read from YAML.
	BaseDir string `yaml:"-"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Content is the root of the AsciiDoc and Markdown sources.
	Content string `yaml:"content"`

	// Output is where the built site is written.
	Output string `yaml:"output"`

	// Templates overrides the embedded page templates when set.
	Templates string `yaml:"templates"`

	// Assets is the static asset directory (CSS, images, fonts).
	Assets string `yaml:"assets"`

	// Cache is the render cache directory.
	Cache string `yaml:"cache"`

	// Generated is where property-table partials are written.
	// Default: <content>/_partials/generated
	Generated string `yaml:"generated"`

	// Descriptors is the property descriptor (*.jsonc) directory.
	Descriptors string `yaml:"descriptors"`
}

// HighlightConfig configures source-code highlighting.
type HighlightConfig struct {
	// Style is the chroma style name.
	// Default: github
	Style string `yaml:"style"`

	// LineNumbers renders line numbers in listings.
	LineNumbers bool `yaml:"line_numbers"`
}

// TOCConfig configures the per-page table of contents.
type TOCConfig struct {
	// Depth is the deepest section level included. 0 disables the
	// table of contents.
	// Default: 2
	Depth int `yaml:"depth"`
}

// NavEntry is one ordered navigation item.
type NavEntry struct {
	// Page is the content-relative source path ("guides/install.adoc").
	Page string `yaml:"page"`

	// Title overrides the page's own title in the navigation.
	Title string `yaml:"title"`
}

// ServeConfig configures the preview server.
type ServeConfig struct {
	// Address is the listen address.
	// Default: localhost:8080
	Address string `yaml:"address"`

	// Watch rebuilds on source changes and pushes live reloads.
	// Default: true
	Watch bool `yaml:"watch"`
}

// PropsConfig configures the property-table generator.
type PropsConfig struct {
	// Catalog is the SQLite property catalog path.
	// Default: <cache>/props.db
	Catalog string `yaml:"catalog"`

	// Descriptors overrides Paths.Descriptors when set.
	Descriptors string `yaml:"descriptors"`
}

// Default returns the default configuration. These defaults are the
// base the config file is merged over, so every field has a workable
// zero state; only Title has no default and must come from the file.
func Default() *Config {
	return &Config{
		BaseURL: "/",
		Paths: PathsConfig{
			Content:     "content",
			Output:      "public",
			Assets:      "assets",
			Cache:       ".colophon-cache",
			Descriptors: "descriptors",
		},
		Highlight: HighlightConfig{
			Style: "github",
		},
		TOC: TOCConfig{
			Depth: 2,
		},
		Serve: ServeConfig{
			Address: "localhost:8080",
			Watch:   true,
		},
	}
}

// DefaultFileName is the config file looked up in the working
// directory when neither COLOPHON_CONFIG nor --config names one.
const DefaultFileName = "colophon.yaml"

// Load loads configuration from the path in the COLOPHON_CONFIG
// environment variable, falling back to colophon.yaml in the working
// directory. The --config flag takes precedence over both; commands
// handling that flag call LoadFile directly.
func Load() (*Config, error) {
	path := os.Getenv("COLOPHON_CONFIG")
	if path == "" {
		path = DefaultFileName
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth: environment
// variables never override values in it. The only expansion performed
// is ${VAR} and ${VAR:-default} inside path fields, for portability
// of shared config files. Relative paths are resolved against the
// config file's directory, so builds behave the same from any working
// directory.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}
	cfg.BaseDir = filepath.Dir(absPath)

	cfg.expandVariables()
	cfg.applyDerived()
	cfg.resolvePaths()

	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in path
// fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Paths.Content = expandVars(c.Paths.Content, vars)
	c.Paths.Output = expandVars(c.Paths.Output, vars)
	c.Paths.Templates = expandVars(c.Paths.Templates, vars)
	c.Paths.Assets = expandVars(c.Paths.Assets, vars)
	c.Paths.Cache = expandVars(c.Paths.Cache, vars)
	c.Paths.Generated = expandVars(c.Paths.Generated, vars)
	c.Paths.Descriptors = expandVars(c.Paths.Descriptors, vars)
	c.Props.Catalog = expandVars(c.Props.Catalog, vars)
	c.Props.Descriptors = expandVars(c.Props.Descriptors, vars)
}

// applyDerived fills path defaults that depend on other configured
// paths, after expansion and before resolution.
func (c *Config) applyDerived() {
	if c.Paths.Generated == "" {
		c.Paths.Generated = filepath.Join(c.Paths.Content, "_partials", "generated")
	}
	if c.Props.Catalog == "" {
		c.Props.Catalog = filepath.Join(c.Paths.Cache, "props.db")
	}
}

// resolvePaths makes every relative path absolute against BaseDir.
func (c *Config) resolvePaths() {
	resolve := func(path *string) {
		if *path == "" || filepath.IsAbs(*path) {
			return
		}
		*path = filepath.Join(c.BaseDir, *path)
	}

	resolve(&c.Paths.Content)
	resolve(&c.Paths.Output)
	resolve(&c.Paths.Templates)
	resolve(&c.Paths.Assets)
	resolve(&c.Paths.Cache)
	resolve(&c.Paths.Generated)
	resolve(&c.Paths.Descriptors)
	resolve(&c.Props.Catalog)
	resolve(&c.Props.Descriptors)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Title == "" {
		errs = append(errs, fmt.Errorf("title is required"))
	}
	if c.Paths.Content == "" {
		errs = append(errs, fmt.Errorf("paths.content is required"))
	}
	if c.Paths.Output == "" {
		errs = append(errs, fmt.Errorf("paths.output is required"))
	}
	if c.Paths.Cache == "" {
		errs = append(errs, fmt.Errorf("paths.cache is required"))
	}
	if c.Highlight.Style == "" {
		errs = append(errs, fmt.Errorf("highlight.style is required"))
	}
	if c.TOC.Depth < 0 || c.TOC.Depth > 6 {
		errs = append(errs, fmt.Errorf("toc.depth must be between 0 and 6, got %d", c.TOC.Depth))
	}
	if c.Serve.Address == "" {
		errs = append(errs, fmt.Errorf("serve.address is required"))
	}

	seen := make(map[string]bool)
	for i, entry := range c.Nav {
		if entry.Page == "" {
			errs = append(errs, fmt.Errorf("nav entry %d: page is required", i))
			continue
		}
		if seen[entry.Page] {
			errs = append(errs, fmt.Errorf("nav entry %d: duplicate page %q", i, entry.Page))
		}
		seen[entry.Page] = true
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// DescriptorDir returns the property descriptor directory, honoring
// the props-level override.
func (c *Config) DescriptorDir() string {
	if c.Props.Descriptors != "" {
		return c.Props.Descriptors
	}
	return c.Paths.Descriptors
}

// EnsurePaths creates the output-side directories. Input directories
// (content, descriptors) are never created: a missing input is a
// configuration error, not something to paper over.
func (c *Config) EnsurePaths() error {
	for _, path := range []string{c.Paths.Output, c.Paths.Cache, c.Paths.Generated} {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}
	return nil
}
