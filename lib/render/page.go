// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path/filepath"
)

//go:embed templates/*.html
var builtinTemplates embed.FS

//go:embed assets/*.css
var builtinAssets embed.FS

// BuiltinAssets returns the default asset files (the site
// stylesheet). The build copies them into the output unless the site
// assets directory provides files with the same names.
func BuiltinAssets() fs.FS {
	sub, err := fs.Sub(builtinAssets, "assets")
	if err != nil {
		panic("render: embedded assets: " + err.Error())
	}
	return sub
}

// BuiltinTemplates returns the default page templates. The build
// hashes them (with any site overrides) into page cache keys, so a
// template change invalidates rendered pages.
func BuiltinTemplates() fs.FS {
	sub, err := fs.Sub(builtinTemplates, "templates")
	if err != nil {
		panic("render: embedded templates: " + err.Error())
	}
	return sub
}

// SiteData is the site-wide template context.
type SiteData struct {
	Title     string
	BaseURL   string
	Generator string
}

// NavItem is one navigation entry resolved to its output page.
type NavItem struct {
	Title   string
	Href    string
	Current bool
}

// Crumb is one breadcrumb step. A crumb without an Href renders as
// plain text (the current page).
type Crumb struct {
	Title string
	Href  string
}

// PageData is the per-page template context. Content is the rendered
// fragment; the template supplies the chrome around it.
type PageData struct {
	Site        SiteData
	Title       string
	Slug        string
	Content     template.HTML
	TOC         []TOCEntry
	Nav         []NavItem
	Breadcrumbs []Crumb
	Prev        *NavItem
	Next        *NavItem
}

// Templates is the executable page chrome. Built-in templates apply
// unless the site template directory provides *.html files that
// redefine them.
type Templates struct {
	page *template.Template
}

// LoadTemplates parses the built-in templates overlaid with any
// *.html files under dir (empty or missing dir keeps the defaults)
// and binds the asset manifest behind the {{asset}} template
// function.
func LoadTemplates(dir string, assets map[string]string) (*Templates, error) {
	funcs := template.FuncMap{
		"asset": func(name string) string {
			if fingerprinted, ok := assets[name]; ok {
				return fingerprinted
			}
			return name
		},
	}
	root, err := template.New("page.html").Funcs(funcs).ParseFS(builtinTemplates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing built-in templates: %w", err)
	}
	if dir != "" {
		overrides, err := filepath.Glob(filepath.Join(dir, "*.html"))
		if err != nil {
			return nil, fmt.Errorf("listing site templates: %w", err)
		}
		if len(overrides) > 0 {
			if root, err = root.ParseFiles(overrides...); err != nil {
				return nil, fmt.Errorf("parsing site templates: %w", err)
			}
		}
	}
	return &Templates{page: root}, nil
}

// RenderPage writes one complete HTML page.
func (t *Templates) RenderPage(w io.Writer, data *PageData) error {
	return t.page.ExecuteTemplate(w, "page.html", data)
}
