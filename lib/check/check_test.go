// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package check

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/colophon-press/colophon/lib/config"
	"github.com/colophon-press/colophon/lib/diag"
)

func siteConfig(t *testing.T, files map[string]string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.Default()
	cfg.Title = "Widget Manual"
	cfg.Paths.Content = filepath.Join(dir, "content")
	cfg.Paths.Output = filepath.Join(dir, "public")
	cfg.Paths.Assets = filepath.Join(dir, "assets")
	cfg.Paths.Cache = filepath.Join(dir, ".cache")
	cfg.Paths.Descriptors = filepath.Join(dir, "descriptors")
	cfg.Paths.Generated = filepath.Join(dir, "content", "_partials", "generated")
	return cfg
}

func runCheck(t *testing.T, cfg *config.Config) *Result {
	t.Helper()
	result, err := Run(context.Background(), Options{Config: cfg})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return result
}

func messages(result *Result) []string {
	diagnostics := result.Diags.Sorted()
	out := make([]string, len(diagnostics))
	for i, d := range diagnostics {
		out[i] = d.String()
	}
	return out
}

func wantDiagnostic(t *testing.T, result *Result, fragment string) {
	t.Helper()
	for _, message := range messages(result) {
		if strings.Contains(message, fragment) {
			return
		}
	}
	t.Errorf("no diagnostic mentions %q, got:\n%s", fragment, strings.Join(messages(result), "\n"))
}

func TestCheckCleanSite(t *testing.T) {
	cfg := siteConfig(t, map[string]string{
		"content/index.adoc": "= Manual\n\n" +
			"See xref:guides/install.adoc[] and image:logo.svg[logo].\n",
		"content/guides/install.adoc": "= Install\n\n[[setup]]\n== Setup\n\nSteps.\n",
		"content/logo.svg":            "<svg/>",
	})
	cfg.Nav = []config.NavEntry{
		{Page: "index.adoc"},
		{Page: "guides/install.adoc"},
	}

	result := runCheck(t, cfg)
	if result.Diags.Len() != 0 {
		t.Errorf("clean site drew diagnostics:\n%s", strings.Join(messages(result), "\n"))
	}
	if result.Pages != 2 {
		t.Errorf("Pages = %d, want 2", result.Pages)
	}

	// Check writes nothing: no output tree, no cache.
	for _, dir := range []string{cfg.Paths.Output, cfg.Paths.Cache} {
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Errorf("check created %s", dir)
		}
	}
}

func TestCheckDanglingXref(t *testing.T) {
	cfg := siteConfig(t, map[string]string{
		"content/index.adoc": "= Manual\n\nSee xref:guides/missing.adoc[the guide] and <<nowhere>>.\n",
	})

	result := runCheck(t, cfg)
	wantDiagnostic(t, result, `unresolved cross reference "guides/missing.adoc"`)
	wantDiagnostic(t, result, `unresolved cross reference "nowhere"`)
	if result.Diags.ErrorCount() != 0 {
		t.Errorf("dangling xrefs should be warnings, got %d errors", result.Diags.ErrorCount())
	}
}

func TestCheckDuplicateAnchors(t *testing.T) {
	cfg := siteConfig(t, map[string]string{
		"content/a.adoc": "= A\n\n[[overview]]\n== Overview\n\nText.\n",
		"content/b.adoc": "= B\n\n[[overview]]\n== Overview\n\nText.\n",
	})

	result := runCheck(t, cfg)
	wantDiagnostic(t, result, `anchor "overview" is defined on multiple pages: a.adoc, b.adoc`)
}

func TestCheckMissingImage(t *testing.T) {
	cfg := siteConfig(t, map[string]string{
		"content/index.adoc": "= Manual\n\n" +
			"image::diagrams/flow.svg[flow]\n\n" +
			"Remote image:https://example.com/x.png[x] is fine.\n",
	})

	result := runCheck(t, cfg)
	wantDiagnostic(t, result, `image "diagrams/flow.svg" not found`)
	for _, message := range messages(result) {
		if strings.Contains(message, "example.com") {
			t.Errorf("remote image drew a diagnostic: %s", message)
		}
	}
}

func TestCheckImageEscapesContent(t *testing.T) {
	cfg := siteConfig(t, map[string]string{
		"content/index.adoc": "= Manual\n\nimage::../secrets.svg[oops]\n",
	})

	result := runCheck(t, cfg)
	wantDiagnostic(t, result, `image "../secrets.svg" escapes the content directory`)
}

func TestCheckOrphans(t *testing.T) {
	cfg := siteConfig(t, map[string]string{
		"content/index.adoc":  "= Manual\n",
		"content/linked.adoc": "= Linked\n",
		"content/lost.adoc":   "= Lost\n",
	})
	cfg.Nav = []config.NavEntry{{Page: "linked.adoc"}}

	result := runCheck(t, cfg)
	wantDiagnostic(t, result, "page is not linked from the navigation")

	sorted := result.Diags.Sorted()
	for _, d := range sorted {
		if d.Position.File == "index.adoc" {
			t.Errorf("root index page reported as orphan: %s", d)
		}
		if d.Position.File == "linked.adoc" {
			t.Errorf("nav page reported as orphan: %s", d)
		}
	}
}

func TestCheckNoNavSkipsOrphans(t *testing.T) {
	cfg := siteConfig(t, map[string]string{
		"content/index.adoc": "= Manual\n",
		"content/other.adoc": "= Other\n",
	})

	result := runCheck(t, cfg)
	for _, message := range messages(result) {
		if strings.Contains(message, "navigation") {
			t.Errorf("orphan check ran without a nav list: %s", message)
		}
	}
}

func TestCheckMissingNavTarget(t *testing.T) {
	cfg := siteConfig(t, map[string]string{
		"content/index.adoc": "= Manual\n",
	})
	cfg.Nav = []config.NavEntry{
		{Page: "index.adoc"},
		{Page: "gone.adoc"},
	}

	result := runCheck(t, cfg)
	wantDiagnostic(t, result, `nav entry "gone.adoc" does not match any page`)
}

func TestCheckParseProblems(t *testing.T) {
	cfg := siteConfig(t, map[string]string{
		"content/index.adoc": "= Manual\n\n" +
			"include::_partials/gone.adoc[]\n\n" +
			"Uses {undefined-attr} here.\n",
	})

	result := runCheck(t, cfg)
	if result.Diags.ErrorCount() == 0 {
		t.Error("missing include drew no error")
	}
	wantDiagnostic(t, result, "include resolves to missing file")
	wantDiagnostic(t, result, "undefined-attr")
}

func TestCheckDescriptorProblems(t *testing.T) {
	cfg := siteConfig(t, map[string]string{
		"content/index.adoc":          "= Manual\n",
		"descriptors/broken.jsonc":    "{not valid",
		"descriptors/messaging.jsonc": `{"extension": "messaging", "prefix": "app.messaging", "properties": []}`,
	})

	result := runCheck(t, cfg)
	if result.Diags.ErrorCount() == 0 {
		t.Error("malformed descriptor drew no error")
	}
	wantDiagnostic(t, result, "malformed property descriptor")
}

func TestCheckGeneratedIncludeNeedsNoBuild(t *testing.T) {
	cfg := siteConfig(t, map[string]string{
		"content/config.adoc": "= Configuration\n\ninclude::_partials/generated/messaging.adoc[]\n",
		"descriptors/messaging.jsonc": `{
			"extension": "messaging",
			"prefix": "app.messaging",
			"properties": [
				{"key": "app.messaging.codec", "type": "string", "description": "Codec."},
			],
		}`,
	})

	result := runCheck(t, cfg)
	if result.Diags.ErrorCount() != 0 {
		t.Errorf("generated include failed before first build:\n%s",
			strings.Join(messages(result), "\n"))
	}
	if _, err := os.Stat(cfg.Paths.Generated); !os.IsNotExist(err) {
		t.Error("check wrote generated partials")
	}
}

func TestCheckInvalidConfig(t *testing.T) {
	cfg := siteConfig(t, map[string]string{"content/index.adoc": "= Manual\n"})
	cfg.Title = ""

	if _, err := Run(context.Background(), Options{Config: cfg}); err == nil {
		t.Fatal("Run accepted a configuration without a title")
	}
}

func TestCheckSeverities(t *testing.T) {
	cfg := siteConfig(t, map[string]string{
		"content/index.adoc": "= Manual\n\nSee <<gone>>.\n",
	})

	result := runCheck(t, cfg)
	if result.Diags.ErrorCount() != 0 {
		t.Errorf("errors = %d, want 0", result.Diags.ErrorCount())
	}
	if result.Diags.WarningCount() == 0 {
		t.Error("dangling xref drew no warning")
	}
	if err := result.Diags.Err(false); err != nil {
		t.Errorf("Err(false) = %v, want nil for warnings only", err)
	}
	if err := result.Diags.Err(true); err == nil {
		t.Error("Err(true) = nil, want failure under strict mode")
	}

	var severity diag.Severity = diag.SeverityWarning
	for _, d := range result.Diags.Sorted() {
		if d.Severity != severity {
			t.Errorf("unexpected severity %v: %s", d.Severity, d)
		}
	}
}
