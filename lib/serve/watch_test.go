// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package serve

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/colophon-press/colophon/lib/clock"
	"github.com/colophon-press/colophon/lib/config"
	"github.com/colophon-press/colophon/lib/testutil"
)

func watchConfig(t *testing.T) *config.Config {
	t.Helper()
	return siteConfig(t, map[string]string{
		"content/index.adoc": "= Home\n",
	})
}

// startWatch wires watchSources to a fake clock so tests control the
// debounce window deterministically.
func startWatch(t *testing.T, cfg *config.Config) (<-chan struct{}, *clock.FakeClock) {
	t.Helper()
	clk := clock.Fake(time.Unix(0, 0))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	changed, cleanup, err := watchSources(cfg, clk, logger)
	if err != nil {
		t.Fatalf("watchSources: %v", err)
	}
	t.Cleanup(cleanup)
	return changed, clk
}

// releaseDebounce waits for the watcher to reach its debounce sleep,
// then advances the clock past it.
func releaseDebounce(t *testing.T, clk *clock.FakeClock) {
	t.Helper()
	clk.WaitForTimers(1)
	clk.Advance(debounceDelay)
}

// settle gives the watcher loop time to observe any pending inotify
// events, then asserts it classified none of them as relevant: no
// debounce sleep registered, no change signal sent.
func settle(t *testing.T, changed <-chan struct{}, clk *clock.FakeClock) {
	t.Helper()
	time.Sleep(300 * time.Millisecond)
	if n := clk.PendingCount(); n != 0 {
		t.Fatalf("watcher entered debounce for an irrelevant change (%d pending timers)", n)
	}
	select {
	case <-changed:
		t.Fatal("watcher signalled for an irrelevant change")
	default:
	}
}

func TestWatchSignalsOnSourceChange(t *testing.T) {
	cfg := watchConfig(t)
	changed, clk := startWatch(t, cfg)

	testutil.WriteFile(t, filepath.Join(cfg.Paths.Content, "index.adoc"), "= Home v2\n")
	releaseDebounce(t, clk)
	testutil.RequireReceive(t, changed, 5*time.Second, "change signal after source edit")
}

func TestWatchSignalsOnAtomicRename(t *testing.T) {
	cfg := watchConfig(t)
	changed, clk := startWatch(t, cfg)

	// Editors write a temp file and rename it over the original.
	// The temp name is hidden, so only the rename is relevant.
	tmp := filepath.Join(cfg.Paths.Content, ".index.adoc.tmp")
	testutil.WriteFile(t, tmp, "= Home v2\n")
	if err := os.Rename(tmp, filepath.Join(cfg.Paths.Content, "index.adoc")); err != nil {
		t.Fatal(err)
	}
	releaseDebounce(t, clk)
	testutil.RequireReceive(t, changed, 5*time.Second, "change signal after rename")
}

func TestWatchPicksUpNewDirectories(t *testing.T) {
	cfg := watchConfig(t)
	changed, clk := startWatch(t, cfg)

	// Creating the directory is itself a relevant change.
	guides := filepath.Join(cfg.Paths.Content, "guides")
	if err := os.Mkdir(guides, 0o755); err != nil {
		t.Fatal(err)
	}
	releaseDebounce(t, clk)
	testutil.RequireReceive(t, changed, 5*time.Second, "change signal after mkdir")

	// A write inside the new directory is observed, proving the
	// watch extended to it.
	testutil.WriteFile(t, filepath.Join(guides, "new.adoc"), "= New\n")
	releaseDebounce(t, clk)
	testutil.RequireReceive(t, changed, 5*time.Second, "change signal inside new directory")
}

func TestWatchIgnoresHiddenFiles(t *testing.T) {
	cfg := watchConfig(t)
	changed, clk := startWatch(t, cfg)

	testutil.WriteFile(t, filepath.Join(cfg.Paths.Content, ".index.adoc.swp"), "swap")
	settle(t, changed, clk)
}

func TestWatchIgnoresGeneratedDir(t *testing.T) {
	cfg := watchConfig(t)
	if err := os.MkdirAll(cfg.Paths.Generated, 0o755); err != nil {
		t.Fatal(err)
	}
	changed, clk := startWatch(t, cfg)

	testutil.WriteFile(t, filepath.Join(cfg.Paths.Generated, "messaging.adoc"), "|===\n|===\n")
	settle(t, changed, clk)
}

func TestWatchDescriptorDir(t *testing.T) {
	cfg := watchConfig(t)
	if err := os.MkdirAll(cfg.Paths.Descriptors, 0o755); err != nil {
		t.Fatal(err)
	}
	changed, clk := startWatch(t, cfg)

	testutil.WriteFile(t, filepath.Join(cfg.Paths.Descriptors, "app.jsonc"), `{"prefix": "app"}`)
	releaseDebounce(t, clk)
	testutil.RequireReceive(t, changed, 5*time.Second, "change signal after descriptor edit")
}

func TestWatchMissingOptionalRoots(t *testing.T) {
	// Assets, templates, and descriptors are all absent; only the
	// content directory exists. The watcher still starts.
	cfg := watchConfig(t)
	changed, clk := startWatch(t, cfg)

	testutil.WriteFile(t, filepath.Join(cfg.Paths.Content, "index.adoc"), "= Home v2\n")
	releaseDebounce(t, clk)
	testutil.RequireReceive(t, changed, 5*time.Second, "change signal with optional roots missing")
}

func TestWatchCleanupStops(t *testing.T) {
	cfg := watchConfig(t)
	clk := clock.Fake(time.Unix(0, 0))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	changed, cleanup, err := watchSources(cfg, clk, logger)
	if err != nil {
		t.Fatalf("watchSources: %v", err)
	}

	cleanup()
	cleanup() // safe to call twice

	// Give the loop time to observe the stop and exit, then verify
	// edits no longer produce signals.
	time.Sleep(300 * time.Millisecond)
	testutil.WriteFile(t, filepath.Join(cfg.Paths.Content, "index.adoc"), "= Home v2\n")
	settle(t, changed, clk)
}
