// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package props

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/colophon-press/colophon/cmd/colophon/cli"
	"github.com/colophon-press/colophon/lib/config"
	"github.com/colophon-press/colophon/lib/diag"
	"github.com/colophon-press/colophon/lib/props"
)

// Command returns the "props" subcommand group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "props",
		Summary: "Property reference tables and catalog",
		Description: `Work with the configuration-property reference.

Property descriptors are JSONC files in the descriptor directory.
"generate" turns them into AsciiDoc table partials for guides to
include and refreshes the SQLite catalog that "search" and "show"
query.`,
		Subcommands: []*cli.Command{
			GenerateCommand(),
			SearchCommand(),
			ShowCommand(),
		},
	}
}

// openCatalog opens the property catalog, populating it from the
// descriptor directory when it is empty so that search and show work
// without a prior "props generate". Callers close the catalog.
func openCatalog(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*props.Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Props.Catalog), 0o755); err != nil {
		return nil, cli.Internal("creating catalog directory: %w", err)
	}
	catalog, err := props.OpenCatalog(cfg.Props.Catalog, logger)
	if err != nil {
		return nil, cli.Internal("opening property catalog: %w", err)
	}

	count, err := catalog.Count(ctx)
	if err != nil {
		catalog.Close()
		return nil, cli.Internal("reading property catalog: %w", err)
	}
	if count > 0 {
		return catalog, nil
	}

	logger.Debug("property catalog empty, populating", "path", cfg.Props.Catalog)
	diags := &diag.List{}
	descriptors, err := props.LoadDir(cfg.DescriptorDir(), diags)
	if err != nil {
		catalog.Close()
		return nil, cli.Internal("loading descriptors: %w", err)
	}
	if diags.HasErrors() {
		catalog.Close()
		if err := diag.WriteText(os.Stderr, diags); err != nil {
			return nil, err
		}
		return nil, cli.Validation("descriptor problems, catalog not populated")
	}
	if err := catalog.Rebuild(ctx, descriptors); err != nil {
		catalog.Close()
		return nil, cli.Internal("populating property catalog: %w", err)
	}
	return catalog, nil
}
