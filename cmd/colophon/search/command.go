// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package search

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/colophon-press/colophon/cmd/colophon/cli"
	"github.com/colophon-press/colophon/lib/search"
	"github.com/colophon-press/colophon/lib/viewer"
)

// Command returns the "search" subcommand.
func Command() *cli.Command {
	var site cli.SiteFlags
	var limit int

	return &cli.Command{
		Name:    "search",
		Summary: "Search the site from the command line",
		Description: `Rank pages against a query with the same BM25 index the preview
server exposes at /api/search.

A built site is searched through its search-index.json; without one
the sources are loaded directly, so the command works on a tree that
has never been built. Prints one hit per line: score, slug, title.
Exits 1 when nothing matches.`,
		Usage: "colophon search <query> [flags]",
		Examples: []cli.Example{
			{
				Description: "Find pages about cache eviction",
				Command:     "colophon search cache eviction",
			},
			{
				Description: "Show only the best hit",
				Command:     "colophon search --limit 1 installation",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("search", pflag.ContinueOnError)
			site.AddFlags(flagSet)
			flagSet.IntVar(&limit, "limit", 10, "maximum number of hits")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) == 0 {
				return cli.Validation("missing search query").
					WithHint("Pass one or more terms: 'colophon search cache eviction'.")
			}
			if limit <= 0 {
				return cli.Validation("--limit must be positive, got %d", limit)
			}
			query := strings.Join(args, " ")

			cfg, err := site.LoadConfig()
			if err != nil {
				return err
			}

			indexPath := filepath.Join(cfg.Paths.Output, search.FileName)
			entries, err := search.Load(indexPath)

			var results []search.Result
			switch {
			case err == nil:
				results = search.New(entries).Search(query, limit)
			case errors.Is(err, fs.ErrNotExist):
				logger.Debug("no search index, loading sources", "path", indexPath)
				library, libErr := viewer.NewLibrary(cfg)
				if libErr != nil {
					return cli.Internal("loading site: %w", libErr)
				}
				results = library.Search(query, limit)
			default:
				return cli.Internal("loading search index: %w", err)
			}

			if len(results) == 0 {
				fmt.Fprintf(os.Stderr, "no matches for %q\n", query)
				return &cli.ExitError{Code: 1}
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 2, ' ', 0)
			for _, hit := range results {
				fmt.Fprintf(tw, "%.2f\t%s\t%s\n", hit.Score, hit.Slug, hit.Title)
			}
			return tw.Flush()
		},
	}
}
