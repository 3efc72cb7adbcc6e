// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package props

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/colophon-press/colophon/cmd/colophon/cli"
	"github.com/colophon-press/colophon/lib/props"
)

// SearchCommand returns the "props search" subcommand.
func SearchCommand() *cli.Command {
	var site cli.SiteFlags
	var prefix bool

	return &cli.Command{
		Name:    "search",
		Summary: "Search the property catalog",
		Description: `List properties whose key or description contains the query. With
--prefix, match keys by prefix instead, which suits namespace
exploration ("app.messaging.").

Exits 1 when nothing matches.`,
		Usage: "colophon props search <query> [flags]",
		Examples: []cli.Example{
			{
				Description: "Find buffer-related properties",
				Command:     "colophon props search buffer",
			},
			{
				Description: "List a whole namespace",
				Command:     "colophon props search --prefix app.messaging.",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("search", pflag.ContinueOnError)
			site.AddFlags(flagSet)
			flagSet.BoolVar(&prefix, "prefix", false, "match keys by prefix instead of substring")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) == 0 {
				return cli.Validation("missing search query").
					WithHint("Pass a key fragment: 'colophon props search buffer'.")
			}
			query := strings.Join(args, " ")

			cfg, err := site.LoadConfig()
			if err != nil {
				return err
			}
			catalog, err := openCatalog(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer catalog.Close()

			var records []props.Record
			if prefix {
				records, err = catalog.Prefix(ctx, query)
			} else {
				records, err = catalog.Search(ctx, query)
			}
			if err != nil {
				return cli.Internal("querying property catalog: %w", err)
			}

			if len(records) == 0 {
				fmt.Fprintf(os.Stderr, "no properties match %q\n", query)
				return &cli.ExitError{Code: 1}
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 2, ' ', 0)
			for _, record := range records {
				key := record.Key
				if record.Deprecated {
					key += " (deprecated)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", key, record.Type, record.Default, record.Description)
			}
			return tw.Flush()
		},
	}
}
