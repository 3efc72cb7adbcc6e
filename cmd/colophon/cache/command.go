// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/colophon-press/colophon/cmd/colophon/cli"
	"github.com/colophon-press/colophon/lib/cache"
)

// Command returns the "cache" subcommand group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "cache",
		Summary: "Inspect and clear the render cache",
		Description: `Manage the content-addressed render cache. Builds reuse cached page
fragments whose inputs are unchanged; clearing the cache forces the
next build to render everything.`,
		Subcommands: []*cli.Command{
			StatusCommand(),
			ClearCommand(),
		},
	}
}

// StatusCommand returns the "cache status" subcommand.
func StatusCommand() *cli.Command {
	var site cli.SiteFlags
	var keys bool

	return &cli.Command{
		Name:    "status",
		Summary: "Show cache size and entry count",
		Usage:   "colophon cache status [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("status", pflag.ContinueOnError)
			site.AddFlags(flagSet)
			flagSet.BoolVar(&keys, "keys", false, "list every cached entry")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			cfg, err := site.LoadConfig()
			if err != nil {
				return err
			}

			store, err := cache.Open(cfg.Paths.Cache)
			if err != nil {
				return cli.Internal("opening cache: %w", err)
			}
			stats := store.Stats()

			fmt.Printf("cache: %s\n", store.Dir())
			fmt.Printf("  entries: %d\n", stats.Entries)
			fmt.Printf("  disk:    %s\n", formatBytes(stats.DiskBytes))
			if note := store.ResetNote(); note != nil {
				fmt.Printf("  note:    manifest discarded on open: %v\n", note)
			}

			if keys && stats.Entries > 0 {
				fmt.Println()
				tw := tabwriter.NewWriter(os.Stdout, 2, 0, 2, ' ', 0)
				for _, info := range store.List() {
					fmt.Fprintf(tw, "  %s\t%s\t%s\n",
						cache.FormatHash(info.Key)[:12], info.Slug, formatBytes(info.Size))
				}
				return tw.Flush()
			}
			return nil
		},
	}
}

// ClearCommand returns the "cache clear" subcommand.
func ClearCommand() *cli.Command {
	var site cli.SiteFlags

	return &cli.Command{
		Name:    "clear",
		Summary: "Delete every cached entry",
		Usage:   "colophon cache clear [flags]",
		Examples: []cli.Example{
			{
				Description: "Start the next build cold",
				Command:     "colophon cache clear",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("clear", pflag.ContinueOnError)
			site.AddFlags(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			cfg, err := site.LoadConfig()
			if err != nil {
				return err
			}

			store, err := cache.Open(cfg.Paths.Cache)
			if err != nil {
				return cli.Internal("opening cache: %w", err)
			}
			stats := store.Stats()

			if err := store.Clear(); err != nil {
				return cli.Internal("clearing cache: %w", err)
			}
			if err := store.Flush(); err != nil {
				return cli.Internal("writing cache manifest: %w", err)
			}

			fmt.Printf("cleared %d entries (%s)\n", stats.Entries, formatBytes(stats.DiskBytes))
			return nil
		},
	}
}

// formatBytes renders a byte count in the nearest binary unit.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
