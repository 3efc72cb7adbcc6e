// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package view

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/colophon-press/colophon/cmd/colophon/cli"
	"github.com/colophon-press/colophon/lib/termdoc"
	"github.com/colophon-press/colophon/lib/viewer"
)

// pipeWidth is the render width when stdout is not a terminal and no
// explicit --width was given.
const pipeWidth = 80

// Command returns the "view" subcommand.
func Command() *cli.Command {
	var site cli.SiteFlags
	var width int

	return &cli.Command{
		Name:    "view",
		Summary: "Read the site in the terminal",
		Description: `Open an interactive terminal viewer over the site's pages. With a
page reference the viewer starts on that page; a reference is a
content-relative source path, an output slug, or a unique source-path
suffix.

When stdout is not a terminal, or --width is set, the page renders as
plain ANSI text to stdout instead.`,
		Usage: "colophon view [page] [flags]",
		Examples: []cli.Example{
			{
				Description: "Browse the whole site",
				Command:     "colophon view",
			},
			{
				Description: "Open a specific page",
				Command:     "colophon view guides/install.adoc",
			},
			{
				Description: "Page through a rendered document",
				Command:     "colophon view intro.adoc | less -R",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("view", pflag.ContinueOnError)
			site.AddFlags(flagSet)
			flagSet.IntVar(&width, "width", 0, "render to stdout at this width instead of opening the viewer")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 1 {
				return cli.Validation("expected at most one page reference, got %d arguments", len(args))
			}
			if width < 0 {
				return cli.Validation("--width must be positive")
			}
			cfg, err := site.LoadConfig()
			if err != nil {
				return err
			}

			library, err := viewer.NewLibrary(cfg)
			if err != nil {
				return cli.Internal("loading site: %w", err)
			}

			var page *viewer.Page
			if len(args) == 1 {
				page = library.Find(args[0])
				if page == nil {
					return cli.NotFound("no page matches %q", args[0]).
						WithHint("References are source paths, slugs, or unique path suffixes. Try 'colophon search " + args[0] + "'.")
				}
			}

			interactive := term.IsTerminal(int(os.Stdout.Fd())) && width == 0
			if interactive {
				return viewer.Run(ctx, library, page)
			}

			if page == nil {
				return cli.Validation("a page reference is required when rendering to a pipe").
					WithHint("List pages with 'colophon search' or run view on a terminal.")
			}
			if width == 0 {
				width = pipeWidth
			}
			fmt.Print(library.Render(page, termdoc.DefaultTheme, width))
			return nil
		},
	}
}
