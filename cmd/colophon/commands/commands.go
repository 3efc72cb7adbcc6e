// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete Colophon CLI command tree.
// main constructs the tree once per invocation; tests walk it to
// check that every command is well formed.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	buildcmd "github.com/colophon-press/colophon/cmd/colophon/build"
	cachecmd "github.com/colophon-press/colophon/cmd/colophon/cache"
	checkcmd "github.com/colophon-press/colophon/cmd/colophon/check"
	"github.com/colophon-press/colophon/cmd/colophon/cli"
	propscmd "github.com/colophon-press/colophon/cmd/colophon/props"
	searchcmd "github.com/colophon-press/colophon/cmd/colophon/search"
	servecmd "github.com/colophon-press/colophon/cmd/colophon/serve"
	viewcmd "github.com/colophon-press/colophon/cmd/colophon/view"
	"github.com/colophon-press/colophon/lib/version"
)

// Root builds and returns the complete Colophon CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "colophon",
		Description: `Colophon: an AsciiDoc documentation site toolchain.

Build a static site from AsciiDoc sources, preview it with live
reload, lint cross-references, and read pages in the terminal.`,
		Subcommands: []*cli.Command{
			buildcmd.Command(),
			servecmd.Command(),
			checkcmd.Command(),
			searchcmd.Command(),
			propscmd.Command(),
			cachecmd.Command(),
			viewcmd.Command(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					fmt.Printf("colophon %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Build the site in the current directory",
				Command:     "colophon build",
			},
			{
				Description: "Preview with live reload while editing",
				Command:     "colophon serve",
			},
			{
				Description: "Lint cross-references and attributes in CI",
				Command:     "colophon check --strict",
			},
			{
				Description: "Read a page without leaving the terminal",
				Command:     "colophon view guides/install.adoc",
			},
			{
				Description: "Look up a configuration property",
				Command:     "colophon props show server.port",
			},
		},
	}
}
