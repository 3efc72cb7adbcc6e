// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package serve

import (
	"context"
	"errors"
	"log/slog"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/colophon-press/colophon/cmd/colophon/cli"
	"github.com/colophon-press/colophon/lib/serve"
)

// Command returns the "serve" subcommand.
func Command() *cli.Command {
	var site cli.SiteFlags
	var address string
	var watch bool
	var noCache bool

	// Captured so Run can ask whether --watch was set explicitly;
	// the config default applies otherwise.
	var flagSet *pflag.FlagSet

	return &cli.Command{
		Name:    "serve",
		Summary: "Preview the site with rebuild on change",
		Description: `Build the site once, then serve the output directory over HTTP.

With watch enabled (the default), source changes trigger a rebuild
and connected browsers reload through a websocket. The server also
exposes the search index at /api/search?q=<query>.

Press Ctrl-C to stop; in-flight requests drain before exit.`,
		Usage: "colophon serve [flags]",
		Examples: []cli.Example{
			{
				Description: "Serve on the configured address (default localhost:8080)",
				Command:     "colophon serve",
			},
			{
				Description: "Serve on another port",
				Command:     "colophon serve --address localhost:3000",
			},
			{
				Description: "Serve a one-off build without watching",
				Command:     "colophon serve --watch=false",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet = pflag.NewFlagSet("serve", pflag.ContinueOnError)
			site.AddFlags(flagSet)
			flagSet.StringVar(&address, "address", "", "listen address (default from config)")
			flagSet.BoolVar(&watch, "watch", true, "rebuild on source changes and push live reloads")
			flagSet.BoolVar(&noCache, "no-cache", false, "render every page on every rebuild")
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
			if address != "" {
				cfg.Serve.Address = address
			}
			if flagSet.Changed("watch") {
				cfg.Serve.Watch = watch
			}

			server, err := serve.New(serve.Options{
				Config:  cfg,
				Logger:  logger,
				NoCache: noCache,
			})
			if err != nil {
				return err
			}

			err = server.Serve(ctx)
			if errors.Is(err, syscall.EADDRINUSE) {
				return cli.Transient("%v", err).
					WithHint("Another process is listening on " + cfg.Serve.Address + ". Stop it or pass --address.")
			}
			return err
		},
	}
}
