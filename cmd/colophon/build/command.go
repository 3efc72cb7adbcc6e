// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/colophon-press/colophon/cmd/colophon/cli"
	"github.com/colophon-press/colophon/lib/build"
	"github.com/colophon-press/colophon/lib/config"
	"github.com/colophon-press/colophon/lib/diag"
)

// Command returns the "build" subcommand.
func Command() *cli.Command {
	var site cli.SiteFlags
	var noCache bool
	var strict bool
	var attributes []string

	return &cli.Command{
		Name:    "build",
		Summary: "Build the site into the output directory",
		Description: `Build the site: parse every page, render changed pages through the
cache, fingerprint assets, and write the output directory along with
the search index and the all-properties reference page.

Content problems (missing includes, dangling cross references,
unresolved attributes) are reported as diagnostics on stderr. Errors
fail the build; warnings fail it only under --strict.`,
		Usage: "colophon build [flags]",
		Examples: []cli.Example{
			{
				Description: "Build the site described by ./colophon.yaml",
				Command:     "colophon build",
			},
			{
				Description: "Force a full re-render, ignoring cached fragments",
				Command:     "colophon build --no-cache",
			},
			{
				Description: "Override a global attribute for this build",
				Command:     "colophon build -a revnumber=2.4.0",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("build", pflag.ContinueOnError)
			site.AddFlags(flagSet)
			flagSet.BoolVar(&noCache, "no-cache", false, "render every page even when a cached fragment exists")
			flagSet.BoolVar(&strict, "strict", false, "treat warnings as errors")
			flagSet.StringArrayVarP(&attributes, "attribute", "a", nil, "set a global AsciiDoc attribute (name=value; name! unsets; repeatable)")
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
			if err := applyAttributes(cfg, attributes); err != nil {
				return err
			}

			result, err := build.Run(ctx, build.Options{
				Config:  cfg,
				Logger:  logger,
				NoCache: noCache,
			})
			if err != nil {
				return cli.Internal("build: %w", err)
			}

			if result.Diags.Len() > 0 {
				if err := diag.WriteText(os.Stderr, result.Diags); err != nil {
					return err
				}
			}
			if err := result.Diags.Err(strict || cfg.Strict); err != nil {
				return err
			}

			fmt.Printf("built %d pages into %s (%d rendered, %d reused)\n",
				result.Pages, cfg.Paths.Output, result.Rendered, result.Reused)
			return nil
		},
	}
}

// applyAttributes folds -a overrides into the configured global
// attributes. CLI values win over config entries; "name!" removes the
// attribute entirely, matching the unset syntax inside documents.
func applyAttributes(cfg *config.Config, overrides []string) error {
	if len(overrides) == 0 {
		return nil
	}
	if cfg.Attributes == nil {
		cfg.Attributes = make(map[string]string, len(overrides))
	}
	for _, override := range overrides {
		name, value, found := strings.Cut(override, "=")
		if !found && strings.HasSuffix(name, "!") {
			delete(cfg.Attributes, strings.TrimSuffix(name, "!"))
			continue
		}
		if name == "" {
			return cli.Validation("attribute override %q has no name", override)
		}
		cfg.Attributes[name] = value
	}
	return nil
}
