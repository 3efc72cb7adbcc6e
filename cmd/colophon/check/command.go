// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package check

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/colophon-press/colophon/cmd/colophon/cli"
	"github.com/colophon-press/colophon/lib/check"
	"github.com/colophon-press/colophon/lib/diag"
)

// Command returns the "check" subcommand.
func Command() *cli.Command {
	var site cli.SiteFlags
	var strict bool
	var format string

	return &cli.Command{
		Name:    "check",
		Summary: "Validate the site without writing output",
		Description: `Validate every page and descriptor without writing anything: missing
includes, unresolved attributes, malformed markup, dangling cross
references, ambiguous anchors, missing images, orphaned pages, and
nav entries that match no page.

The report is the output. Exit code 1 signals findings that would
fail a build: errors always, warnings only under --strict.`,
		Usage: "colophon check [flags]",
		Examples: []cli.Example{
			{
				Description: "Check the site",
				Command:     "colophon check",
			},
			{
				Description: "Fail on warnings too",
				Command:     "colophon check --strict",
			},
			{
				Description: "Machine-readable report for CI annotations",
				Command:     "colophon check --format json",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("check", pflag.ContinueOnError)
			site.AddFlags(flagSet)
			flagSet.BoolVar(&strict, "strict", false, "treat warnings as errors")
			flagSet.StringVar(&format, "format", "text", "report format: text or json")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			if format != "text" && format != "json" {
				return cli.Validation("unknown format %q (text or json)", format)
			}
			cfg, err := site.LoadConfig()
			if err != nil {
				return err
			}

			result, err := check.Run(ctx, check.Options{Config: cfg, Logger: logger})
			if err != nil {
				return cli.Internal("check: %w", err)
			}

			if format == "json" {
				if err := diag.WriteJSON(os.Stdout, result.Diags); err != nil {
					return err
				}
			} else {
				if err := diag.WriteText(os.Stdout, result.Diags); err != nil {
					return err
				}
				if result.Diags.Len() == 0 {
					fmt.Printf("checked %d pages, no problems\n", result.Pages)
				}
			}

			if result.Diags.Err(strict || cfg.Strict) != nil {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}
