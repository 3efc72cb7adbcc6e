// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package props

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/colophon-press/colophon/cmd/colophon/cli"
	"github.com/colophon-press/colophon/lib/diag"
	"github.com/colophon-press/colophon/lib/props"
)

// GenerateCommand returns the "props generate" subcommand.
func GenerateCommand() *cli.Command {
	var site cli.SiteFlags

	return &cli.Command{
		Name:    "generate",
		Summary: "Regenerate property partials and the catalog",
		Description: `Read every descriptor and regenerate the AsciiDoc table partials in
the generated directory, then rebuild the property catalog.

Unchanged partials are left untouched so watch-mode servers see no
churn. The build runs this implicitly; run it by hand to inspect the
partials or refresh the catalog after editing descriptors.`,
		Usage: "colophon props generate [flags]",
		Examples: []cli.Example{
			{
				Description: "Refresh partials and catalog after editing descriptors",
				Command:     "colophon props generate",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("generate", pflag.ContinueOnError)
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

			diags := &diag.List{}
			descriptors, err := props.LoadDir(cfg.DescriptorDir(), diags)
			if err != nil {
				return cli.Internal("loading descriptors: %w", err)
			}
			if len(descriptors) == 0 && diags.Len() == 0 {
				return cli.NotFound("no property descriptors in %s", cfg.DescriptorDir()).
					WithHint("Descriptors are *.jsonc files; point paths.descriptors or props.descriptors at them.")
			}

			written, err := props.WritePartials(cfg.Paths.Generated, descriptors)
			if err != nil {
				return cli.Internal("writing partials: %w", err)
			}

			if err := os.MkdirAll(filepath.Dir(cfg.Props.Catalog), 0o755); err != nil {
				return cli.Internal("creating catalog directory: %w", err)
			}
			catalog, err := props.OpenCatalog(cfg.Props.Catalog, logger)
			if err != nil {
				return cli.Internal("opening property catalog: %w", err)
			}
			defer catalog.Close()

			if err := catalog.Rebuild(ctx, descriptors); err != nil {
				return cli.Internal("rebuilding property catalog: %w", err)
			}
			count, err := catalog.Count(ctx)
			if err != nil {
				return cli.Internal("reading property catalog: %w", err)
			}

			if diags.Len() > 0 {
				if err := diag.WriteText(os.Stderr, diags); err != nil {
					return err
				}
			}
			fmt.Printf("wrote %d partials (%d unchanged), cataloged %d properties\n",
				len(written), len(descriptors)-len(written), count)
			return diags.Err(false)
		},
	}
}
