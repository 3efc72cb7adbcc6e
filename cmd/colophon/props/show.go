// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package props

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"

	"github.com/colophon-press/colophon/cmd/colophon/cli"
	"github.com/colophon-press/colophon/lib/props"
)

// ShowCommand returns the "props show" subcommand.
func ShowCommand() *cli.Command {
	var site cli.SiteFlags

	return &cli.Command{
		Name:    "show",
		Summary: "Show one property in full",
		Description: `Print a single property record: type, default, description, accepted
values, and lifecycle flags. The key must match exactly.`,
		Usage: "colophon props show <key> [flags]",
		Examples: []cli.Example{
			{
				Description: "Inspect one property",
				Command:     "colophon props show app.messaging.buffer-size",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("show", pflag.ContinueOnError)
			site.AddFlags(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("expected exactly one property key, got %d arguments", len(args))
			}
			key := args[0]

			cfg, err := site.LoadConfig()
			if err != nil {
				return err
			}
			catalog, err := openCatalog(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer catalog.Close()

			record, err := catalog.Lookup(ctx, key)
			if err != nil {
				return cli.Internal("querying property catalog: %w", err)
			}
			if record == nil {
				return cli.NotFound("property %q not found", key).
					WithHint("List candidates with 'colophon props search " + key + "'.")
			}

			printRecord(record)
			return nil
		},
	}
}

func printRecord(record *props.Record) {
	fmt.Printf("%s\n", record.Key)
	fmt.Printf("  extension: %s\n", record.Extension)
	fmt.Printf("  type:      %s\n", record.Type)
	if record.Default != "" {
		fmt.Printf("  default:   %s\n", record.Default)
	}
	if len(record.EnumValues) > 0 {
		fmt.Printf("  values:    %s\n", strings.Join(record.EnumValues, ", "))
	}
	if record.Since != "" {
		fmt.Printf("  since:     %s\n", record.Since)
	}
	if record.Locked {
		fmt.Printf("  locked at build time\n")
	}
	if record.Deprecated {
		fmt.Printf("  deprecated\n")
	}
	if record.Description != "" {
		fmt.Printf("\n%s\n", record.Description)
	}
}
