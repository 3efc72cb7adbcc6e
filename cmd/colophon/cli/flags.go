// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"io/fs"

	"github.com/spf13/pflag"

	"github.com/colophon-press/colophon/lib/config"
)

// SiteFlags are the flags every site-operating command accepts:
// --config to name the site configuration file and --verbose to
// lower the log level to Debug. Commands embed them in their flag
// set via AddFlags and resolve the configuration via LoadConfig.
type SiteFlags struct {
	// ConfigPath is the --config value. Empty means "use
	// COLOPHON_CONFIG or colophon.yaml in the working directory".
	ConfigPath string

	// Verbose is the --verbose value.
	Verbose bool
}

// AddFlags registers --config and --verbose on the flag set.
func (f *SiteFlags) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.ConfigPath, "config", "", "site config file (default: $COLOPHON_CONFIG, then ./"+config.DefaultFileName+")")
	flagSet.BoolVarP(&f.Verbose, "verbose", "v", false, "log debug detail")
}

// LoadConfig applies --verbose to the command logger, then loads and
// validates the site configuration. A missing config file is a
// validation error with a recovery hint, not an internal one: the
// usual cause is running colophon outside a site directory.
func (f *SiteFlags) LoadConfig() (*config.Config, error) {
	if f.Verbose {
		SetVerbose()
	}

	cfg, err := loadConfigFile(f.ConfigPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, Validation("no site configuration found: %v", err).
				WithHint("Run from a directory containing " + config.DefaultFileName + ", or pass --config.")
		}
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, Validation("invalid configuration: %v", err)
	}
	return cfg, nil
}

func loadConfigFile(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
