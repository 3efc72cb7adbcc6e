// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for Colophon
// sites.
//
// Configuration comes from a single colophon.yaml file, located by
// the COLOPHON_CONFIG environment variable (via [Load]), a --config
// flag (via [LoadFile]), or the working directory as a last resort.
// The file is the single source of truth: environment variables never
// override values in it. The only expansion performed is ${VAR} and
// ${VAR:-default} inside path fields, so a shared config can say
// ${HOME}/.cache/colophon without hard-coding a user.
//
// Relative paths are resolved against the config file's directory,
// not the working directory, so "colophon build --config
// ../site/colophon.yaml" builds the same site from anywhere.
//
// Key exports:
//
//   - [Config] -- site struct with Paths, Highlight, TOC, Nav, Serve, Props
//   - [Default] -- returns a Config with the documented defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other Colophon packages.
package config
