// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the colophon CLI.
//
// The central type is [Command], which represents a named subcommand with
// optional nested [Command.Subcommands], a [pflag.FlagSet] factory, and a
// Run function. Commands are assembled into a tree in
// cmd/colophon/commands and dispatched via [Command.Execute], which
// handles flag parsing, subcommand routing, and structured help output
// with examples.
//
// When a user types an unknown subcommand or flag, the framework computes
// Levenshtein edit distance against all known names and suggests the
// closest match (threshold: distance <= 3). This is implemented in
// suggest.go.
//
// Command handlers report failures through [CommandError], which carries
// an [ErrorCategory] and an optional recovery hint appended to the
// message. Commands whose report is their output (check, search) signal
// a non-zero exit without an extra error line via [ExitError].
//
// [SiteFlags] holds the --config and --verbose flags shared by every
// site-operating command, and [SiteFlags.LoadConfig] resolves them into
// a validated [config.Config].
package cli
