// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

// Package build runs the site pipeline: property partial generation,
// page discovery and parsing, cached fragment rendering, asset
// fingerprinting, page assembly, and search index emission.
//
// The pipeline is deterministic. Building the same input tree twice
// produces byte-identical output, and the second build reuses every
// cached fragment. Cache keys cover everything a fragment depends on,
// including the resolutions of its cross references, so renaming a
// section on one page re-renders the pages that link to it.
//
// Content problems (dangling xrefs, malformed blocks, duplicate
// slugs) are diagnostics on the Result, not errors; Run returns an
// error only when the build cannot proceed at all.
package build
