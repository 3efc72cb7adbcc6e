// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

// Package check validates a site without building it. It runs the
// same load and parse path as the build, then adds the checks that
// need the whole site in view: cross reference resolution, anchor
// uniqueness, image existence, and navigation coverage. Nothing is
// written; the diagnostic list is the entire output.
package check
