// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

// Package props generates configuration-property reference material
// from JSONC descriptors.
//
// Each extension ships a descriptor file (messaging.jsonc) declaring
// its configuration keys: type, default, description, build-time lock,
// deprecation, enum values. From those this package produces:
//
//   - AsciiDoc table partials, one per extension, written into the
//     site's generated-partials directory. Guides include whole tables
//     or single properties via include tags.
//   - A SQLite catalog of every property, queried by "colophon props"
//     and by the all-properties reference page the build emits.
//
// Generation is deterministic: identical descriptors produce
// byte-identical partials, and unchanged partials are not rewritten.
// The catalog is derived data — it is rebuilt wholesale inside one
// transaction and never migrated.
//
// Key exports:
//
//   - [Descriptor], [Property] -- the parsed descriptor model
//   - [Parse], [LoadDir] -- JSONC parsing with validation diagnostics
//   - [GenerateTable], [WritePartials] -- AsciiDoc partial output
//   - [Catalog] -- the SQLite property catalog
package props
