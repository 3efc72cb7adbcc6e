// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

// Package adoc parses AsciiDoc source into a document tree.
//
// Processing happens in three stages, mirroring how the format is
// layered:
//
//  1. The preprocessor ([Preprocess]) resolves include:: directives,
//     evaluates ifdef/ifndef conditionals, and collects attribute
//     entries. Its output is a flat sequence of lines, each tagged
//     with the file and line it originally came from so diagnostics
//     point at real source, not at the expanded stream.
//  2. The block parser ([Parse]) builds the tree: sections, paragraphs,
//     delimited blocks, lists, tables, images.
//  3. The inline parser (invoked by the block parser on paragraph and
//     cell content) handles formatting marks, attribute references,
//     links, and cross-references.
//
// Parsing never aborts on malformed input. Problems are reported into
// a diag.List and the parser produces its best-effort tree, so a
// single bad include does not hide every other problem in the file.
// Callers decide whether the accumulated diagnostics fail the build.
//
// The dialect implemented here is the subset used by framework
// extension guides: it is not a complete AsciiDoc implementation, but
// it is a faithful one for the constructs it accepts.
package adoc
