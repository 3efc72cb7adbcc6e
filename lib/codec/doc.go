// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Colophon's standard CBOR encoding configuration.
//
// Colophon uses two serialization formats with a clear boundary:
//
//   - JSON for external artifacts: the search index, the asset
//     manifest, diagnostics in --format json mode, and the /api/search
//     endpoint of the preview server.
//   - CBOR for internal state: render cache entries and the cache
//     manifest, where encoding speed and compactness matter and no
//     other tool ever reads the bytes.
//
// This package provides the shared CBOR encoding and decoding modes so
// that every Colophon package encodes identically without duplicating
// configuration. The encoder uses Core Deterministic Encoding (RFC 8949
// §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical data always produces identical
// bytes, which keeps cache fingerprints stable across runs.
//
// For buffer-oriented operations (cache entries):
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (manifest files):
//
//	encoder := codec.NewEncoder(file)
//	decoder := codec.NewDecoder(file)
//
// # Struct Tag Rules
//
// The struct tag on a type documents its serialization format:
//
//   - `cbor` tag: this type is ONLY ever serialized as CBOR. It will
//     never be marshaled to JSON or interact with CLI tooling.
//     Examples: cache entry envelopes, the cache manifest.
//   - `json` tag: this type may be serialized as BOTH JSON and CBOR.
//     fxamacker/cbor v2 reads `json` tags as fallback when `cbor`
//     tags are absent, so a single `json` tag controls field naming
//     and omitempty for both formats. Examples: diagnostics records,
//     search index documents.
//
// Never use both `cbor` and `json` tags on the same field. The tag
// choice documents the contract.
package codec
