// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Hash is a 32-byte BLAKE3 digest. All cache hashes (page keys, asset
// fingerprints, manifest digests) are this size.
type Hash [32]byte

// domainKey is a 32-byte key for BLAKE3 keyed hashing. Domain
// separation ensures that the same input bytes produce different
// hashes in different contexts, preventing cross-domain collisions.
type domainKey [32]byte

// Domain separation keys. These are fixed constants — changing them
// invalidates every existing cache in that domain. The byte values
// are the ASCII encoding of the domain name, zero-padded to 32 bytes.
// Using readable ASCII makes the keys inspectable in hex dumps and
// debuggers without sacrificing any cryptographic property (BLAKE3
// keyed mode treats the key as an opaque 32-byte value).
var (
	pageDomainKey = domainKey{
		'c', 'o', 'l', 'o', 'p', 'h', 'o', 'n', '.', 'c', 'a', 'c', 'h', 'e', '.',
		'p', 'a', 'g', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	assetDomainKey = domainKey{
		'c', 'o', 'l', 'o', 'p', 'h', 'o', 'n', '.', 'c', 'a', 'c', 'h', 'e', '.',
		'a', 's', 's', 'e', 't', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	manifestDomainKey = domainKey{
		'c', 'o', 'l', 'o', 'p', 'h', 'o', 'n', '.', 'c', 'a', 'c', 'h', 'e', '.',
		'm', 'a', 'n', 'i', 'f', 'e', 's', 't', 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

// PageInputs are the inputs that determine one rendered page
// fragment. Two builds with identical inputs produce identical HTML,
// so the key over them decides whether a cached fragment can be
// reused.
type PageInputs struct {
	// Source is the raw bytes of the page file.
	Source []byte

	// Includes are the asset-domain content hashes of every file the
	// preprocessor read while expanding the page, in resolution
	// order. An edited include flips the key even though Source is
	// unchanged.
	Includes []Hash

	// Attributes are the final attribute pairs ("name=value", sorted)
	// the page was rendered under.
	Attributes []string

	// Xrefs are the page's resolved cross references, one framed
	// string per outgoing reference in source order. A moved or
	// renamed anchor on another page changes the resolution, and so
	// this page's key, even though its own source is unchanged.
	Xrefs []string

	// Toolchain is the renderer version stamp. Bumped output formats
	// invalidate cleanly instead of serving stale markup.
	Toolchain string

	// Template is the digest of the active page template set,
	// embedded defaults or site overrides.
	Template Hash
}

// Field kind bytes for the page key framing. Length-prefixed framed
// fields keep boundaries unambiguous: moving bytes between fields
// always changes the key.
const (
	fieldSource    = 0x01
	fieldInclude   = 0x02
	fieldAttribute = 0x03
	fieldToolchain = 0x04
	fieldTemplate  = 0x05
	fieldXref      = 0x06
)

// Key computes the page-domain key over the framed inputs.
func (in PageInputs) Key() Hash {
	hasher := newKeyedHasher(pageDomainKey)
	writeField(hasher, fieldSource, in.Source)
	for _, include := range in.Includes {
		writeField(hasher, fieldInclude, include[:])
	}
	for _, attribute := range in.Attributes {
		writeField(hasher, fieldAttribute, []byte(attribute))
	}
	for _, xref := range in.Xrefs {
		writeField(hasher, fieldXref, []byte(xref))
	}
	writeField(hasher, fieldToolchain, []byte(in.Toolchain))
	writeField(hasher, fieldTemplate, in.Template[:])

	var hash Hash
	copy(hash[:], hasher.Sum(nil))
	return hash
}

func writeField(hasher *blake3.Hasher, kind byte, data []byte) {
	var header [9]byte
	header[0] = kind
	binary.BigEndian.PutUint64(header[1:], uint64(len(data)))
	hasher.Write(header[:])
	hasher.Write(data)
}

// HashAsset computes the asset-domain hash of raw file bytes. Used
// for static asset fingerprinting and for include-file hashes inside
// page keys.
func HashAsset(data []byte) Hash {
	return keyedHash(assetDomainKey, data)
}

// AssetTag returns the short fingerprint embedded in asset filenames:
// the first 10 hex characters of an asset-domain hash
// ("app-3f9c2ab8e1.css").
func AssetTag(hash Hash) string {
	return hex.EncodeToString(hash[:5])
}

// ManifestDigest computes the manifest-domain digest over the page
// keys of a build, via a binary Merkle tree. Callers pass the keys in
// deterministic (slug) order; the digest identifies the whole build
// output in logs and the serve ETag.
//
// Panics if keys is empty — a build always has at least one page.
func ManifestDigest(keys []Hash) Hash {
	root := merkleRoot(manifestDomainKey, keys)
	return keyedHash(manifestDomainKey, root[:])
}

// merkleRoot computes a binary Merkle tree over the given hashes and
// returns the root. The tree is constructed bottom-up: adjacent pairs
// are concatenated and hashed with the domain key. If a level has an
// odd number of nodes, the last node is promoted to the next level
// without hashing (it is NOT duplicated — duplicating would mean two
// different inputs produce the same root when one is a prefix of the
// other).
func merkleRoot(key domainKey, hashes []Hash) Hash {
	if len(hashes) == 0 {
		panic("cache.merkleRoot: empty hash list")
	}
	if len(hashes) == 1 {
		return hashes[0]
	}

	// One keyed hasher reused via Reset() for each pair; allocating a
	// hasher per pair dominates on large builds.
	hasher := newKeyedHasher(key)
	var combined [64]byte
	hashPair := func(left, right Hash) Hash {
		copy(combined[:32], left[:])
		copy(combined[32:], right[:])
		hasher.Reset()
		hasher.Write(combined[:])
		var result Hash
		copy(result[:], hasher.Sum(nil))
		return result
	}

	// Work on a copy to avoid mutating the caller's slice.
	level := make([]Hash, len(hashes))
	copy(level, hashes)

	for len(level) > 1 {
		nextLength := (len(level) + 1) / 2
		next := make([]Hash, nextLength)

		for i := 0; i < len(level)-1; i += 2 {
			next[i/2] = hashPair(level[i], level[i+1])
		}

		// Odd node: promote without hashing.
		if len(level)%2 == 1 {
			next[nextLength-1] = level[len(level)-1]
		}

		level = next
	}

	return level[0]
}

// FormatHash returns the hex-encoded string representation of a hash.
// This is the canonical format used in the manifest, logs, and CLI
// output.
func FormatHash(hash Hash) string {
	return hex.EncodeToString(hash[:])
}

// ParseHash parses a 64-character hex string into a Hash.
func ParseHash(hexString string) (Hash, error) {
	var hash Hash
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return hash, fmt.Errorf("parsing cache hash: %w", err)
	}
	if len(decoded) != 32 {
		return hash, fmt.Errorf("cache hash is %d bytes, want 32", len(decoded))
	}
	copy(hash[:], decoded)
	return hash, nil
}

func newKeyedHasher(key domainKey) *blake3.Hasher {
	// NewKeyed requires exactly 32 bytes, which domainKey guarantees.
	// The error is only returned for wrong key length, so this cannot
	// fail with our fixed-size type.
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("cache: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	return hasher
}

// keyedHash computes the BLAKE3 keyed hash with the given domain key.
func keyedHash(key domainKey, data []byte) Hash {
	hasher := newKeyedHasher(key)
	hasher.Write(data)
	var hash Hash
	copy(hash[:], hasher.Sum(nil))
	return hash
}
