// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/colophon-press/colophon/lib/codec"
)

// storeVersion invalidates the whole cache when the entry or manifest
// format changes.
const storeVersion = 1

// fileMagic marks cache entry and manifest files.
var fileMagic = [4]byte{'c', 'l', 'p', 'h'}

// Entry is one cached render result: the HTML fragment plus the
// metadata the build needs without re-parsing the page.
type Entry struct {
	Slug     string         `cbor:"slug"`
	Source   string         `cbor:"source"`
	Title    string         `cbor:"title"`
	HTML     []byte         `cbor:"html"`
	Plain    string         `cbor:"plain"`
	Headings []EntryHeading `cbor:"headings,omitempty"`
	Rendered time.Time      `cbor:"rendered"`
}

// EntryHeading is a section heading captured for search indexing and
// navigation without re-rendering the page.
type EntryHeading struct {
	Level int    `cbor:"level"`
	ID    string `cbor:"id"`
	Text  string `cbor:"text"`
}

type manifestEntry struct {
	Slug string `cbor:"slug"`
	Size int64  `cbor:"size"`
}

type manifestFile struct {
	Version int                      `cbor:"version"`
	Entries map[string]manifestEntry `cbor:"entries"`
}

// Store is the on-disk render cache:
//
//	<dir>/manifest.bin
//	<dir>/entries/<aa>/<64-hex>.ent
//
// Entry files are content-addressed by page key, so concurrent
// renders never write the same file. The manifest is an index for
// status reporting and pruning; losing it only costs a cold rebuild.
type Store struct {
	dir string

	mu       sync.Mutex
	entries  map[Hash]manifestEntry
	dirty    bool
	hits     int
	misses   int
	resetErr error
}

// Open opens or creates the cache at dir. A corrupt or
// version-mismatched manifest is not an error: the store opens empty
// and ResetNote reports why, so the caller can warn and rebuild cold.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, "entries"), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	s := &Store{
		dir:     dir,
		entries: make(map[Hash]manifestEntry),
	}

	data, err := os.ReadFile(s.manifestPath())
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache manifest: %w", err)
	}

	manifest, err := decodeManifest(data)
	if err != nil {
		s.resetErr = err
		return s, nil
	}
	if manifest.Version != storeVersion {
		s.resetErr = fmt.Errorf("cache format version %d, want %d", manifest.Version, storeVersion)
		return s, nil
	}

	for hexKey, entry := range manifest.Entries {
		key, err := ParseHash(hexKey)
		if err != nil {
			continue
		}
		s.entries[key] = entry
	}
	return s, nil
}

// ResetNote returns the reason the store discarded an existing
// manifest on open, or nil when the open was clean.
func (s *Store) ResetNote() error {
	return s.resetErr
}

// Dir returns the cache directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) manifestPath() string {
	return filepath.Join(s.dir, "manifest.bin")
}

func (s *Store) entryPath(key Hash) string {
	name := FormatHash(key)
	return filepath.Join(s.dir, "entries", name[:2], name+".ent")
}

// Get returns the cached entry for key. Any problem reading or
// decoding the entry file counts as a miss; a damaged file is removed
// so the next build overwrites it.
func (s *Store) Get(key Hash) (*Entry, bool) {
	payload, err := s.raw(key)
	if err != nil {
		s.miss(key, err)
		return nil, false
	}

	var entry Entry
	if err := codec.Unmarshal(payload, &entry); err != nil {
		s.miss(key, err)
		return nil, false
	}

	s.mu.Lock()
	s.hits++
	s.mu.Unlock()
	return &entry, true
}

func (s *Store) miss(key Hash, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.misses++
	if !errors.Is(cause, fs.ErrNotExist) {
		// Damaged entry: drop it rather than missing forever.
		os.Remove(s.entryPath(key))
		if _, ok := s.entries[key]; ok {
			delete(s.entries, key)
			s.dirty = true
		}
	}
}

// Raw returns the decompressed CBOR payload of an entry, for
// diagnostic display (colophon cache status --verbose).
func (s *Store) Raw(key Hash) ([]byte, error) {
	return s.raw(key)
}

func (s *Store) raw(key Hash) ([]byte, error) {
	data, err := os.ReadFile(s.entryPath(key))
	if err != nil {
		return nil, err
	}
	return decodeFrame(data)
}

// Put writes the entry for key and records it in the manifest. The
// write is atomic: a crash mid-write leaves either the old entry or
// none.
func (s *Store) Put(key Hash, entry *Entry) error {
	payload, err := codec.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache entry %s: %w", entry.Slug, err)
	}
	framed, err := encodeFrame(payload, "application/cbor")
	if err != nil {
		return fmt.Errorf("compressing cache entry %s: %w", entry.Slug, err)
	}

	path := s.entryPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating cache shard: %w", err)
	}
	if err := writeFileAtomic(path, framed); err != nil {
		return fmt.Errorf("writing cache entry %s: %w", entry.Slug, err)
	}

	s.mu.Lock()
	s.entries[key] = manifestEntry{Slug: entry.Slug, Size: int64(len(framed))}
	s.dirty = true
	s.mu.Unlock()
	return nil
}

// Flush persists the manifest when it changed since open or the last
// flush.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}

	manifest := manifestFile{
		Version: storeVersion,
		Entries: make(map[string]manifestEntry, len(s.entries)),
	}
	for key, entry := range s.entries {
		manifest.Entries[FormatHash(key)] = entry
	}

	payload, err := codec.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("encoding cache manifest: %w", err)
	}
	framed, err := encodeFrame(payload, "application/cbor")
	if err != nil {
		return fmt.Errorf("compressing cache manifest: %w", err)
	}
	if err := writeFileAtomic(s.manifestPath(), framed); err != nil {
		return fmt.Errorf("writing cache manifest: %w", err)
	}
	s.dirty = false
	return nil
}

// Prune removes every entry whose key is not in live. Returns the
// number of entries removed. Used by "colophon cache gc" with the
// key set of the latest build.
func (s *Store) Prune(live map[Hash]bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	var firstErr error
	for key := range s.entries {
		if live[key] {
			continue
		}
		if err := os.Remove(s.entryPath(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		delete(s.entries, key)
		s.dirty = true
		removed++
	}
	return removed, firstErr
}

// Clear removes every entry and empties the manifest. Used by
// "colophon cache purge".
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entriesDir := filepath.Join(s.dir, "entries")
	if err := os.RemoveAll(entriesDir); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	if err := os.MkdirAll(entriesDir, 0o755); err != nil {
		return fmt.Errorf("recreating cache directory: %w", err)
	}
	s.entries = make(map[Hash]manifestEntry)
	s.dirty = true
	return nil
}

// Stats summarizes the store for status reporting.
type Stats struct {
	Entries   int
	DiskBytes int64
	Hits      int
	Misses    int
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{Entries: len(s.entries), Hits: s.hits, Misses: s.misses}
	for _, entry := range s.entries {
		stats.DiskBytes += entry.Size
	}
	return stats
}

// KeyInfo describes one manifest entry for listings.
type KeyInfo struct {
	Key  Hash
	Slug string
	Size int64
}

// List returns the manifest entries sorted by slug.
func (s *Store) List() []KeyInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]KeyInfo, 0, len(s.entries))
	for key, entry := range s.entries {
		infos = append(infos, KeyInfo{Key: key, Slug: entry.Slug, Size: entry.Size})
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Slug != infos[j].Slug {
			return infos[i].Slug < infos[j].Slug
		}
		return FormatHash(infos[i].Key) < FormatHash(infos[j].Key)
	})
	return infos
}

// Frame layout: magic (4) | store version (1) | compression tag (1) |
// uncompressed size (8, big-endian) | compressed payload.
const frameHeaderSize = 4 + 1 + 1 + 8

func encodeFrame(payload []byte, contentType string) ([]byte, error) {
	compressed, tag, err := CompressAuto(payload, contentType)
	if err != nil {
		return nil, err
	}

	framed := make([]byte, frameHeaderSize+len(compressed))
	copy(framed[:4], fileMagic[:])
	framed[4] = storeVersion
	framed[5] = byte(tag)
	binary.BigEndian.PutUint64(framed[6:14], uint64(len(payload)))
	copy(framed[frameHeaderSize:], compressed)
	return framed, nil
}

func decodeFrame(data []byte) ([]byte, error) {
	if len(data) < frameHeaderSize {
		return nil, fmt.Errorf("cache file truncated: %d bytes", len(data))
	}
	if [4]byte(data[:4]) != fileMagic {
		return nil, fmt.Errorf("cache file has wrong magic %q", data[:4])
	}
	if data[4] != storeVersion {
		return nil, fmt.Errorf("cache file version %d, want %d", data[4], storeVersion)
	}
	tag := CompressionTag(data[5])
	size := binary.BigEndian.Uint64(data[6:14])
	return Decompress(data[frameHeaderSize:], tag, int(size))
}

func decodeManifest(data []byte) (*manifestFile, error) {
	payload, err := decodeFrame(data)
	if err != nil {
		return nil, fmt.Errorf("cache manifest unreadable: %w", err)
	}
	var manifest manifestFile
	if err := codec.Unmarshal(payload, &manifest); err != nil {
		return nil, fmt.Errorf("cache manifest corrupt: %w", err)
	}
	return &manifest, nil
}

// writeFileAtomic writes data to path via a temp file and rename, so
// readers never observe a partial file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
