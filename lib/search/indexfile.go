// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package search

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// FileName is the search metadata artifact the build writes into the
// site output directory.
const FileName = "search-index.json"

// Write writes entries to path as indented JSON, sorted by slug. The
// sort keeps the artifact byte-identical across builds regardless of
// render completion order.
func Write(path string, entries []Entry) error {
	sorted := append([]Entry(nil), entries...)
	sort.Slice(sorted, func(a, b int) bool {
		return sorted[a].Slug < sorted[b].Slug
	})

	data, err := json.MarshalIndent(sorted, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding search index: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing search index: %w", err)
	}
	return nil
}

// Load reads a search index written by Write.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading search index: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return entries, nil
}
