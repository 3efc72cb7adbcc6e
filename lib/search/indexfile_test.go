// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package search

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestIndexFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	entries := []Entry{
		{Slug: "guides/grpc.html", Title: "gRPC Services", Headings: []string{"Reflection"}, Plain: "stubs"},
		{Slug: "index.html", Title: "Home", Plain: "welcome"},
	}

	if err := Write(path, entries); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, entries) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, entries)
	}
}

func TestIndexFileDeterministic(t *testing.T) {
	dir := t.TempDir()
	entries := []Entry{
		{Slug: "b.html", Title: "B"},
		{Slug: "a.html", Title: "A"},
		{Slug: "c.html", Title: "C"},
	}
	reversed := []Entry{entries[2], entries[0], entries[1]}

	pathA := filepath.Join(dir, "a.json")
	pathB := filepath.Join(dir, "b.json")
	if err := Write(pathA, entries); err != nil {
		t.Fatal(err)
	}
	if err := Write(pathB, reversed); err != nil {
		t.Fatal(err)
	}

	dataA, err := os.ReadFile(pathA)
	if err != nil {
		t.Fatal(err)
	}
	dataB, err := os.ReadFile(pathB)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(dataA, dataB) {
		t.Errorf("write order leaked into artifact:\n%s\nvs\n%s", dataA, dataB)
	}

	// Sorting happens on a copy, not the caller's slice.
	if entries[0].Slug != "b.html" {
		t.Errorf("Write reordered the caller's slice: %+v", entries)
	}
}

func TestIndexFileSortedBySlug(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := Write(path, []Entry{{Slug: "z.html"}, {Slug: "a.html"}}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if strings.Index(text, "a.html") > strings.Index(text, "z.html") {
		t.Errorf("entries not sorted by slug:\n%s", text)
	}
}

func TestIndexFileLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("want error for missing index file")
	}
}
