// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package props

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/colophon-press/colophon/lib/diag"
)

// Descriptor is one extension's property descriptor, parsed from a
// *.jsonc file.
type Descriptor struct {
	// Extension is the extension slug ("messaging"). Names the
	// generated partial (<extension>.adoc) and groups catalog rows.
	Extension string `json:"extension"`

	// Title is the display name ("Messaging"). Falls back to the
	// extension slug when empty.
	Title string `json:"title"`

	// Prefix is the key namespace ("app.messaging"). Every property
	// key must start with it.
	Prefix string `json:"prefix"`

	Properties []Property `json:"properties"`

	// SourcePath is the descriptor file this was parsed from. Set by
	// LoadDir, used in diagnostics and generated-file headers.
	SourcePath string `json:"-"`
}

// Property is one configuration property record.
type Property struct {
	// Key is the full configuration key, unique across the site.
	Key string `json:"key"`

	// Type is the display type name ("int", "duration", ...).
	Type string `json:"type"`

	// Default is the default value, empty when the property has none.
	Default string `json:"default"`

	// Description is the property documentation. Inline AsciiDoc
	// markup is allowed; it is parsed when the table renders.
	Description string `json:"description"`

	// LockedAtBuildTime marks properties fixed at build time; setting
	// them at runtime has no effect.
	LockedAtBuildTime bool `json:"lockedAtBuildTime"`

	Deprecated bool   `json:"deprecated"`
	Since      string `json:"since"`

	// EnumValues lists the accepted values for enumerated properties.
	EnumValues []string `json:"enumValues"`
}

// DisplayTitle returns Title, falling back to the extension slug.
func (d *Descriptor) DisplayTitle() string {
	if d.Title != "" {
		return d.Title
	}
	return d.Extension
}

// knownTypes are the type names the property tooling understands.
// Unknown names render as-is but draw a warning, since they are
// usually typos.
var knownTypes = map[string]bool{
	"string":   true,
	"bool":     true,
	"int":      true,
	"float":    true,
	"duration": true,
	"size":     true,
	"list":     true,
	"map":      true,
	"path":     true,
	"enum":     true,
}

// Parse parses one descriptor file. JSONC comments and trailing
// commas are tolerated. A nil return means the file was unusable;
// validation problems on a parseable descriptor are reported into
// diags with the descriptor still returned.
func Parse(path string, data []byte, diags *diag.List) *Descriptor {
	pos := diag.Position{File: path}

	var descriptor Descriptor
	if err := json.Unmarshal(jsonc.ToJSON(data), &descriptor); err != nil {
		diags.Errorf(pos, "malformed property descriptor: %v", err)
		return nil
	}
	descriptor.SourcePath = path

	validate(&descriptor, diags)
	return &descriptor
}

func validate(d *Descriptor, diags *diag.List) {
	pos := diag.Position{File: d.SourcePath}

	if d.Extension == "" {
		diags.Errorf(pos, "descriptor has no extension slug")
	}
	if d.Prefix == "" {
		diags.Errorf(pos, "descriptor has no key prefix")
	}
	if len(d.Properties) == 0 {
		diags.Warnf(pos, "descriptor %q declares no properties", d.Extension)
	}

	seen := make(map[string]bool, len(d.Properties))
	for i, property := range d.Properties {
		if property.Key == "" {
			diags.Errorf(pos, "property %d has no key", i)
			continue
		}
		if seen[property.Key] {
			diags.Errorf(pos, "duplicate property key %q", property.Key)
		}
		seen[property.Key] = true

		if d.Prefix != "" && !strings.HasPrefix(property.Key, d.Prefix) {
			diags.Errorf(pos, "property %q does not start with prefix %q", property.Key, d.Prefix)
		}
		if property.Type == "" {
			diags.Errorf(pos, "property %q has no type", property.Key)
		} else if !knownTypes[property.Type] {
			diags.Warnf(pos, "property %q has unknown type %q", property.Key, property.Type)
		}
		if len(property.EnumValues) > 0 && property.Type != "enum" {
			diags.Warnf(pos, "property %q has enum values but type %q", property.Key, property.Type)
		}
	}
}

// LoadDir parses every *.jsonc descriptor under dir, in file-name
// order. A missing directory is not an error: sites without generated
// tables simply have no descriptors. Cross-descriptor duplicates
// (extension slugs, property keys) are reported into diags.
func LoadDir(dir string, diags *diag.List) ([]*Descriptor, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading descriptor directory: %w", err)
	}

	var descriptors []*Descriptor
	extensions := make(map[string]string)
	keys := make(map[string]string)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jsonc") {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			// Keep loading the rest; one unreadable file should not
			// hide every other descriptor's diagnostics.
			diags.Errorf(diag.Position{File: path}, "reading descriptor: %v", err)
			continue
		}

		descriptor := Parse(path, data, diags)
		if descriptor == nil {
			continue
		}

		if previous, ok := extensions[descriptor.Extension]; ok && descriptor.Extension != "" {
			diags.Errorf(diag.Position{File: path},
				"extension %q already declared in %s", descriptor.Extension, previous)
		}
		extensions[descriptor.Extension] = path

		for _, property := range descriptor.Properties {
			if previous, ok := keys[property.Key]; ok && property.Key != "" {
				diags.Errorf(diag.Position{File: path},
					"property key %q already declared in %s", property.Key, previous)
			}
			keys[property.Key] = path
		}

		descriptors = append(descriptors, descriptor)
	}

	sort.Slice(descriptors, func(i, j int) bool {
		return descriptors[i].Extension < descriptors[j].Extension
	})
	return descriptors, nil
}

// Stat reports whether dir exists and contains at least one
// descriptor file, without parsing anything. Lets commands skip the
// props phase cheaply.
func Stat(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".jsonc") {
			return true, nil
		}
	}
	return false, nil
}
