// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package props

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// GenerateTable renders one descriptor as an AsciiDoc table partial.
// Output is deterministic: properties sorted by key, no timestamps.
// Every property row is wrapped in tag::<key>[] markers so guides can
// include a single property:
//
//	include::generated/messaging.adoc[tag=app.messaging.buffer-size]
func GenerateTable(d *Descriptor) []byte {
	properties := make([]Property, len(d.Properties))
	copy(properties, d.Properties)
	sort.Slice(properties, func(i, j int) bool {
		return properties[i].Key < properties[j].Key
	})

	var b strings.Builder
	fmt.Fprintf(&b, "// Generated from %s by colophon props generate. DO NOT EDIT.\n",
		filepath.Base(d.SourcePath))
	b.WriteString("\n")
	fmt.Fprintf(&b, "[[props-%s]]\n", d.Extension)
	fmt.Fprintf(&b, ".%s configuration properties\n", escapeCell(d.DisplayTitle()))
	b.WriteString("[cols=\"5,2,2,6\",options=\"header\"]\n")
	b.WriteString("|===\n")
	b.WriteString("|Property |Type |Default |Description\n")

	for _, property := range properties {
		b.WriteString("\n")
		fmt.Fprintf(&b, "// tag::%s[]\n", property.Key)

		fmt.Fprintf(&b, "|[[%s]]`%s`\n", propertyAnchor(property.Key), escapeCell(property.Key))
		if property.LockedAtBuildTime {
			b.WriteString("🔒 locked at build time\n")
		}

		fmt.Fprintf(&b, "|`%s`\n", escapeCell(property.Type))

		if property.Default == "" {
			b.WriteString("|\n")
		} else {
			fmt.Fprintf(&b, "|`%s`\n", escapeCell(property.Default))
		}

		b.WriteString("|")
		b.WriteString(descriptionCell(property))
		b.WriteString("\n")

		fmt.Fprintf(&b, "// end::%s[]\n", property.Key)
	}

	b.WriteString("\n|===\n")
	return []byte(b.String())
}

// propertyAnchor derives the anchor ID for a property key:
// "app.messaging.buffer-size" becomes "prop-app-messaging-buffer-size".
// Keys are unique, dots map to dashes injectively for config-style
// keys, so anchors stay unique too.
func propertyAnchor(key string) string {
	return "prop-" + strings.ReplaceAll(key, ".", "-")
}

// descriptionCell assembles the description column: deprecation
// notice, the description itself, accepted enum values, and the
// version the property appeared in. Lines within a cell render as
// one flowed paragraph.
func descriptionCell(p Property) string {
	var lines []string
	if p.Deprecated {
		lines = append(lines, "*Deprecated.*")
	}
	if p.Description != "" {
		lines = append(lines, escapeCell(p.Description))
	}
	if len(p.EnumValues) > 0 {
		quoted := make([]string, len(p.EnumValues))
		for i, value := range p.EnumValues {
			quoted[i] = "`" + escapeCell(value) + "`"
		}
		lines = append(lines, "Accepted values: "+strings.Join(quoted, ", ")+".")
	}
	if p.Since != "" {
		lines = append(lines, fmt.Sprintf("Since %s.", escapeCell(p.Since)))
	}
	return strings.Join(lines, "\n")
}

// escapeCell escapes the cell separator so descriptor text can never
// open a new table cell.
func escapeCell(text string) string {
	return strings.ReplaceAll(text, "|", `\|`)
}

// WritePartials writes one <extension>.adoc partial per descriptor
// into dir, creating it if needed. Unchanged partials are left
// untouched so their mtimes stay stable and downstream staleness
// checks (serve watch, make-style wrappers) see no churn. Returns the
// names of the partials actually written.
func WritePartials(dir string, descriptors []*Descriptor) ([]string, error) {
	if len(descriptors) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating generated directory: %w", err)
	}

	var written []string
	for _, descriptor := range descriptors {
		name := descriptor.Extension + ".adoc"
		path := filepath.Join(dir, name)
		content := GenerateTable(descriptor)

		existing, err := os.ReadFile(path)
		if err == nil && bytes.Equal(existing, content) {
			continue
		}
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return written, fmt.Errorf("writing partial %s: %w", name, err)
		}
		written = append(written, name)
	}
	return written, nil
}
