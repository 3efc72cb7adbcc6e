// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

// Package site holds the site model: page discovery under content/,
// the page shape shared by both markup formats, and the site-wide
// index that navigation, orphan detection, and cross reference
// resolution work from.
//
// The index is built once per build from every parsed page, then read
// concurrently by the render workers.
package site
