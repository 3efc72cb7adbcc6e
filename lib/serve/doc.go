// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

// Package serve runs the local preview server: one build up front,
// then HTTP serving of the output directory with content-addressed
// ETags, a JSON search endpoint, and — with watch enabled — inotify
// rebuild-on-change plus websocket live reload.
//
// The watcher observes source directories only; output-side
// directories are excluded so rebuilds cannot retrigger themselves.
// Rebuilds are serialized, and change bursts are debounced into a
// single build.
package serve
