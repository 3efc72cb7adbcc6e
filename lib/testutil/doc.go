// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for Colophon packages.
//
// [WriteTree] materializes a map of relative paths to file contents
// under a temporary directory, which is how parser, site-discovery, and
// build tests construct throwaway content trees without committing
// fixture directories for every case.
//
// [RequireReceive], [RequireSend], and [RequireClosed] encapsulate the
// timeout safety valve pattern (select with time.After fallback) so
// that individual tests do not need direct time.After calls. These are
// the only place in the test suite where real wall-clock timeouts are
// used.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no Colophon-internal dependencies.
package testutil
