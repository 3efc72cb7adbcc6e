// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package serve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/colophon-press/colophon/lib/build"
	"github.com/colophon-press/colophon/lib/cache"
	"github.com/colophon-press/colophon/lib/clock"
	"github.com/colophon-press/colophon/lib/config"
	"github.com/colophon-press/colophon/lib/diag"
	"github.com/colophon-press/colophon/lib/search"
	"github.com/colophon-press/colophon/lib/site"
)

// Options configures a preview server.
type Options struct {
	// Config is the site configuration. Required. Serve.Address is
	// the listen address; Serve.Watch enables rebuild-on-change and
	// live reload.
	Config *config.Config

	// Logger receives structured logs. Nil discards them.
	Logger *slog.Logger

	// Clock drives the watcher debounce. Nil uses the real clock.
	Clock clock.Clock

	// NoCache forwards to every build, forcing full re-renders.
	NoCache bool

	// ShutdownTimeout is the maximum time to wait for in-flight
	// requests after the context is cancelled. Defaults to 10
	// seconds if zero.
	ShutdownTimeout time.Duration
}

// Server builds the site once and serves the output directory over
// HTTP. With watch enabled it rebuilds on source changes and pushes
// reload commands to connected browsers.
//
// Serve(ctx) blocks until the context is cancelled and active
// requests drain.
type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	clk     clock.Clock
	noCache bool

	shutdownTimeout time.Duration

	// basePath is the site's URL prefix, always ending in "/".
	// Requests outside it are not part of the site.
	basePath string

	reload *reloadHub

	// ready is closed after the listener is bound and the server
	// is accepting connections.
	ready chan struct{}

	// addr is the resolved listen address, available after the
	// server starts accepting connections (after ready is closed).
	addr net.Addr

	// mu guards the per-build state below. Every successful build
	// swaps in a new digest and search index.
	mu     sync.RWMutex
	digest cache.Hash
	index  *search.Index
}

// New creates a preview server. Call Serve to build the site and
// start accepting connections.
func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.New("serve: Config is required")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	timeout := opts.ShutdownTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Server{
		cfg:             opts.Config,
		logger:          logger,
		clk:             clk,
		noCache:         opts.NoCache,
		shutdownTimeout: timeout,
		basePath:        site.PageURL(opts.Config.BaseURL, ""),
		reload:          newReloadHub(logger),
		ready:           make(chan struct{}),
		index:           search.New(nil),
	}, nil
}

// Ready returns a channel that is closed once the server is bound
// and accepting connections.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the resolved listen address. Only valid after Ready()
// is closed. Useful when the configured address uses port 0 (OS-
// assigned port) — the resolved address contains the actual port.
func (s *Server) Addr() net.Addr {
	return s.addr
}

// Serve builds the site, then accepts HTTP connections. Blocks until
// ctx is cancelled, then performs graceful shutdown: stops accepting
// new connections and waits up to the shutdown timeout for active
// requests to complete.
//
// A failed initial build aborts startup only for infrastructure
// errors. Content problems are diagnostics: the server logs them and
// serves what the build produced, so an author can fix the source
// and (with watch on) see the repair land.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.rebuild(ctx); err != nil {
		return fmt.Errorf("initial build: %w", err)
	}

	// Bind the listener early so we can extract the resolved
	// address and signal readiness before entering the serve loop.
	listener, err := net.Listen("tcp", s.cfg.Serve.Address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Serve.Address, err)
	}
	s.addr = listener.Addr()

	if s.cfg.Serve.Watch {
		changed, stopWatch, err := watchSources(s.cfg, s.clk, s.logger)
		if err != nil {
			listener.Close()
			return fmt.Errorf("watching sources: %w", err)
		}
		defer stopWatch()
		go s.rebuildLoop(ctx, changed)
	}

	// Readiness covers the watcher too: an edit made after Ready()
	// fires is guaranteed to be observed.
	close(s.ready)

	server := &http.Server{
		Handler: s.routes(),

		// Timeouts protect against slow clients holding
		// connections open. The livereload websocket hijacks its
		// connection during the upgrade, so these do not apply to
		// it.
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("preview server listening",
		"address", s.addr.String(),
		"site", s.basePath,
		"watch", s.cfg.Serve.Watch)

	// Serve in a goroutine so we can wait for the context.
	serveDone := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveDone <- err
		}
		close(serveDone)
	}()

	// Wait for context cancellation or serve error.
	select {
	case <-ctx.Done():
		s.logger.Info("preview server shutting down")
	case err := <-serveDone:
		if err != nil {
			return err
		}
		// Server closed without error and without context cancel
		// — shouldn't happen, but handle gracefully.
		return nil
	}

	// Graceful shutdown: stop accepting new connections, wait for
	// in-flight requests to complete. Livereload sockets are closed
	// directly — they stay open forever otherwise.
	s.reload.closeAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("preview server shutdown error", "error", err)
		return fmt.Errorf("preview server shutdown: %w", err)
	}

	s.logger.Info("preview server stopped")
	return nil
}

// rebuildLoop runs builds for change signals from the watcher, one at
// a time. Each successful build notifies connected browsers.
func (s *Server) rebuildLoop(ctx context.Context, changed <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-changed:
		}

		s.logger.Info("source change detected, rebuilding")
		if err := s.rebuild(ctx); err != nil {
			s.logger.Error("rebuild failed", "error", err)
			continue
		}
		s.reload.broadcastReload()
	}
}

// rebuild runs one build and swaps the served build state: the digest
// that seeds response ETags and the in-memory search index. Build
// diagnostics are logged, not returned — the returned error is
// infrastructure failure only.
func (s *Server) rebuild(ctx context.Context) error {
	result, err := build.Run(ctx, build.Options{
		Config:  s.cfg,
		Logger:  s.logger,
		NoCache: s.noCache,
	})
	if err != nil {
		return err
	}
	s.logDiagnostics(result.Diags)

	entries, err := search.Load(filepath.Join(s.cfg.Paths.Output, search.FileName))
	if err != nil {
		s.logger.Warn("loading search index", "error", err)
		entries = nil
	}

	s.mu.Lock()
	s.digest = result.Digest
	s.index = search.New(entries)
	s.mu.Unlock()
	return nil
}

// logDiagnostics surfaces build problems in the server log. The
// preview server has no report step — the log is where an author
// watching a rebuild sees what broke.
func (s *Server) logDiagnostics(diags *diag.List) {
	for _, d := range diags.Sorted() {
		switch d.Severity {
		case diag.SeverityError:
			s.logger.Error(d.Message, "position", d.Position.String())
		default:
			s.logger.Warn(d.Message, "position", d.Position.String())
		}
	}
}

// buildState returns the current digest and search index as an
// atomic pair.
func (s *Server) buildState() (cache.Hash, *search.Index) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.digest, s.index
}
