// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package serve

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/colophon-press/colophon/lib/cache"
	"github.com/colophon-press/colophon/lib/search"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 100
)

// livereloadScript is injected before </body> in served HTML when
// watch is on. It reloads the page on the server's reload command.
// The output files on disk are never modified.
var livereloadScript = []byte(`<script>
(function () {
	var scheme = location.protocol === "https:" ? "wss://" : "ws://";
	var socket = new WebSocket(scheme + location.host + "/livereload");
	socket.onmessage = function (event) {
		if (JSON.parse(event.data).command === "reload") {
			location.reload();
		}
	};
})();
</script>
`)

// routes builds the server's handler. The livereload endpoint is only
// registered when watch is on; without it the endpoint 404s like any
// other unknown path.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/search", s.handleSearch)
	if s.cfg.Serve.Watch {
		mux.HandleFunc("GET /livereload", s.reload.handleConnect)
	}
	mux.HandleFunc("/", s.handleSite)
	return mux
}

// handleSite serves files from the output directory under the site's
// base path. Directory requests map to their index.html.
func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rel, status := s.resolvePath(r.URL.Path)
	switch status {
	case http.StatusMovedPermanently:
		http.Redirect(w, r, s.basePath, http.StatusMovedPermanently)
		return
	case http.StatusNotFound:
		s.notFound(w)
		return
	}

	data, err := os.ReadFile(filepath.Join(s.cfg.Paths.Output, filepath.FromSlash(rel)))
	if err != nil {
		s.notFound(w)
		return
	}

	if s.cfg.Serve.Watch && strings.HasSuffix(rel, ".html") {
		data = injectLivereload(data)
	}

	// The ETag pairs the build digest with the body hash: the digest
	// ties the response to a build, the body hash catches files
	// (static passthrough, manifest) whose content changes without
	// moving the digest.
	digest, _ := s.buildState()
	etag := `"` + cache.AssetTag(digest) + cache.AssetTag(cache.HashAsset(data)) + `"`
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	contentType := mime.TypeByExtension(path.Ext(rel))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("ETag", etag)
	w.Write(data)
}

// resolvePath maps a request path to an output-relative file path.
// Returns the path with http.StatusOK, or "" with a redirect or
// not-found status. path.Clean on the rooted request path resolves
// any ".." segments against the URL root, so the result cannot
// escape the output directory.
func (s *Server) resolvePath(urlPath string) (string, int) {
	p := path.Clean(urlPath)
	if p != "/" && strings.HasSuffix(urlPath, "/") {
		p += "/"
	}

	switch {
	case p == s.basePath:
		return "index.html", http.StatusOK
	case p+"/" == s.basePath:
		// Base path without its trailing slash, e.g. /docs for a
		// site rooted at /docs/.
		return "", http.StatusMovedPermanently
	case strings.HasPrefix(p, s.basePath):
		rel := strings.TrimPrefix(p, s.basePath)
		if strings.HasSuffix(rel, "/") {
			rel += "index.html"
		}
		return rel, http.StatusOK
	default:
		return "", http.StatusNotFound
	}
}

// handleSearch serves GET /api/search?q=…&limit=… as a JSON array of
// ranked hits from the current build's index.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "missing query parameter q", http.StatusBadRequest)
		return
	}

	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxSearchLimit)
	}

	_, index := s.buildState()
	results := index.Search(query, limit)
	if results == nil {
		results = []search.Result{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(results); err != nil {
		s.logger.Warn("writing search response", "error", err)
	}
}

// notFound renders the minimal 404 page with a link back to the site
// root.
func (s *Server) notFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>404 Not Found</title></head>
<body>
<h1>404 Not Found</h1>
<p><a href="%s">Back to %s</a></p>
</body>
</html>
`, s.basePath, html.EscapeString(s.cfg.Title))
}

// injectLivereload places the livereload script before the closing
// </body> tag, or appends it when the page has none.
func injectLivereload(page []byte) []byte {
	idx := bytes.LastIndex(page, []byte("</body>"))
	if idx < 0 {
		return append(page, livereloadScript...)
	}
	out := make([]byte, 0, len(page)+len(livereloadScript))
	out = append(out, page[:idx]...)
	out = append(out, livereloadScript...)
	out = append(out, page[idx:]...)
	return out
}
