// Copyright 2026 The Colophon Authors
// SPDX-License-Identifier: Apache-2.0

package serve

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// reloadMessage is the single command the server pushes. The injected
// page script reloads on it.
var reloadMessage = []byte(`{"command":"reload"}`)

// reloadWriteTimeout bounds each websocket write so one stuck browser
// cannot stall a broadcast.
const reloadWriteTimeout = 5 * time.Second

// reloadHub tracks connected livereload clients and broadcasts reload
// commands after successful rebuilds. Clients never send anything
// meaningful; the read loop exists to notice disconnects.
type reloadHub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func newReloadHub(logger *slog.Logger) *reloadHub {
	return &reloadHub{
		logger: logger,
		conns:  make(map[*websocket.Conn]struct{}),
	}
}

// handleConnect upgrades GET /livereload to a websocket and holds it
// until the client disconnects.
func (h *reloadHub) handleConnect(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.logger.Warn("livereload upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	clients := len(h.conns)
	h.mu.Unlock()
	h.logger.Debug("livereload client connected", "clients", clients)

	// Inbound messages are discarded; a read error means the client
	// went away (or closeAll shut the connection).
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.drop(conn)
}

// broadcastReload pushes the reload command to every connected
// client. Clients that fail the write are dropped.
func (h *reloadHub) broadcastReload() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		conn.SetWriteDeadline(time.Now().Add(reloadWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, reloadMessage); err != nil {
			conn.Close()
			delete(h.conns, conn)
		}
	}
	h.logger.Debug("reload broadcast", "clients", len(h.conns))
}

// closeAll disconnects every client. Livereload sockets outlive
// ordinary requests, so server shutdown closes them explicitly.
func (h *reloadHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
			time.Now().Add(reloadWriteTimeout))
		conn.Close()
		delete(h.conns, conn)
	}
}

func (h *reloadHub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[conn]; ok {
		conn.Close()
		delete(h.conns, conn)
	}
}
