// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	applog "playbacque/internal/log"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WebSocketPath is the endpoint clients connect to for the PCM stream.
const WebSocketPath = "/pcm"

const (
	wsBroadcastQueue = 64
	wsWriteTimeout   = time.Second
)

// WebSocketSink broadcasts every buffer as a binary message to all connected
// WebSocket clients. Slow clients lose buffers rather than stalling playback.
type WebSocketSink struct {
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]string // Connection to client ID
	clientsMu sync.Mutex
	broadcast chan []byte
	done      chan struct{}
	server    *http.Server
	listener  net.Listener

	closeMu sync.Mutex
	closed  bool
}

// NewWebSocketSink listens on addr and starts serving the PCM stream at
// WebSocketPath.
func NewWebSocketSink(addr string) (*WebSocketSink, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s := newWebSocketSink()
	s.listener = ln
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		applog.Infof("WebSocketSink: Serving PCM on ws://%s%s", ln.Addr(), WebSocketPath)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Errorf("WebSocketSink: Server error: %v", err)
		}
	}()

	return s, nil
}

// newWebSocketSink creates a sink with its broadcaster running but without an
// HTTP server, so the handler can be mounted elsewhere.
func newWebSocketSink() *WebSocketSink {
	s := &WebSocketSink{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Local tool, any origin may listen
			},
		},
		clients:   make(map[*websocket.Conn]string),
		broadcast: make(chan []byte, wsBroadcastQueue),
		done:      make(chan struct{}),
	}
	go s.handleBroadcasts()
	return s
}

// Addr returns the address the sink is listening on, or "" when it has no
// listener of its own.
func (s *WebSocketSink) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Handler returns the HTTP handler serving the WebSocket endpoint.
func (s *WebSocketSink) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(WebSocketPath, s.handleWebSocket)
	return mux
}

// Clients returns the number of connected clients.
func (s *WebSocketSink) Clients() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}

// handleWebSocket upgrades HTTP connections to WebSocket
func (s *WebSocketSink) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Warnf("WebSocketSink: Upgrade error: %v", err)
		return
	}

	id := uuid.NewString()
	s.clientsMu.Lock()
	s.clients[conn] = id
	total := len(s.clients)
	s.clientsMu.Unlock()
	applog.Infof("WebSocketSink: Client %s connected from %s, total: %d", id, r.RemoteAddr, total)

	// Handle disconnect
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.removeClient(conn)
				return
			}
		}
	}()
}

func (s *WebSocketSink) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	id, ok := s.clients[conn]
	delete(s.clients, conn)
	total := len(s.clients)
	s.clientsMu.Unlock()

	conn.Close()
	if ok {
		applog.Infof("WebSocketSink: Client %s disconnected, total: %d", id, total)
	}
}

// handleBroadcasts sends queued buffers to all connected clients
func (s *WebSocketSink) handleBroadcasts() {
	defer close(s.done)

	for data := range s.broadcast {
		s.clientsMu.Lock()
		var failed []*websocket.Conn
		for conn, id := range s.clients {
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				applog.Warnf("WebSocketSink: Error sending to client %s: %v", id, err)
				failed = append(failed, conn)
			}
		}
		s.clientsMu.Unlock()

		for _, conn := range failed {
			s.removeClient(conn)
		}
	}
}

// Send queues a copy of p for all connected clients. When the queue is full
// the buffer is dropped.
func (s *WebSocketSink) Send(p []byte) error {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()

	if s.closed {
		return ErrClosed
	}

	select {
	case s.broadcast <- append([]byte(nil), p...):
	default:
		applog.Debug("WebSocketSink: Broadcast queue full, dropping buffer")
	}
	return nil
}

// Close disconnects all clients and shuts the server down.
func (s *WebSocketSink) Close() error {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return nil
	}
	s.closed = true
	close(s.broadcast)
	s.closeMu.Unlock()

	<-s.done

	applog.Debug("WebSocketSink: Closing server")

	// Close all client connections
	s.clientsMu.Lock()
	for conn := range s.clients {
		conn.Close()
	}
	s.clients = make(map[*websocket.Conn]string)
	s.clientsMu.Unlock()

	if s.server != nil {
		return s.server.Close()
	}
	return nil
}

// Ensure WebSocketSink satisfies the interface
var _ Sink = (*WebSocketSink)(nil)
