// Package server exposes HTTP handlers: the WebSocket gateway into the chat,
// the health check, and hub statistics.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Gateway serves the HTTP side of the chat. WebSocket clients speak the same
// line protocol as TCP clients and share the same hub.
type Gateway struct {
	hub            *Hub
	maxMessageSize int64
	upgrader       websocket.Upgrader
}

// NewGateway creates the HTTP handlers for hub using the origin allow-list
// and message size limit from cfg.
func NewGateway(hub *Hub, cfg Config) *Gateway {
	cfg = cfg.Sanitized()
	policy := newOriginPolicy(cfg.AllowedOrigins)

	return &Gateway{
		hub:            hub,
		maxMessageSize: cfg.MaxMessageSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     policy.checkOrigin,
		},
	}
}

// WebSocketHandler upgrades GET requests to WebSocket and starts a session
// for the connection. Each text frame is handled as one inbound message.
func (g *Gateway) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("addr", r.RemoteAddr).Msg("WebSocket upgrade failed")
		return
	}

	if _, err := g.hub.Serve(newWSTransport(conn, r.RemoteAddr, g.maxMessageSize)); err != nil {
		log.Warn().Err(err).Str("addr", r.RemoteAddr).Msg("Rejected WebSocket connection")
	}
}

// HealthHandler returns a plain-text liveness message.
func (g *Gateway) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "LineChat server is running!")
}

// StatsHandler reports live session and history counts as JSON.
func (g *Gateway) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(g.hub.Stats()); err != nil {
		log.Error().Err(err).Msg("Error writing stats response")
	}
}
