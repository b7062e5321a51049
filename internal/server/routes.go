// Package server wires HTTP handlers into a ServeMux for the LineChat
// gateway via routing helpers.
package server

import "net/http"

// SetupRoutes configures and returns an HTTP ServeMux with the health check,
// stats, and WebSocket endpoints.
func SetupRoutes(g *Gateway) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", g.HealthHandler)
	mux.HandleFunc("/stats", g.StatsHandler)
	mux.HandleFunc("/ws", g.WebSocketHandler)
	return mux
}
