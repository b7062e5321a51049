// Package server implements the LineChat core: a hub of chat sessions over raw
// TCP, and an optional HTTP gateway that lets WebSocket clients join the same hub.
//
// Clients claim a display name with "login:<name>", receive the most recent
// history, and then every line they send is broadcast to all other clients.
// The implementation is organized into specialized files for configuration,
// the hub, sessions, transports, listeners, and HTTP handlers.
package server
