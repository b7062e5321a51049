// Package server defines shared value types and utility helpers that are
// reused across session and hub logic.
package server

import (
	"io"
	"net"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// Message is a single history entry. Entries are created only for non-empty
// text and never change after they are appended.
type Message struct {
	Login string `json:"login"`
	Text  string `json:"text"`
}

// Stats is a point-in-time view of the hub, served on the stats endpoint.
type Stats struct {
	Sessions int `json:"sessions"`
	Named    int `json:"named"`
	History  int `json:"history"`
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, ErrSessionClosed) {
		return true
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
		websocket.CloseAbnormalClosure) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "connection reset by peer")
}
