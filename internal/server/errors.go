// Package server declares the sentinel errors shared by sessions, the hub,
// and the listeners.
package server

import "github.com/pkg/errors"

var (
	// ErrInvalidEncoding is returned when an inbound chunk is not valid UTF-8.
	// It is fatal for the connection that sent it.
	ErrInvalidEncoding = errors.New("inbound data is not valid UTF-8")

	// ErrSessionClosed is returned when writing to a session whose connection is gone.
	ErrSessionClosed = errors.New("session closed")

	// ErrHubClosed is returned when a connection arrives after the hub has shut down.
	ErrHubClosed = errors.New("hub is shut down")
)
