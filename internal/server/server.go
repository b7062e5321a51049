// Package server constructs and runs the LineChat TCP listener that feeds
// accepted connections into the hub.
package server

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const acceptRetryDelay = 50 * time.Millisecond

// TCPServer accepts raw TCP connections and hands each one to the hub as a
// new session.
type TCPServer struct {
	hub            *Hub
	addr           string
	maxMessageSize int64

	mu       sync.Mutex
	listener net.Listener
}

// NewTCPServer creates a listener wrapper for cfg.ListenAddr(). Call Listen
// to bind it and Serve to start accepting.
func NewTCPServer(hub *Hub, cfg Config) *TCPServer {
	cfg = cfg.Sanitized()
	return &TCPServer{
		hub:            hub,
		addr:           cfg.ListenAddr(),
		maxMessageSize: cfg.MaxMessageSize,
	}
}

// Listen binds the listening socket. A bind failure is the only error that
// should stop the process.
func (s *TCPServer) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.addr)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	return nil
}

// Addr returns the bound address, or nil before Listen succeeds.
func (s *TCPServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections until ctx is cancelled or the listener is closed.
func (s *TCPServer) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return errors.New("tcp server: Listen must be called before Serve")
	}

	stop := context.AfterFunc(ctx, func() {
		_ = s.Close()
	})
	defer stop()

	log.Info().Str("addr", ln.Addr().String()).Msg("Server started")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				log.Info().Msg("TCP listener closed")
				return nil
			}
			log.Error().Err(err).Msg("Failed to accept connection")
			time.Sleep(acceptRetryDelay)
			continue
		}

		if _, err := s.hub.Serve(newTCPTransport(conn, s.maxMessageSize)); err != nil {
			log.Warn().Err(err).Str("addr", conn.RemoteAddr().String()).Msg("Rejected connection")
		}
	}
}

// Close stops accepting new connections. Live sessions are closed by
// Hub.Shutdown.
func (s *TCPServer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	err := s.listener.Close()
	if err != nil && errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
