// Package server manages individual chat sessions, handling read/write
// pumps, the login state machine, and lifecycle control for each connection.
package server

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Session is one connected client. It starts unauthenticated, becomes named
// after a successful login command, and stays named until the connection ends.
type Session struct {
	id        string
	hub       *Hub
	transport Transport
	addr      string
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu    sync.RWMutex
	state sessionState
}

// NewSession creates an unauthenticated session bound to hub. The session's
// outbound queue holds up to bufferSize lines.
func NewSession(hub *Hub, bufferSize int) *Session {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Session{
		id:    uuid.NewString(),
		hub:   hub,
		send:  make(chan []byte, bufferSize),
		done:  make(chan struct{}),
		state: unauthenticated{},
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Addr returns the remote address of the session's connection.
func (s *Session) Addr() string {
	return s.addr
}

// Login returns the claimed display name and whether one has been claimed.
func (s *Session) Login() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if st, ok := s.state.(named); ok {
		return st.login, true
	}
	return "", false
}

func (s *Session) currentState() sessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// setLogin moves the session to the named state. A named session keeps its
// first login.
func (s *Session) setLogin(login string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.(named); ok {
		return false
	}
	s.state = named{login: login}
	return true
}

// OnConnectionEstablished stores the connection and joins the hub.
func (s *Session) OnConnectionEstablished(t Transport) {
	s.transport = t
	s.addr = t.RemoteAddr()
	s.hub.Join(s)
}

// OnConnectionClosed leaves the hub and releases the connection. Nothing may
// be done with the session afterwards.
func (s *Session) OnConnectionClosed(reason error) {
	s.hub.Leave(s)
	s.Close()

	login, _ := s.Login()
	ev := log.Info()
	if !isExpectedCloseError(reason) {
		ev = log.Warn().Err(reason)
	}
	ev.Str("session", s.id).
		Str("addr", s.addr).
		Str("login", login).
		Int("clients", s.hub.SessionCount()).
		Msg("Client left")
}

// OnDataReceived handles one inbound chunk. A returned error is fatal for
// the connection.
func (s *Session) OnDataReceived(raw []byte) error {
	log.Debug().Str("session", s.id).Bytes("data", raw).Msg("Received data")

	text, err := decodeChunk(raw)
	if err != nil {
		return err
	}

	switch st := s.currentState().(type) {
	case named:
		s.SendMessage(st.login, strings.TrimSpace(text))
		return nil
	case unauthenticated:
		candidate, ok := parseLogin(text)
		if !ok {
			return s.reply(usageNotice)
		}
		return s.claimLogin(candidate)
	default:
		return errors.Errorf("unknown session state %T", st)
	}
}

func (s *Session) claimLogin(candidate string) error {
	if !s.hub.IsLoginAvailable(candidate, s) {
		log.Info().Str("session", s.id).Str("login", candidate).Msg("Login rejected: already taken")
		return s.reply(formatLoginTaken(candidate))
	}

	if err := s.SendHistory(); err != nil {
		return err
	}
	s.setLogin(candidate)
	log.Info().Str("session", s.id).Str("login", candidate).Msg("Login accepted")

	return s.reply(formatGreeting(candidate))
}

// SendMessage records text in the history when it is not empty and
// broadcasts it to every other session, empty or not.
func (s *Session) SendMessage(login, text string) {
	s.hub.AppendHistory(login, text)
	s.hub.Broadcast(s, text)
}

// SendHistory writes the most recent history entries to this session,
// oldest first.
func (s *Session) SendHistory() error {
	for _, msg := range s.hub.RecentHistory() {
		if err := s.reply(formatLine(msg.Login, msg.Text)); err != nil {
			return err
		}
	}
	return nil
}

// reply queues a line for this session's own connection, waiting for room
// in the queue unless the session closes first.
func (s *Session) reply(line string) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}

	select {
	case s.send <- []byte(line):
		return nil
	case <-s.done:
		return ErrSessionClosed
	}
}

// deliver queues a broadcast line without blocking. It reports false when
// the session is closed or its queue is full.
func (s *Session) deliver(payload []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.send <- payload:
		return true
	default:
		return false
	}
}

// Close stops both pumps and closes the connection. It is safe to call more
// than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.transport == nil {
			return
		}
		if err := s.transport.Close(); err != nil && !isExpectedCloseError(err) {
			log.Warn().Err(err).Str("session", s.id).Msg("Error closing connection")
		}
	})
}

func (s *Session) readPump() {
	var reason error
	defer func() {
		s.OnConnectionClosed(reason)
	}()

	for {
		chunk, err := s.transport.ReadChunk()
		if err != nil {
			reason = err
			return
		}

		if err := s.OnDataReceived(chunk); err != nil {
			if errors.Is(err, ErrInvalidEncoding) {
				log.Warn().Str("session", s.id).Str("addr", s.addr).Msg("Closing connection: undecodable data")
			}
			reason = err
			return
		}
	}
}

func (s *Session) writePump() {
	for {
		select {
		case msg := <-s.send:
			if err := s.transport.Write(msg); err != nil {
				if !isExpectedCloseError(err) {
					log.Warn().Err(err).Str("session", s.id).Str("addr", s.addr).Msg("Write failed")
				}
				s.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}
