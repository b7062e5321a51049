// Package server coordinates session registration, login uniqueness, message
// history, and broadcast for the LineChat system via the Hub type.
package server

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Hub is the process-wide chat state: the live sessions and the message
// history. A single mutex serializes every operation on it.
//
// History storage grows without bound; only the last historyLimit entries
// are ever read back.
type Hub struct {
	mu             sync.Mutex
	sessions       map[*Session]struct{}
	history        []Message
	historyLimit   int
	sendBufferSize int
	closed         bool
	wg             sync.WaitGroup
}

// NewHub creates an empty hub. New joiners are replayed at most historyLimit
// messages, and every session queues up to sendBufferSize outbound lines.
func NewHub(historyLimit, sendBufferSize int) *Hub {
	if historyLimit <= 0 {
		historyLimit = defaultConfig().HistoryLimit
	}
	if sendBufferSize <= 0 {
		sendBufferSize = defaultConfig().SendBufferSize
	}
	return &Hub{
		sessions:       make(map[*Session]struct{}),
		historyLimit:   historyLimit,
		sendBufferSize: sendBufferSize,
	}
}

// Serve wraps a freshly accepted connection in a Session, joins it to the hub
// and starts its pumps.
func (h *Hub) Serve(t Transport) (*Session, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = t.Close()
		return nil, ErrHubClosed
	}
	h.wg.Add(2)
	h.mu.Unlock()

	s := NewSession(h, h.sendBufferSize)
	s.OnConnectionEstablished(t)

	go func() {
		defer h.wg.Done()
		s.writePump()
	}()
	go func() {
		defer h.wg.Done()
		s.readPump()
	}()

	return s, nil
}

// Join adds a session to the live set.
func (h *Hub) Join(s *Session) {
	h.mu.Lock()
	h.sessions[s] = struct{}{}
	count := len(h.sessions)
	closed := h.closed
	h.mu.Unlock()

	log.Info().Str("session", s.id).Str("addr", s.addr).Int("clients", count).Msg("New client connected")

	if closed {
		s.Close()
	}
}

// Leave removes a session from the live set. Leaving twice is a no-op.
func (h *Hub) Leave(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.sessions, s)
}

// IsLoginAvailable reports whether candidate may be claimed by checker.
// With fewer than two live sessions the check is skipped and the login is
// always available. Otherwise it is available when no other live session
// holds it, compared case-insensitively.
//
// The answer is not held: a concurrent claim can still take the same login
// before checker is renamed.
func (h *Hub) IsLoginAvailable(candidate string, checker *Session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.sessions) < 2 {
		return true
	}

	taken := lo.ContainsBy(lo.Keys(h.sessions), func(s *Session) bool {
		if s == checker {
			return false
		}
		login, ok := s.Login()
		return ok && strings.EqualFold(login, candidate)
	})
	return !taken
}

// AppendHistory records a message. Text that is empty after trimming is
// not stored.
func (h *Hub) AppendHistory(login, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.history = append(h.history, Message{Login: login, Text: text})
}

// RecentHistory returns up to the last historyLimit messages, oldest first.
func (h *Hub) RecentHistory() []Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	window := lo.Subset(h.history, -h.historyLimit, uint(h.historyLimit))
	return append([]Message(nil), window...)
}

// Broadcast queues "<login>: <text>\n" for every live session except the
// sender. A peer that cannot take the line is skipped.
func (h *Hub) Broadcast(sender *Session, text string) {
	login, _ := sender.Login()
	payload := []byte(formatLine(login, text))

	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for peer := range h.sessions {
		if peer == sender {
			continue
		}
		if !peer.deliver(payload) {
			log.Warn().Str("session", peer.id).Str("addr", peer.addr).Msg("Dropped broadcast: peer closed or send buffer full")
			continue
		}
		delivered++
	}

	log.Debug().Str("from", login).Int("recipients", delivered).Msg("Broadcast message")
}

// SessionCount returns the number of live sessions.
func (h *Hub) SessionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Stats returns a snapshot of session and history counts.
func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	namedCount := lo.CountBy(lo.Keys(h.sessions), func(s *Session) bool {
		_, ok := s.Login()
		return ok
	})
	return Stats{
		Sessions: len(h.sessions),
		Named:    namedCount,
		History:  len(h.history),
	}
}

// Shutdown closes every live connection and waits for all session
// goroutines to finish, or until the timeout is reached. Connections handed
// to Serve afterwards are refused.
func (h *Hub) Shutdown(timeout time.Duration) error {
	log.Info().Msg("Initiating hub shutdown...")

	h.mu.Lock()
	h.closed = true
	sessions := lo.Keys(h.sessions)
	h.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	log.Info().Int("count", len(sessions)).Msg("Closed client connections")

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		log.Warn().Msg("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
