package chat

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/patrickmn/go-cache"

	"stuud-backend/internal/llm"
	"stuud-backend/internal/model"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("chat session not found")

// Manager keeps the open sessions. A session that sees no activity for the
// TTL expires and is closed, like a screen the user navigated away from.
type Manager struct {
	backend     llm.Backend
	sendHistory bool
	ttl         time.Duration
	sessions    *cache.Cache
}

// NewManager creates a registry of sessions that all talk to backend.
func NewManager(backend llm.Backend, sendHistory bool, ttl time.Duration) *Manager {
	sessions := cache.New(ttl, ttl/2)
	sessions.OnEvicted(func(id string, v interface{}) {
		v.(*Session).Close()
		log.Printf("chat session %s closed", id)
	})
	return &Manager{
		backend:     backend,
		sendHistory: sendHistory,
		ttl:         ttl,
		sessions:    sessions,
	}
}

// Open starts a new session.
func (m *Manager) Open() *Session {
	s := NewSession(m.backend, m.sendHistory)
	m.sessions.Set(s.ID(), s, cache.DefaultExpiration)
	return s
}

// Get returns the session and refreshes its expiry.
func (m *Manager) Get(id string) (*Session, error) {
	v, found := m.sessions.Get(id)
	if !found {
		return nil, ErrSessionNotFound
	}
	s := v.(*Session)
	m.sessions.Set(id, s, cache.DefaultExpiration)
	return s, nil
}

// Send delivers text to the session. The session cannot expire while its
// reply is pending, and its expiry restarts once the reply is in.
func (m *Manager) Send(ctx context.Context, id, text string) (*Session, model.ChatMessage, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, model.ChatMessage{}, err
	}

	done := make(chan struct{})
	go m.keepAlive(id, s, done)
	msg, err := s.Send(ctx, text)
	close(done)
	m.touch(id, s)

	return s, msg, err
}

func (m *Manager) keepAlive(id string, s *Session, done <-chan struct{}) {
	if m.ttl <= 0 {
		return
	}
	interval := m.ttl / 2
	if interval <= 0 {
		interval = m.ttl
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.touch(id, s)
		case <-done:
			return
		}
	}
}

// touch restarts the expiry. Replace fails for a session that is no longer
// registered, so a closed session is never brought back.
func (m *Manager) touch(id string, s *Session) {
	_ = m.sessions.Replace(id, s, cache.DefaultExpiration)
}

// Close removes and closes the session.
func (m *Manager) Close(id string) error {
	if _, found := m.sessions.Get(id); !found {
		return ErrSessionNotFound
	}
	// Delete fires OnEvicted, which closes the session.
	m.sessions.Delete(id)
	return nil
}

// Count returns the number of open sessions.
func (m *Manager) Count() int {
	return m.sessions.ItemCount()
}
