package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"stuud-backend/internal/llm"
	"stuud-backend/internal/model"
)

// Greeting opens every transcript.
const Greeting = "Hello! I'm your college assistant. How can I help you today?"

var (
	// ErrEmptyMessage is returned for a blank send.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrBusy is returned while a reply is still pending; sends are not queued.
	ErrBusy = errors.New("a response is already pending")
	// ErrClosed is returned once the session has been closed.
	ErrClosed = errors.New("chat session is closed")
)

// State is the send state of a session.
type State int

const (
	StateIdle State = iota
	StateAwaitingResponse
)

func (s State) String() string {
	if s == StateAwaitingResponse {
		return "awaiting-response"
	}
	return "idle"
}

// Session is one chat screen: an append-only transcript and at most one
// request in flight.
type Session struct {
	id          string
	backend     llm.Backend
	sendHistory bool
	now         func() time.Time

	mu       sync.Mutex
	messages []model.ChatMessage
	state    State
	closed   bool
}

// NewSession creates a session whose transcript starts with the greeting.
func NewSession(backend llm.Backend, sendHistory bool) *Session {
	s := &Session{
		id:          uuid.NewString(),
		backend:     backend,
		sendHistory: sendHistory,
		now:         time.Now,
	}
	s.messages = []model.ChatMessage{s.newMessage(Greeting, false)}
	return s
}

func (s *Session) ID() string { return s.id }

// Send appends the user's text, asks the backend, and appends exactly one
// reply: the generated text or the backend's description of the failure.
func (s *Session) Send(ctx context.Context, text string) (model.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return model.ChatMessage{}, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return model.ChatMessage{}, ErrClosed
	}
	if s.state == StateAwaitingResponse {
		s.mu.Unlock()
		return model.ChatMessage{}, ErrBusy
	}
	s.messages = append(s.messages, s.newMessage(text, true))
	s.state = StateAwaitingResponse
	var turns []llm.Turn
	if s.sendHistory {
		turns = s.turnsLocked()
	}
	s.mu.Unlock()

	var reply string
	var err error
	if s.sendHistory {
		reply, err = s.backend.SendPromptWithHistory(ctx, turns)
	} else {
		reply, err = s.backend.SendPrompt(ctx, text)
	}
	if err != nil {
		log.Printf("chat %s: %s backend failed: %v", s.id, s.backend.Name(), err)
		reply = s.backend.Describe(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.newMessage(reply, false)
	if s.closed {
		// The screen is gone; the result is dropped.
		return msg, ErrClosed
	}
	s.messages = append(s.messages, msg)
	s.state = StateIdle
	return msg, nil
}

// turnsLocked converts the transcript, minus the greeting, to backend turns.
func (s *Session) turnsLocked() []llm.Turn {
	turns := make([]llm.Turn, 0, len(s.messages))
	for _, m := range s.messages[1:] {
		role := llm.RoleAssistant
		if m.IsUser {
			role = llm.RoleUser
		}
		turns = append(turns, llm.Turn{Role: role, Content: m.Text})
	}
	return turns
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []model.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SendEnabled mirrors the send control: disabled while a reply is pending or after close.
func (s *Session) SendEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.state == StateIdle
}

// Close discards the session. A reply that arrives afterwards is ignored.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Session) newMessage(text string, isUser bool) model.ChatMessage {
	return model.ChatMessage{
		ID:        uuid.NewString(),
		Text:      text,
		IsUser:    isUser,
		Timestamp: s.now(),
	}
}
