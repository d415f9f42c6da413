package session

import (
	"sync"
	"time"

	"github.com/harun/weatherbot/pkg/agent"
)

// Session holds the agent and transcript of one conversation.
type Session struct {
	id        string
	createdAt time.Time

	mu         sync.RWMutex
	agent      *agent.Agent
	history    []agent.Message
	lastActive time.Time
}

func newSession(id string) *Session {
	now := time.Now()
	return &Session{
		id:         id,
		createdAt:  now,
		lastActive: now,
	}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// CreatedAt returns when the session was opened
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// LastActive returns the time of the last state change
func (s *Session) LastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}

// Agent returns the stored agent and whether one was set.
func (s *Session) Agent() (agent.Agent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.agent == nil {
		return agent.Agent{}, false
	}
	return *s.agent, true
}

// SetAgent stores a for the rest of the conversation.
func (s *Session) SetAgent(a agent.Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.agent = &a
	s.lastActive = time.Now()
}

// History returns a copy of the transcript. It is never nil.
func (s *Session) History() []agent.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]agent.Message, len(s.history))
	copy(out, s.history)
	return out
}

// SetHistory replaces the transcript with snapshot.
func (s *Session) SetHistory(snapshot []agent.Message) {
	stored := make([]agent.Message, len(snapshot))
	copy(stored, snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = stored
	s.lastActive = time.Now()
}

// Snapshot is a read-only view of a session for listings.
type Snapshot struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
	Messages   int       `json:"messages"`
	Started    bool      `json:"started"`
}

// Snapshot returns the session's current summary.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		ID:         s.id,
		CreatedAt:  s.createdAt,
		LastActive: s.lastActive,
		Messages:   len(s.history),
		Started:    s.agent != nil,
	}
}
