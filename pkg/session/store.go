package session

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/harun/weatherbot/internal/observability"
	"github.com/harun/weatherbot/internal/tracing"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
)

// ErrSessionNotFound is returned for unknown session IDs.
var ErrSessionNotFound = errors.New("session not found")

// Store is an in-memory registry of live sessions.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty Store
func NewStore() *Store {
	observability.EnsureRegistered()

	return &Store{
		sessions: make(map[string]*Session),
	}
}

// Create opens a new session with a random ID.
func (st *Store) Create(ctx context.Context) *Session {
	if ctx == nil {
		ctx = context.Background()
	}

	sess := newSession(uuid.New().String())

	ctx = tracing.WithSessionID(ctx, sess.id)
	_, span := tracing.StartSpan(ctx, tracing.TracerSession, "session.create",
		attribute.String("session_id", sess.id))
	defer span.End()

	st.mu.Lock()
	st.sessions[sess.id] = sess
	count := len(st.sessions)
	st.mu.Unlock()

	observability.SetActiveSessions(count)
	logger := tracing.LoggerFromContext(ctx, log.Logger)
	logger.Debug().Int("active", count).Msg("Session created")

	return sess
}

// Get returns the session with the given ID.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	sess, ok := st.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Delete removes a session. Deleting an unknown ID returns ErrSessionNotFound.
func (st *Store) Delete(ctx context.Context, id string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = tracing.WithSessionID(ctx, id)
	_, span := tracing.StartSpan(ctx, tracing.TracerSession, "session.delete",
		attribute.String("session_id", id))
	defer span.End()

	st.mu.Lock()
	_, ok := st.sessions[id]
	delete(st.sessions, id)
	count := len(st.sessions)
	st.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	observability.SetActiveSessions(count)
	logger := tracing.LoggerFromContext(ctx, log.Logger)
	logger.Debug().Int("active", count).Msg("Session deleted")

	return nil
}

// Count returns the number of live sessions
func (st *Store) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// List returns summaries of all live sessions ordered by creation time.
func (st *Store) List() []Snapshot {
	st.mu.RLock()
	out := make([]Snapshot, 0, len(st.sessions))
	for _, sess := range st.sessions {
		out = append(out, sess.Snapshot())
	}
	st.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
