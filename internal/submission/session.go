package submission

import (
	"sync"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/releasedesk/pkg/errors"
)

// DefaultSessionTTL is how long an idle wizard survives.
const DefaultSessionTTL = 2 * time.Hour

type session struct {
	mu       sync.Mutex
	wizard   *Wizard
	lastUsed time.Time
}

// SessionStore keeps wizards between HTTP requests. Calls against one session
// are serialized; different sessions proceed in parallel. Idle sessions are
// evicted lazily whenever a new one is added.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*session
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore builds a store; a non-positive ttl uses DefaultSessionTTL.
func NewSessionStore(ttl time.Duration, now func() time.Time) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if now == nil {
		now = time.Now
	}
	return &SessionStore{
		sessions: make(map[uuid.UUID]*session),
		ttl:      ttl,
		now:      now,
	}
}

// Add registers w and returns the number of sessions evicted while doing so.
func (s *SessionStore) Add(w *Wizard) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	evicted := 0
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
			evicted++
		}
	}
	s.sessions[w.ID()] = &session{wizard: w, lastUsed: now}
	return evicted
}

// expired reads lastUsed, which is only written under s.mu.
func (s *SessionStore) expired(sess *session, now time.Time) bool {
	return now.Sub(sess.lastUsed) > s.ttl
}

// With runs fn against the wizard while holding its session lock.
func (s *SessionStore) With(id uuid.UUID, fn func(w *Wizard) error) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	now := s.now()
	if ok && s.expired(sess, now) {
		delete(s.sessions, id)
		ok = false
	}
	if ok {
		sess.lastUsed = now
	}
	s.mu.Unlock()

	if !ok {
		return sessionNotFound(id)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return fn(sess.wizard)
}

// Delete discards a session and any uncommitted state.
func (s *SessionStore) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return sessionNotFound(id)
	}
	delete(s.sessions, id)
	return nil
}

// Len reports the number of live sessions, expired ones included until the
// next sweep.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func sessionNotFound(id uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "wizard session not found").
		WithDetails(map[string]any{"wizard_id": id.String()})
}
