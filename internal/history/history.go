package history

import (
	"sync"
	"time"
)

// Turn is one exchange of a chat session.
type Turn struct {
	User string
	Bot  string
}

type session struct {
	turns    []Turn
	lastSeen time.Time
}

// Store keeps the last few turns per user in memory. Sessions idle longer
// than the TTL are invisible to Get and removed by Sweep.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session
	maxTurns int
	ttl      time.Duration
	now      func() time.Time
}

// NewStore returns a store keeping at most maxTurns turns per user. A
// non-positive ttl disables expiry.
func NewStore(maxTurns int, ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*session),
		maxTurns: maxTurns,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *Store) Enabled() bool { return s != nil && s.maxTurns > 0 }

// Reset forgets the user's conversation.
func (s *Store) Reset(userID string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// Append records a turn, dropping the oldest ones beyond the cap.
func (s *Store) Append(userID string, t Turn) {
	if !s.Enabled() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	sess, ok := s.sessions[userID]
	if !ok || s.expired(sess, now) {
		sess = &session{}
		s.sessions[userID] = sess
	}
	sess.turns = append(sess.turns, t)
	if over := len(sess.turns) - s.maxTurns; over > 0 {
		sess.turns = append([]Turn(nil), sess.turns[over:]...)
	}
	sess.lastSeen = now
}

// Get returns a copy of the live turns of a user, oldest first.
func (s *Store) Get(userID string) []Turn {
	if !s.Enabled() {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	if !ok || s.expired(sess, s.now()) {
		return nil
	}
	out := make([]Turn, len(sess.turns))
	copy(out, sess.turns)
	return out
}

// Sweep removes expired sessions and reports how many were dropped.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Store) expired(sess *session, now time.Time) bool {
	return s.ttl > 0 && now.Sub(sess.lastSeen) > s.ttl
}
