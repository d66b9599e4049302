package memory

import (
	"sort"
	"sync"

	"github.com/yoockh/yoointerview/internal/interview"
)

// SessionStore holds live interview sessions. Implementations must be safe for
// concurrent use.
type SessionStore interface {
	Get(id string) (*interview.Session, bool)
	Put(s *interview.Session)
	// Remove deletes and returns the session, so only one caller can end it.
	Remove(id string) (*interview.Session, bool)
	// List returns sessions oldest first.
	List() []*interview.Session
}

type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*interview.Session
}

func NewSessionStore() SessionStore {
	return &sessionStore{sessions: map[string]*interview.Session{}}
}

func (s *sessionStore) Get(id string) (*interview.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *sessionStore) Put(sess *interview.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID()] = sess
}

func (s *sessionStore) Remove(id string) (*interview.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	return sess, ok
}

func (s *sessionStore) List() []*interview.Session {
	s.mu.RLock()
	out := make([]*interview.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].ID() < out[j].ID()
		}
		return out[i].CreatedAt().Before(out[j].CreatedAt())
	})
	return out
}
