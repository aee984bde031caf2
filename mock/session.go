package mock

import (
	"sync"

	"github.com/jeja2023/tp"
)

// SessionStore counts the calls to Clear.
type SessionStore struct {
	mu      sync.Mutex
	session tp.Session
	Cleared int
}

func NewSessionStore(session tp.Session) *SessionStore {
	return &SessionStore{session: session}
}

func (s *SessionStore) Get() (tp.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session, nil
}

func (s *SessionStore) Save(session tp.Session) error {
	s.mu.Lock()
	s.session = session
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) Clear() error {
	s.mu.Lock()
	s.session = tp.Session{}
	s.Cleared++
	s.mu.Unlock()
	return nil
}
