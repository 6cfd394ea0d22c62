package server

import "sync"

// Store owns the single room session. Every mutation runs inside Update's
// critical section: roster, ballots and phase are read-modify-written
// together and must change as a group.
type Store struct {
	mu      sync.Mutex
	session *Session
}

func NewStore() *Store {
	return &Store{session: newSession()}
}

func newSession() *Session {
	return &Session{
		Phase:        phaseIdle,
		Participants: make(map[string]*Participant),
		Ballots:      make(map[string]string),
	}
}

// Update applies fn to the session under the store lock. An error from fn
// aborts the caller's follow-up work; the session keeps whatever fn did to
// it, matching the single-writer model where fn is the whole transaction.
func (s *Store) Update(fn func(sess *Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.session)
}

// View runs fn read-only under the lock. fn must not retain the session.
func (s *Store) View(fn func(sess *Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.session)
}
