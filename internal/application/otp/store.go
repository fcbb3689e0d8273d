package otp

import (
	"sync"
	"time"

	"github.com/doc-analyzer-api/internal/domain"
)

// Store holds at most one pending session per phone number. A single mutex
// guards the whole map; every operation is one critical section.
type Store struct {
	mu       sync.Mutex
	sessions map[string]domain.VerificationSession
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]domain.VerificationSession)}
}

// Put stores s, replacing any session for the same phone number.
func (st *Store) Put(s domain.VerificationSession) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.PhoneNumber] = s
}

func (st *Store) Get(phoneNumber string) (domain.VerificationSession, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[phoneNumber]
	return s, ok
}

// CompareAndDelete removes the session for s.PhoneNumber only if it is still s.
// It returns false when the session is gone or was replaced.
func (st *Store) CompareAndDelete(s domain.VerificationSession) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	cur, ok := st.sessions[s.PhoneNumber]
	if !ok || !cur.Same(s) {
		return false
	}
	delete(st.sessions, s.PhoneNumber)
	return true
}

// Sweep removes every session expired at now and returns how many were removed.
func (st *Store) Sweep(now time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for phone, s := range st.sessions {
		if s.Expired(now) {
			delete(st.sessions, phone)
			n++
		}
	}
	return n
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Clear drops all sessions.
func (st *Store) Clear() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions = make(map[string]domain.VerificationSession)
}
