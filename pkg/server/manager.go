package server

import (
	"sync"

	"github.com/vango-go/weft/pkg/protocol"
)

// SessionManager tracks the open sessions of a server.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	max      int
}

// NewSessionManager creates a manager admitting at most max sessions;
// zero means no limit.
func NewSessionManager(max int) *SessionManager {
	return &SessionManager{sessions: make(map[string]*Session), max: max}
}

// add registers s and arranges for its removal when it closes.
func (sm *SessionManager) add(s *Session) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.max > 0 && len(sm.sessions) >= sm.max {
		return ErrMaxSessionsReached
	}
	sm.sessions[s.ID] = s
	s.onClose = sm.remove
	return nil
}

func (sm *SessionManager) remove(s *Session) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.sessions[s.ID] == s {
		delete(sm.sessions, s.ID)
	}
}

// Full reports whether another session would be refused.
func (sm *SessionManager) Full() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.max > 0 && len(sm.sessions) >= sm.max
}

// Get returns the session with id, or nil.
func (sm *SessionManager) Get(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// Count returns the number of open sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// ForEach calls fn for every open session until fn returns false.
func (sm *SessionManager) ForEach(fn func(*Session) bool) {
	sm.mu.RLock()
	sessions := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		sessions = append(sessions, s)
	}
	sm.mu.RUnlock()

	for _, s := range sessions {
		if !fn(s) {
			return
		}
	}
}

// CloseAll closes every session, telling clients why.
func (sm *SessionManager) CloseAll(reason protocol.CloseReason, message string) {
	sm.ForEach(func(s *Session) bool {
		s.CloseWith(reason, message)
		return true
	})
}
