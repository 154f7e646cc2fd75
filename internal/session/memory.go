// Package session keeps per-user product search state between turns.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"shop-assistant/internal/domain"
)

var errEmptyUserID = errors.New("session: user id must not be empty")

// MemoryStore holds sessions in process memory. State is lost on restart and
// is not shared between instances.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.SessionState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]domain.SessionState)}
}

// Get returns the user's session, or the zero state on first access.
func (s *MemoryStore) Get(_ context.Context, userID string) (domain.SessionState, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.SessionState{}, errEmptyUserID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyState(s.sessions[userID]), nil
}

func (s *MemoryStore) Put(_ context.Context, userID string, state domain.SessionState) error {
	if strings.TrimSpace(userID) == "" {
		return errEmptyUserID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = copyState(state)
	return nil
}

// copyState detaches the pointer fields so callers never share them.
func copyState(in domain.SessionState) domain.SessionState {
	out := domain.SessionState{LowerFilterActive: in.LowerFilterActive}
	if term, ok := in.Term(); ok {
		out = out.WithTerm(term)
	}
	if ceiling, ok := in.Ceiling(); ok {
		out = out.WithCeiling(ceiling)
	}
	return out
}
