package state

import (
	"context"
	"errors"
	"strings"
	"sync"
)

var ErrStateNotFound = errors.New("conversation memory not found")

// Store is the persistence contract used by the orchestrator. Load returns a
// private copy; nothing is visible to other readers until Save commits it.
type Store interface {
	Load(ctx context.Context, sessionID string) (*ConversationMemory, error)
	Save(ctx context.Context, mem *ConversationMemory) error
	Delete(ctx context.Context, sessionID string) error
}

// InMemoryStore keeps one ConversationMemory per session for the lifetime of
// the process. Each session owns its own entry, so concurrent sessions never
// interfere; Clone on both Load and Save keeps an in-flight turn's mutations
// invisible until the turn commits.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*ConversationMemory
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]*ConversationMemory),
	}
}

func (s *InMemoryStore) Load(ctx context.Context, sessionID string) (*ConversationMemory, error) {
	key := strings.TrimSpace(sessionID)
	if key == "" {
		return nil, ErrInvalidSession
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	mem, ok := s.sessions[key]
	if !ok {
		return nil, ErrStateNotFound
	}
	return mem.Clone(), nil
}

func (s *InMemoryStore) Save(ctx context.Context, mem *ConversationMemory) error {
	if mem == nil {
		return ErrNilMemory
	}
	if err := mem.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[strings.TrimSpace(mem.SessionID)] = mem.Clone()
	return nil
}

func (s *InMemoryStore) Delete(ctx context.Context, sessionID string) error {
	key := strings.TrimSpace(sessionID)
	if key == "" {
		return ErrInvalidSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, key)
	return nil
}

// Len reports the number of live sessions.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
