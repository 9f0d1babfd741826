package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/botflow/pkg/domain"
)

// Store implements ports.StateStore in memory.
// Safe for concurrent use. Concurrent dispatches for one conversation still race on
// read-modify-write sequences; see middleware.Serialize.
type Store struct {
	data map[string]string
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]string),
	}
}

// GetState returns the stored state of a conversation.
func (s *Store) GetState(ctx context.Context, conversationID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.data[conversationID]
	if !ok {
		return "", domain.ErrStateNotFound
	}
	return state, nil
}

// SetState stores the state of a conversation.
func (s *Store) SetState(ctx context.Context, conversationID, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[conversationID] = state
	return nil
}

// ClearState removes the state of a conversation.
func (s *Store) ClearState(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, conversationID)
	return nil
}

// List returns known conversations.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
