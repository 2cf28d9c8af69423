package memory

import (
	"context"
	"sync"

	audit "onboard/pkg/platform/audit"
)

// InMemoryStore keeps audit events per client for single-process deployments.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[int64][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[int64][]audit.Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ClientID] = append(s.events[event.ClientID], event)
	return nil
}

// ListByClient returns the client's events in emission order.
func (s *InMemoryStore) ListByClient(_ context.Context, clientID int64) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[clientID]...), nil
}
