// Package snapshot keeps the latest evaluation of each client so the console
// can render it without re-running the engine.
package snapshot

import (
	"context"
	"sync"
	"time"

	"onboard/internal/onboarding"
	"onboard/pkg/platform/sentinel"
)

type entry struct {
	evaluation onboarding.Evaluation
	expiresAt  time.Time
}

// InMemoryStore holds snapshots in a map with per-entry expiry.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[onboarding.ClientID]entry
	now     func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[onboarding.ClientID]entry),
		now:     time.Now,
	}
}

// Save stores a snapshot. A non-positive ttl keeps it until overwritten.
func (s *InMemoryStore) Save(_ context.Context, evaluation onboarding.Evaluation, ttl time.Duration) error {
	e := entry{evaluation: evaluation}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[evaluation.ClientID] = e
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, clientID onboarding.ClientID) (*onboarding.Evaluation, error) {
	s.mu.RLock()
	e, ok := s.entries[clientID]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		s.mu.Lock()
		delete(s.entries, clientID)
		s.mu.Unlock()
		return nil, sentinel.ErrNotFound
	}
	ev := e.evaluation
	return &ev, nil
}
