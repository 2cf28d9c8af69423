package records

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"onboard/internal/onboarding"
	"onboard/pkg/platform/sentinel"
)

// InMemoryStore keeps clients, documents, applications and the catalog in
// maps. It backs local development and tests.
type InMemoryStore struct {
	mu           sync.RWMutex
	clients      map[onboarding.ClientID]onboarding.Client
	documents    map[onboarding.ClientID][]onboarding.Document
	applications map[onboarding.ClientID][]onboarding.Application
	catalog      []onboarding.DocumentType
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		clients:      make(map[onboarding.ClientID]onboarding.Client),
		documents:    make(map[onboarding.ClientID][]onboarding.Document),
		applications: make(map[onboarding.ClientID][]onboarding.Application),
	}
}

func (s *InMemoryStore) SaveClient(_ context.Context, c onboarding.Client) error {
	if c.ID <= 0 {
		return fmt.Errorf("client id must be positive, got %d", c.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.ID] = c
	return nil
}

// SaveDocument replaces a document with the same id or appends it.
func (s *InMemoryStore) SaveDocument(_ context.Context, d onboarding.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.documents[d.ClientID]
	for i := range docs {
		if docs[i].ID == d.ID {
			docs[i] = d
			return nil
		}
	}
	s.documents[d.ClientID] = append(docs, d)
	return nil
}

func (s *InMemoryStore) SaveApplication(_ context.Context, a onboarding.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	apps := s.applications[a.ClientID]
	for i := range apps {
		if apps[i].ID == a.ID {
			apps[i] = a
			return nil
		}
	}
	s.applications[a.ClientID] = append(apps, a)
	return nil
}

// SyncCatalog replaces the whole catalog.
func (s *InMemoryStore) SyncCatalog(_ context.Context, types []onboarding.DocumentType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = slices.Clone(types)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id onboarding.ClientID) (*onboarding.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &c, nil
}

// ListIDs returns every client id in ascending order.
func (s *InMemoryStore) ListIDs(_ context.Context) ([]onboarding.ClientID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]onboarding.ClientID, 0, len(s.clients))
	for id := range s.clients {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *InMemoryStore) ListDocuments(_ context.Context, clientID onboarding.ClientID) ([]onboarding.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := slices.Clone(s.documents[clientID])
	slices.SortFunc(docs, func(a, b onboarding.Document) int { return cmp.Compare(a.ID, b.ID) })
	return docs, nil
}

func (s *InMemoryStore) ListApplications(_ context.Context, clientID onboarding.ClientID) ([]onboarding.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	apps := slices.Clone(s.applications[clientID])
	slices.SortFunc(apps, func(a, b onboarding.Application) int { return cmp.Compare(a.ID, b.ID) })
	return apps, nil
}

func (s *InMemoryStore) ListCatalog(_ context.Context) ([]onboarding.DocumentType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.catalog), nil
}
