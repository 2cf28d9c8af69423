package records

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"onboard/internal/onboarding"
	"onboard/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func (s *InMemoryStoreSuite) TestFindByID() {
	s.Run("missing client is not found", func() {
		_, err := s.store.FindByID(s.ctx, 42)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returns a copy", func() {
		s.Require().NoError(s.store.SaveClient(s.ctx, onboarding.Client{ID: 7, Email: "a@b.mx"}))
		c, err := s.store.FindByID(s.ctx, 7)
		s.Require().NoError(err)
		c.Email = "changed"

		again, err := s.store.FindByID(s.ctx, 7)
		s.Require().NoError(err)
		s.Equal("a@b.mx", again.Email)
	})

	s.Run("rejects non-positive ids", func() {
		s.Error(s.store.SaveClient(s.ctx, onboarding.Client{}))
	})
}

func (s *InMemoryStoreSuite) TestListIDsSorted() {
	for _, id := range []onboarding.ClientID{9, 3, 5} {
		s.Require().NoError(s.store.SaveClient(s.ctx, onboarding.Client{ID: id}))
	}
	ids, err := s.store.ListIDs(s.ctx)
	s.Require().NoError(err)
	s.Equal([]onboarding.ClientID{3, 5, 9}, ids)
}

func (s *InMemoryStoreSuite) TestDocumentsUpsertByID() {
	s.Require().NoError(s.store.SaveDocument(s.ctx, onboarding.Document{ID: 2, ClientID: 1, Status: onboarding.DocumentPending}))
	s.Require().NoError(s.store.SaveDocument(s.ctx, onboarding.Document{ID: 1, ClientID: 1, Status: onboarding.DocumentPending}))
	s.Require().NoError(s.store.SaveDocument(s.ctx, onboarding.Document{ID: 2, ClientID: 1, Status: onboarding.DocumentAccepted}))
	s.Require().NoError(s.store.SaveDocument(s.ctx, onboarding.Document{ID: 3, ClientID: 8}))

	docs, err := s.store.ListDocuments(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(docs, 2)
	s.Equal(onboarding.DocumentID(1), docs[0].ID)
	s.Equal(onboarding.DocumentAccepted, docs[1].Status)

	none, err := s.store.ListDocuments(s.ctx, 99)
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *InMemoryStoreSuite) TestApplicationsAndCatalog() {
	s.Require().NoError(s.store.SaveApplication(s.ctx, onboarding.Application{ID: 1, ClientID: 4, Status: onboarding.ApplicationPending}))
	s.Require().NoError(s.store.SaveApplication(s.ctx, onboarding.Application{ID: 1, ClientID: 4, Status: onboarding.ApplicationApproved}))

	apps, err := s.store.ListApplications(s.ctx, 4)
	s.Require().NoError(err)
	s.Require().Len(apps, 1)
	s.Equal(onboarding.ApplicationApproved, apps[0].Status)

	types := []onboarding.DocumentType{{ID: 1, Name: "Official identification"}}
	s.Require().NoError(s.store.SyncCatalog(s.ctx, types))
	types[0].Name = "mutated"

	got, err := s.store.ListCatalog(s.ctx)
	s.Require().NoError(err)
	s.Equal("Official identification", got[0].Name)
}
