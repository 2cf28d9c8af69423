package seedfile

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboard/internal/onboarding"
	"onboard/internal/onboarding/catalogfile"
	"onboard/internal/onboarding/store/records"
	dErrors "onboard/pkg/domain-errors"
)

var loadTime = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func repoConfig(t *testing.T, name string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "config", name)
}

func TestLoadShippedSeed(t *testing.T) {
	seed, err := Load(repoConfig(t, "seed.yaml"), loadTime)
	require.NoError(t, err)
	require.Len(t, seed.Clients, 4)
	assert.Len(t, seed.Documents, 5)
	assert.Len(t, seed.Applications, 2)

	assert.Equal(t, onboarding.PersonLegalEntity, seed.Clients[1].PersonType)
	require.NotNil(t, seed.Clients[0].BirthDate)
	assert.Equal(t, 1990, seed.Clients[0].BirthDate.Year())
	assert.Equal(t, loadTime.AddDate(0, 0, -20), seed.Documents[0].SubmittedAt)

	t.Run("seeded clients evaluate end to end", func(t *testing.T) {
		types, err := catalogfile.Load(repoConfig(t, "catalog.yaml"))
		require.NoError(t, err)

		ctx := context.Background()
		store := records.NewInMemoryStore()
		require.NoError(t, store.SyncCatalog(ctx, types))
		require.NoError(t, Apply(ctx, store, seed))

		ids, err := store.ListIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []onboarding.ClientID{1, 2, 3, 4}, ids)

		client, err := store.FindByID(ctx, 1)
		require.NoError(t, err)
		docs, err := store.ListDocuments(ctx, 1)
		require.NoError(t, err)
		apps, err := store.ListApplications(ctx, 1)
		require.NoError(t, err)

		ev, err := onboarding.Evaluate(onboarding.Input{
			Client: *client, Documents: docs, Applications: apps, Catalog: types, Now: loadTime,
		})
		require.NoError(t, err)
		assert.Equal(t, 100, ev.Progress.Completeness)
		assert.Equal(t, onboarding.StageProductConfiguration, ev.Progress.Stage)
		assert.Empty(t, ev.Progress.MissingDocuments)
	})
}

func TestParseRelativeExpiry(t *testing.T) {
	body := `
clients:
  - id: 7
    person_type: individual
    documents:
      - id: 70
        type_id: 1
        status: accepted
        submitted_days_ago: 3
        expires_in_days: -1
`
	seed, err := Parse(strings.NewReader(body), loadTime)
	require.NoError(t, err)
	require.Len(t, seed.Documents, 1)
	require.NotNil(t, seed.Documents[0].ExpiresAt)
	assert.Equal(t, loadTime.AddDate(0, 0, -1), *seed.Documents[0].ExpiresAt)
	assert.Equal(t, onboarding.ClientID(7), seed.Documents[0].ClientID)
}

func TestParseRejectsBadSeeds(t *testing.T) {
	cases := map[string]string{
		"empty document":       ``,
		"zero client id":       "clients:\n  - id: 0\n    person_type: individual\n",
		"duplicate client":     "clients:\n  - id: 1\n    person_type: individual\n  - id: 1\n    person_type: individual\n",
		"unknown person type":  "clients:\n  - id: 1\n    person_type: trust\n",
		"bad birth date":       "clients:\n  - id: 1\n    person_type: individual\n    birth_date: 01/02/1990\n",
		"unknown doc status":   "clients:\n  - id: 1\n    person_type: individual\n    documents:\n      - id: 1\n        type_id: 1\n        status: lost\n",
		"duplicate doc id":     "clients:\n  - id: 1\n    person_type: individual\n    documents:\n      - id: 1\n        type_id: 1\n        status: pending\n  - id: 2\n    person_type: individual\n    documents:\n      - id: 1\n        type_id: 1\n        status: pending\n",
		"future submission":    "clients:\n  - id: 1\n    person_type: individual\n    documents:\n      - id: 1\n        type_id: 1\n        status: pending\n        submitted_days_ago: -2\n",
		"unknown app status":   "clients:\n  - id: 1\n    person_type: individual\n    applications:\n      - id: 1\n        status: open\n",
		"unknown key":          "clients:\n  - id: 1\n    person_type: individual\n    nickname: A\n",
		"non-positive type id": "clients:\n  - id: 1\n    person_type: individual\n    documents:\n      - id: 1\n        type_id: 0\n        status: pending\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(body), loadTime)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)
		})
	}
}

type failingWriter struct {
	*records.InMemoryStore
}

func (*failingWriter) SaveDocument(context.Context, onboarding.Document) error {
	return errors.New("disk full")
}

func TestApplyStopsOnWriteError(t *testing.T) {
	seed := &Seed{
		Clients:   []onboarding.Client{{ID: 1, PersonType: onboarding.PersonIndividual}},
		Documents: []onboarding.Document{{ID: 9, ClientID: 1, TypeID: 1, Status: onboarding.DocumentPending}},
	}
	w := &failingWriter{InMemoryStore: records.NewInMemoryStore()}

	err := Apply(context.Background(), w, seed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed document 9")
}
