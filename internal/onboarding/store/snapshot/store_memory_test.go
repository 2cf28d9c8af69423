package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboard/internal/onboarding"
	"onboard/pkg/platform/sentinel"
)

func TestInMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	store := NewInMemoryStore()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, onboarding.Evaluation{ClientID: 1, EvaluatedAt: now}, time.Hour))
	require.NoError(t, store.Save(ctx, onboarding.Evaluation{ClientID: 2, EvaluatedAt: now}, 0))

	got, err := store.Find(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, onboarding.ClientID(1), got.ClientID)

	now = now.Add(time.Hour)
	_, err = store.Find(ctx, 1)
	assert.ErrorIs(t, err, sentinel.ErrNotFound, "expires exactly at ttl")

	now = now.Add(24 * 365 * time.Hour)
	_, err = store.Find(ctx, 2)
	assert.NoError(t, err, "no ttl keeps the snapshot")

	_, err = store.Find(ctx, 3)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStoreOverwrites(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	require.NoError(t, store.Save(ctx, onboarding.Evaluation{ClientID: 1, Progress: onboarding.OnboardingProgress{Completeness: 50}}, 0))
	require.NoError(t, store.Save(ctx, onboarding.Evaluation{ClientID: 1, Progress: onboarding.OnboardingProgress{Completeness: 83}}, 0))

	got, err := store.Find(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 83, got.Progress.Completeness)
}
