package ports

import (
	"context"
	"time"

	"onboard/internal/onboarding"
)

// SnapshotStore caches the latest evaluation per client.
// A ttl of zero or less keeps the entry until it is overwritten.
type SnapshotStore interface {
	Save(ctx context.Context, evaluation onboarding.Evaluation, ttl time.Duration) error
	Find(ctx context.Context, clientID onboarding.ClientID) (*onboarding.Evaluation, error)
}
