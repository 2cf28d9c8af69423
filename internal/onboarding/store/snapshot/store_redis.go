package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"onboard/internal/onboarding"
	"onboard/pkg/platform/sentinel"
)

const keyPrefix = "onboard:evaluation:"

// RedisStore keeps snapshots as JSON strings with a TTL, shared by every
// server instance.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func key(clientID onboarding.ClientID) string {
	return keyPrefix + strconv.FormatInt(int64(clientID), 10)
}

// Save uses SET with expiry; a non-positive ttl stores without one.
func (s *RedisStore) Save(ctx context.Context, evaluation onboarding.Evaluation, ttl time.Duration) error {
	payload, err := json.Marshal(evaluation)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, key(evaluation.ClientID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *RedisStore) Find(ctx context.Context, clientID onboarding.ClientID) (*onboarding.Evaluation, error) {
	payload, err := s.client.Get(ctx, key(clientID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find snapshot: %w", err)
	}
	var evaluation onboarding.Evaluation
	if err := json.Unmarshal(payload, &evaluation); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &evaluation, nil
}
