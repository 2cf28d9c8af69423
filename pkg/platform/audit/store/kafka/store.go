// Package kafka streams audit events to a topic. The store is write-only;
// downstream consumers own materialization.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "onboard/pkg/platform/audit"
	"onboard/pkg/platform/circuit"
)

// Producer is the subset of *kgo.Client the store needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

type Store struct {
	producer Producer
	topic    string
	breaker  *circuit.Breaker
}

type Option func(*Store)

// WithBreaker guards produce calls. Without one, every call reaches the broker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(s *Store) {
		s.breaker = b
	}
}

func New(producer Producer, topic string, opts ...Option) *Store {
	s := &Store{producer: producer, topic: topic}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append produces one record keyed by client id so a client's events stay
// ordered within a partition.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	key := event.ID
	if event.ClientID != 0 {
		key = strconv.FormatInt(event.ClientID, 10)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(key),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "action", Value: []byte(event.Action)},
			{Key: "category", Value: []byte(event.Category)},
		},
	}

	produce := func(ctx context.Context) error {
		return s.producer.ProduceSync(ctx, record).FirstErr()
	}
	if s.breaker == nil {
		err = produce(ctx)
	} else {
		err = s.breaker.Execute(ctx, produce)
	}
	if err != nil {
		return fmt.Errorf("produce audit event to %s: %w", s.topic, err)
	}
	return nil
}

// Retryable reports whether a produce error is worth another attempt.
func Retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, kerr.MessageTooLarge) || errors.Is(err, kerr.TopicAuthorizationFailed) {
		return false
	}
	return true
}
