// Package kafka builds the franz-go producer used for the audit stream.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"onboard/internal/platform/config"
)

// NewProducer connects a producer to the configured brokers. Returns nil, nil
// when no brokers are configured.
func NewProducer(ctx context.Context, cfg config.KafkaConfig, logger *slog.Logger) (*kgo.Client, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.AuditTopic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.ClientID("onboard"),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("kafka ping failed: %w", err)
	}

	if err := EnsureTopic(ctx, kadm.NewClient(client), cfg); err != nil {
		client.Close()
		return nil, err
	}
	if logger != nil {
		logger.InfoContext(ctx, "kafka producer ready", "brokers", cfg.Brokers, "topic", cfg.AuditTopic)
	}
	return client, nil
}

// TopicCreator is the subset of *kadm.Client used to bootstrap topics.
type TopicCreator interface {
	CreateTopic(ctx context.Context, partitions int32, replicationFactor int16, configs map[string]*string, topic string) (kadm.CreateTopicResponse, error)
}

// EnsureTopic creates the audit topic, treating "already exists" as success.
func EnsureTopic(ctx context.Context, admin TopicCreator, cfg config.KafkaConfig) error {
	resp, err := admin.CreateTopic(ctx, cfg.TopicPartitions, cfg.ReplicationFactor, nil, cfg.AuditTopic)
	if err == nil {
		err = resp.Err
	}
	if err != nil && !errors.Is(err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", cfg.AuditTopic, err)
	}
	return nil
}
