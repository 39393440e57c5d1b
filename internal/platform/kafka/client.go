// Package kafka wraps the franz-go client for the job/notification queue.
// Construction is nil-safe: with no brokers configured New returns (nil, nil)
// and every dependent component degrades to a no-op.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"vigil/internal/platform/config"
)

// Client is a producer-side handle on the queue backend.
type Client struct {
	kc     *kgo.Client
	logger *slog.Logger
}

// New creates a Kafka client from the provided configuration.
// Returns nil if no brokers are configured (queue backend absent).
func New(cfg config.KafkaConfig, logger *slog.Logger) (*Client, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}

	kc, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	return &Client{kc: kc, logger: logger}, nil
}

// EnsureTopics creates the given topics if they do not already exist.
func (c *Client) EnsureTopics(ctx context.Context, topics ...string) error {
	adm := kadm.NewClient(c.kc)
	resps, err := adm.CreateTopics(ctx, 1, 1, nil, topics...)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	for _, resp := range resps.Sorted() {
		if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", resp.Topic, resp.Err)
		}
	}
	return nil
}

// Produce synchronously publishes one record. Callers treating delivery as
// best-effort are expected to log the returned error rather than surface it.
func (c *Client) Produce(ctx context.Context, topic, key string, payload []byte) error {
	record := &kgo.Record{Topic: topic, Key: []byte(key), Value: payload}
	if err := c.kc.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", topic, err)
	}
	return nil
}

// Close releases the underlying client.
func (c *Client) Close() {
	c.kc.Close()
}
