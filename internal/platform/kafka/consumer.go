package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"vigil/internal/platform/config"
)

// Message is the transport-agnostic unit handed to topic handlers.
type Message struct {
	Topic string
	Key   []byte
	Value []byte
}

// TopicHandler handles messages from a specific topic.
type TopicHandler interface {
	Handle(ctx context.Context, msg *Message) error
}

// Router dispatches messages to topic-specific handlers.
type Router struct {
	handlers map[string]TopicHandler
	logger   *slog.Logger
}

// NewRouter creates a topic router.
func NewRouter(logger *slog.Logger) *Router {
	return &Router{handlers: make(map[string]TopicHandler), logger: logger}
}

// Register adds a handler for a specific topic.
func (r *Router) Register(topic string, handler TopicHandler) {
	r.handlers[topic] = handler
}

// Topics returns the registered topic names.
func (r *Router) Topics() []string {
	topics := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		topics = append(topics, t)
	}
	return topics
}

// Handle routes the message to the appropriate topic handler.
func (r *Router) Handle(ctx context.Context, msg *Message) error {
	handler, ok := r.handlers[msg.Topic]
	if !ok {
		r.logger.WarnContext(ctx, "no handler registered for topic", "topic", msg.Topic)
		return nil
	}
	return handler.Handle(ctx, msg)
}

// Consumer polls the queue in a consumer group and feeds messages to a router.
// Handler errors are logged and the offset advances anyway: queue consumption
// is best-effort and a poison message must not wedge the group.
type Consumer struct {
	kc     *kgo.Client
	router *Router
	logger *slog.Logger
}

// NewConsumer creates a group consumer over the router's registered topics.
// Returns nil if no brokers are configured.
func NewConsumer(cfg config.KafkaConfig, router *Router, logger *slog.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}

	kc, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.ConsumerGroup),
		kgo.ConsumeTopics(router.Topics()...),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}

	return &Consumer{kc: kc, router: router, logger: logger}, nil
}

// Run polls until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.kc.Close()
	for {
		fetches := c.kc.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return ctx.Err()
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.ErrorContext(ctx, "fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})
		fetches.EachRecord(func(record *kgo.Record) {
			msg := &Message{Topic: record.Topic, Key: record.Key, Value: record.Value}
			if err := c.router.Handle(ctx, msg); err != nil {
				c.logger.ErrorContext(ctx, "message handling failed",
					"topic", record.Topic,
					"error", err,
				)
			}
		})
	}
}
