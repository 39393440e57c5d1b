package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"vigil/internal/configstore"
	"vigil/internal/platform/config"
	"vigil/pkg/platform/sentinel"
)

// Queue is the producer-side queue surface. Satisfied by the platform kafka
// client; nil when no backend is configured.
type Queue interface {
	Produce(ctx context.Context, topic, key string, payload []byte) error
}

// Dispatcher resolves oversight contacts and enqueues alert envelopes.
type Dispatcher struct {
	queue    Queue
	caps     config.Capabilities
	topic    string
	contacts configstore.Store
	logger   *slog.Logger
	metrics  *Metrics
}

// Option configures the Dispatcher.
type Option func(*Dispatcher)

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// NewDispatcher creates a dispatcher. queue may be nil when caps says the
// backend is absent.
func NewDispatcher(queue Queue, caps config.Capabilities, topic string, contacts configstore.Store, logger *slog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		queue:    queue,
		caps:     caps,
		topic:    topic,
		contacts: contacts,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// QueueNotification resolves the current oversight contacts and enqueues the
// alert. It never fails the caller: every failure mode degrades to a warning
// log. Contact lookup happens here, at dispatch time, so configuration
// changes take effect without draining the queue.
func (d *Dispatcher) QueueNotification(ctx context.Context, payload Payload) {
	contacts := d.resolveContacts(ctx)

	if !d.caps.QueueAvailable || d.queue == nil {
		d.logger.WarnContext(ctx, "notification queue unavailable, alert dropped",
			"type", payload.Type,
			"subject", payload.Subject,
		)
		if d.metrics != nil {
			d.metrics.Dropped.Inc()
		}
		return
	}

	envelope := Envelope{Payload: payload, Contacts: contacts, QueuedAt: time.Now()}
	body, err := json.Marshal(envelope)
	if err != nil {
		d.logger.WarnContext(ctx, "notification envelope marshal failed",
			"type", payload.Type,
			"error", err,
		)
		return
	}

	if err := d.queue.Produce(ctx, d.topic, string(payload.Type), body); err != nil {
		d.logger.WarnContext(ctx, "notification enqueue failed",
			"type", payload.Type,
			"error", err,
		)
		if d.metrics != nil {
			d.metrics.Dropped.Inc()
		}
		return
	}

	if d.metrics != nil {
		d.metrics.Queued.Inc()
	}
	d.logger.InfoContext(ctx, "notification queued",
		"type", payload.Type,
		"subject", payload.Subject,
	)
}

// resolveContacts reads the oversight destinations, tolerating both missing
// keys and store failures. A nil contact is handed downstream as-is.
func (d *Dispatcher) resolveContacts(ctx context.Context) Contacts {
	var contacts Contacts
	if d.contacts == nil {
		return contacts
	}
	contacts.Email = d.lookup(ctx, configstore.KeyOversightEmail)
	contacts.Phone = d.lookup(ctx, configstore.KeyOversightPhone)
	return contacts
}

func (d *Dispatcher) lookup(ctx context.Context, key string) *string {
	v, err := d.contacts.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			d.logger.WarnContext(ctx, "oversight contact lookup failed",
				"key", key,
				"error", err,
			)
		}
		return nil
	}
	return &v
}
