package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"vigil/internal/notify"
	"vigil/internal/platform/kafka"
)

// Sender performs one delivery attempt to the oversight contacts. The real
// email/SMS channel lives outside this repository; LogSender is the in-repo
// placeholder boundary.
type Sender interface {
	Send(ctx context.Context, envelope notify.Envelope) error
}

// LogSender records the delivery attempt in the log. The contract only
// guarantees the payload reaches an attempt, not that a message is received.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, envelope notify.Envelope) error {
	s.logger.InfoContext(ctx, "notification delivery attempt",
		"type", envelope.Payload.Type,
		"subject", envelope.Payload.Subject,
		"has_email", envelope.Contacts.Email != nil,
		"has_phone", envelope.Contacts.Phone != nil,
	)
	return nil
}

// NotificationHandler hands queued envelopes to the delivery channel.
// Delivery failures are logged and swallowed: fan-out is fire-and-forget.
type NotificationHandler struct {
	sender Sender
	logger *slog.Logger
}

func NewNotificationHandler(sender Sender, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{sender: sender, logger: logger}
}

func (h *NotificationHandler) Handle(ctx context.Context, msg *kafka.Message) error {
	var envelope notify.Envelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		h.logger.WarnContext(ctx, "malformed notification envelope dropped", "error", err)
		return nil
	}
	if err := h.sender.Send(ctx, envelope); err != nil {
		h.logger.WarnContext(ctx, "notification delivery failed",
			"type", envelope.Payload.Type,
			"error", err,
		)
	}
	return nil
}
