package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handlerRecorder struct {
	err      error
	messages []*Message
}

func (h *handlerRecorder) Handle(_ context.Context, msg *Message) error {
	h.messages = append(h.messages, msg)
	return h.err
}

func TestRouterDispatchesByTopic(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(logger)

	scans := &handlerRecorder{}
	alerts := &handlerRecorder{}
	router.Register("vigil.scan-jobs", scans)
	router.Register("vigil.notifications", alerts)

	assert.ElementsMatch(t, []string{"vigil.scan-jobs", "vigil.notifications"}, router.Topics())

	require.NoError(t, router.Handle(context.Background(), &Message{Topic: "vigil.scan-jobs", Value: []byte("a")}))
	require.NoError(t, router.Handle(context.Background(), &Message{Topic: "vigil.notifications", Value: []byte("b")}))

	require.Len(t, scans.messages, 1)
	require.Len(t, alerts.messages, 1)
	assert.Equal(t, []byte("a"), scans.messages[0].Value)
}

func TestRouterIgnoresUnknownTopic(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(logger)

	assert.NoError(t, router.Handle(context.Background(), &Message{Topic: "unknown"}))
}

func TestRouterPropagatesHandlerError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(logger)

	failing := &handlerRecorder{err: errors.New("boom")}
	router.Register("t", failing)

	assert.Error(t, router.Handle(context.Background(), &Message{Topic: "t"}))
}
