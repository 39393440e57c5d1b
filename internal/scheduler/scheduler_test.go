package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vigil/internal/platform/config"
)

type produced struct {
	topic   string
	key     string
	payload []byte
}

type queueRecorder struct {
	err      error
	messages []produced
}

func (q *queueRecorder) Produce(_ context.Context, topic, key string, payload []byte) error {
	if q.err != nil {
		return q.err
	}
	q.messages = append(q.messages, produced{topic: topic, key: key, payload: payload})
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNextAfter(t *testing.T) {
	loc := time.FixedZone("test", 3600)

	t.Run("before the hour fires today", func(t *testing.T) {
		now := time.Date(2026, 3, 11, 1, 30, 0, 0, loc)
		at := nextAfter(now, 2)
		assert.Equal(t, time.Date(2026, 3, 11, 2, 0, 0, 0, loc), at)
	})

	t.Run("after the hour fires tomorrow", func(t *testing.T) {
		now := time.Date(2026, 3, 11, 2, 30, 0, 0, loc)
		at := nextAfter(now, 2)
		assert.Equal(t, time.Date(2026, 3, 12, 2, 0, 0, 0, loc), at)
	})

	t.Run("exactly on the hour fires tomorrow", func(t *testing.T) {
		now := time.Date(2026, 3, 11, 2, 0, 0, 0, loc)
		at := nextAfter(now, 2)
		assert.Equal(t, time.Date(2026, 3, 12, 2, 0, 0, 0, loc), at)
	})
}

func TestNextJobsPicksEarliest(t *testing.T) {
	s := New(&queueRecorder{}, config.Capabilities{QueueAvailable: true}, testLogger())
	s.Register(Job{Name: "late", Hour: 23})
	s.Register(Job{Name: "early", Hour: 3})

	now := time.Date(2026, 3, 11, 1, 0, 0, 0, time.UTC)
	jobs, at, ok := s.nextJobs(now)
	require.True(t, ok)
	require.Len(t, jobs, 1)
	assert.Equal(t, "early", jobs[0].Name)
	assert.Equal(t, 3, at.Hour())
}

func TestNextJobsGroupsSameHour(t *testing.T) {
	s := New(&queueRecorder{}, config.Capabilities{QueueAvailable: true}, testLogger())
	s.Register(Job{Name: "scan-a", Hour: 2})
	s.Register(Job{Name: "scan-b", Hour: 2})
	s.Register(Job{Name: "late", Hour: 23})

	now := time.Date(2026, 3, 11, 1, 0, 0, 0, time.UTC)
	jobs, at, ok := s.nextJobs(now)
	require.True(t, ok)
	require.Len(t, jobs, 2)
	assert.Equal(t, "scan-a", jobs[0].Name)
	assert.Equal(t, "scan-b", jobs[1].Name)
	assert.Equal(t, 2, at.Hour())
}

func TestNextJobsEmptyTable(t *testing.T) {
	s := New(&queueRecorder{}, config.Capabilities{QueueAvailable: true}, testLogger())
	_, _, ok := s.nextJobs(time.Now())
	assert.False(t, ok)
}

func TestSameHourJobsBothFireEveryCycle(t *testing.T) {
	queue := &queueRecorder{}
	s := New(queue, config.Capabilities{QueueAvailable: true}, testLogger())

	marker := func(time.Time) ([]byte, error) { return []byte("p"), nil }
	s.Register(Job{Name: "scan-a", Topic: "vigil.scan-jobs", Hour: 2, Payload: marker})
	s.Register(Job{Name: "scan-b", Topic: "vigil.scan-jobs", Hour: 2, Payload: marker})

	// Walk several consecutive fire cycles the way the loop does: select the
	// due set, fire it, and re-select relative to the fire time.
	now := time.Date(2026, 3, 11, 1, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		jobs, at, ok := s.nextJobs(now)
		require.True(t, ok)
		for _, job := range jobs {
			s.Fire(context.Background(), job, at)
		}
		now = at
	}

	fired := make(map[string]int)
	for _, msg := range queue.messages {
		fired[msg.key]++
	}
	assert.Equal(t, 5, fired["scan-a"])
	assert.Equal(t, 5, fired["scan-b"])
}

func TestFireEnqueuesPayload(t *testing.T) {
	queue := &queueRecorder{}
	s := New(queue, config.Capabilities{QueueAvailable: true}, testLogger())

	now := time.Date(2026, 3, 11, 2, 0, 0, 0, time.UTC)
	s.Fire(context.Background(), Job{
		Name:  "daily-detection-scan",
		Topic: "vigil.scan-jobs",
		Payload: func(now time.Time) ([]byte, error) {
			return []byte(now.Format(time.RFC3339)), nil
		},
	}, now)

	require.Len(t, queue.messages, 1)
	assert.Equal(t, "vigil.scan-jobs", queue.messages[0].topic)
	assert.Equal(t, "daily-detection-scan", queue.messages[0].key)
	assert.Equal(t, "2026-03-11T02:00:00Z", string(queue.messages[0].payload))
}

func TestFireSkippedWithoutQueue(t *testing.T) {
	s := New(nil, config.Capabilities{QueueAvailable: false}, testLogger())

	// Payload must never even be built when the backend is absent.
	s.Fire(context.Background(), Job{
		Name:  "daily-detection-scan",
		Topic: "vigil.scan-jobs",
		Payload: func(time.Time) ([]byte, error) {
			t.Fatal("payload built despite missing queue backend")
			return nil, nil
		},
	}, time.Now())
}

func TestFireSurvivesFailures(t *testing.T) {
	t.Run("payload error", func(t *testing.T) {
		queue := &queueRecorder{}
		s := New(queue, config.Capabilities{QueueAvailable: true}, testLogger())
		s.Fire(context.Background(), Job{
			Name:    "j",
			Payload: func(time.Time) ([]byte, error) { return nil, errors.New("boom") },
		}, time.Now())
		assert.Empty(t, queue.messages)
	})

	t.Run("missing payload builder", func(t *testing.T) {
		queue := &queueRecorder{}
		s := New(queue, config.Capabilities{QueueAvailable: true}, testLogger())
		s.Fire(context.Background(), Job{Name: "j", Topic: "vigil.scan-jobs"}, time.Now())
		assert.Empty(t, queue.messages)
	})

	t.Run("produce error", func(t *testing.T) {
		queue := &queueRecorder{err: errors.New("broker down")}
		s := New(queue, config.Capabilities{QueueAvailable: true}, testLogger())
		s.Fire(context.Background(), Job{
			Name:    "j",
			Payload: func(time.Time) ([]byte, error) { return []byte("p"), nil },
		}, time.Now())
		assert.Empty(t, queue.messages)
	})
}

func TestStartStop(t *testing.T) {
	s := New(&queueRecorder{}, config.Capabilities{QueueAvailable: true}, testLogger())
	s.Register(Job{Name: "j", Hour: 2, Payload: func(time.Time) ([]byte, error) { return nil, nil }})

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop())
}
