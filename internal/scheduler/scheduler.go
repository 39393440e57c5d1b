// Package scheduler triggers recurring jobs by enqueueing work, never by
// running it inline. A queue outage degrades to "no scan today": the trigger
// is skipped with a debug log, the scheduling loop keeps running.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"vigil/internal/platform/config"
)

// Queue is the producer-side queue surface. Nil when no backend is
// configured.
type Queue interface {
	Produce(ctx context.Context, topic, key string, payload []byte) error
}

// Job is one entry in the registration table: a name, a target topic, a local
// fire hour, and a payload builder. Payloads carry only a timestamp marker;
// the consumer decides what the work means.
type Job struct {
	Name    string
	Topic   string
	Hour    int
	Payload func(now time.Time) ([]byte, error)
}

// Scheduler fires each registered job once per calendar day at its hour.
type Scheduler struct {
	queue  Queue
	caps   config.Capabilities
	logger *slog.Logger

	mu   sync.Mutex
	jobs []Job

	cancel context.CancelFunc
	done   chan struct{}
}

func New(queue Queue, caps config.Capabilities, logger *slog.Logger) *Scheduler {
	return &Scheduler{queue: queue, caps: caps, logger: logger}
}

// Register adds a job to the table. Call before Start.
func (s *Scheduler) Register(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
}

// Start launches the scheduling loop.
func (s *Scheduler) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx)
	return nil
}

// Stop halts the loop and waits for it to exit.
func (s *Scheduler) Stop() error {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
	return nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)
	for {
		jobs, fireAt, ok := s.nextJobs(time.Now())
		if !ok {
			return
		}
		timer := time.NewTimer(time.Until(fireAt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case now := <-timer.C:
			for _, job := range jobs {
				s.Fire(ctx, job, now)
			}
		}
	}
}

// nextJobs returns every job sharing the earliest upcoming fire time after
// now. Jobs at the same hour fire in the same cycle, so no table entry can
// shadow another.
func (s *Scheduler) nextJobs(now time.Time) ([]Job, time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.jobs) == 0 {
		return nil, time.Time{}, false
	}
	var due []Job
	var at time.Time
	for _, job := range s.jobs {
		next := nextAfter(now, job.Hour)
		switch {
		case at.IsZero() || next.Before(at):
			at = next
			due = append(due[:0], job)
		case next.Equal(at):
			due = append(due, job)
		}
	}
	return due, at, true
}

// nextAfter returns the next occurrence of the given local hour strictly
// after now.
func nextAfter(now time.Time, hour int) time.Time {
	at := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !at.After(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at
}

// Fire enqueues one job. With no queue backend the trigger is skipped
// silently; re-running a missed day is an operational concern, not handled
// here.
func (s *Scheduler) Fire(ctx context.Context, job Job, now time.Time) {
	if !s.caps.QueueAvailable || s.queue == nil {
		s.logger.DebugContext(ctx, "queue backend unavailable, skipping scheduled job",
			"job", job.Name,
		)
		return
	}
	if job.Payload == nil {
		s.logger.ErrorContext(ctx, "job registered without a payload builder",
			"job", job.Name,
		)
		return
	}

	payload, err := job.Payload(now)
	if err != nil {
		s.logger.ErrorContext(ctx, "job payload build failed",
			"job", job.Name,
			"error", err,
		)
		return
	}
	if err := s.queue.Produce(ctx, job.Topic, job.Name, payload); err != nil {
		s.logger.ErrorContext(ctx, "job enqueue failed",
			"job", job.Name,
			"error", err,
		)
		return
	}
	s.logger.InfoContext(ctx, "job enqueued",
		"job", job.Name,
		"topic", job.Topic,
	)
}
