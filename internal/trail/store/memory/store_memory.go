package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"vigil/internal/trail"
)

// InMemoryStore keeps trail events in a slice. Used as the test fake and as
// the fallback when no postgres DSN is configured.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []trail.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event trail.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) Query(_ context.Context, filter trail.Filter) ([]trail.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []trail.Event
	for _, e := range s.events {
		if matches(e, filter) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) CountByActor(_ context.Context, filter trail.Filter, threshold int) ([]trail.ActorCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, e := range s.events {
		if e.ActorID == nil || !matches(e, filter) {
			continue
		}
		counts[*e.ActorID]++
	}

	var out []trail.ActorCount
	for actor, n := range counts {
		if n > threshold {
			out = append(out, trail.ActorCount{ActorID: actor, Count: n})
		}
	}
	return out, nil
}

// Clear removes all events. Test helper.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

func matches(e trail.Event, f trail.Filter) bool {
	if f.ActorID != "" && (e.ActorID == nil || *e.ActorID != f.ActorID) {
		return false
	}
	if len(f.Actions) > 0 && !slices.Contains(f.Actions, e.Action) {
		return false
	}
	if f.EntityType != "" && e.EntityType != f.EntityType {
		return false
	}
	if !f.From.IsZero() && e.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !e.CreatedAt.Before(f.To) {
		return false
	}
	return true
}
