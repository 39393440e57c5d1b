// Package directory resolves actor IDs to display identities. The officer
// directory itself is owned by another service; detection only needs a lookup
// for report readability, so absence of an entry is never fatal to a caller.
package directory

import (
	"context"
	"sync"

	"vigil/pkg/platform/sentinel"
)

// Actor is the display identity of a platform actor.
type Actor struct {
	DisplayName string
	BadgeNumber string
}

// Directory looks up display identities by actor ID.
type Directory interface {
	Resolve(ctx context.Context, actorID string) (Actor, error)
}

// Static is a map-backed directory. Production wires a client for the officer
// service here; tests and single-node deployments seed this one.
type Static struct {
	mu     sync.RWMutex
	actors map[string]Actor
}

func NewStatic(actors map[string]Actor) *Static {
	if actors == nil {
		actors = make(map[string]Actor)
	}
	return &Static{actors: actors}
}

func (s *Static) Resolve(_ context.Context, actorID string) (Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	actor, ok := s.actors[actorID]
	if !ok {
		return Actor{}, sentinel.ErrNotFound
	}
	return actor, nil
}

// Put adds or replaces an entry. Test helper.
func (s *Static) Put(actorID string, actor Actor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actors[actorID] = actor
}
