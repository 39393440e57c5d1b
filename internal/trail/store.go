package trail

import (
	"context"
	"time"
)

// Filter bounds a trail query. Zero values mean "any". From is inclusive,
// To exclusive, matching the platform's half-open window convention.
type Filter struct {
	ActorID    string
	Actions    []string
	EntityType string
	From       time.Time
	To         time.Time
}

// ActorCount is one row of the grouped-by-actor aggregate.
type ActorCount struct {
	ActorID string
	Count   int
}

// Store is interface-driven so detection logic stays testable against the
// in-memory implementation while production reads go through postgres.
type Store interface {
	// Append writes one event. Only this subsystem's own entries go through
	// here; the platform's writer owns everything else.
	Append(ctx context.Context, event Event) error

	// Query returns matching events ordered by CreatedAt ascending.
	Query(ctx context.Context, filter Filter) ([]Event, error)

	// CountByActor groups matching events by actor and returns actors whose
	// count strictly exceeds threshold. Events without an actor are skipped.
	CountByActor(ctx context.Context, filter Filter, threshold int) ([]ActorCount, error)
}
