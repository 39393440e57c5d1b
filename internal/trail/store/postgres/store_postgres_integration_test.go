//go:build integration

package postgres_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vigil/internal/trail"
	"vigil/internal/trail/store/postgres"
	"vigil/pkg/testutil/containers"
)

type TrailStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
}

func TestTrailStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(TrailStoreSuite))
}

func (s *TrailStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = postgres.New(s.postgres.DB)
}

func (s *TrailStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "audit_trail"))
}

func (s *TrailStoreSuite) appendLookup(actorID string, at time.Time) {
	actor := actorID
	event := trail.Event{
		ActorID:    &actor,
		Action:     "create",
		EntityType: trail.SensitiveLookupEntity,
		Details:    json.RawMessage(`{"national_id":"880101-1234"}`),
		Success:    true,
		CreatedAt:  at,
	}
	s.Require().NoError(s.store.Append(context.Background(), event))
}

func (s *TrailStoreSuite) TestAppendAndQuery() {
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	s.appendLookup("officer-1", base)
	s.appendLookup("officer-2", base.Add(time.Hour))

	// Anonymous entries carry no actor.
	s.Require().NoError(s.store.Append(ctx, trail.Event{
		Action:     trail.ActionAnonymousSubmission,
		EntityType: trail.EntityIntegrityReport,
		Success:    true,
		CreatedAt:  base.Add(2 * time.Hour),
	}))

	all, err := s.store.Query(ctx, trail.Filter{})
	s.Require().NoError(err)
	s.Require().Len(all, 3)

	// Ascending creation order.
	s.True(all[0].CreatedAt.Before(all[1].CreatedAt))
	s.True(all[1].CreatedAt.Before(all[2].CreatedAt))
	s.Nil(all[2].ActorID)

	byActor, err := s.store.Query(ctx, trail.Filter{ActorID: "officer-1"})
	s.Require().NoError(err)
	s.Require().Len(byActor, 1)
	s.Equal("officer-1", *byActor[0].ActorID)
	s.JSONEq(`{"national_id":"880101-1234"}`, string(byActor[0].Details))
}

func (s *TrailStoreSuite) TestQueryWindowIsHalfOpen() {
	ctx := context.Background()
	from := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	// From is inclusive, To is exclusive.
	s.appendLookup("officer-1", from)
	s.appendLookup("officer-1", to.Add(-time.Microsecond))
	s.appendLookup("officer-1", to)
	s.appendLookup("officer-1", from.Add(-time.Microsecond))

	events, err := s.store.Query(ctx, trail.Filter{From: from, To: to})
	s.Require().NoError(err)
	s.Len(events, 2)
}

func (s *TrailStoreSuite) TestQueryByActions() {
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	s.appendLookup("officer-1", base)
	actor := "officer-1"
	s.Require().NoError(s.store.Append(ctx, trail.Event{
		ActorID:    &actor,
		Action:     "person_query_create",
		EntityType: trail.SensitiveLookupEntity,
		Success:    true,
		CreatedAt:  base.Add(time.Minute),
	}))
	s.Require().NoError(s.store.Append(ctx, trail.Event{
		ActorID:    &actor,
		Action:     "delete",
		EntityType: trail.SensitiveLookupEntity,
		Success:    true,
		CreatedAt:  base.Add(2 * time.Minute),
	}))

	events, err := s.store.Query(ctx, trail.Filter{Actions: trail.SensitiveLookupActions})
	s.Require().NoError(err)
	s.Len(events, 2)
}

func (s *TrailStoreSuite) TestCountByActorThresholdIsExclusive() {
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		s.appendLookup("busy", base.Add(time.Duration(i)*time.Minute))
	}
	for i := 0; i < 2; i++ {
		s.appendLookup("quiet", base.Add(time.Duration(i)*time.Minute))
	}

	// Anonymous rows never count toward any actor.
	s.Require().NoError(s.store.Append(ctx, trail.Event{
		Action:     trail.ActionAnonymousSubmission,
		EntityType: trail.EntityIntegrityReport,
		Success:    true,
		CreatedAt:  base,
	}))

	counts, err := s.store.CountByActor(ctx, trail.Filter{}, 2)
	s.Require().NoError(err)
	s.Require().Len(counts, 1)
	s.Equal("busy", counts[0].ActorID)
	s.Equal(3, counts[0].Count)
}
