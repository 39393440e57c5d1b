package detection

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"vigil/internal/integrity"
	"vigil/internal/trail"
)

// fanOutActorLimit is exclusive: an identifier is flagged only when strictly
// more than this many distinct actors queried it within the day window.
const fanOutActorLimit = 3

// lookupDetails is the slice of the platform's query-entry payload this rule
// needs. Entries without a national identifier are skipped.
type lookupDetails struct {
	NationalID string `json:"national_id"`
}

// FanOutRule flags sensitive identifiers queried by an abnormal number of
// distinct actors in one day, the signature of coordinated querying of the
// same identity record.
type FanOutRule struct {
	trail trail.Store
}

func NewFanOutRule(trailStore trail.Store) *FanOutRule {
	return &FanOutRule{trail: trailStore}
}

func (r *FanOutRule) Name() string { return "identity_fan_out" }

func (r *FanOutRule) Run(ctx context.Context, now time.Time) ([]Finding, error) {
	from, to := dayWindow(now)

	events, err := r.trail.Query(ctx, trail.Filter{
		Actions:    SensitiveLookupActions,
		EntityType: SensitiveLookupEntity,
		From:       from,
		To:         to,
	})
	if err != nil {
		return nil, fmt.Errorf("query day window: %w", err)
	}

	actorsByIdentity := make(map[string]map[string]struct{})
	for _, e := range events {
		if e.ActorID == nil || len(e.Details) == 0 {
			continue
		}
		var details lookupDetails
		if err := json.Unmarshal(e.Details, &details); err != nil || details.NationalID == "" {
			continue
		}
		if actorsByIdentity[details.NationalID] == nil {
			actorsByIdentity[details.NationalID] = make(map[string]struct{})
		}
		actorsByIdentity[details.NationalID][*e.ActorID] = struct{}{}
	}

	var findings []Finding
	for identity, actors := range actorsByIdentity {
		if len(actors) <= fanOutActorLimit {
			continue
		}
		actorIDs := make([]string, 0, len(actors))
		for actorID := range actors {
			actorIDs = append(actorIDs, actorID)
		}
		sort.Strings(actorIDs)

		findings = append(findings, Finding{
			Category: integrity.CategoryExcessiveQueries,
			Description: fmt.Sprintf(
				"National identifier %s was queried by %d distinct actors on %s.",
				identity, len(actors), from.Format("2006-01-02"),
			),
			Evidence: FanOutEvidence{IdentityRef: identity, Day: from, ActorIDs: actorIDs},
		})
	}
	return findings, nil
}
