package detection

import (
	"context"
	"fmt"
	"time"

	"vigil/internal/directory"
	"vigil/internal/integrity"
	"vigil/internal/trail"
)

// excessiveLookupThreshold is exclusive: an actor is flagged only when its
// daily sensitive-lookup count strictly exceeds this value.
const excessiveLookupThreshold = 20

// ExcessiveLookupRule flags actors performing an abnormal number of sensitive
// record lookups within yesterday's day window.
type ExcessiveLookupRule struct {
	trail     trail.Store
	directory directory.Directory
}

func NewExcessiveLookupRule(trailStore trail.Store, dir directory.Directory) *ExcessiveLookupRule {
	return &ExcessiveLookupRule{trail: trailStore, directory: dir}
}

func (r *ExcessiveLookupRule) Name() string { return "excessive_lookups" }

func (r *ExcessiveLookupRule) Run(ctx context.Context, now time.Time) ([]Finding, error) {
	from, to := dayWindow(now)

	counts, err := r.trail.CountByActor(ctx, trail.Filter{
		Actions:    SensitiveLookupActions,
		EntityType: SensitiveLookupEntity,
		From:       from,
		To:         to,
	}, excessiveLookupThreshold)
	if err != nil {
		return nil, fmt.Errorf("count lookups by actor: %w", err)
	}

	var findings []Finding
	for _, c := range counts {
		findings = append(findings, Finding{
			Category: integrity.CategoryExcessiveQueries,
			Description: fmt.Sprintf(
				"%s performed %d sensitive record lookups on %s, exceeding the daily limit of %d.",
				describeActor(ctx, r.directory, c.ActorID), c.Count,
				from.Format("2006-01-02"), excessiveLookupThreshold,
			),
			Evidence: ExcessiveLookupEvidence{ActorID: c.ActorID, Day: from, Count: c.Count},
		})
	}
	return findings, nil
}
