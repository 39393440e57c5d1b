package detection

import (
	"context"
	"fmt"
	"sort"
	"time"

	"vigil/internal/directory"
	"vigil/internal/integrity"
	"vigil/internal/trail"
)

// Off-hours is the local [00:00, 05:00) band. An actor is flagged when it was
// active during that band on strictly more than offHoursDayLimit distinct
// calendar days within the trailing window. Only days matter, not event
// counts: one off-hours event marks the whole day.
const (
	offHoursEndHour    = 5
	offHoursDayLimit   = 3
	offHoursWindowDays = 7
)

// OffHoursRule flags actors with a pattern of night-time activity over the
// trailing seven days.
type OffHoursRule struct {
	trail     trail.Store
	directory directory.Directory
}

func NewOffHoursRule(trailStore trail.Store, dir directory.Directory) *OffHoursRule {
	return &OffHoursRule{trail: trailStore, directory: dir}
}

func (r *OffHoursRule) Name() string { return "off_hours_access" }

func (r *OffHoursRule) Run(ctx context.Context, now time.Time) ([]Finding, error) {
	from, to := trailingWindow(now, offHoursWindowDays)

	events, err := r.trail.Query(ctx, trail.Filter{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("query trailing window: %w", err)
	}

	daysByActor := make(map[string]map[string]struct{})
	for _, e := range events {
		if e.ActorID == nil {
			continue
		}
		local := e.CreatedAt.In(now.Location())
		if local.Hour() >= offHoursEndHour {
			continue
		}
		day := local.Format("2006-01-02")
		if daysByActor[*e.ActorID] == nil {
			daysByActor[*e.ActorID] = make(map[string]struct{})
		}
		daysByActor[*e.ActorID][day] = struct{}{}
	}

	var findings []Finding
	for actorID, days := range daysByActor {
		if len(days) <= offHoursDayLimit {
			continue
		}
		sorted := make([]string, 0, len(days))
		for day := range days {
			sorted = append(sorted, day)
		}
		sort.Strings(sorted)

		findings = append(findings, Finding{
			Category: integrity.CategoryUnauthorizedAccess,
			Description: fmt.Sprintf(
				"%s accessed the system during off-hours (00:00-05:00) on %d distinct days in the last %d days.",
				describeActor(ctx, r.directory, actorID), len(days), offHoursWindowDays,
			),
			Evidence: OffHoursEvidence{
				ActorID:     actorID,
				WindowStart: from,
				WindowEnd:   to,
				Days:        sorted,
			},
		})
	}
	return findings, nil
}
