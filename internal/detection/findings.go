// Package detection scans bounded windows of the audit trail for behavioral
// patterns that indicate misuse of sensitive records. Rules are stateless and
// re-entrant: the same window always reproduces the same findings.
package detection

import (
	"fmt"
	"strings"
	"time"

	"vigil/internal/integrity"
)

// Trail entries that count as a sensitive record lookup. The platform writes
// both the generic create action and its domain-prefixed variant.
const (
	SensitiveLookupEntity = "person_query"
)

// SensitiveLookupActions lists the trail actions that record a lookup.
var SensitiveLookupActions = []string{"create", "person_query_create"}

// Finding is an in-memory detection result. It is consumed immediately by
// system-report creation and never persisted as its own entity.
type Finding struct {
	Category    integrity.Category
	Description string
	Evidence    Evidence
}

// Evidence is a closed variant per rule: a reconstructable pointer back into
// the audit trail, never a copy of raw rows.
type Evidence interface {
	// Ref renders the evidence as the free-text reference stored on the
	// report, sufficient to manually re-derive the finding.
	Ref() string

	isEvidence()
}

// ExcessiveLookupEvidence backs an excessive-lookups finding.
type ExcessiveLookupEvidence struct {
	ActorID string
	Day     time.Time
	Count   int
}

func (e ExcessiveLookupEvidence) Ref() string {
	return fmt.Sprintf("actor=%s day=%s lookups=%d", e.ActorID, e.Day.Format("2006-01-02"), e.Count)
}

func (ExcessiveLookupEvidence) isEvidence() {}

// OffHoursEvidence backs an off-hours-access finding.
type OffHoursEvidence struct {
	ActorID     string
	WindowStart time.Time
	WindowEnd   time.Time
	Days        []string
}

func (e OffHoursEvidence) Ref() string {
	return fmt.Sprintf("actor=%s window=%s..%s off_hours_days=%s",
		e.ActorID,
		e.WindowStart.Format("2006-01-02"),
		e.WindowEnd.Format("2006-01-02"),
		strings.Join(e.Days, ","),
	)
}

func (OffHoursEvidence) isEvidence() {}

// FanOutEvidence backs an identity fan-out finding.
type FanOutEvidence struct {
	IdentityRef string
	Day         time.Time
	ActorIDs    []string
}

func (e FanOutEvidence) Ref() string {
	return fmt.Sprintf("identity=%s day=%s actors=%s",
		e.IdentityRef,
		e.Day.Format("2006-01-02"),
		strings.Join(e.ActorIDs, ","),
	)
}

func (FanOutEvidence) isEvidence() {}

// dayWindow returns yesterday's [00:00, 24:00) local window relative to now.
func dayWindow(now time.Time) (time.Time, time.Time) {
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return end.AddDate(0, 0, -1), end
}

// trailingWindow returns the [now-days, boundary) window ending at the scan
// boundary (start of today local).
func trailingWindow(now time.Time, days int) (time.Time, time.Time) {
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return end.AddDate(0, 0, -days), end
}
