// Package trail is the read surface over the platform's append-only activity
// log, plus the narrow write path for this subsystem's own entries. Events are
// never mutated or deleted here; other services own the writer.
package trail

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Well-known actions. The platform also writes domain-prefixed variants
// (e.g. "person_query_create"); filters match by exact string.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"

	// Actions written by this subsystem.
	ActionAnonymousSubmission = "anonymous_submission"
	ActionReportUpdated       = "integrity_report_updated"
)

// EntityIntegrityReport is the entity type for this subsystem's own entries.
const EntityIntegrityReport = "integrity_report"

// Event is one row of the activity trail. ActorID and EntityID are pointers
// because some entries carry no actor (anonymous submissions) or no entity.
// Details is opaque JSON owned by whichever service wrote the entry.
type Event struct {
	ID         uuid.UUID
	ActorID    *string
	Action     string
	EntityType string
	EntityID   *string
	Details    json.RawMessage
	Success    bool
	CreatedAt  time.Time
}

// SubmissionDetails is the payload this subsystem writes for an anonymous
// report submission. It deliberately has no field for any caller identity.
type SubmissionDetails struct {
	Category string `json:"category"`
}

// UpdateDetails is the payload written when an investigator updates a report.
type UpdateDetails struct {
	ChangedFields []string `json:"changed_fields"`
	NewStatus     string   `json:"new_status,omitempty"`
}
