// Package integrity defines the durable integrity-report entity and its
// projections. Reports enter through two paths: anonymous human submissions
// and system-generated findings from the detection engine. Neither path ever
// stores a submitter identity.
package integrity

import (
	"time"

	"github.com/google/uuid"

	dErrors "vigil/pkg/domain-errors"
)

// Category classifies what kind of misconduct a report describes.
type Category string

const (
	CategoryExcessiveQueries   Category = "EXCESSIVE_QUERIES"
	CategoryUnauthorizedAccess Category = "UNAUTHORIZED_ACCESS"
	CategoryDataAlteration     Category = "DATA_ALTERATION"
	CategoryImpersonation      Category = "IMPERSONATION"
	CategoryOther              Category = "OTHER"
)

var categories = map[Category]struct{}{
	CategoryExcessiveQueries:   {},
	CategoryUnauthorizedAccess: {},
	CategoryDataAlteration:     {},
	CategoryImpersonation:      {},
	CategoryOther:              {},
}

// ParseCategory validates a wire-level category string.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if _, ok := categories[c]; !ok {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown report category")
	}
	return c, nil
}

// Status is the report lifecycle state. The ordering OPEN → UNDER_REVIEW →
// CLOSED_* is advisory: any status may be set from any other, only enum
// membership is validated.
type Status string

const (
	StatusOpen            Status = "OPEN"
	StatusUnderReview     Status = "UNDER_REVIEW"
	StatusClosedActioned  Status = "CLOSED_ACTIONED"
	StatusClosedUnfounded Status = "CLOSED_UNFOUNDED"
)

var statuses = map[Status]struct{}{
	StatusOpen:            {},
	StatusUnderReview:     {},
	StatusClosedActioned:  {},
	StatusClosedUnfounded: {},
}

// ParseStatus validates a wire-level status string.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := statuses[st]; !ok {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown report status")
	}
	return st, nil
}

// Report is the durable integrity report. AnonymousToken is the only key a
// human submitter ever receives; it is generated from crypto/rand and carries
// no relationship to any actor identifier.
type Report struct {
	ID              uuid.UUID
	AnonymousToken  string
	Category        Category
	Description     string
	EvidenceLog     string
	SystemGenerated bool
	Status          Status
	AssignedToID    *string
	Resolution      *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TokenStatus is the minimal projection returned to an anonymous token
// holder. It must stay a strict subset of the full report: no description,
// no evidence, no assignee, no resolution.
type TokenStatus struct {
	ID        uuid.UUID `json:"id"`
	Status    Status    `json:"status"`
	Category  Category  `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TokenStatus projects the report down to the anonymous view.
func (r *Report) TokenStatus() TokenStatus {
	return TokenStatus{
		ID:        r.ID,
		Status:    r.Status,
		Category:  r.Category,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
