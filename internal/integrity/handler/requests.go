package handler

import (
	"time"

	"vigil/internal/integrity"
)

type submitRequest struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	EvidenceLog string `json:"evidence_log,omitempty"`
}

type submitResponse struct {
	AnonymousToken string `json:"anonymous_token"`
	Message        string `json:"message"`
}

type updateRequest struct {
	Status       *string `json:"status,omitempty"`
	AssignedToID *string `json:"assigned_to_id,omitempty"`
	Resolution   *string `json:"resolution,omitempty"`
}

// reportResponse is the full projection for oversight staff. The anonymous
// token is never echoed back out, not even here.
type reportResponse struct {
	ID              string    `json:"id"`
	Category        string    `json:"category"`
	Description     string    `json:"description"`
	EvidenceLog     string    `json:"evidence_log,omitempty"`
	SystemGenerated bool      `json:"system_generated"`
	Status          string    `json:"status"`
	AssignedToID    *string   `json:"assigned_to_id"`
	Resolution      *string   `json:"resolution"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toReportResponse(r *integrity.Report) reportResponse {
	return reportResponse{
		ID:              r.ID.String(),
		Category:        string(r.Category),
		Description:     r.Description,
		EvidenceLog:     r.EvidenceLog,
		SystemGenerated: r.SystemGenerated,
		Status:          string(r.Status),
		AssignedToID:    r.AssignedToID,
		Resolution:      r.Resolution,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}
